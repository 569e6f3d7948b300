package knowledge

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/knowbase/dbopen"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := dbopen.OpenMemory(t)
	svc, err := New(db, &Config{
		Monitor: MonitorConfig{
			SweepInterval:   10 * time.Millisecond,
			DocumentTimeout: 5 * time.Second,
		},
	}, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestAddDocumentValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		doc  *Document
	}{
		{"text without content", &Document{DocType: TypeText}},
		{"text with file path", &Document{DocType: TypeText, Content: "x", FilePath: "/tmp/x"}},
		{"file without path", &Document{DocType: TypeFile}},
		{"file with url", &Document{DocType: TypeFile, FilePath: "/tmp/x", WebsiteURL: "https://x"}},
		{"website without url", &Document{DocType: TypeWebsite}},
		{"unknown type", &Document{DocType: "carrier-pigeon", Content: "x"}},
	}
	for _, tt := range tests {
		err := svc.AddDocument(ctx, "acct_1", tt.doc)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", tt.name, err)
		}
	}

	// Bad account identifier.
	err := svc.AddDocument(ctx, "../../etc", &Document{DocType: TypeText, Content: "x"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("traversal account: err = %v", err)
	}
}

func TestAddDocumentDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	d := &Document{DocType: TypeText, Content: "Return policy: 30 days."}
	if err := svc.AddDocument(ctx, "acct_1", d); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(d.ID, "doc_") {
		t.Errorf("id = %q, want doc_ prefix", d.ID)
	}
	if d.Status != StatusPending {
		t.Errorf("status = %q", d.Status)
	}
	if d.Name == "" {
		t.Error("name not derived from content")
	}
}

func TestProcessDocumentText(t *testing.T) {
	// WHAT: A text document processes end to end: pending → processing →
	// completed, content trimmed, attempt logged.
	svc := newTestService(t)
	ctx := context.Background()

	d := &Document{DocType: TypeText, Content: "  shipping takes 3 days  "}
	if err := svc.AddDocument(ctx, "acct_1", d); err != nil {
		t.Fatal(err)
	}

	if err := svc.ProcessDocument(ctx, d.ID); err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetDocument(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %q (%s)", got.Status, got.ErrorMessage)
	}
	if got.Content != "shipping takes 3 days" {
		t.Errorf("content = %q", got.Content)
	}
	if got.Progress != 100 {
		t.Errorf("progress = %d", got.Progress)
	}

	history, err := svc.IngestHistory(ctx, d.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Status != "ok" {
		t.Fatalf("history = %+v", history)
	}
}

func TestProcessDocumentFile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "faq.txt")
	os.WriteFile(path, []byte("Q: how to reset?\r\nA: hold the button.\n"), 0644)

	d := &Document{DocType: TypeFile, FilePath: path}
	if err := svc.AddDocument(ctx, "acct_1", d); err != nil {
		t.Fatal(err)
	}
	if err := svc.ProcessDocument(ctx, d.ID); err != nil {
		t.Fatal(err)
	}

	got, _ := svc.GetDocument(ctx, d.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("status = %q (%s)", got.Status, got.ErrorMessage)
	}
	if strings.Contains(got.Content, "\r") {
		t.Error("carriage returns survived normalization")
	}
}

func TestProcessDocumentFailure(t *testing.T) {
	// WHAT: An unreadable file fails the document with a recorded message,
	// and a reset makes it processable again.
	svc := newTestService(t)
	ctx := context.Background()

	d := &Document{DocType: TypeFile, FilePath: "/nonexistent/manual.pdf"}
	if err := svc.AddDocument(ctx, "acct_1", d); err != nil {
		t.Fatal(err)
	}
	if err := svc.ProcessDocument(ctx, d.ID); err != nil {
		t.Fatal(err)
	}

	got, _ := svc.GetDocument(ctx, d.ID)
	if got.Status != StatusError {
		t.Fatalf("status = %q", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Fatal("error message empty")
	}
	if strings.Contains(got.Content, "error") {
		t.Error("error prose leaked into content")
	}

	// Not pending anymore: a second direct process is refused.
	if err := svc.ProcessDocument(ctx, d.ID); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("err = %v, want ErrAlreadyClaimed", err)
	}

	if err := svc.ResetDocument(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = svc.GetDocument(ctx, d.ID)
	if got.Status != StatusPending || got.ErrorMessage != "" {
		t.Fatalf("after reset: %q %q", got.Status, got.ErrorMessage)
	}
}

func TestProcessDocumentImage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	d := &Document{DocType: TypeImage, FilePath: "/tmp/scan.png"}
	if err := svc.AddDocument(ctx, "acct_1", d); err != nil {
		t.Fatal(err)
	}
	svc.ProcessDocument(ctx, d.ID)

	got, _ := svc.GetDocument(ctx, d.ID)
	if got.Status != StatusError {
		t.Fatalf("status = %q", got.Status)
	}
	if !strings.Contains(got.ErrorMessage, "OCR") {
		t.Fatalf("error_message = %q", got.ErrorMessage)
	}
}

func TestMarkIndexedFlow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	d := &Document{DocType: TypeText, Content: "indexed content"}
	svc.AddDocument(ctx, "acct_1", d)

	// Pending documents cannot be marked indexed.
	if err := svc.MarkIndexed(ctx, d.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}

	svc.ProcessDocument(ctx, d.ID)
	if err := svc.MarkIndexed(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := svc.GetDocument(ctx, d.ID)
	if got.Status != StatusIndexed {
		t.Fatalf("status = %q", got.Status)
	}
}

func TestUpdateDocumentForcesReprocessing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	d := &Document{DocType: TypeText, Content: "v1"}
	svc.AddDocument(ctx, "acct_1", d)
	svc.ProcessDocument(ctx, d.ID)

	d.Content = "v2"
	if err := svc.UpdateDocument(ctx, d); err != nil {
		t.Fatal(err)
	}
	got, _ := svc.GetDocument(ctx, d.ID)
	if got.Status != StatusPending {
		t.Fatalf("status = %q", got.Status)
	}
	if got.Revision != 1 {
		t.Fatalf("revision = %d", got.Revision)
	}

	// Type is immutable.
	d.DocType = TypeWebsite
	d.WebsiteURL = "https://example.com"
	d.Content = ""
	if err := svc.UpdateDocument(ctx, d); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("type change: err = %v", err)
	}
}

func TestCategories(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.AddCategory(ctx, "acct_1", "  Manuals  ")
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "Manuals" {
		t.Errorf("name = %q", c.Name)
	}

	if _, err := svc.AddCategory(ctx, "acct_1", "Manuals"); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("dup: err = %v", err)
	}
	if _, err := svc.AddCategory(ctx, "acct_1", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty: err = %v", err)
	}

	d := &Document{DocType: TypeText, Content: "doc"}
	svc.AddDocument(ctx, "acct_1", d)
	if err := svc.AssignCategory(ctx, d.ID, c.ID); err != nil {
		t.Fatal(err)
	}
	cats, err := svc.DocumentCategories(ctx, d.ID)
	if err != nil || len(cats) != 1 {
		t.Fatalf("categories = %+v, %v", cats, err)
	}
	if err := svc.UnassignCategory(ctx, d.ID, c.ID); err != nil {
		t.Fatal(err)
	}
	cats, _ = svc.DocumentCategories(ctx, d.ID)
	if len(cats) != 0 {
		t.Fatalf("unassign left %+v", cats)
	}
}

func TestStats(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, content := range []string{"a", "b"} {
		svc.AddDocument(ctx, "acct_1", &Document{DocType: TypeText, Content: content})
	}
	d := &Document{DocType: TypeText, Content: "c"}
	svc.AddDocument(ctx, "acct_1", d)
	svc.ProcessDocument(ctx, d.ID)

	stats, err := svc.Stats(ctx, "acct_1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Pending != 2 || stats.Completed != 1 || stats.Total != 3 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.GetDocument(context.Background(), "doc_nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}
