package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	pipe := New(Config{})

	tests := []struct {
		path   string
		format Format
	}{
		{"doc.pdf", FormatPDF},
		{"doc.txt", FormatTXT},
		{"doc.text", FormatTXT},
		{"doc.docx", FormatDocx},
		{"doc.md", FormatMD},
		{"doc.markdown", FormatMD},
		{"doc.html", FormatHTML},
		{"doc.htm", FormatHTML},
		{"DOC.PDF", FormatPDF},
	}

	for _, tt := range tests {
		f, err := pipe.Detect(tt.path)
		if err != nil {
			t.Errorf("Detect(%q): %v", tt.path, err)
			continue
		}
		if f != tt.format {
			t.Errorf("Detect(%q) = %q, want %q", tt.path, f, tt.format)
		}
	}
}

func TestDetectRejectsLegacyDoc(t *testing.T) {
	// WHAT: .doc is refused with an unsupported error, not routed to the
	// docx parser.
	// WHY: Legacy .doc is OLE2, not a zip archive; the OOXML path would
	// produce garbage or a confusing corrupt error.
	pipe := New(Config{})
	_, err := pipe.Detect("report.doc")
	if err == nil {
		t.Fatal("expected error for .doc")
	}
	if KindOf(err) != KindUnsupported {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindUnsupported)
	}
	if !strings.Contains(err.Error(), ".docx") {
		t.Fatalf("error should point at .docx conversion: %v", err)
	}
}

func TestDetectUnsupported(t *testing.T) {
	pipe := New(Config{})
	_, err := pipe.Detect("file.xyz")
	if KindOf(err) != KindUnsupported {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindUnsupported)
	}
}

func TestExtractTextSource(t *testing.T) {
	pipe := New(Config{})

	text, err := pipe.Extract(context.Background(), TextSource{Content: "  hello world  \n"})
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello world" {
		t.Fatalf("got %q", text)
	}

	_, err = pipe.Extract(context.Background(), TextSource{Content: "   \n\t"})
	if KindOf(err) != KindMissing {
		t.Fatalf("empty content: kind = %q, want %q", KindOf(err), KindMissing)
	}
}

func TestExtractTXTFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	os.WriteFile(path, []byte("line one\r\nline two\n\n\n\nline three\n"), 0644)

	pipe := New(Config{})
	text, err := pipe.Extract(context.Background(), FileSource{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if text != "line one\nline two\n\nline three" {
		t.Fatalf("got %q", text)
	}
}

func TestExtractFileMissing(t *testing.T) {
	pipe := New(Config{})

	_, err := pipe.Extract(context.Background(), FileSource{Path: "/nonexistent/file.txt"})
	if KindOf(err) != KindUnreadable {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindUnreadable)
	}

	_, err = pipe.Extract(context.Background(), FileSource{})
	if KindOf(err) != KindMissing {
		t.Fatalf("empty path: kind = %q, want %q", KindOf(err), KindMissing)
	}
}

func TestExtractFileTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	os.WriteFile(path, []byte(strings.Repeat("x", 128)), 0644)

	pipe := New(Config{MaxFileSize: 64})
	_, err := pipe.Extract(context.Background(), FileSource{Path: path})
	if KindOf(err) != KindTooLarge {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindTooLarge)
	}
}

func TestExtractImageSource(t *testing.T) {
	// WHAT: Image documents are rejected as unsupported.
	// WHY: OCR is an external concern; silently returning empty text would
	// mark the document completed with no content.
	pipe := New(Config{})
	_, err := pipe.Extract(context.Background(), ImageSource{Path: "scan.png"})
	if KindOf(err) != KindUnsupported {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindUnsupported)
	}
}

func TestExtractCancelledContext(t *testing.T) {
	pipe := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pipe.Extract(ctx, TextSource{Content: "hello"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestErrorKinds(t *testing.T) {
	err := failf(KindCorrupt, "broken: %s", "header")
	var e *Error
	if !errors.As(err, &e) {
		t.Fatal("failf should produce *Error")
	}
	if e.Kind != KindCorrupt {
		t.Fatalf("kind = %q", e.Kind)
	}

	wrapped := wrapf(KindFetch, errors.New("connection refused"), "fetch %s", "example.com")
	if KindOf(wrapped) != KindFetch {
		t.Fatalf("kind = %q", KindOf(wrapped))
	}
	if !strings.Contains(wrapped.Error(), "connection refused") {
		t.Fatalf("cause not surfaced: %v", wrapped)
	}

	if KindOf(errors.New("plain")) != "" {
		t.Fatal("plain errors have no kind")
	}
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	want := map[string]bool{".pdf": true, ".txt": true, ".docx": true, ".md": true, ".html": true}
	for w := range want {
		found := false
		for _, e := range exts {
			if e == w {
				found = true
			}
		}
		if !found {
			t.Errorf("missing extension %s", w)
		}
	}
	for _, e := range exts {
		if e == ".doc" {
			t.Error(".doc must not be advertised as supported")
		}
	}
}
