package extract

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb", "a\nb"},
		{"bare cr", "a\rb", "a\nb"},
		{"form feed", "page one\fpage two", "page one\npage two"},
		{"trim", "  hello  \n", "hello"},
		{"blank run", "a\n\n\n\nb", "a\n\nb"},
		{"blank run with spaces", "a\n  \n\t\n \nb", "a\n\nb"},
		{"two newlines kept", "a\n\nb", "a\n\nb"},
		{"empty", "   \n\n  ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("%s: Normalize(%q) = %q, want %q", tt.name, tt.in, got, tt.want)
		}
	}
}

func TestNormalizeStripsControl(t *testing.T) {
	// WHAT: Control and zero-width characters are removed, tab and newline kept.
	// WHY: PDF extraction leaks NUL and escape bytes; zero-width runes break
	// downstream chunking and search.
	in := "a\x00b\x1bc\u200bd\te\nf"
	got := Normalize(in)
	if got != "abcd\te\nf" {
		t.Fatalf("got %q", got)
	}

	// A BOM anywhere in extracted text is stripped like any other
	// zero-width rune.
	if got := Normalize("\ufeffhello\ufeff world"); got != "hello world" {
		t.Fatalf("bom: got %q", got)
	}
}

func TestNormalizeNeverThreeNewlines(t *testing.T) {
	in := strings.Repeat("para\n\n\n\n\n", 10)
	if strings.Contains(Normalize(in), "\n\n\n") {
		t.Fatal("normalized text contains a run of three newlines")
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := CollapseWhitespace("  a \t b\n\nc  "); got != "a b c" {
		t.Fatalf("got %q", got)
	}
}

func TestDedupLines(t *testing.T) {
	// WHAT: Repeated lines keep only their first occurrence; blanks survive.
	// WHY: The docx extractor concatenates a structured and a flat pass over
	// the same XML, so every paragraph appears twice before dedup.
	in := "## Title ##\nbody text\n\nTitle\nbody text\nunique tail"
	got := DedupLines(in)
	if strings.Count(got, "body text") != 1 {
		t.Fatalf("expected one occurrence of body text, got %q", got)
	}
	if !strings.Contains(got, "unique tail") {
		t.Fatalf("lost unique line: %q", got)
	}
	if !strings.Contains(got, "\n\n") {
		t.Fatalf("blank separator dropped: %q", got)
	}
}
