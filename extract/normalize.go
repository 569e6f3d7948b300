package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// Normalize applies the shared post-processing contract every extractor
// output must satisfy: no carriage returns, no form feeds, no control
// characters other than tab and newline, no run of three or more
// consecutive newlines, and no leading/trailing whitespace.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")
	text = stripControl(text)
	text = collapseBlankLines(text)
	return strings.TrimSpace(text)
}

// stripControl removes non-printable control and zero-width characters,
// keeping tab and newline.
func stripControl(text string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\t':
			return r
		case '\u200b', '\u200c', '\u200d', '\ufeff', '\u00ad':
			return -1
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}

var blankRunRe = regexp.MustCompile(`\n[ \t]*\n([ \t]*\n)+`)

// collapseBlankLines reduces runs of 3+ newlines to exactly two, tolerating
// whitespace-only lines inside the run.
func collapseBlankLines(text string) string {
	return blankRunRe.ReplaceAllString(text, "\n\n")
}

var multiSpaceRe = regexp.MustCompile(`\s+`)

// CollapseWhitespace reduces all whitespace runs to single spaces and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(s, " "))
}

// DedupLines removes lines that already appeared earlier in the text,
// comparing exact string content and keeping the first occurrence in order.
// Blank lines are kept as paragraph separators.
func DedupLines(text string) string {
	seen := make(map[string]bool)
	var out []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			out = append(out, line)
			continue
		}
		if seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
