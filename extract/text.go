package extract

import (
	"os"
)

// extractText reads a plain-text or markdown file as UTF-8. Control
// characters are stripped and blank-line runs collapsed by the Normalize
// pass in the dispatcher; this extractor only gets the bytes off disk.
func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", wrapf(KindUnreadable, err, "read %s", path)
	}
	return string(data), nil
}
