// CLAUDE:SUMMARY Core extraction pipeline that dispatches by source kind and format (pdf, txt, docx, md, html, website).
// Package extract converts heterogeneous document sources into normalized
// UTF-8 text for knowledge-base ingestion.
//
// Supported sources:
//   - inline text — trimmed passthrough
//   - uploaded files: .pdf, .txt, .docx, .md, .html
//   - live websites — bounded HTTP GET, sanitize, markdown conversion
//
// Every extractor upholds the Normalize contract: no carriage returns, no
// run of three or more newlines, trimmed output. Failure is always a typed
// *Error; error prose never travels through the text channel.
//
// Usage:
//
//	pipe := extract.New(extract.Config{})
//	text, err := pipe.Extract(ctx, extract.FileSource{Path: "/data/manual.pdf"})
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Pipeline is the document extraction engine.
type Pipeline struct {
	cfg     Config
	logger  *slog.Logger
	fetcher *fetcher
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:     cfg,
		logger:  cfg.Logger,
		fetcher: newFetcher(cfg),
	}
}

// Detect returns the file format based on extension (case-insensitive).
// Legacy binary .doc is rejected outright: it is not OOXML and routing it
// through the docx parser produces garbage.
func (p *Pipeline) Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".txt", ".text":
		return FormatTXT, nil
	case ".docx":
		return FormatDocx, nil
	case ".md", ".markdown":
		return FormatMD, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".doc":
		return "", failf(KindUnsupported, "legacy .doc is not supported, convert to .docx")
	default:
		return "", failf(KindUnsupported, "unsupported file extension %q", ext)
	}
}

// Extract routes a source to the matching extractor and returns normalized
// text. All failures are typed *Error values; a panicking parser is
// recovered and reported as a corrupt source.
func (p *Pipeline) Extract(ctx context.Context, src Source) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("extract: parser panic", "kind", src.sourceKind(), "panic", r)
			text = ""
			err = failf(KindCorrupt, "parser panic: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch s := src.(type) {
	case TextSource:
		if strings.TrimSpace(s.Content) == "" {
			return "", failf(KindMissing, "text document has no content")
		}
		return strings.TrimSpace(s.Content), nil
	case FileSource:
		return p.extractFile(ctx, s.Path)
	case WebsiteSource:
		return p.extractWebsite(ctx, s.URL)
	case ImageSource:
		return "", failf(KindUnsupported, "image documents require external OCR")
	default:
		return "", failf(KindUnsupported, "unknown source variant %T", src)
	}
}

// extractFile dispatches on the file extension.
func (p *Pipeline) extractFile(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", failf(KindMissing, "file document has no path")
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", wrapf(KindUnreadable, err, "stat %s", path)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return "", failf(KindTooLarge, "file %s is %d bytes (max %d)", path, info.Size(), p.cfg.MaxFileSize)
	}

	format, err := p.Detect(path)
	if err != nil {
		return "", err
	}

	p.logger.Debug("extract: file", "path", path, "format", format)

	var raw string
	switch format {
	case FormatPDF:
		var quality *Quality
		raw, quality, err = extractPDF(path)
		if err == nil && quality != nil && quality.NeedsOCR() {
			p.logger.Warn("extract: pdf likely needs OCR",
				"path", path,
				"chars_per_page", fmt.Sprintf("%.1f", quality.CharsPerPage),
				"printable_ratio", fmt.Sprintf("%.2f", quality.PrintableRatio))
		}
	case FormatTXT, FormatMD:
		raw, err = extractText(path)
	case FormatDocx:
		raw, err = extractDocx(path)
	case FormatHTML:
		raw, err = p.extractHTMLFile(path)
	default:
		return "", failf(KindUnsupported, "no extractor for format %q", format)
	}
	if err != nil {
		return "", err
	}

	return Normalize(raw), nil
}
