package extract

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/knowbase/horosafe"
)

// fetcher performs bounded HTTP GETs with SSRF protection on redirects.
type fetcher struct {
	client      *http.Client
	maxBytes    int64
	userAgent   string
	validateURL func(string) error
}

func newFetcher(cfg Config) *fetcher {
	validate := cfg.URLValidator
	return &fetcher{
		client: &http.Client{
			Timeout: cfg.FetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				if err := validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked (SSRF): %w", err)
				}
				return nil
			},
		},
		maxBytes:    cfg.MaxFetchBytes,
		userAgent:   cfg.UserAgent,
		validateURL: validate,
	}
}

// get retrieves a URL body, capped at maxBytes.
func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if err := f.validateURL(url); err != nil {
		return nil, fmt.Errorf("URL blocked (SSRF): %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := horosafe.LimitedReadAll(resp.Body, f.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// sanitizer strips script/style blocks, event handlers, and everything else
// that is not content, while keeping the structural tags the markdown
// converter understands.
var sanitizer = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowTables()
	return p
}()

// mdConverter renders sanitized HTML as markdown-ish text, preserving
// heading, list, and table structure for downstream LLM consumption.
var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// extractWebsite fetches a URL and converts the page to normalized text.
// A bare host gets the https scheme prepended.
func (p *Pipeline) extractWebsite(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", failf(KindMissing, "website document has no URL")
	}
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}

	p.logger.Debug("extract: website", "url", url)

	body, err := p.fetcher.get(ctx, url)
	if err != nil {
		return "", wrapf(KindFetch, err, "fetch %s", url)
	}

	return p.htmlToText(body)
}

// extractHTMLFile runs an uploaded .html file through the same
// sanitize-and-convert path as a fetched page.
func (p *Pipeline) extractHTMLFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", wrapf(KindUnreadable, err, "read %s", path)
	}
	return p.htmlToText(data)
}

// htmlToText sanitizes raw HTML and converts it to text via the markdown
// converter, falling back to a plain DOM text walk when conversion yields
// nothing usable (severely malformed markup).
func (p *Pipeline) htmlToText(raw []byte) (string, error) {
	clean := sanitizer.SanitizeBytes(raw)

	text, err := mdConverter.ConvertString(string(clean))
	if err != nil || strings.TrimSpace(text) == "" {
		if fallback := collectVisibleText(raw); fallback != "" {
			return Normalize(fallback), nil
		}
		if err != nil {
			return "", wrapf(KindCorrupt, err, "html conversion")
		}
		return "", nil
	}

	return Normalize(text), nil
}
