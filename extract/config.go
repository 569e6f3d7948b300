package extract

import (
	"log/slog"
	"time"

	"github.com/hazyhaar/knowbase/horosafe"
)

// Config configures the extraction pipeline.
type Config struct {
	// MaxFileSize is the maximum file size to process (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// FetchTimeout bounds a single website fetch (default: 30s).
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout"`

	// MaxFetchBytes caps a website response body (default: 10 MB).
	MaxFetchBytes int64 `json:"max_fetch_bytes" yaml:"max_fetch_bytes"`

	// UserAgent sent with website fetches.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// URLValidator validates URLs before fetch (SSRF prevention).
	// Default: horosafe.ValidateURL.
	URLValidator func(string) error `json:"-" yaml:"-"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 30 * time.Second
	}
	if c.MaxFetchBytes <= 0 {
		c.MaxFetchBytes = 10 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "knowbase/1.0"
	}
	if c.URLValidator == nil {
		c.URLValidator = horosafe.ValidateURL
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
