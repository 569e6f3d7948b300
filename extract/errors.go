package extract

import (
	"errors"
	"fmt"
)

// Kind classifies an extraction failure.
type Kind string

const (
	// KindUnsupported — the declared type or file extension has no extractor.
	KindUnsupported Kind = "unsupported"
	// KindMissing — the source locator (path, URL, content) is absent.
	KindMissing Kind = "missing"
	// KindUnreadable — the file exists but cannot be read.
	KindUnreadable Kind = "unreadable"
	// KindCorrupt — the file was read but its structure cannot be parsed.
	KindCorrupt Kind = "corrupt"
	// KindFetch — the website could not be fetched.
	KindFetch Kind = "fetch"
	// KindTooLarge — the source exceeds the configured size limit.
	KindTooLarge Kind = "too_large"
)

// Error is a typed extraction failure. Failure reasons travel here, never
// embedded in the returned text, so callers cannot mistake an error
// description for extracted content.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("extract: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// failf builds an *Error with a formatted message.
func failf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// wrapf builds an *Error wrapping an underlying cause.
func wrapf(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the failure kind of err, or "" if err is not an extraction
// Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
