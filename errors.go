package main

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures at external-call boundaries so callers apply
// one downgrade policy instead of re-deriving it per call site.
type ErrorKind int

const (
	// ErrSourceUnavailable covers network errors, timeouts and non-success
	// statuses from the open-data API or the scraped pages.
	ErrSourceUnavailable ErrorKind = iota

	// ErrParseMismatch means the expected markup or JSON structure was absent.
	ErrParseMismatch

	// ErrIdentifierUnresolved means neither the embedded id nor the API lookup
	// produced an identifier for a scraped item.
	ErrIdentifierUnresolved

	// ErrScrapeExhausted means the agenda page itself could not be fetched, or
	// no items survived the scrape. The cache treats it as cause for fallback.
	ErrScrapeExhausted

	// ErrStorageFailure is a durable read or write failure.
	ErrStorageFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSourceUnavailable:
		return "source unavailable"
	case ErrParseMismatch:
		return "parse mismatch"
	case ErrIdentifierUnresolved:
		return "identifier unresolved"
	case ErrScrapeExhausted:
		return "scrape exhausted"
	case ErrStorageFailure:
		return "storage failure"
	default:
		return "unknown"
	}
}

// FetchError carries a classified kind alongside the underlying cause.
type FetchError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// fetchErr builds a classified error for an external-call boundary.
func fetchErr(kind ErrorKind, op string, err error) *FetchError {
	return &FetchError{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the classification from an error chain. The second return
// is false for unclassified errors.
func KindOf(err error) (ErrorKind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}
