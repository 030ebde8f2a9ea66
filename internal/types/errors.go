package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNoProductCards = errors.New("no product cards found on any listing page")
	ErrTooManyHops    = errors.New("redirect hop limit exceeded")
)

// InvalidSourceError marks a URL the asset fetcher refuses to touch:
// relative, protocol-relative, or a non-HTTP scheme. Callers must
// resolve such URLs before fetching.
type InvalidSourceError struct {
	URL string
}

func (e *InvalidSourceError) Error() string {
	return fmt.Sprintf("invalid source URL %q: must be absolute http(s)", e.URL)
}

// FetchFailedError is a terminal non-2xx response for an asset.
// Local to one asset, never fatal to the run.
type FetchFailedError struct {
	URL        string
	StatusCode int
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetch failed for %s: HTTP %d", e.URL, e.StatusCode)
}

// NetworkError is a network-level asset retrieval failure (DNS,
// connection reset, timeout, redirect loop).
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NavigationError is a single page that failed to load in the browser
// session. Timeout distinguishes a navigation timeout from other
// failures. Caught at the item boundary and converted into a
// degenerate record so the run continues.
type NavigationError struct {
	URL     string
	Err     error
	Timeout bool
}

func (e *NavigationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("navigation timeout for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("navigation error for %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// StartupError wraps a failure to create the browser session itself.
// This alone is unrecoverable and terminates the run.
type StartupError struct {
	Err error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("browser session startup failed: %v", e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }
