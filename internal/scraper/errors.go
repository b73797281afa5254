package scraper

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks invalid session or search parameters. It is the only
// run-fatal error class; it surfaces before any task is spawned.
var ErrConfiguration = errors.New("invalid configuration")

// ErrTransientFetch marks a single failed fetch attempt. Site tasks retry it
// up to their budget; it never propagates as a run-level failure.
var ErrTransientFetch = errors.New("transient fetch error")

func configError(reason string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, reason)
}

// TransientFetchError wraps a provider failure so callers can classify it
// with errors.Is while keeping the cause.
func TransientFetchError(site Site, cause error) error {
	return fmt.Errorf("%w: site %s: %v", ErrTransientFetch, site, cause)
}
