package scraper

import (
	"context"
	"time"
)

// FetchRequest asks a provider for one page of records.
type FetchRequest struct {
	Site   Site
	Params ScrapeParams
	// Offset is the index of the first record wanted.
	Offset int
	// Limit caps the page size; providers may return fewer records.
	Limit int
}

// Fetcher retrieves a single page of job records from a provider. A returned
// error is treated as transient; retry and backoff are the caller's concern.
type Fetcher interface {
	FetchPage(ctx context.Context, req FetchRequest) ([]JobRecord, error)
}

// Sink accepts the final aggregated result for durable export.
type Sink interface {
	Export(ctx context.Context, result AggregatedResult) error
}

// Sleeper blocks the calling task for a computed delay. Implementations must
// return early when the context finishes (useful for testing pacing without
// wall-clock waits).
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration)
}
