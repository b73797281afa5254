// Package worker implements the per-site pagination and retry loop.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jobsparser/jobsparser/internal/backoff"
	"github.com/jobsparser/jobsparser/internal/progress"
	"github.com/jobsparser/jobsparser/internal/scraper"
)

// Task drives one site's pagination loop: it fetches batches at increasing
// offsets, retries transient failures with linear backoff, and stops when the
// target is reached, the provider runs dry, or the retry budget is spent.
// A Task owns its state exclusively; nothing here is shared across sites.
type Task struct {
	site    scraper.Site
	fetcher scraper.Fetcher
	session scraper.SessionConfig
	params  scraper.ScrapeParams
	runID   [16]byte
	emitter progress.Emitter
	sleeper scraper.Sleeper
	logger  *zap.Logger
}

// New constructs a Task. A nil emitter, sleeper, or logger is replaced with a
// safe default.
func New(
	site scraper.Site,
	fetcher scraper.Fetcher,
	session scraper.SessionConfig,
	params scraper.ScrapeParams,
	runID [16]byte,
	emitter progress.Emitter,
	sleeper scraper.Sleeper,
	logger *zap.Logger,
) *Task {
	if emitter == nil {
		emitter = progress.Discard{}
	}
	if sleeper == nil {
		sleeper = TimerSleeper{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Task{
		site:    site,
		fetcher: fetcher,
		session: session,
		params:  params,
		runID:   runID,
		emitter: emitter,
		sleeper: sleeper,
		logger:  logger,
	}
}

// Run executes the task to one of its terminal outcomes and returns the
// site's result. It never returns an error: a site that errors out reports
// whatever it collected before failing.
func (t *Task) Run(ctx context.Context) scraper.SiteResult {
	start := time.Now()
	t.emit(progress.Event{Stage: progress.StageSiteStart})
	t.logger.Info("site task started",
		zap.Int("results_wanted", t.session.ResultsWanted),
		zap.Int("batch_size", t.session.BatchSize),
	)

	collected := make([]scraper.JobRecord, 0, t.session.ResultsWanted)
	offset := 0

	for len(collected) < t.session.ResultsWanted {
		requested := t.session.BatchSize
		if remaining := t.session.ResultsWanted - len(collected); remaining < requested {
			requested = remaining
		}

		records, gaveUpErr := t.fetchWithRetries(ctx, offset, requested, len(collected))
		if gaveUpErr != nil {
			t.logger.Error("max retries reached, giving up",
				zap.Int("collected", len(collected)),
				zap.Error(gaveUpErr),
			)
			return t.finish(start, collected, true, scraper.OutcomeGaveUp, gaveUpErr)
		}

		collected = append(collected, records...)
		// Offset advances by what the provider actually returned, never by
		// the requested page size; a short page must not skip records.
		offset += len(records)

		t.emit(progress.Event{
			Stage:     progress.StageBatchDone,
			Offset:    offset - len(records),
			Requested: requested,
			Received:  len(records),
			Collected: len(collected),
		})
		t.logger.Info("batch collected",
			zap.Int("received", len(records)),
			zap.Int("collected", len(collected)),
		)

		if len(records) < requested {
			// The provider has no more data; a short (or empty) page is a
			// normal terminal condition, not an error.
			t.logger.Info("no more results available",
				zap.Int("wanted", t.session.ResultsWanted),
				zap.Int("collected", len(collected)),
			)
			return t.finish(start, collected, true, scraper.OutcomeDone, nil)
		}
		if len(collected) >= t.session.ResultsWanted {
			return t.finish(start, collected, false, scraper.OutcomeDone, nil)
		}

		t.sleeper.Sleep(ctx, backoff.PaceDelay(t.session.SleepTime))
	}

	return t.finish(start, collected, false, scraper.OutcomeDone, nil)
}

// fetchWithRetries attempts one batch, retrying the same offset until it
// succeeds or the retry budget is spent. It returns the records on success,
// or a non-nil error once the task must give up.
func (t *Task) fetchWithRetries(ctx context.Context, offset, requested, collected int) ([]scraper.JobRecord, error) {
	failures := 0
	for {
		t.logger.Info("fetching batch",
			zap.Int("offset", offset),
			zap.Int("requested", requested),
		)
		records, err := t.fetcher.FetchPage(ctx, scraper.FetchRequest{
			Site:   t.site,
			Params: t.params,
			Offset: offset,
			Limit:  requested,
		})
		if err == nil {
			return records, nil
		}

		failures++
		t.logger.Warn("batch fetch failed",
			zap.Int("attempt", failures),
			zap.Int("max_retries", t.session.MaxRetries),
			zap.Error(err),
		)
		if failures <= t.session.MaxRetries {
			delay := backoff.RetryDelay(t.session.SleepTime, failures)
			t.emit(progress.Event{
				Stage:     progress.StageRetryWait,
				Offset:    offset,
				Requested: requested,
				Collected: collected,
				Attempt:   failures,
				Dur:       delay,
				Note:      err.Error(),
			})
			t.sleeper.Sleep(ctx, delay)
		}
		if failures >= t.session.MaxRetries {
			return nil, scraper.TransientFetchError(t.site, err)
		}
	}
}

func (t *Task) finish(start time.Time, collected []scraper.JobRecord, exhausted bool, outcome scraper.Outcome, err error) scraper.SiteResult {
	stage := progress.StageSiteDone
	note := ""
	if outcome != scraper.OutcomeDone {
		stage = progress.StageSiteError
		if err != nil {
			note = err.Error()
		}
	}
	t.emit(progress.Event{
		Stage:     stage,
		Collected: len(collected),
		Outcome:   string(outcome),
		Dur:       time.Since(start),
		Note:      note,
	})
	t.logger.Info("site task finished",
		zap.Int("collected", len(collected)),
		zap.Bool("exhausted", exhausted),
		zap.String("outcome", string(outcome)),
	)
	return scraper.SiteResult{
		Site:      t.site,
		Records:   collected,
		Count:     len(collected),
		Exhausted: exhausted,
		Outcome:   outcome,
		Err:       err,
	}
}

func (t *Task) emit(evt progress.Event) {
	evt.RunID = t.runID
	evt.TS = time.Now().UTC()
	evt.Site = string(t.site)
	t.emitter.Emit(evt)
}

// TimerSleeper blocks on a timer, returning early if the context finishes.
type TimerSleeper struct{}

// Sleep implements scraper.Sleeper.
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
