// Package orchestrator runs one site task per requested provider and merges
// their results as they complete.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobsparser/jobsparser/internal/logging"
	"github.com/jobsparser/jobsparser/internal/progress"
	"github.com/jobsparser/jobsparser/internal/scraper"
	"github.com/jobsparser/jobsparser/internal/worker"
)

// Orchestrator fans out site tasks and aggregates their outputs. Tasks run
// fully independently; the only shared point is the result channel, and
// results are merged strictly after a task completes.
type Orchestrator struct {
	fetcher scraper.Fetcher
	emitter progress.Emitter
	sleeper scraper.Sleeper
	logger  *zap.Logger
}

// New constructs an Orchestrator. The fetcher routes requests by site; a nil
// emitter, sleeper, or logger is replaced with a safe default.
func New(fetcher scraper.Fetcher, emitter progress.Emitter, sleeper scraper.Sleeper, logger *zap.Logger) *Orchestrator {
	if emitter == nil {
		emitter = progress.Discard{}
	}
	if sleeper == nil {
		sleeper = worker.TimerSleeper{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		fetcher: fetcher,
		emitter: emitter,
		sleeper: sleeper,
		logger:  logger,
	}
}

// Run validates the session, spawns one task per site, and blocks until every
// task has reached a terminal outcome. Each site receives the full
// results_wanted target. The returned aggregate orders records and site
// breakdowns by task completion, not submission.
func (o *Orchestrator) Run(ctx context.Context, session scraper.SessionConfig, params scraper.ScrapeParams) (scraper.AggregatedResult, error) {
	if err := session.Validate(); err != nil {
		return scraper.AggregatedResult{}, err
	}

	runID := uuid.New()
	o.logger.Info("scrape run starting",
		zap.String("run_id", runID.String()),
		zap.Int("sites", len(session.Sites)),
		zap.Int("results_wanted", session.ResultsWanted),
	)

	results := make(chan scraper.SiteResult, len(session.Sites))
	for i, site := range session.Sites {
		taskLogger := logging.ForTask(o.logger, string(site), i)
		go o.runTask(ctx, site, session, params, progress.UUIDToBytes(runID), taskLogger, results)
	}

	agg := scraper.AggregatedResult{RunID: runID.String()}
	for range session.Sites {
		res := <-results
		agg.Append(res)
		o.logger.Info("site completed",
			zap.String("site", string(res.Site)),
			zap.Int("count", res.Count),
			zap.Bool("exhausted", res.Exhausted),
			zap.String("outcome", string(res.Outcome)),
		)
	}
	return agg, nil
}

// runTask executes one site task, converting any escaped panic into a failed
// SiteResult so a misbehaving site never aborts the run.
func (o *Orchestrator) runTask(
	ctx context.Context,
	site scraper.Site,
	session scraper.SessionConfig,
	params scraper.ScrapeParams,
	runID [16]byte,
	taskLogger *zap.Logger,
	results chan<- scraper.SiteResult,
) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("unexpected task error: %v", r)
			taskLogger.Error("site task panicked", zap.Any("panic", r))
			o.emitter.Emit(progress.Event{
				RunID:   runID,
				TS:      time.Now().UTC(),
				Stage:   progress.StageSiteError,
				Site:    string(site),
				Outcome: string(scraper.OutcomeFailed),
				Note:    err.Error(),
			})
			results <- scraper.SiteResult{
				Site:    site,
				Outcome: scraper.OutcomeFailed,
				Err:     err,
			}
		}
	}()

	task := worker.New(site, o.fetcher, session, params, runID, o.emitter, o.sleeper, taskLogger)
	results <- task.Run(ctx)
}
