package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jobsparser/jobsparser/internal/progress"
)

// PrometheusSink exports scrape progress via Prometheus. It owns the
// collectors for per-site record/batch counters and site outcomes.
type PrometheusSink struct {
	recordsCollected *prometheus.CounterVec
	batches          *prometheus.CounterVec
	retryWaits       *prometheus.CounterVec
	sitesCompleted   *prometheus.CounterVec
	siteRuntime      *prometheus.HistogramVec
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		recordsCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsparser_records_collected_total",
			Help: "Job records collected partitioned by site.",
		}, []string{"site"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsparser_batches_total",
			Help: "Fetch batches partitioned by site and result.",
		}, []string{"site", "result"}),
		retryWaits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsparser_retry_waits_total",
			Help: "Error-retry waits applied partitioned by site.",
		}, []string{"site"}),
		sitesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsparser_sites_completed_total",
			Help: "Site tasks reaching a terminal outcome.",
		}, []string{"outcome"}),
		siteRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobsparser_site_runtime_seconds",
			Help:    "Wall time per completed site task.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"outcome"}),
	}
	for _, collector := range []prometheus.Collector{
		s.recordsCollected,
		s.batches,
		s.retryWaits,
		s.sitesCompleted,
		s.siteRuntime,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch. Safe for concurrent use.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageBatchDone:
		s.batches.WithLabelValues(evt.Site, "success").Inc()
		if evt.Received > 0 {
			s.recordsCollected.WithLabelValues(evt.Site).Add(float64(evt.Received))
		}
	case progress.StageRetryWait:
		s.batches.WithLabelValues(evt.Site, "error").Inc()
		s.retryWaits.WithLabelValues(evt.Site).Inc()
	case progress.StageSiteDone, progress.StageSiteError:
		outcome := evt.Outcome
		if outcome == "" {
			outcome = "unknown"
		}
		s.sitesCompleted.WithLabelValues(outcome).Inc()
		if evt.Dur > 0 {
			s.siteRuntime.WithLabelValues(outcome).Observe(evt.Dur.Seconds())
		}
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
