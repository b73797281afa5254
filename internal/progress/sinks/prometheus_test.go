package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/jobsparser/jobsparser/internal/progress"
)

func event(stage progress.Stage, site string) progress.Event {
	return progress.Event{
		RunID: progress.UUIDToBytes(uuid.New()),
		TS:    time.Now().UTC(),
		Stage: stage,
		Site:  site,
	}
}

func TestPrometheusSink_CountsBatchesAndRecords(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	batchA := event(progress.StageBatchDone, "linkedin")
	batchA.Received = 30
	batchB := event(progress.StageBatchDone, "linkedin")
	batchB.Received = 10
	retry := event(progress.StageRetryWait, "indeed")
	retry.Attempt = 1

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{batchA, batchB, retry}))

	require.Equal(t, 40.0, testutil.ToFloat64(sink.recordsCollected.WithLabelValues("linkedin")))
	require.Equal(t, 2.0, testutil.ToFloat64(sink.batches.WithLabelValues("linkedin", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.batches.WithLabelValues("indeed", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.retryWaits.WithLabelValues("indeed")))
}

func TestPrometheusSink_CountsSiteOutcomes(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	done := event(progress.StageSiteDone, "linkedin")
	done.Outcome = "done"
	done.Dur = 3 * time.Second
	gaveUp := event(progress.StageSiteError, "glassdoor")
	gaveUp.Outcome = "gave_up_after_retries"

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{done, gaveUp}))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.sitesCompleted.WithLabelValues("done")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.sitesCompleted.WithLabelValues("gave_up_after_retries")))
}

func TestPrometheusSink_DoubleRegistrationFails(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
}
