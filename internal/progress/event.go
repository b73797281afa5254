package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the milestone an Event represents.
type Stage string

// Supported progress stages.
const (
	StageSiteStart Stage = "SITE_START"
	StageBatchDone Stage = "BATCH_DONE"
	StageRetryWait Stage = "RETRY_WAIT"
	StageSiteDone  Stage = "SITE_DONE"
	StageSiteError Stage = "SITE_ERROR"
)

// Event captures one milestone of a scrape run. Every event is scoped to the
// run (RunID) and the site task that emitted it.
type Event struct {
	// RunID identifies the scrape run in 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// Site is the provider label of the emitting task.
	Site string
	// Offset is the page start the event refers to.
	Offset int
	// Requested is the page size asked of the provider.
	Requested int
	// Received is the number of records the batch returned.
	Received int
	// Collected is the task's running total after this milestone.
	Collected int
	// Attempt counts failures in the current retry cycle (RETRY_WAIT only).
	Attempt int
	// Outcome carries the terminal outcome for SITE_DONE / SITE_ERROR.
	Outcome string
	// Dur is the wait applied (RETRY_WAIT) or the task's runtime (SITE_DONE).
	Dur time.Duration
	// Note attaches low-volume debug context such as error text.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageSiteStart, StageBatchDone, StageRetryWait, StageSiteDone, StageSiteError:
		if e.Site == "" {
			return errors.New("site is required")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID for reporting.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
