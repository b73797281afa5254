// Package backoff computes pacing and retry delays for site tasks.
package backoff

import "time"

// PaceDelay is the wait applied between successful, non-final batches. It is
// a constant per run: the base sleep time itself.
func PaceDelay(sleepTime time.Duration) time.Duration {
	if sleepTime < 0 {
		return 0
	}
	return sleepTime
}

// RetryDelay is the wait applied after a failed fetch attempt. failures is
// the number of failures already recorded in the current batch's retry cycle
// (1-based), so the first retry waits 2*sleepTime, the second 3*sleepTime.
// Growth is linear, not exponential.
func RetryDelay(sleepTime time.Duration, failures int) time.Duration {
	if sleepTime < 0 {
		return 0
	}
	if failures < 1 {
		failures = 1
	}
	return sleepTime * time.Duration(failures+1)
}
