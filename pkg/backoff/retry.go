/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package backoff

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry executes an operation with exponential backoff retry logic.
// It uses the backoff library to retry the operation with exponential backoff intervals
// until the operation succeeds or the maximum elapsed time is reached.
//
// Parameters:
//   - op: The operation function to execute, which should return an error
//   - maxElapsedTime: Maximum total time to spend retrying before giving up
//   - maxInterval: Maximum interval between retry attempts
//
// Returns:
//   - error: The last error returned by the operation, or nil if operation succeeded
func Retry(op backoff.Operation, maxElapsedTime, maxInterval time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsedTime
	b.MaxInterval = maxInterval
	if err := backoff.Retry(op, b); err != nil {
		return err
	}
	return nil
}

// FixedRetry executes an operation with a fixed schedule of wait intervals.
// The operation runs at most len(waits)+1 times; the final error is returned
// unwrapped so callers can classify it.
func FixedRetry(op backoff.Operation, waits []time.Duration) error {
	var err error
	for i := 0; ; i++ {
		if err = op(); err == nil {
			return nil
		}
		if i >= len(waits) {
			return err
		}
		time.Sleep(waits[i])
	}
}

// PersistenceWaits is the retry schedule for persistence mutations: 2^n
// seconds for n in 1..3. The fourth failure is fatal to the caller.
func PersistenceWaits() []time.Duration {
	return []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
}

// InstanceSaveWaits is the retry schedule for writing a received instance to
// staging: 250ms, 500ms, 1s.
func InstanceSaveWaits() []time.Duration {
	return []time.Duration{250 * time.Millisecond, 500 * time.Millisecond, time.Second}
}

// DiskFullWaits is the retry schedule for disk-full IO errors: 1s, 2s, 3s.
func DiskFullWaits() []time.Duration {
	return []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
}
