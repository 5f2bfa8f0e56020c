/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package backoff

import (
	"errors"
	"syscall"
	"time"

	gatewayerrors "github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
)

// Decision is the outcome of classifying an error for retry purposes.
type Decision int

const (
	// Fatal means the operation must not be retried.
	Fatal Decision = iota
	// RetryDecision means the operation may be retried on the returned schedule.
	RetryDecision
	// Cancelled means the surrounding context was cancelled; log and stop.
	Cancelled
)

// Classify maps an error to a retry decision and, for retriable errors, the
// wait schedule to use.
//
// Disk-full detection checks ENOSPC and EMLINK, the Linux equivalents of the
// two error codes the managed runtime checked (no space on device, too many
// links in the directory).
func Classify(err error) (Decision, []time.Duration) {
	switch {
	case err == nil:
		return Fatal, nil
	case gatewayerrors.IsCancelled(err):
		return Cancelled, nil
	case IsDiskFull(err):
		return RetryDecision, DiskFullWaits()
	case gatewayerrors.IsTransientTransport(err):
		return RetryDecision, PersistenceWaits()
	default:
		return Fatal, nil
	}
}

// IsDiskFull reports whether the error is an out-of-space IO error.
func IsDiskFull(err error) bool {
	if err == nil {
		return false
	}
	if gatewayerrors.IsIOFull(err) {
		return true
	}
	return errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EMLINK)
}
