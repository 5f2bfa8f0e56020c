/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package cleanup

import (
	"context"
	"os"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/worker"
)

const (
	// maxDeleteRetries bounds the attempts per path before the file is
	// logged and abandoned.
	maxDeleteRetries = 3
	retryDelay       = time.Second
)

// Reclaimer drains the instance-cleanup queue: absolute paths whose owners no
// longer need them. A path may be a single file or a whole staging directory.
// Deleting a missing path is a no-op; transient IO errors retry a bounded
// number of times.
type Reclaimer struct {
	ctrl     *worker.Controller[string]
	registry *worker.Registry

	mu       sync.Mutex
	attempts map[string]int
}

const WorkerName = "reclaimer"

func NewReclaimer(registry *worker.Registry) *Reclaimer {
	r := &Reclaimer{
		registry: registry,
		attempts: make(map[string]int),
	}
	r.ctrl = worker.NewController[string](WorkerName, worker.HandlerFunc[string](r.reclaim), 1)
	if registry != nil {
		registry.Register(WorkerName)
	}
	return r
}

// Enqueue schedules a path for deletion. Duplicate pending paths collapse
// into one queue entry.
func (r *Reclaimer) Enqueue(path string) {
	if path == "" {
		return
	}
	r.ctrl.Add(path)
}

// QueueSize reports the pending paths.
func (r *Reclaimer) QueueSize() int {
	return r.ctrl.GetQueueSize()
}

// Run blocks until the context is cancelled.
func (r *Reclaimer) Run(ctx context.Context) {
	if r.registry != nil {
		r.registry.SetStatus(WorkerName, worker.StatusRunning)
		defer r.registry.SetStatus(WorkerName, worker.StatusCancelled)
	}
	r.ctrl.Run(ctx)
}

func (r *Reclaimer) reclaim(ctx context.Context, path string) (worker.Result, error) {
	err := os.RemoveAll(path)
	if err == nil || os.IsNotExist(err) {
		r.forget(path)
		klog.V(4).Infof("reclaimed %s", path)
		return worker.Result{}, nil
	}
	if r.bump(path) >= maxDeleteRetries {
		klog.ErrorS(err, "giving up reclaiming path", "path", path, "attempts", maxDeleteRetries)
		r.forget(path)
		return worker.Result{}, nil
	}
	klog.ErrorS(err, "failed to reclaim path, will retry", "path", path)
	return worker.Result{RequeueAfter: retryDelay}, nil
}

func (r *Reclaimer) bump(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[path]++
	return r.attempts[path]
}

func (r *Reclaimer) forget(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, path)
}
