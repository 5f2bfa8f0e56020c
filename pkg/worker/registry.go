/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package worker

import (
	"sync"
)

// ServiceStatus is the externally visible state of a long-running worker,
// surfaced by the health endpoints.
type ServiceStatus string

const (
	StatusUnknown   ServiceStatus = "Unknown"
	StatusRunning   ServiceStatus = "Running"
	StatusStopped   ServiceStatus = "Stopped"
	StatusCancelled ServiceStatus = "Cancelled"
)

// Registry tracks the status of every registered worker. Readiness is the
// conjunction of all workers reporting Running.
type Registry struct {
	mu       sync.RWMutex
	statuses map[string]ServiceStatus
}

func NewRegistry() *Registry {
	return &Registry{
		statuses: make(map[string]ServiceStatus),
	}
}

// Register adds a worker with status Unknown. Registering an existing name
// resets its status.
func (r *Registry) Register(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[name] = StatusUnknown
}

func (r *Registry) SetStatus(name string, status ServiceStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[name] = status
}

func (r *Registry) Status(name string) ServiceStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if status, ok := r.statuses[name]; ok {
		return status
	}
	return StatusUnknown
}

// Statuses returns a copy of every worker's status.
func (r *Registry) Statuses() map[string]ServiceStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]ServiceStatus, len(r.statuses))
	for name, status := range r.statuses {
		out[name] = status
	}
	return out
}

// AllRunning reports whether every registered worker is Running. An empty
// registry is not ready.
func (r *Registry) AllRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.statuses) == 0 {
		return false
	}
	for _, status := range r.statuses {
		if status != StatusRunning {
			return false
		}
	}
	return true
}
