/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package jobs

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/database"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/platform"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/worker"
)

const WorkerName = "job-submission"

// CleanupQueue accepts absolute file paths for eventual deletion.
type CleanupQueue interface {
	Enqueue(path string)
}

// Repository owns inference jobs: it persists them, feeds the submission
// worker, and drives the state machine
// Creating -> MetadataUploading -> PayloadUploading -> Starting -> Completed,
// faulting a job whose try-count at any one state exceeds the bound.
type Repository struct {
	db        database.InferenceJobInterface
	jobsApi   platform.JobsService
	payloads  platform.PayloadsService
	cleanup   CleanupQueue
	registry  *worker.Registry
	ctrl      *worker.Controller[string]
	watcher   *database.Watcher[*database.InferenceJobRow]
	parallels int
}

func NewRepository(client *database.Client, jobsApi platform.JobsService,
	payloads platform.PayloadsService, cleanup CleanupQueue, registry *worker.Registry) *Repository {
	r := &Repository{
		db:        client,
		jobsApi:   jobsApi,
		payloads:  payloads,
		cleanup:   cleanup,
		registry:  registry,
		parallels: config.GetParallelUploads(),
	}
	r.ctrl = worker.NewController[string](WorkerName, worker.HandlerFunc[string](r.process), 1)
	r.watcher = database.NewWatcher(client, database.TInferenceJob,
		time.Duration(config.GetReadIntervalSecond())*time.Second,
		func(row *database.InferenceJobRow) string { return row.JobId },
		func(row *database.InferenceJobRow) int64 { return row.Version },
		r.onEvent)
	if registry != nil {
		registry.Register(WorkerName)
	}
	return r
}

// PayloadsStoragePathFor returns the payload directory owned by a job.
func PayloadsStoragePathFor(jobId string) string {
	return filepath.Join(config.GetStorageTemporary(), "jobs", jobId)
}

// NewJobId allocates an id pair for a fresh job.
func NewJobId() (jobId, payloadId string) {
	return uuid.NewString(), uuid.NewString()
}

// Add copies every instance into the job's payload directory and persists the
// job in state Creating. The original staged files remain owned by their
// producer until its own cleanup runs.
func (r *Repository) Add(ctx context.Context, job *types.InferenceJob, instances []types.InstanceStorageInfo) error {
	if job.JobPayloadsStoragePath == "" {
		job.JobPayloadsStoragePath = PayloadsStoragePathFor(job.JobId)
	}
	for _, instance := range instances {
		dst := filepath.Join(job.JobPayloadsStoragePath, instance.SopInstanceUid+".dcm")
		if err := copyFile(instance.InstanceStorageFullPath, dst); err != nil {
			return err
		}
	}
	job.Instances = instances
	job.State = types.JobStateCreating
	job.Status = types.JobStatusUnknown
	if err := r.db.InsertInferenceJob(ctx, job); err != nil {
		return err
	}
	r.ctrl.Add(job.JobId)
	klog.Infof("added job %s (%d instance(s), source %s)", job.JobId, len(instances), job.Source)
	return nil
}

// Run resets abandoned jobs, then consumes the queue until cancellation. The
// table watcher re-feeds the queue, so a job persisted by a previous run is
// picked up without any producer.
func (r *Repository) Run(ctx context.Context) {
	if err := r.db.ResetJobStates(ctx); err != nil {
		klog.ErrorS(err, "failed to reset job states")
	}
	if r.registry != nil {
		r.registry.SetStatus(WorkerName, worker.StatusRunning)
		defer r.registry.SetStatus(WorkerName, worker.StatusCancelled)
	}
	go r.watcher.Run(ctx)
	r.ctrl.Run(ctx)
}

func (r *Repository) onEvent(eventType database.EventType, key string, row *database.InferenceJobRow) {
	if eventType == database.Deleted || row == nil {
		return
	}
	switch types.JobState(row.State) {
	case types.JobStateCreating, types.JobStateMetadataUploading,
		types.JobStatePayloadUploading, types.JobStateStarting:
		r.ctrl.Add(key)
	}
}

// QueueSize reports jobs waiting for the submission worker.
func (r *Repository) QueueSize() int {
	return r.ctrl.GetQueueSize()
}
