/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/concurrent"
	gatewayerrors "github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/worker"
)

// process pops one job and runs the handler of its current state. The take
// stamps last_taken only; the state transition is committed here after the
// handler returns, so a crash mid-handler resumes at the same state.
func (r *Repository) process(ctx context.Context, jobId string) (worker.Result, error) {
	job, err := r.db.GetInferenceJob(ctx, jobId)
	if err != nil {
		return worker.Result{}, err
	}
	if job == nil || job.State.IsTerminal() {
		return worker.Result{}, nil
	}
	if err = r.db.StampInferenceJobTaken(ctx, jobId); err != nil {
		return worker.Result{}, err
	}

	handlerErr := r.handle(ctx, job)
	if handlerErr == nil {
		return r.advance(ctx, job)
	}
	if gatewayerrors.IsCancelled(handlerErr) {
		klog.Warningf("job %s cancelled at state %s", job.JobId, job.State)
		return worker.Result{}, nil
	}
	return r.fail(ctx, job, handlerErr)
}

func (r *Repository) handle(ctx context.Context, job *types.InferenceJob) error {
	switch job.State {
	case types.JobStateCreating:
		return r.createJob(ctx, job)
	case types.JobStateMetadataUploading:
		return r.uploadMetadata(ctx, job)
	case types.JobStatePayloadUploading:
		return r.uploadPayload(ctx, job)
	case types.JobStateStarting:
		return r.jobsApi.Start(ctx, job.PlatformJobId)
	default:
		return gatewayerrors.NewInvalidState(fmt.Sprintf("job %s in unexpected state %s", job.JobId, job.State))
	}
}

// advance commits the transition to the successor state with a fresh
// try-count; terminal states trigger payload reclamation.
func (r *Repository) advance(ctx context.Context, job *types.InferenceJob) (worker.Result, error) {
	job.State = job.State.NextState()
	job.TryCount = 0
	if job.State == types.JobStateCompleted {
		job.Status = types.JobStatusSuccess
	}
	if err := r.db.UpdateInferenceJobState(ctx, job); err != nil {
		return worker.Result{}, err
	}
	if job.State.IsTerminal() {
		klog.Infof("job %s reached %s", job.JobId, job.State)
		r.cleanupStaging(job)
		return worker.Result{}, nil
	}
	return worker.Result{Requeue: true}, nil
}

// fail requeues the job at the same state with an incremented try-count, or
// faults it when the bound is exceeded.
func (r *Repository) fail(ctx context.Context, job *types.InferenceJob, cause error) (worker.Result, error) {
	job.TryCount++
	klog.ErrorS(cause, "job handler failed", "jobId", job.JobId, "state", job.State, "tryCount", job.TryCount)
	if job.TryCount > types.MaxJobRetries {
		job.State = types.JobStateFaulted
		job.Status = types.JobStatusFail
		if err := r.db.UpdateInferenceJobState(ctx, job); err != nil {
			return worker.Result{}, err
		}
		r.cleanupStaging(job)
		return worker.Result{}, nil
	}
	if err := r.db.UpdateInferenceJobState(ctx, job); err != nil {
		return worker.Result{}, err
	}
	return worker.Result{RequeueAfter: time.Duration(1<<job.TryCount) * time.Second}, nil
}

func (r *Repository) createJob(ctx context.Context, job *types.InferenceJob) error {
	metadata := map[string]string{"source": string(job.Source)}
	platformJobId, platformPayloadId, err := r.jobsApi.Create(ctx, job.PipelineId, job.JobName, job.Priority, metadata)
	if err != nil {
		return err
	}
	job.PlatformJobId = platformJobId
	job.PlatformPayloadId = platformPayloadId
	return nil
}

func (r *Repository) uploadMetadata(ctx context.Context, job *types.InferenceJob) error {
	metadata := buildMetadata(job)
	if len(metadata) == 0 {
		return nil
	}
	return r.jobsApi.AddMetadata(ctx, job.PlatformJobId, metadata)
}

// uploadPayload pushes every file under the payload directory with bounded
// parallelism. A file is enqueued for reclamation the moment its upload
// succeeds, so a retry of this state never re-uploads it. Any failure fails
// the whole state with the count of failed files.
func (r *Repository) uploadPayload(ctx context.Context, job *types.InferenceJob) error {
	files, err := listFiles(job.JobPayloadsStoragePath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	payloadId := job.PlatformPayloadId
	if payloadId == "" {
		payloadId = job.PayloadId
	}
	var failures atomic.Int32
	_, _ = concurrent.ForEach(files, r.parallels, func(relative string) error {
		local := filepath.Join(job.JobPayloadsStoragePath, relative)
		if err := r.payloads.Upload(ctx, payloadId, relative, local); err != nil {
			klog.ErrorS(err, "failed to upload payload file", "jobId", job.JobId, "file", relative)
			failures.Add(1)
			return err
		}
		r.cleanup.Enqueue(local)
		return nil
	})
	if n := failures.Load(); n > 0 {
		return gatewayerrors.NewPayloadUploadError(int(n))
	}
	return nil
}

// cleanupStaging reclaims everything a terminal job leaves behind: the
// payload directory (whatever the upload path has not already reclaimed) and
// the staged source instances the job was built from. Files the upload path
// enqueued individually are not enqueued again.
func (r *Repository) cleanupStaging(job *types.InferenceJob) {
	r.cleanup.Enqueue(job.JobPayloadsStoragePath)
	for i := range job.Instances {
		r.cleanup.Enqueue(job.Instances[i].InstanceStorageFullPath)
	}
}
