/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package requeststore

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/database"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/platform"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/worker"
)

const (
	WorkerName = "inference-request-store"

	// dedupSize bounds the in-memory dedup set; sized to the expected queue
	// depth, oldest entries evicted first.
	dedupSize  = 1000
	queueDepth = 1024
)

// CleanupQueue accepts staging paths whose owners no longer need them.
type CleanupQueue interface {
	Enqueue(path string)
}

// Store is the durable queue of externally submitted inference requests.
// Producers Add; the single retrieval consumer blocks in Take. The backing
// table is the source of truth, the watch feed only schedules work.
type Store struct {
	db      database.InferenceRequestInterface
	jobsDb  database.InferenceJobInterface
	jobsApi platform.JobsService
	cleanup CleanupQueue
	workers *worker.Registry
	watcher *database.Watcher[*database.InferenceRequestRow]

	dedup *lru.Cache[string, struct{}]
	queue chan string
}

func NewStore(client *database.Client, jobsApi platform.JobsService,
	cleanup CleanupQueue, workers *worker.Registry) *Store {
	dedup, _ := lru.New[string, struct{}](dedupSize)
	s := &Store{
		db:      client,
		jobsDb:  client,
		jobsApi: jobsApi,
		cleanup: cleanup,
		workers: workers,
		dedup:   dedup,
		queue:   make(chan string, queueDepth),
	}
	s.watcher = database.NewWatcher(client, database.TInferenceRequest,
		time.Duration(config.GetReadIntervalSecond())*time.Second,
		func(row *database.InferenceRequestRow) string { return row.JobId },
		func(row *database.InferenceRequestRow) int64 { return row.Version },
		s.onEvent)
	if workers != nil {
		workers.Register(WorkerName)
	}
	return s
}

// StoragePathFor returns the staging directory owned by a request.
func StoragePathFor(jobId string) string {
	return filepath.Join(config.GetStorageTemporary(), "requests", jobId)
}

// Add validates and persists a fresh request in state Queued. Ids are
// assigned here; the caller's transaction id is kept as the correlator.
func (s *Store) Add(ctx context.Context, req *types.InferenceRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	req.State = types.InferenceRequestStateQueued
	req.Status = types.InferenceRequestStatusUnknown
	req.TryCount = 0
	if req.StoragePath == "" {
		req.StoragePath = StoragePathFor(req.JobId)
	}
	if err := s.db.InsertInferenceRequest(ctx, req); err != nil {
		return err
	}
	klog.Infof("queued inference request %s (transaction %s)", req.JobId, req.TransactionId)
	return nil
}

// Run requeues requests stranded InProcess by a previous run, then follows the
// request table until cancellation. A periodic resync re-schedules Queued rows
// the watch feed missed: the watcher only emits on version changes, so a
// schedule dropped on a full queue or a failed take would otherwise wait for
// the next writer.
func (s *Store) Run(ctx context.Context) {
	if s.workers != nil {
		s.workers.SetStatus(WorkerName, worker.StatusRunning)
		defer s.workers.SetStatus(WorkerName, worker.StatusCancelled)
	}
	if err := s.db.ResetInProcessRequests(ctx); err != nil {
		klog.ErrorS(err, "failed to requeue in-process requests")
	}
	go wait.UntilWithContext(ctx, s.scheduleQueued,
		time.Duration(config.GetReadIntervalSecond())*time.Second)
	s.watcher.Run(ctx)
}

func (s *Store) onEvent(eventType database.EventType, key string, row *database.InferenceRequestRow) {
	if eventType == database.Deleted || row == nil {
		return
	}
	if types.InferenceRequestState(row.State) != types.InferenceRequestStateQueued {
		return
	}
	s.schedule(key)
}

// schedule enqueues one queued job id, deduplicating against ids already
// scheduled. A full queue drops the schedule; the resync loop retries it.
func (s *Store) schedule(key string) {
	if _, dup := s.dedup.Get(key); dup {
		return
	}
	s.dedup.Add(key, struct{}{})
	select {
	case s.queue <- key:
	default:
		s.dedup.Remove(key)
	}
}

func (s *Store) scheduleQueued(ctx context.Context) {
	requests, err := s.db.ListQueuedInferenceRequests(ctx)
	if err != nil {
		klog.ErrorS(err, "failed to list queued requests for resync")
		return
	}
	for _, req := range requests {
		s.schedule(req.JobId)
	}
}

// Take blocks until a queued request is available, durably moves it to
// InProcess and returns it.
func (s *Store) Take(ctx context.Context) (*types.InferenceRequest, error) {
	for {
		var jobId string
		select {
		case jobId = <-s.queue:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		req, err := s.db.GetInferenceRequest(ctx, jobId)
		if err != nil {
			klog.ErrorS(err, "failed to load queued request", "jobId", jobId)
			s.dedup.Remove(jobId)
			continue
		}
		if req == nil || req.State != types.InferenceRequestStateQueued {
			s.dedup.Remove(jobId)
			continue
		}
		req.State = types.InferenceRequestStateInProcess
		if err = s.db.UpdateInferenceRequestState(ctx, req); err != nil {
			s.dedup.Remove(jobId)
			return nil, err
		}
		return req, nil
	}
}

// Update records the outcome of one processing attempt. Success archives the
// request; failure requeues it until the retry budget is spent, then archives
// it as Fail. A final archive failure logs and drops the request.
func (s *Store) Update(ctx context.Context, req *types.InferenceRequest, status types.InferenceRequestStatus) {
	switch status {
	case types.InferenceRequestStatusSuccess:
		s.archive(ctx, req, types.InferenceRequestStatusSuccess)
	case types.InferenceRequestStatusFail:
		req.TryCount++
		if req.TryCount > types.MaxRequestRetries {
			s.archive(ctx, req, types.InferenceRequestStatusFail)
			return
		}
		req.State = types.InferenceRequestStateQueued
		if err := s.db.UpdateInferenceRequestState(ctx, req); err != nil {
			klog.ErrorS(err, "failed to requeue request, dropping", "jobId", req.JobId)
			s.dedup.Remove(req.JobId)
			return
		}
		// Requeue directly; the dedup entry is still held for this job id.
		select {
		case s.queue <- req.JobId:
		default:
			s.dedup.Remove(req.JobId)
		}
	}
}

func (s *Store) archive(ctx context.Context, req *types.InferenceRequest, status types.InferenceRequestStatus) {
	defer s.dedup.Remove(req.JobId)
	defer s.reclaimStaging(req)
	if err := s.db.ArchiveInferenceRequest(ctx, req.JobId, status); err != nil {
		klog.ErrorS(err, "final archive failed, dropping request", "jobId", req.JobId, "status", status)
		return
	}
	klog.Infof("archived request %s as %s after %d tries", req.JobId, status, req.TryCount)
}

// reclaimStaging hands the request's staging directory to the reclaimer. A
// dropped request gives its staging up too.
func (s *Store) reclaimStaging(req *types.InferenceRequest) {
	path := req.StoragePath
	if path == "" {
		path = StoragePathFor(req.JobId)
	}
	s.cleanup.Enqueue(path)
}

// Get looks the request up by job id, archive first.
func (s *Store) Get(ctx context.Context, jobId string) (*types.InferenceRequest, error) {
	return s.db.GetInferenceRequest(ctx, jobId)
}

// GetByPayloadId looks the request up by payload id, archive first.
func (s *Store) GetByPayloadId(ctx context.Context, payloadId string) (*types.InferenceRequest, error) {
	return s.db.GetInferenceRequestByPayloadId(ctx, payloadId)
}

// GetStatus resolves id as a transaction id, then as a job id, and fuses the
// local record with the downstream platform's view of the derived job.
func (s *Store) GetStatus(ctx context.Context, id string) (*types.InferenceStatusResponse, error) {
	req, err := s.db.GetInferenceRequestByTransactionId(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		if req, err = s.db.GetInferenceRequest(ctx, id); err != nil {
			return nil, err
		}
	}
	if req == nil {
		return nil, errors.NewNotFound("InferenceRequest", id)
	}

	response := &types.InferenceStatusResponse{
		TransactionId: req.TransactionId,
		Dicom: types.DicomStatus{
			State:  req.State,
			Status: req.Status,
		},
	}
	job, err := s.jobsDb.GetInferenceJob(ctx, req.JobId)
	if err != nil {
		return nil, err
	}
	if job == nil || job.PlatformJobId == "" {
		return response, nil
	}
	details, err := s.jobsApi.Status(ctx, job.PlatformJobId)
	if err != nil {
		response.Message = fmt.Sprintf("platform status unavailable: %s", err)
		return response, nil
	}
	response.Platform = details
	return response, nil
}

// QueueSize reports requests scheduled but not yet taken.
func (s *Store) QueueSize() int {
	return len(s.queue)
}
