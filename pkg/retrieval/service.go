/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package retrieval

import (
	"context"
	"time"

	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/dicomutil"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/dicomweb"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/requeststore"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/storagespace"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/worker"
)

const (
	WorkerName = "data-retrieval"

	// spacePollInterval is how often a paused retrieval loop re-checks the
	// retrieve reserve.
	spacePollInterval = 5 * time.Second
)

// JobCreator accepts the job assembled from a completed retrieval.
type JobCreator interface {
	Add(ctx context.Context, job *types.InferenceJob, instances []types.InstanceStorageInfo) error
}

// webClient is the slice of the DICOMweb surface the service exercises.
type webClient interface {
	RetrieveStudy(ctx context.Context, studyUid string) ([]types.File, error)
	RetrieveSeries(ctx context.Context, studyUid, seriesUid string) ([]types.File, error)
	RetrieveInstance(ctx context.Context, studyUid, seriesUid, sopUid string) ([]types.File, error)
	QueryStudies(ctx context.Context, filters map[string]string) ([]string, error)
}

// Service consumes inference requests, materializes their instances on the
// staging disk, and hands the result to the job repository.
type Service struct {
	store   *requeststore.Store
	creator JobCreator
	storage storagespace.Provider
	workers *worker.Registry

	// Injection points for tests; production uses the DICOMweb client and the
	// DICOM header parser.
	newClient func(details types.ConnectionDetails) (webClient, error)
	parse     func(path string) (*dicomutil.Attributes, error)
}

func NewService(store *requeststore.Store, creator JobCreator,
	storage storagespace.Provider, workers *worker.Registry) *Service {
	s := &Service{
		store:   store,
		creator: creator,
		storage: storage,
		workers: workers,
		newClient: func(details types.ConnectionDetails) (webClient, error) {
			return dicomweb.NewClient(details)
		},
		parse: dicomutil.ParseHeader,
	}
	if workers != nil {
		workers.Register(WorkerName)
	}
	return s
}

// Run is the single-consumer retrieval loop. Intake pauses while the
// retrieve reserve is exhausted; queued requests stay queued.
func (s *Service) Run(ctx context.Context) {
	if s.workers != nil {
		s.workers.SetStatus(WorkerName, worker.StatusRunning)
		defer s.workers.SetStatus(WorkerName, worker.StatusCancelled)
	}
	for {
		if err := s.waitForSpace(ctx); err != nil {
			return
		}
		req, err := s.store.Take(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			klog.ErrorS(err, "failed to take inference request")
			continue
		}
		s.store.Update(ctx, req, s.process(ctx, req))
	}
}

func (s *Service) waitForSpace(ctx context.Context) error {
	for !s.storage.HasSpaceToRetrieve() {
		klog.Warningf("retrieve reserve exhausted, pausing retrieval")
		select {
		case <-time.After(spacePollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// process runs one attempt of one request and reports Success or Fail.
func (s *Service) process(ctx context.Context, req *types.InferenceRequest) types.InferenceRequestStatus {
	collector := newCollector(req.StoragePath, s.parse)
	if err := collector.restore(); err != nil {
		klog.ErrorS(err, "failed to restore staged instances", "jobId", req.JobId)
	}

	for _, resource := range req.DicomWebResources() {
		client, err := s.newClient(resource.ConnectionDetails)
		if err != nil {
			klog.ErrorS(err, "rejecting request with bad resource", "jobId", req.JobId)
			return types.InferenceRequestStatusFail
		}
		if err = s.fetch(ctx, client, req, collector); err != nil {
			if errors.IsCancelled(err) {
				klog.Warningf("retrieval of request %s cancelled", req.JobId)
			} else {
				klog.ErrorS(err, "retrieval failed", "jobId", req.JobId, "tryCount", req.TryCount)
			}
			return types.InferenceRequestStatusFail
		}
	}

	instances := collector.list()
	if len(instances) == 0 {
		klog.ErrorS(errors.NewInferenceRequestError("no instances retrieved"),
			"request yielded nothing", "jobId", req.JobId)
		return types.InferenceRequestStatusFail
	}

	pipelineId := config.GetPipelineId(req.Algorithm)
	if pipelineId == "" {
		pipelineId = req.Algorithm
	}
	priority := req.Priority
	if priority == "" {
		priority = types.JobPriorityNormal
	}
	job := &types.InferenceJob{
		JobId:      req.JobId,
		PayloadId:  req.PayloadId,
		JobName:    "inference-" + req.TransactionId,
		PipelineId: pipelineId,
		Priority:   priority,
		Source:     types.JobSourceInference,
	}
	if err := s.creator.Add(ctx, job, instances); err != nil {
		klog.ErrorS(err, "failed to create job from request", "jobId", req.JobId)
		return types.InferenceRequestStatusFail
	}
	klog.Infof("request %s retrieved %d instance(s), job created", req.JobId, len(instances))
	return types.InferenceRequestStatusSuccess
}
