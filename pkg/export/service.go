/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package export

import (
	"context"
	"fmt"
	"time"

	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/concurrent"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/platform"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/storagespace"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/worker"
)

// maxTasksPerPoll bounds one poll of the results service.
const maxTasksPerPoll = 10

// Pipeline is the sink-specific half of the export service: turning a task
// into output jobs and pushing a downloaded job to its destination.
type Pipeline interface {
	Convert(ctx context.Context, task *types.TaskResponse) ([]*types.OutputJob, error)
	Export(ctx context.Context, job *types.OutputJob) error
}

// Service polls the results service for pending tasks of one agent, runs the
// download/export pipeline over them, and reports the verdicts.
type Service struct {
	name     string
	agent    string
	pipeline Pipeline
	results  platform.ResultsService
	payloads platform.PayloadsService
	storage  storagespace.Provider
	workers  *worker.Registry

	pollInterval     time.Duration
	concurrency      int
	failureThreshold float64
}

func NewService(agent string, pipeline Pipeline, results platform.ResultsService,
	payloads platform.PayloadsService, storage storagespace.Provider, workers *worker.Registry) *Service {
	s := &Service{
		name:             "export-" + agent,
		agent:            agent,
		pipeline:         pipeline,
		results:          results,
		payloads:         payloads,
		storage:          storage,
		workers:          workers,
		pollInterval:     time.Duration(config.GetExportPollFrequency()) * time.Millisecond,
		concurrency:      config.GetExportConcurrency(),
		failureThreshold: config.GetExportFailureThreshold(),
	}
	if workers != nil {
		workers.Register(s.name)
	}
	return s
}

// Run polls until cancellation. Intake is gated on the export reserve; an
// exhausted reserve skips the poll, it never drops accepted tasks.
func (s *Service) Run(ctx context.Context) {
	if s.workers != nil {
		s.workers.SetStatus(s.name, worker.StatusRunning)
		defer s.workers.SetStatus(s.name, worker.StatusCancelled)
	}
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Service) poll(ctx context.Context) {
	if !s.storage.HasSpaceForExport() {
		klog.Warningf("export reserve exhausted, skipping poll for agent %s", s.agent)
		return
	}
	tasks, err := s.results.GetPendingJobs(ctx, s.agent, maxTasksPerPoll)
	if err != nil {
		if !errors.IsCancelled(err) {
			klog.ErrorS(err, "failed to poll pending export tasks", "agent", s.agent)
		}
		return
	}
	if len(tasks) == 0 {
		return
	}
	_, _ = concurrent.ForEach(tasks, s.concurrency, func(task types.TaskResponse) error {
		s.handleTask(ctx, &task)
		return nil
	})
}

// handleTask runs convert -> download -> export -> report for one task.
func (s *Service) handleTask(ctx context.Context, task *types.TaskResponse) {
	jobs, err := s.pipeline.Convert(ctx, task)
	if err != nil {
		klog.ErrorS(err, "task conversion failed", "taskId", task.TaskId)
		s.reportFailure(ctx, task.TaskId, false)
		return
	}
	if len(jobs) == 0 {
		klog.V(4).Infof("task %s converted to nothing, skipping", task.TaskId)
		return
	}
	for _, job := range jobs {
		if !s.handleJob(ctx, task, job) {
			return
		}
	}
	s.reportSuccess(ctx, task.TaskId)
}

// handleJob downloads and exports one output job. It reports failure and
// returns false as soon as the job cannot be exported cleanly; a task is
// successful only when every job of it is.
func (s *Service) handleJob(ctx context.Context, task *types.TaskResponse, job *types.OutputJob) bool {
	total := job.TotalFiles()
	for _, uri := range job.Uris {
		file, err := s.payloads.Download(ctx, job.PayloadId, uri)
		if err != nil {
			klog.ErrorS(err, "failed to download export file",
				"taskId", task.TaskId, "payloadId", job.PayloadId, "uri", uri)
			job.FailureCount++
			continue
		}
		job.Files = append(job.Files, *file)
	}
	if total > 0 && float64(job.FailureCount)/float64(total) > s.failureThreshold {
		klog.ErrorS(fmt.Errorf("%d of %d downloads failed", job.FailureCount, total),
			"failure rate exceeded threshold", "taskId", task.TaskId)
		s.reportFailure(ctx, task.TaskId, false)
		return false
	}

	if err := s.pipeline.Export(ctx, job); err != nil {
		klog.ErrorS(err, "export failed", "taskId", task.TaskId, "destination", job.Destination)
		s.reportFailure(ctx, task.TaskId, !errors.IsPermanentTransport(err))
		return false
	}
	job.SuccessCount = len(job.Files)
	if job.FailureCount > 0 {
		retriable := float64(job.FailureCount)/float64(total) < s.failureThreshold
		s.reportFailure(ctx, task.TaskId, retriable)
		return false
	}
	if job.SuccessCount == 0 {
		s.reportFailure(ctx, task.TaskId, true)
		return false
	}
	return true
}

func (s *Service) reportSuccess(ctx context.Context, taskId string) {
	if err := s.results.ReportSuccess(ctx, taskId); err != nil {
		klog.ErrorS(err, "failed to report export success", "taskId", taskId)
	}
}

func (s *Service) reportFailure(ctx context.Context, taskId string, retriable bool) {
	if err := s.results.ReportFailure(ctx, taskId, retriable); err != nil {
		klog.ErrorS(err, "failed to report export failure", "taskId", taskId)
	}
}
