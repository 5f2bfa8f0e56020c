/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package export

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

type fakeResults struct {
	mutex     sync.Mutex
	tasks     []types.TaskResponse
	successes []string
	failures  map[string]bool
}

func newFakeResults(tasks ...types.TaskResponse) *fakeResults {
	return &fakeResults{tasks: tasks, failures: map[string]bool{}}
}

func (f *fakeResults) GetPendingJobs(context.Context, string, int) ([]types.TaskResponse, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	tasks := f.tasks
	f.tasks = nil
	return tasks, nil
}

func (f *fakeResults) ReportSuccess(_ context.Context, taskId string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.successes = append(f.successes, taskId)
	return nil
}

func (f *fakeResults) ReportFailure(_ context.Context, taskId string, retriable bool) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.failures[taskId] = retriable
	return nil
}

type fakePayloads struct {
	failOn map[string]bool
}

func (f *fakePayloads) Upload(context.Context, string, string, string) error { return nil }

func (f *fakePayloads) Download(_ context.Context, _, name string) (*types.File, error) {
	if f.failOn[name] {
		return nil, fmt.Errorf("download of %s refused", name)
	}
	return &types.File{Name: name, Data: []byte("dicom")}, nil
}

type fakePipeline struct {
	convertErr error
	exportErr  error
	skip       bool
	exported   []*types.OutputJob
}

func (f *fakePipeline) Convert(_ context.Context, task *types.TaskResponse) ([]*types.OutputJob, error) {
	if f.convertErr != nil {
		return nil, f.convertErr
	}
	if f.skip {
		return nil, nil
	}
	return []*types.OutputJob{{
		TaskId:    task.TaskId,
		PayloadId: task.PayloadId,
		JobId:     task.JobId,
		Agent:     task.Agent,
		Uris:      task.Uris,
	}}, nil
}

func (f *fakePipeline) Export(_ context.Context, job *types.OutputJob) error {
	if f.exportErr != nil {
		return f.exportErr
	}
	f.exported = append(f.exported, job)
	return nil
}

func testExportService(pipeline Pipeline, results *fakeResults, payloads *fakePayloads) *Service {
	return &Service{
		name:             "export-test",
		agent:            "test",
		pipeline:         pipeline,
		results:          results,
		payloads:         payloads,
		storage:          openStorage{},
		pollInterval:     10 * time.Millisecond,
		concurrency:      2,
		failureThreshold: 0.2,
	}
}

type openStorage struct{}

func (openStorage) HasSpaceToStore() bool    { return true }
func (openStorage) HasSpaceToRetrieve() bool { return true }
func (openStorage) HasSpaceForExport() bool  { return true }
func (openStorage) AvailableBytes() uint64   { return 1 << 40 }

func task(uris ...string) types.TaskResponse {
	return types.TaskResponse{
		TaskId:    "task-1",
		JobId:     "job-1",
		PayloadId: "payload-1",
		Agent:     "test",
		Uris:      uris,
	}
}

func TestPollExportsAndReportsSuccess(t *testing.T) {
	pipeline := &fakePipeline{}
	results := newFakeResults(task("a.dcm", "b.dcm"))
	s := testExportService(pipeline, results, &fakePayloads{})

	s.poll(context.Background())

	assert.Equal(t, []string{"task-1"}, results.successes)
	require.Len(t, pipeline.exported, 1)
	assert.Len(t, pipeline.exported[0].Files, 2)
	assert.Equal(t, 2, pipeline.exported[0].SuccessCount)
}

func TestPollSkipsEmptyConversion(t *testing.T) {
	pipeline := &fakePipeline{skip: true}
	results := newFakeResults(task("a.dcm"))
	s := testExportService(pipeline, results, &fakePayloads{})

	s.poll(context.Background())

	assert.Empty(t, results.successes)
	assert.Empty(t, results.failures)
}

func TestConvertFailureIsNonRetriable(t *testing.T) {
	pipeline := &fakePipeline{convertErr: fmt.Errorf("no owning request")}
	results := newFakeResults(task("a.dcm"))
	s := testExportService(pipeline, results, &fakePayloads{})

	s.poll(context.Background())

	retriable, reported := results.failures["task-1"]
	assert.True(t, reported)
	assert.False(t, retriable)
}

func TestFailureThresholdBlocksExport(t *testing.T) {
	// 3 of 10 downloads fail with threshold 0.2: report non-retriable, export
	// nothing.
	uris := make([]string, 10)
	failOn := map[string]bool{}
	for i := range uris {
		uris[i] = fmt.Sprintf("%d.dcm", i)
	}
	failOn["0.dcm"] = true
	failOn["1.dcm"] = true
	failOn["2.dcm"] = true

	pipeline := &fakePipeline{}
	results := newFakeResults(task(uris...))
	s := testExportService(pipeline, results, &fakePayloads{failOn: failOn})

	s.poll(context.Background())

	retriable, reported := results.failures["task-1"]
	assert.True(t, reported)
	assert.False(t, retriable)
	assert.Empty(t, pipeline.exported)
	assert.Empty(t, results.successes)
}

func TestExportErrorReportsRetriable(t *testing.T) {
	pipeline := &fakePipeline{exportErr: errors.NewTransientTransport("sink unavailable")}
	results := newFakeResults(task("a.dcm"))
	s := testExportService(pipeline, results, &fakePayloads{})

	s.poll(context.Background())

	retriable, reported := results.failures["task-1"]
	assert.True(t, reported)
	assert.True(t, retriable)
}

func TestPermanentExportErrorNotRetriable(t *testing.T) {
	pipeline := &fakePipeline{exportErr: errors.NewPermanentTransport("bad destination")}
	results := newFakeResults(task("a.dcm"))
	s := testExportService(pipeline, results, &fakePayloads{})

	s.poll(context.Background())

	retriable, reported := results.failures["task-1"]
	assert.True(t, reported)
	assert.False(t, retriable)
}
