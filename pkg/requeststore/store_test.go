/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package requeststore

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	lru "github.com/hashicorp/golang-lru/v2"
	"gotest.tools/assert"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/database"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

type fakeRequestDB struct {
	live     map[string]*types.InferenceRequest
	archived map[string]types.InferenceRequestStatus

	jobs map[string]*types.InferenceJob

	archiveErr error
}

func newFakeRequestDB() *fakeRequestDB {
	return &fakeRequestDB{
		live:     map[string]*types.InferenceRequest{},
		archived: map[string]types.InferenceRequestStatus{},
		jobs:     map[string]*types.InferenceJob{},
	}
}

func (f *fakeRequestDB) InsertInferenceRequest(_ context.Context, req *types.InferenceRequest) error {
	clone := *req
	f.live[req.JobId] = &clone
	return nil
}

func (f *fakeRequestDB) UpdateInferenceRequestState(_ context.Context, req *types.InferenceRequest) error {
	clone := *req
	f.live[req.JobId] = &clone
	return nil
}

func (f *fakeRequestDB) ArchiveInferenceRequest(_ context.Context, jobId string, status types.InferenceRequestStatus) error {
	if f.archiveErr != nil {
		return f.archiveErr
	}
	f.archived[jobId] = status
	delete(f.live, jobId)
	return nil
}

func (f *fakeRequestDB) SelectInferenceRequests(context.Context, sqrl.Sqlizer, bool) ([]*types.InferenceRequest, error) {
	return nil, nil
}

func (f *fakeRequestDB) GetInferenceRequest(_ context.Context, jobId string) (*types.InferenceRequest, error) {
	if status, ok := f.archived[jobId]; ok {
		return &types.InferenceRequest{
			JobId:  jobId,
			State:  types.InferenceRequestStateCompleted,
			Status: status,
		}, nil
	}
	req, ok := f.live[jobId]
	if !ok {
		return nil, nil
	}
	clone := *req
	return &clone, nil
}

func (f *fakeRequestDB) GetInferenceRequestByPayloadId(_ context.Context, payloadId string) (*types.InferenceRequest, error) {
	for _, req := range f.live {
		if req.PayloadId == payloadId {
			clone := *req
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeRequestDB) GetInferenceRequestByTransactionId(_ context.Context, transactionId string) (*types.InferenceRequest, error) {
	for _, req := range f.live {
		if req.TransactionId == transactionId {
			clone := *req
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeRequestDB) ListQueuedInferenceRequests(context.Context) ([]*types.InferenceRequest, error) {
	var queued []*types.InferenceRequest
	for _, req := range f.live {
		if req.State == types.InferenceRequestStateQueued {
			clone := *req
			queued = append(queued, &clone)
		}
	}
	return queued, nil
}

func (f *fakeRequestDB) ResetInProcessRequests(context.Context) error {
	for _, req := range f.live {
		if req.State == types.InferenceRequestStateInProcess {
			req.State = types.InferenceRequestStateQueued
		}
	}
	return nil
}

func (f *fakeRequestDB) InsertInferenceJob(context.Context, *types.InferenceJob) error { return nil }

func (f *fakeRequestDB) GetInferenceJob(_ context.Context, jobId string) (*types.InferenceJob, error) {
	return f.jobs[jobId], nil
}

func (f *fakeRequestDB) SelectInferenceJobs(context.Context, sqrl.Sqlizer) ([]*types.InferenceJob, error) {
	return nil, nil
}

func (f *fakeRequestDB) ListWorkingInferenceJobs(context.Context) ([]*types.InferenceJob, error) {
	return nil, nil
}

func (f *fakeRequestDB) UpdateInferenceJobState(context.Context, *types.InferenceJob) error {
	return nil
}

func (f *fakeRequestDB) StampInferenceJobTaken(context.Context, string) error { return nil }
func (f *fakeRequestDB) ResetJobStates(context.Context) error                 { return nil }

type fakeStatusApi struct {
	details *types.PlatformJobDetails
	err     error
}

func (f *fakeStatusApi) Create(context.Context, string, string, types.JobPriority, map[string]string) (string, string, error) {
	return "", "", nil
}
func (f *fakeStatusApi) AddMetadata(context.Context, string, map[string]string) error { return nil }
func (f *fakeStatusApi) Start(context.Context, string) error                          { return nil }
func (f *fakeStatusApi) Status(context.Context, string) (*types.PlatformJobDetails, error) {
	return f.details, f.err
}

type fakeReclaimer struct {
	paths []string
}

func (f *fakeReclaimer) Enqueue(path string) {
	f.paths = append(f.paths, path)
}

func testStore(db *fakeRequestDB, api *fakeStatusApi) (*Store, *fakeReclaimer) {
	dedup, _ := lru.New[string, struct{}](dedupSize)
	reclaimer := &fakeReclaimer{}
	return &Store{
		db:      db,
		jobsDb:  db,
		jobsApi: api,
		cleanup: reclaimer,
		dedup:   dedup,
		queue:   make(chan string, queueDepth),
	}, reclaimer
}

func queuedRequest(jobId string) *types.InferenceRequest {
	return &types.InferenceRequest{
		TransactionId: "T-" + jobId,
		JobId:         jobId,
		PayloadId:     "payload-" + jobId,
		State:         types.InferenceRequestStateQueued,
		Status:        types.InferenceRequestStatusUnknown,
		InputResources: []types.RequestInputResource{
			{Interface: types.InterfaceDicomWeb, ConnectionDetails: types.ConnectionDetails{Uri: "http://pacs/"}},
		},
		InputMetadata: &types.InputMetadata{Details: &types.InputMetadataDetails{
			Type:    types.MetadataTypeDicomUid,
			Studies: []types.RequestedStudy{{StudyInstanceUid: "1.2"}},
		}},
	}
}

func TestTakeMovesQueuedToInProcess(t *testing.T) {
	db := newFakeRequestDB()
	s, _ := testStore(db, &fakeStatusApi{})
	assert.NilError(t, db.InsertInferenceRequest(context.Background(), queuedRequest("r1")))
	s.queue <- "r1"
	s.dedup.Add("r1", struct{}{})

	req, err := s.Take(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, req.JobId, "r1")
	assert.Equal(t, req.State, types.InferenceRequestStateInProcess)
	assert.Equal(t, db.live["r1"].State, types.InferenceRequestStateInProcess)
}

func TestTakeReturnsOnCancellation(t *testing.T) {
	s, _ := testStore(newFakeRequestDB(), &fakeStatusApi{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := s.Take(ctx)
	assert.Assert(t, err != nil)
}

func TestTakeSkipsAlreadyProcessedRows(t *testing.T) {
	db := newFakeRequestDB()
	s, _ := testStore(db, &fakeStatusApi{})
	taken := queuedRequest("r1")
	taken.State = types.InferenceRequestStateInProcess
	assert.NilError(t, db.InsertInferenceRequest(context.Background(), taken))
	assert.NilError(t, db.InsertInferenceRequest(context.Background(), queuedRequest("r2")))
	s.queue <- "r1"
	s.queue <- "r2"

	req, err := s.Take(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, req.JobId, "r2")
}

func TestUpdateSuccessArchives(t *testing.T) {
	db := newFakeRequestDB()
	s, reclaimed := testStore(db, &fakeStatusApi{})
	req := queuedRequest("r1")
	req.StoragePath = "/tmp/requests/r1"
	assert.NilError(t, db.InsertInferenceRequest(context.Background(), req))
	s.dedup.Add("r1", struct{}{})

	s.Update(context.Background(), req, types.InferenceRequestStatusSuccess)
	assert.Equal(t, db.archived["r1"], types.InferenceRequestStatusSuccess)
	_, live := db.live["r1"]
	assert.Assert(t, !live)
	_, dup := s.dedup.Get("r1")
	assert.Assert(t, !dup)
	// archiving gives the staging directory up for reclamation
	assert.DeepEqual(t, reclaimed.paths, []string{"/tmp/requests/r1"})
}

func TestUpdateFailRequeuesUntilBudgetSpent(t *testing.T) {
	db := newFakeRequestDB()
	s, _ := testStore(db, &fakeStatusApi{})
	req := queuedRequest("r1")
	assert.NilError(t, db.InsertInferenceRequest(context.Background(), req))
	s.dedup.Add("r1", struct{}{})

	for try := 1; try <= types.MaxRequestRetries; try++ {
		s.Update(context.Background(), req, types.InferenceRequestStatusFail)
		assert.Equal(t, req.TryCount, try)
		assert.Equal(t, db.live["r1"].State, types.InferenceRequestStateQueued)
		<-s.queue
	}

	s.Update(context.Background(), req, types.InferenceRequestStatusFail)
	assert.Equal(t, db.archived["r1"], types.InferenceRequestStatusFail)
	_, live := db.live["r1"]
	assert.Assert(t, !live)
}

func TestUpdateFinalArchiveFailureDrops(t *testing.T) {
	db := newFakeRequestDB()
	db.archiveErr = fmt.Errorf("archive table unavailable")
	s, reclaimed := testStore(db, &fakeStatusApi{})
	req := queuedRequest("r1")
	assert.NilError(t, db.InsertInferenceRequest(context.Background(), req))
	s.dedup.Add("r1", struct{}{})

	s.Update(context.Background(), req, types.InferenceRequestStatusSuccess)
	_, dup := s.dedup.Get("r1")
	assert.Assert(t, !dup)
	_, archived := db.archived["r1"]
	assert.Assert(t, !archived)
	// a dropped request still gives up its staging
	assert.DeepEqual(t, reclaimed.paths, []string{StoragePathFor("r1")})
}

func TestGetStatusUnknownId(t *testing.T) {
	s, _ := testStore(newFakeRequestDB(), &fakeStatusApi{})
	_, err := s.GetStatus(context.Background(), "missing")
	assert.Assert(t, errors.IsNotFound(err))
}

func TestGetStatusFusesPlatformDetails(t *testing.T) {
	db := newFakeRequestDB()
	api := &fakeStatusApi{details: &types.PlatformJobDetails{JobId: "p-1", State: "RUNNING"}}
	s, _ := testStore(db, api)
	req := queuedRequest("r1")
	assert.NilError(t, db.InsertInferenceRequest(context.Background(), req))
	db.jobs["r1"] = &types.InferenceJob{JobId: "r1", PlatformJobId: "p-1"}

	status, err := s.GetStatus(context.Background(), "T-r1")
	assert.NilError(t, err)
	assert.Equal(t, status.TransactionId, "T-r1")
	assert.Equal(t, status.Dicom.State, types.InferenceRequestStateQueued)
	assert.Assert(t, status.Platform != nil)
	assert.Equal(t, status.Platform.State, "RUNNING")
}

func TestGetStatusPlatformUnavailable(t *testing.T) {
	db := newFakeRequestDB()
	api := &fakeStatusApi{err: fmt.Errorf("connection refused")}
	s, _ := testStore(db, api)
	req := queuedRequest("r1")
	assert.NilError(t, db.InsertInferenceRequest(context.Background(), req))
	db.jobs["r1"] = &types.InferenceJob{JobId: "r1", PlatformJobId: "p-1"}

	status, err := s.GetStatus(context.Background(), "r1")
	assert.NilError(t, err)
	assert.Assert(t, status.Platform == nil)
	assert.Assert(t, status.Message != "")
}

func TestOnEventDeduplicates(t *testing.T) {
	s, _ := testStore(newFakeRequestDB(), &fakeStatusApi{})
	row := &database.InferenceRequestRow{
		JobId: "r1",
		State: string(types.InferenceRequestStateQueued),
	}
	s.onEvent(database.Added, "r1", row)
	s.onEvent(database.Modified, "r1", row)
	assert.Equal(t, len(s.queue), 1)

	inProcess := &database.InferenceRequestRow{
		JobId: "r2",
		State: string(types.InferenceRequestStateInProcess),
	}
	s.onEvent(database.Added, "r2", inProcess)
	assert.Equal(t, len(s.queue), 1)
}

func TestResetRequeuesStrandedRequest(t *testing.T) {
	db := newFakeRequestDB()
	s, _ := testStore(db, &fakeStatusApi{})
	stranded := queuedRequest("r1")
	stranded.State = types.InferenceRequestStateInProcess
	assert.NilError(t, db.InsertInferenceRequest(context.Background(), stranded))

	// startup requeues rows a previous run left InProcess; the resync then
	// schedules them without waiting for another table write
	assert.NilError(t, db.ResetInProcessRequests(context.Background()))
	s.scheduleQueued(context.Background())

	req, err := s.Take(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, req.JobId, "r1")
	assert.Equal(t, req.State, types.InferenceRequestStateInProcess)
}

func TestScheduleQueuedRecoversDroppedSchedule(t *testing.T) {
	db := newFakeRequestDB()
	s, _ := testStore(db, &fakeStatusApi{})
	assert.NilError(t, db.InsertInferenceRequest(context.Background(), queuedRequest("r1")))

	// a schedule dropped on a full queue leaves no dedup entry behind
	s.queue = make(chan string)
	s.schedule("r1")
	_, dup := s.dedup.Get("r1")
	assert.Assert(t, !dup)

	// the resync picks the row back up, once
	s.queue = make(chan string, queueDepth)
	s.scheduleQueued(context.Background())
	assert.Equal(t, len(s.queue), 1)
	s.scheduleQueued(context.Background())
	assert.Equal(t, len(s.queue), 1)
}
