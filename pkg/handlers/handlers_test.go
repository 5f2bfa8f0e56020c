/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/processor"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/worker"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	added    []*types.InferenceRequest
	addErr   error
	statuses map[string]*types.InferenceStatusResponse
}

func (f *fakeStore) Add(_ context.Context, req *types.InferenceRequest) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, req)
	return nil
}

func (f *fakeStore) GetStatus(_ context.Context, id string) (*types.InferenceStatusResponse, error) {
	status, ok := f.statuses[id]
	if !ok {
		return nil, errors.NewNotFound("inference request", id)
	}
	return status, nil
}

type fakeEntityDb struct {
	entities     map[string]*types.ApplicationEntity
	sources      map[string]*types.SourceApplicationEntity
	destinations map[string]*types.DestinationApplicationEntity
}

func newFakeEntityDb() *fakeEntityDb {
	return &fakeEntityDb{
		entities:     map[string]*types.ApplicationEntity{},
		sources:      map[string]*types.SourceApplicationEntity{},
		destinations: map[string]*types.DestinationApplicationEntity{},
	}
}

func (f *fakeEntityDb) UpsertApplicationEntity(_ context.Context, entity *types.ApplicationEntity) error {
	f.entities[entity.Name] = entity
	return nil
}

func (f *fakeEntityDb) GetApplicationEntity(_ context.Context, name string) (*types.ApplicationEntity, error) {
	return f.entities[name], nil
}

func (f *fakeEntityDb) ListApplicationEntities(context.Context) ([]*types.ApplicationEntity, error) {
	var out []*types.ApplicationEntity
	for _, entity := range f.entities {
		out = append(out, entity)
	}
	return out, nil
}

func (f *fakeEntityDb) DeleteApplicationEntity(_ context.Context, name string) error {
	delete(f.entities, name)
	return nil
}

func (f *fakeEntityDb) UpsertSourceApplicationEntity(_ context.Context, entity *types.SourceApplicationEntity) error {
	f.sources[entity.AeTitle] = entity
	return nil
}

func (f *fakeEntityDb) GetSourceApplicationEntity(_ context.Context, aeTitle string) (*types.SourceApplicationEntity, error) {
	return f.sources[aeTitle], nil
}

func (f *fakeEntityDb) ListSourceApplicationEntities(context.Context) ([]*types.SourceApplicationEntity, error) {
	var out []*types.SourceApplicationEntity
	for _, entity := range f.sources {
		out = append(out, entity)
	}
	return out, nil
}

func (f *fakeEntityDb) DeleteSourceApplicationEntity(_ context.Context, aeTitle string) error {
	delete(f.sources, aeTitle)
	return nil
}

func (f *fakeEntityDb) UpsertDestinationApplicationEntity(_ context.Context, entity *types.DestinationApplicationEntity) error {
	f.destinations[entity.Name] = entity
	return nil
}

func (f *fakeEntityDb) GetDestinationApplicationEntity(_ context.Context, name string) (*types.DestinationApplicationEntity, error) {
	return f.destinations[name], nil
}

func (f *fakeEntityDb) ListDestinationApplicationEntities(context.Context) ([]*types.DestinationApplicationEntity, error) {
	var out []*types.DestinationApplicationEntity
	for _, entity := range f.destinations {
		out = append(out, entity)
	}
	return out, nil
}

func (f *fakeEntityDb) DeleteDestinationApplicationEntity(_ context.Context, name string) error {
	delete(f.destinations, name)
	return nil
}

func testEngine(store *fakeStore, db *fakeEntityDb, workers *worker.Registry) *gin.Engine {
	if workers == nil {
		workers = worker.NewRegistry()
	}
	return InitHttpHandlers(NewHandler(store, db, processor.Default(), workers))
}

func do(engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func inferenceRequestBody() *types.InferenceRequest {
	return &types.InferenceRequest{
		TransactionId: "txn-1",
		Algorithm:     "liver-seg",
		InputResources: []types.RequestInputResource{{
			Interface:         types.InterfaceDicomWeb,
			ConnectionDetails: types.ConnectionDetails{Uri: "http://pacs/dicomweb/"},
		}},
		InputMetadata: &types.InputMetadata{Details: &types.InputMetadataDetails{
			Type:    types.MetadataTypeDicomUid,
			Studies: []types.RequestedStudy{{StudyInstanceUid: "1.2.3"}},
		}},
	}
}

func TestCreateInferenceRequestAssignsIds(t *testing.T) {
	store := &fakeStore{}
	engine := testEngine(store, newFakeEntityDb(), nil)

	recorder := do(engine, http.MethodPost, "/inference", inferenceRequestBody())

	require.Equal(t, http.StatusOK, recorder.Code)
	var resp InferenceRequestResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "txn-1", resp.TransactionId)
	assert.NotEmpty(t, resp.JobId)
	assert.NotEmpty(t, resp.PayloadId)
	require.Len(t, store.added, 1)
	assert.Equal(t, resp.JobId, store.added[0].JobId)
}

func TestCreateInferenceRequestKeepsCallerIds(t *testing.T) {
	store := &fakeStore{}
	engine := testEngine(store, newFakeEntityDb(), nil)

	body := inferenceRequestBody()
	body.JobId = "job-7"
	body.PayloadId = "payload-7"
	recorder := do(engine, http.MethodPost, "/inference", body)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, store.added, 1)
	assert.Equal(t, "job-7", store.added[0].JobId)
	assert.Equal(t, "payload-7", store.added[0].PayloadId)
}

func TestCreateInferenceRequestValidationFailure(t *testing.T) {
	store := &fakeStore{}
	engine := testEngine(store, newFakeEntityDb(), nil)

	body := inferenceRequestBody()
	body.TransactionId = ""
	recorder := do(engine, http.MethodPost, "/inference", body)

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Empty(t, store.added)
}

func TestCreateInferenceRequestPersistenceFailure(t *testing.T) {
	store := &fakeStore{addErr: fmt.Errorf("database unavailable")}
	engine := testEngine(store, newFakeEntityDb(), nil)

	recorder := do(engine, http.MethodPost, "/inference", inferenceRequestBody())

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	var apiErr map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &apiErr))
	assert.NotEmpty(t, apiErr["errorCode"])
}

func TestGetInferenceStatus(t *testing.T) {
	store := &fakeStore{statuses: map[string]*types.InferenceStatusResponse{
		"txn-1": {
			TransactionId: "txn-1",
			Dicom: types.DicomStatus{
				State:  types.InferenceRequestStateInProcess,
				Status: types.InferenceRequestStatusUnknown,
			},
		},
	}}
	engine := testEngine(store, newFakeEntityDb(), nil)

	recorder := do(engine, http.MethodGet, "/inference/status/txn-1", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var resp types.InferenceStatusResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, types.InferenceRequestStateInProcess, resp.Dicom.State)

	recorder = do(engine, http.MethodGet, "/inference/status/missing", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestApplicationEntityCrud(t *testing.T) {
	db := newFakeEntityDb()
	engine := testEngine(&fakeStore{}, db, nil)

	entity := types.ApplicationEntity{
		Name:      "clara",
		AeTitle:   "CLARA-SCP",
		Processor: processor.PipelineProcessorName,
	}
	recorder := do(engine, http.MethodPost, "/config/ae", entity)
	require.Equal(t, http.StatusCreated, recorder.Code)
	require.NotNil(t, db.entities["clara"])

	recorder = do(engine, http.MethodGet, "/config/ae/clara", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = do(engine, http.MethodDelete, "/config/ae/clara", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, db.entities["clara"])

	recorder = do(engine, http.MethodGet, "/config/ae/clara", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCreateApplicationEntityRejectsUnknownProcessor(t *testing.T) {
	engine := testEngine(&fakeStore{}, newFakeEntityDb(), nil)

	entity := types.ApplicationEntity{Name: "clara", AeTitle: "CLARA-SCP", Processor: "no-such"}
	recorder := do(engine, http.MethodPost, "/config/ae", entity)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
}

func TestCreateApplicationEntityRejectsLongAeTitle(t *testing.T) {
	engine := testEngine(&fakeStore{}, newFakeEntityDb(), nil)

	entity := types.ApplicationEntity{
		Name:      "clara",
		AeTitle:   "THIS-AE-TITLE-IS-FAR-TOO-LONG",
		Processor: processor.PipelineProcessorName,
	}
	recorder := do(engine, http.MethodPost, "/config/ae", entity)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestSourceAndDestinationCrud(t *testing.T) {
	db := newFakeEntityDb()
	engine := testEngine(&fakeStore{}, db, nil)

	source := types.SourceApplicationEntity{AeTitle: "PACS-SCU", HostIp: "10.0.0.9"}
	recorder := do(engine, http.MethodPost, "/config/source", source)
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = do(engine, http.MethodGet, "/config/source/PACS-SCU", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	destination := types.DestinationApplicationEntity{
		Name: "pacs", AeTitle: "PACS", HostIp: "10.0.0.1", Port: 104,
	}
	recorder = do(engine, http.MethodPost, "/config/destination", destination)
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = do(engine, http.MethodDelete, "/config/destination/pacs", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, db.destinations["pacs"])

	recorder = do(engine, http.MethodDelete, "/config/destination/pacs", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCreateDestinationRejectsBadPort(t *testing.T) {
	engine := testEngine(&fakeStore{}, newFakeEntityDb(), nil)

	destination := types.DestinationApplicationEntity{
		Name: "pacs", AeTitle: "PACS", HostIp: "10.0.0.1", Port: 70000,
	}
	recorder := do(engine, http.MethodPost, "/config/destination", destination)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHealthEndpoints(t *testing.T) {
	workers := worker.NewRegistry()
	workers.Register("scp-manager")
	engine := testEngine(&fakeStore{}, newFakeEntityDb(), workers)

	recorder := do(engine, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	workers.SetStatus("scp-manager", worker.StatusRunning)
	recorder = do(engine, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = do(engine, http.MethodGet, "/health/status", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var resp HealthStatusResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, worker.StatusRunning, resp.Services["scp-manager"])
}

func TestUnknownRouteReturnsApiError(t *testing.T) {
	engine := testEngine(&fakeStore{}, newFakeEntityDb(), nil)

	recorder := do(engine, http.MethodGet, "/no/such/route", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	var apiErr map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &apiErr))
	assert.NotEmpty(t, apiErr["errorCode"])
}
