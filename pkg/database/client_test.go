/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"gotest.tools/assert"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

func newMockClient(t *testing.T) (*Client, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NilError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewClientWithDB(sqlx.NewDb(db, "sqlmock")), mock
}

func TestGetApplicationEntityNoDBConnection(t *testing.T) {
	client := &Client{} // No database connection

	_, err := client.GetApplicationEntity(context.Background(), "gateway")
	assert.ErrorContains(t, err, "db has not been initialized")
}

func TestInsertInferenceJobNilInput(t *testing.T) {
	client := &Client{}

	err := client.InsertInferenceJob(context.Background(), nil)
	assert.NilError(t, err)
}

func TestResetJobStatesNoDBConnection(t *testing.T) {
	client := &Client{} // No database connection

	err := client.ResetJobStates(context.Background())
	assert.ErrorContains(t, err, "db has not been initialized")
}

func TestStampInferenceJobTaken(t *testing.T) {
	client, mock := newMockClient(t)
	mock.ExpectExec(`UPDATE inference_job`).
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := client.StampInferenceJobTaken(context.Background(), "job-1")
	assert.NilError(t, err)
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestResetJobStates(t *testing.T) {
	client, mock := newMockClient(t)
	mock.ExpectExec(`UPDATE inference_job`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := client.ResetJobStates(context.Background())
	assert.NilError(t, err)
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestResetInProcessRequests(t *testing.T) {
	client, mock := newMockClient(t)
	mock.ExpectExec(`UPDATE inference_request`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := client.ResetInProcessRequests(context.Background())
	assert.NilError(t, err)
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestArchiveInferenceRequestRunsInTransaction(t *testing.T) {
	client, mock := newMockClient(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO inference_request_archive`).
		WithArgs("job-1", string(types.InferenceRequestStatusSuccess)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM inference_request`).
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := client.ArchiveInferenceRequest(context.Background(), "job-1", types.InferenceRequestStatusSuccess)
	assert.NilError(t, err)
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestArchiveInferenceRequestRollsBackOnFailure(t *testing.T) {
	client, mock := newMockClient(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO inference_request_archive`).
		WillReturnError(context.Canceled)
	mock.ExpectRollback()

	err := client.ArchiveInferenceRequest(context.Background(), "job-1", types.InferenceRequestStatusFail)
	assert.ErrorContains(t, err, "context canceled")
}

func TestIsTransient(t *testing.T) {
	assert.Assert(t, !isTransient(nil))
	assert.Assert(t, !isTransient(context.Canceled))
	assert.Assert(t, isTransient(assertableError("connection refused")))
}

type assertableError string

func (e assertableError) Error() string { return string(e) }
