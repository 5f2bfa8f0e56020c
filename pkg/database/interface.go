/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package database

import (
	"context"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

type Interface interface {
	ApplicationEntityInterface
	InferenceRequestInterface
	InferenceJobInterface
}

type ApplicationEntityInterface interface {
	UpsertApplicationEntity(ctx context.Context, entity *types.ApplicationEntity) error
	GetApplicationEntity(ctx context.Context, name string) (*types.ApplicationEntity, error)
	ListApplicationEntities(ctx context.Context) ([]*types.ApplicationEntity, error)
	DeleteApplicationEntity(ctx context.Context, name string) error

	UpsertSourceApplicationEntity(ctx context.Context, entity *types.SourceApplicationEntity) error
	GetSourceApplicationEntity(ctx context.Context, aeTitle string) (*types.SourceApplicationEntity, error)
	ListSourceApplicationEntities(ctx context.Context) ([]*types.SourceApplicationEntity, error)
	DeleteSourceApplicationEntity(ctx context.Context, aeTitle string) error

	UpsertDestinationApplicationEntity(ctx context.Context, entity *types.DestinationApplicationEntity) error
	GetDestinationApplicationEntity(ctx context.Context, name string) (*types.DestinationApplicationEntity, error)
	ListDestinationApplicationEntities(ctx context.Context) ([]*types.DestinationApplicationEntity, error)
	DeleteDestinationApplicationEntity(ctx context.Context, name string) error
}

type InferenceRequestInterface interface {
	InsertInferenceRequest(ctx context.Context, req *types.InferenceRequest) error
	UpdateInferenceRequestState(ctx context.Context, req *types.InferenceRequest) error
	ArchiveInferenceRequest(ctx context.Context, jobId string, status types.InferenceRequestStatus) error
	SelectInferenceRequests(ctx context.Context, query sqrl.Sqlizer, archived bool) ([]*types.InferenceRequest, error)
	GetInferenceRequest(ctx context.Context, jobId string) (*types.InferenceRequest, error)
	GetInferenceRequestByPayloadId(ctx context.Context, payloadId string) (*types.InferenceRequest, error)
	GetInferenceRequestByTransactionId(ctx context.Context, transactionId string) (*types.InferenceRequest, error)
	ListQueuedInferenceRequests(ctx context.Context) ([]*types.InferenceRequest, error)
	ResetInProcessRequests(ctx context.Context) error
}

type InferenceJobInterface interface {
	InsertInferenceJob(ctx context.Context, job *types.InferenceJob) error
	GetInferenceJob(ctx context.Context, jobId string) (*types.InferenceJob, error)
	SelectInferenceJobs(ctx context.Context, query sqrl.Sqlizer) ([]*types.InferenceJob, error)
	ListWorkingInferenceJobs(ctx context.Context) ([]*types.InferenceJob, error)
	UpdateInferenceJobState(ctx context.Context, job *types.InferenceJob) error
	StampInferenceJobTaken(ctx context.Context, jobId string) error
	ResetJobStates(ctx context.Context) error
}
