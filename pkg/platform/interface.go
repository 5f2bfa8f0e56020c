/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package platform

import (
	"context"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

// JobsService is the downstream platform's job API.
type JobsService interface {
	Create(ctx context.Context, pipelineId, jobName string, priority types.JobPriority,
		metadata map[string]string) (jobId, payloadId string, err error)
	AddMetadata(ctx context.Context, platformJobId string, metadata map[string]string) error
	Start(ctx context.Context, platformJobId string) error
	Status(ctx context.Context, platformJobId string) (*types.PlatformJobDetails, error)
}

// PayloadsService moves files between the staging disk and a platform payload.
type PayloadsService interface {
	Upload(ctx context.Context, payloadId, relativeName, localPath string) error
	Download(ctx context.Context, payloadId, name string) (*types.File, error)
}

// ResultsService hands out completed jobs pending export and accepts the
// export verdicts.
type ResultsService interface {
	GetPendingJobs(ctx context.Context, agent string, max int) ([]types.TaskResponse, error)
	ReportSuccess(ctx context.Context, taskId string) error
	ReportFailure(ctx context.Context, taskId string, retriable bool) error
}
