/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package export

import (
	"context"
	"fmt"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/database"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/dicomweb"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

// stowClient is the slice of the DICOMweb surface the STOW pipeline uses.
type stowClient interface {
	StoreStudies(ctx context.Context, files []types.File) error
}

// DicomWebPipeline pushes completed job outputs to the DICOMweb output
// resources declared on the owning inference request.
type DicomWebPipeline struct {
	requests database.InferenceRequestInterface

	// test seam; production builds a real STOW client per resource
	newClient func(details types.ConnectionDetails) (stowClient, error)
}

func NewDicomWebPipeline(requests database.InferenceRequestInterface) *DicomWebPipeline {
	return &DicomWebPipeline{
		requests: requests,
		newClient: func(details types.ConnectionDetails) (stowClient, error) {
			return dicomweb.NewClient(details)
		},
	}
}

// Convert resolves the owning request and emits one output job per declared
// DICOMweb output resource. A task without a request, or a request without
// DICOMweb outputs, is a permanent failure.
func (p *DicomWebPipeline) Convert(ctx context.Context, task *types.TaskResponse) ([]*types.OutputJob, error) {
	req, err := p.requests.GetInferenceRequest(ctx, task.JobId)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errors.NewPermanentTransport(
			fmt.Sprintf("no inference request owns job %s", task.JobId))
	}
	resources := req.DicomWebOutputResources()
	if len(resources) == 0 {
		return nil, errors.NewPermanentTransport(
			fmt.Sprintf("request %s declares no DICOMweb output resource", req.JobId))
	}
	jobs := make([]*types.OutputJob, 0, len(resources))
	for i := range resources {
		jobs = append(jobs, &types.OutputJob{
			TaskId:      task.TaskId,
			PayloadId:   task.PayloadId,
			JobId:       task.JobId,
			Agent:       task.Agent,
			Destination: resources[i].ConnectionDetails.Uri,
			Uris:        task.Uris,
		})
	}
	return jobs, nil
}

// Export posts the downloaded files to the job's destination URI with the
// auth the owning request declared for it.
func (p *DicomWebPipeline) Export(ctx context.Context, job *types.OutputJob) error {
	req, err := p.requests.GetInferenceRequest(ctx, job.JobId)
	if err != nil {
		return err
	}
	if req == nil {
		return errors.NewPermanentTransport(
			fmt.Sprintf("no inference request owns job %s", job.JobId))
	}
	for _, resource := range req.DicomWebOutputResources() {
		if resource.ConnectionDetails.Uri != job.Destination {
			continue
		}
		client, err := p.newClient(resource.ConnectionDetails)
		if err != nil {
			return err
		}
		return client.StoreStudies(ctx, job.Files)
	}
	return errors.NewPermanentTransport(
		fmt.Sprintf("destination %s no longer declared on request %s", job.Destination, job.JobId))
}
