/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package platform

import (
	"context"
	"encoding/json"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/httpclient"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

type jobsClient struct {
	endpoint string
	token    string
	http     httpclient.Interface
}

// NewJobsClient builds the platform jobs API client from configuration.
func NewJobsClient() JobsService {
	return &jobsClient{
		endpoint: config.GetPlatformEndpoint(),
		token:    config.GetPlatformToken(),
		http:     httpclient.NewHttpClient(),
	}
}

type createJobRequest struct {
	PipelineId string            `json:"pipelineId"`
	Name       string            `json:"name"`
	Priority   types.JobPriority `json:"priority"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type createJobResponse struct {
	JobId     string `json:"jobId"`
	PayloadId string `json:"payloadId"`
}

func (c *jobsClient) Create(ctx context.Context, pipelineId, jobName string,
	priority types.JobPriority, metadata map[string]string) (string, string, error) {
	body := createJobRequest{
		PipelineId: pipelineId,
		Name:       jobName,
		Priority:   priority,
		Metadata:   metadata,
	}
	result, err := c.http.Post(ctx, c.endpoint+"/api/jobs", body, c.auth()...)
	if err != nil {
		return "", "", transportError("create job", err)
	}
	if err = resultToError("create job", result); err != nil {
		return "", "", err
	}
	var rsp createJobResponse
	if err = json.Unmarshal(result.Body, &rsp); err != nil {
		return "", "", transportError("create job", err)
	}
	klog.Infof("created platform job %s with payload %s for pipeline %s", rsp.JobId, rsp.PayloadId, pipelineId)
	return rsp.JobId, rsp.PayloadId, nil
}

func (c *jobsClient) AddMetadata(ctx context.Context, platformJobId string, metadata map[string]string) error {
	if len(metadata) == 0 {
		return nil
	}
	url := fmt.Sprintf("%s/api/jobs/%s/metadata", c.endpoint, platformJobId)
	result, err := c.http.Post(ctx, url, metadata, c.auth()...)
	if err != nil {
		return transportError("add job metadata", err)
	}
	return resultToError("add job metadata", result)
}

func (c *jobsClient) Start(ctx context.Context, platformJobId string) error {
	url := fmt.Sprintf("%s/api/jobs/%s/start", c.endpoint, platformJobId)
	result, err := c.http.Post(ctx, url, nil, c.auth()...)
	if err != nil {
		return transportError("start job", err)
	}
	return resultToError("start job", result)
}

func (c *jobsClient) Status(ctx context.Context, platformJobId string) (*types.PlatformJobDetails, error) {
	url := fmt.Sprintf("%s/api/jobs/%s", c.endpoint, platformJobId)
	result, err := c.http.Get(ctx, url, c.auth()...)
	if err != nil {
		return nil, transportError("get job status", err)
	}
	if err = resultToError("get job status", result); err != nil {
		return nil, err
	}
	var details types.PlatformJobDetails
	if err = json.Unmarshal(result.Body, &details); err != nil {
		return nil, transportError("get job status", err)
	}
	return &details, nil
}

func (c *jobsClient) auth() []string {
	if c.token == "" {
		return nil
	}
	return []string{"Authorization", "Bearer " + c.token}
}
