/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/httpclient"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

type resultsClient struct {
	endpoint string
	http     httpclient.Interface
}

// NewResultsClient builds the results service client from configuration.
func NewResultsClient() ResultsService {
	return &resultsClient{
		endpoint: config.GetResultsEndpoint(),
		http:     httpclient.NewHttpClient(),
	}
}

func (c *resultsClient) GetPendingJobs(ctx context.Context, agent string, max int) ([]types.TaskResponse, error) {
	tasksUrl := fmt.Sprintf("%s/api/tasks?agent=%s&size=%d", c.endpoint, url.QueryEscape(agent), max)
	result, err := c.http.Get(ctx, tasksUrl)
	if err != nil {
		return nil, transportError("get pending tasks", err)
	}
	if err = resultToError("get pending tasks", result); err != nil {
		return nil, err
	}
	var tasks []types.TaskResponse
	if err = json.Unmarshal(result.Body, &tasks); err != nil {
		return nil, transportError("get pending tasks", err)
	}
	return tasks, nil
}

func (c *resultsClient) ReportSuccess(ctx context.Context, taskId string) error {
	reportUrl := fmt.Sprintf("%s/api/tasks/%s/success", c.endpoint, taskId)
	result, err := c.http.Put(ctx, reportUrl, nil)
	if err != nil {
		return transportError("report task success", err)
	}
	return resultToError("report task success", result)
}

func (c *resultsClient) ReportFailure(ctx context.Context, taskId string, retriable bool) error {
	reportUrl := fmt.Sprintf("%s/api/tasks/%s/failure", c.endpoint, taskId)
	body := map[string]bool{"retriable": retriable}
	result, err := c.http.Put(ctx, reportUrl, body)
	if err != nil {
		return transportError("report task failure", err)
	}
	return resultToError("report task failure", result)
}
