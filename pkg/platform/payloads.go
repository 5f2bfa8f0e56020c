/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package platform

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/httpclient"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

type payloadsClient struct {
	endpoint string
	token    string
	http     httpclient.Interface
}

// NewPayloadsClient builds the platform payloads API client from configuration.
func NewPayloadsClient() PayloadsService {
	return &payloadsClient{
		endpoint: config.GetPlatformEndpoint(),
		token:    config.GetPlatformToken(),
		http:     httpclient.NewHttpClient(),
	}
}

// Upload streams a staged file into the payload under its relative name. The
// local file stays untouched; the caller owns its reclamation.
func (c *payloadsClient) Upload(ctx context.Context, payloadId, relativeName, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	uploadUrl := fmt.Sprintf("%s/api/payloads/%s/upload?name=%s",
		c.endpoint, payloadId, url.QueryEscape(relativeName))
	headers := append(c.auth(), "Content-Type", "application/octet-stream")
	result, err := c.http.Put(ctx, uploadUrl, file, headers...)
	if err != nil {
		return transportError("upload payload file", err)
	}
	return resultToError("upload payload file", result)
}

func (c *payloadsClient) Download(ctx context.Context, payloadId, name string) (*types.File, error) {
	downloadUrl := fmt.Sprintf("%s/api/payloads/%s/files?name=%s",
		c.endpoint, payloadId, url.QueryEscape(name))
	result, err := c.http.Get(ctx, downloadUrl, c.auth()...)
	if err != nil {
		return nil, transportError("download payload file", err)
	}
	if err = resultToError("download payload file", result); err != nil {
		return nil, err
	}
	return &types.File{Name: name, Data: result.Body}, nil
}

func (c *payloadsClient) auth() []string {
	if c.token == "" {
		return nil
	}
	return []string{"Authorization", "Bearer " + c.token}
}
