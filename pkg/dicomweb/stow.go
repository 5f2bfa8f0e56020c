/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package dicomweb

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

// StoreStudies posts the files to the endpoint's studies resource as one
// STOW-RS multipart/related request. Only HTTP 200 counts as success.
func (c *Client) StoreStudies(ctx context.Context, files []types.File) error {
	if len(files) == 0 {
		return nil
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, file := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", "application/dicom")
		part, err := writer.CreatePart(header)
		if err != nil {
			return errors.NewInternalError(fmt.Sprintf("building stow request: %s", err))
		}
		if _, err = part.Write(file.Data); err != nil {
			return errors.NewInternalError(fmt.Sprintf("building stow request: %s", err))
		}
	}
	if err := writer.Close(); err != nil {
		return errors.NewInternalError(fmt.Sprintf("building stow request: %s", err))
	}

	contentType := fmt.Sprintf(`multipart/related; type="application/dicom"; boundary=%s`, writer.Boundary())
	target := c.base + "/studies"
	result, err := c.http.Post(ctx, target, body.Bytes(), c.headers("Content-Type", contentType)...)
	if err != nil {
		return errors.NewTransientTransport(fmt.Sprintf("stow %s: %s", target, err))
	}
	if result.StatusCode != 200 {
		return retrieveError(target, result)
	}
	return nil
}
