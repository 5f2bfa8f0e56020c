/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package dicomweb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/httpclient"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

const acceptDicom = `multipart/related; type="application/dicom"`

// RetrieveStudy fetches every instance of a study.
func (c *Client) RetrieveStudy(ctx context.Context, studyUid string) ([]types.File, error) {
	return c.retrieve(ctx, fmt.Sprintf("%s/studies/%s", c.base, studyUid))
}

// RetrieveSeries fetches every instance of a series.
func (c *Client) RetrieveSeries(ctx context.Context, studyUid, seriesUid string) ([]types.File, error) {
	return c.retrieve(ctx, fmt.Sprintf("%s/studies/%s/series/%s", c.base, studyUid, seriesUid))
}

// RetrieveInstance fetches a single instance.
func (c *Client) RetrieveInstance(ctx context.Context, studyUid, seriesUid, sopUid string) ([]types.File, error) {
	return c.retrieve(ctx,
		fmt.Sprintf("%s/studies/%s/series/%s/instances/%s", c.base, studyUid, seriesUid, sopUid))
}

func (c *Client) retrieve(ctx context.Context, url string) ([]types.File, error) {
	result, err := c.http.Get(ctx, url, c.headers("Accept", acceptDicom)...)
	if err != nil {
		return nil, errors.NewTransientTransport(fmt.Sprintf("wado retrieve %s: %s", url, err))
	}
	if !result.IsSuccess() {
		return nil, retrieveError(url, result)
	}
	return parseMultipart(result)
}

func retrieveError(url string, result *httpclient.Result) error {
	message := fmt.Sprintf("wado retrieve %s: %s", url, result)
	if result.StatusCode >= 400 && result.StatusCode < 500 {
		return errors.NewPermanentTransport(message)
	}
	return errors.NewTransientTransport(message)
}

// parseMultipart splits a multipart/related response into its DICOM parts.
// Part names are positional; the caller derives the real identity from the
// DICOM header after staging.
func parseMultipart(result *httpclient.Result) ([]types.File, error) {
	contentType := result.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, errors.NewPermanentTransport(
			fmt.Sprintf("unparseable content type %q: %s", contentType, err))
	}
	if mediaType == "application/dicom" {
		return []types.File{{Name: "0.dcm", Data: result.Body}}, nil
	}
	boundary, ok := params["boundary"]
	if !ok {
		return nil, errors.NewPermanentTransport(
			fmt.Sprintf("multipart response without boundary: %q", contentType))
	}

	var files []types.File
	reader := multipart.NewReader(bytes.NewReader(result.Body), boundary)
	for i := 0; ; i++ {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewPermanentTransport(fmt.Sprintf("bad multipart part: %s", err))
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, errors.NewTransientTransport(fmt.Sprintf("reading multipart part: %s", err))
		}
		files = append(files, types.File{Name: fmt.Sprintf("%d.dcm", i), Data: data})
	}
	return files, nil
}
