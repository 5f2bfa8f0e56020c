/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package dicomweb is a minimal DICOMweb client covering the retrieval and
// export needs of the gateway: WADO-RS retrieve, QIDO-RS study query, and
// STOW-RS store, all speaking multipart/related application/dicom.
package dicomweb

import (
	"fmt"
	"strings"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/httpclient"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

type Client struct {
	base       string
	authHeader string
	http       httpclient.Interface
}

// NewClient builds a client for one DICOMweb endpoint. The authorization
// header is derived from the declared auth type; any unrecognized type fails
// the owning request.
func NewClient(details types.ConnectionDetails) (*Client, error) {
	header, err := AuthHeader(details)
	if err != nil {
		return nil, err
	}
	return &Client{
		base:       strings.TrimRight(details.Uri, "/"),
		authHeader: header,
		http:       httpclient.NewHttpClient(),
	}, nil
}

// AuthHeader derives the Authorization header value from connection details.
// An empty auth type means no authentication.
func AuthHeader(details types.ConnectionDetails) (string, error) {
	switch details.AuthType {
	case types.AuthTypeNone, "":
		return "", nil
	case types.AuthTypeBasic:
		return "Basic " + details.AuthToken, nil
	case types.AuthTypeBearer:
		return "Bearer " + details.AuthToken, nil
	default:
		return "", errors.NewInferenceRequestError(
			fmt.Sprintf("unsupported auth type %q", details.AuthType))
	}
}

func (c *Client) headers(pairs ...string) []string {
	if c.authHeader != "" {
		pairs = append(pairs, "Authorization", c.authHeader)
	}
	return pairs
}
