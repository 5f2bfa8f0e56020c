/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package dicomweb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
)

// studyInstanceUidTag is the DICOM JSON key for StudyInstanceUID (0020,000D).
const studyInstanceUidTag = "0020000D"

type qidoAttribute struct {
	Value []interface{} `json:"Value"`
}

// QueryStudies runs a QIDO-RS study-level query with the given attribute
// filters (tag keyword to value, e.g. "PatientID" -> "P1") and returns the
// matching study instance UIDs.
func (c *Client) QueryStudies(ctx context.Context, filters map[string]string) ([]string, error) {
	query := url.Values{}
	for tag, value := range filters {
		query.Set(tag, value)
	}
	target := fmt.Sprintf("%s/studies?%s", c.base, query.Encode())

	result, err := c.http.Get(ctx, target, c.headers("Accept", "application/dicom+json")...)
	if err != nil {
		return nil, errors.NewTransientTransport(fmt.Sprintf("qido query %s: %s", target, err))
	}
	if result.StatusCode == 204 {
		return nil, nil
	}
	if !result.IsSuccess() {
		return nil, retrieveError(target, result)
	}

	var studies []map[string]qidoAttribute
	if err = json.Unmarshal(result.Body, &studies); err != nil {
		return nil, errors.NewPermanentTransport(fmt.Sprintf("bad qido response: %s", err))
	}
	seen := map[string]struct{}{}
	var uids []string
	for _, study := range studies {
		attribute, ok := study[studyInstanceUidTag]
		if !ok || len(attribute.Value) == 0 {
			continue
		}
		uid, ok := attribute.Value[0].(string)
		if !ok || uid == "" {
			continue
		}
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids, nil
}
