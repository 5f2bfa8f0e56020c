/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

// InferenceRequestResponse echoes the identifiers the gateway assigned to an
// accepted inference request.
type InferenceRequestResponse struct {
	TransactionId string `json:"transactionId"`
	JobId         string `json:"jobId"`
	PayloadId     string `json:"payloadId"`
}

// CreateInferenceRequest handles submission of a new inference request.
// POST /inference
func (h *Handler) CreateInferenceRequest(c *gin.Context) {
	handle(c, h.createInferenceRequest)
}

// GetInferenceStatus handles status lookup by transaction id or job id.
// GET /inference/status/:id
func (h *Handler) GetInferenceStatus(c *gin.Context) {
	handle(c, h.getInferenceStatus)
}

func (h *Handler) createInferenceRequest(c *gin.Context) (interface{}, error) {
	var req types.InferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, errors.NewBadRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	// Identifiers the caller left blank are assigned here, before queueing, so
	// the response can name them.
	if req.JobId == "" {
		req.JobId = uuid.New().String()
	}
	if req.PayloadId == "" {
		req.PayloadId = uuid.New().String()
	}
	if err := h.store.Add(c.Request.Context(), &req); err != nil {
		return nil, err
	}
	return InferenceRequestResponse{
		TransactionId: req.TransactionId,
		JobId:         req.JobId,
		PayloadId:     req.PayloadId,
	}, nil
}

func (h *Handler) getInferenceStatus(c *gin.Context) (interface{}, error) {
	return h.store.GetStatus(c.Request.Context(), c.Param("id"))
}
