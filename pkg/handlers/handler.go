/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/apiutil"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/database"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/processor"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/worker"
)

// requestStore is the slice of the inference-request store the handlers use.
type requestStore interface {
	Add(ctx context.Context, req *types.InferenceRequest) error
	GetStatus(ctx context.Context, id string) (*types.InferenceStatusResponse, error)
}

// Handler handles HTTP requests for the gateway's inbound surface.
type Handler struct {
	store      requestStore
	db         database.ApplicationEntityInterface
	processors *processor.Registry
	workers    *worker.Registry
}

// NewHandler creates a new gateway handler.
func NewHandler(store requestStore, db database.ApplicationEntityInterface,
	processors *processor.Registry, workers *worker.Registry) *Handler {
	return &Handler{
		store:      store,
		db:         db,
		processors: processors,
		workers:    workers,
	}
}

// handle is a common handler wrapper for HTTP requests.
func handle(c *gin.Context, fn func(c *gin.Context) (interface{}, error)) {
	handleWithStatus(c, http.StatusOK, fn)
}

// handleCreated is the wrapper for create operations responding 201.
func handleCreated(c *gin.Context, fn func(c *gin.Context) (interface{}, error)) {
	handleWithStatus(c, http.StatusCreated, fn)
}

func handleWithStatus(c *gin.Context, status int, fn func(c *gin.Context) (interface{}, error)) {
	result, err := fn(c)
	if err != nil {
		apiutil.AbortWithApiError(c, err)
		return
	}
	c.JSON(status, result)
}
