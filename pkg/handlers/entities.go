/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

// CreateApplicationEntity registers a called AE the SCP should accept.
// POST /config/ae
func (h *Handler) CreateApplicationEntity(c *gin.Context) {
	handleCreated(c, h.createApplicationEntity)
}

// GetApplicationEntity gets one configured called AE by name.
// GET /config/ae/:name
func (h *Handler) GetApplicationEntity(c *gin.Context) {
	handle(c, h.getApplicationEntity)
}

// ListApplicationEntities lists the configured called AEs.
// GET /config/ae
func (h *Handler) ListApplicationEntities(c *gin.Context) {
	handle(c, h.listApplicationEntities)
}

// DeleteApplicationEntity removes a configured called AE by name.
// DELETE /config/ae/:name
func (h *Handler) DeleteApplicationEntity(c *gin.Context) {
	handle(c, h.deleteApplicationEntity)
}

// CreateSourceApplicationEntity registers a known calling AE.
// POST /config/source
func (h *Handler) CreateSourceApplicationEntity(c *gin.Context) {
	handleCreated(c, h.createSourceApplicationEntity)
}

// GetSourceApplicationEntity gets one calling AE by its AE title.
// GET /config/source/:aeTitle
func (h *Handler) GetSourceApplicationEntity(c *gin.Context) {
	handle(c, h.getSourceApplicationEntity)
}

// ListSourceApplicationEntities lists the known calling AEs.
// GET /config/source
func (h *Handler) ListSourceApplicationEntities(c *gin.Context) {
	handle(c, h.listSourceApplicationEntities)
}

// DeleteSourceApplicationEntity removes a calling AE by its AE title.
// DELETE /config/source/:aeTitle
func (h *Handler) DeleteSourceApplicationEntity(c *gin.Context) {
	handle(c, h.deleteSourceApplicationEntity)
}

// CreateDestinationApplicationEntity registers an export destination.
// POST /config/destination
func (h *Handler) CreateDestinationApplicationEntity(c *gin.Context) {
	handleCreated(c, h.createDestinationApplicationEntity)
}

// GetDestinationApplicationEntity gets one export destination by name.
// GET /config/destination/:name
func (h *Handler) GetDestinationApplicationEntity(c *gin.Context) {
	handle(c, h.getDestinationApplicationEntity)
}

// ListDestinationApplicationEntities lists the export destinations.
// GET /config/destination
func (h *Handler) ListDestinationApplicationEntities(c *gin.Context) {
	handle(c, h.listDestinationApplicationEntities)
}

// DeleteDestinationApplicationEntity removes an export destination by name.
// DELETE /config/destination/:name
func (h *Handler) DeleteDestinationApplicationEntity(c *gin.Context) {
	handle(c, h.deleteDestinationApplicationEntity)
}

func (h *Handler) createApplicationEntity(c *gin.Context) (interface{}, error) {
	var entity types.ApplicationEntity
	if err := c.ShouldBindJSON(&entity); err != nil {
		return nil, errors.NewBadRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	if err := entity.Validate(); err != nil {
		return nil, err
	}
	if err := h.processors.ValidateEntity(&entity); err != nil {
		return nil, err
	}
	if err := h.db.UpsertApplicationEntity(c.Request.Context(), &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

func (h *Handler) getApplicationEntity(c *gin.Context) (interface{}, error) {
	name := c.Param("name")
	entity, err := h.db.GetApplicationEntity(c.Request.Context(), name)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, errors.NewNotFound("applicationEntity", name)
	}
	return entity, nil
}

func (h *Handler) listApplicationEntities(c *gin.Context) (interface{}, error) {
	return h.db.ListApplicationEntities(c.Request.Context())
}

func (h *Handler) deleteApplicationEntity(c *gin.Context) (interface{}, error) {
	ctx := c.Request.Context()
	name := c.Param("name")
	entity, err := h.db.GetApplicationEntity(ctx, name)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, errors.NewNotFound("applicationEntity", name)
	}
	if err := h.db.DeleteApplicationEntity(ctx, name); err != nil {
		return nil, err
	}
	return entity, nil
}

func (h *Handler) createSourceApplicationEntity(c *gin.Context) (interface{}, error) {
	var entity types.SourceApplicationEntity
	if err := c.ShouldBindJSON(&entity); err != nil {
		return nil, errors.NewBadRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	if err := entity.Validate(); err != nil {
		return nil, err
	}
	if err := h.db.UpsertSourceApplicationEntity(c.Request.Context(), &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

func (h *Handler) getSourceApplicationEntity(c *gin.Context) (interface{}, error) {
	aeTitle := c.Param("aeTitle")
	entity, err := h.db.GetSourceApplicationEntity(c.Request.Context(), aeTitle)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, errors.NewNotFound("sourceApplicationEntity", aeTitle)
	}
	return entity, nil
}

func (h *Handler) listSourceApplicationEntities(c *gin.Context) (interface{}, error) {
	return h.db.ListSourceApplicationEntities(c.Request.Context())
}

func (h *Handler) deleteSourceApplicationEntity(c *gin.Context) (interface{}, error) {
	ctx := c.Request.Context()
	aeTitle := c.Param("aeTitle")
	entity, err := h.db.GetSourceApplicationEntity(ctx, aeTitle)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, errors.NewNotFound("sourceApplicationEntity", aeTitle)
	}
	if err := h.db.DeleteSourceApplicationEntity(ctx, aeTitle); err != nil {
		return nil, err
	}
	return entity, nil
}

func (h *Handler) createDestinationApplicationEntity(c *gin.Context) (interface{}, error) {
	var entity types.DestinationApplicationEntity
	if err := c.ShouldBindJSON(&entity); err != nil {
		return nil, errors.NewBadRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	if err := entity.Validate(); err != nil {
		return nil, err
	}
	if err := h.db.UpsertDestinationApplicationEntity(c.Request.Context(), &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

func (h *Handler) getDestinationApplicationEntity(c *gin.Context) (interface{}, error) {
	name := c.Param("name")
	entity, err := h.db.GetDestinationApplicationEntity(c.Request.Context(), name)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, errors.NewNotFound("destinationApplicationEntity", name)
	}
	return entity, nil
}

func (h *Handler) listDestinationApplicationEntities(c *gin.Context) (interface{}, error) {
	return h.db.ListDestinationApplicationEntities(c.Request.Context())
}

func (h *Handler) deleteDestinationApplicationEntity(c *gin.Context) (interface{}, error) {
	ctx := c.Request.Context()
	name := c.Param("name")
	entity, err := h.db.GetDestinationApplicationEntity(ctx, name)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, errors.NewNotFound("destinationApplicationEntity", name)
	}
	if err := h.db.DeleteDestinationApplicationEntity(ctx, name); err != nil {
		return nil, err
	}
	return entity, nil
}
