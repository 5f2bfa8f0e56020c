/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/worker"
)

// HealthStatusResponse lists every background worker and its status.
type HealthStatusResponse struct {
	Services map[string]worker.ServiceStatus `json:"services"`
}

// GetHealthStatus reports the status of every background worker.
// GET /health/status
func (h *Handler) GetHealthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, HealthStatusResponse{Services: h.workers.Statuses()})
}

// GetReadiness answers 200 only when every registered worker is running.
// GET /health/ready
func (h *Handler) GetReadiness(c *gin.Context) {
	if !h.workers.AllRunning() {
		c.JSON(http.StatusServiceUnavailable, HealthStatusResponse{Services: h.workers.Statuses()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
