/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/apiutil"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
)

// InitHttpHandlers creates the Gin engine, sets up the logging and recovery
// middleware, and registers the gateway's routes. The config CRUD surface is
// only registered when runtime AE management is enabled.
func InitHttpHandlers(h *Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(apiutil.Logger(), gin.Recovery())
	engine.NoRoute(func(c *gin.Context) {
		apiutil.AbortWithApiError(c, errors.NewNotFoundWithMessage(c.Request.RequestURI+" not found"))
	})
	InitInferenceRouters(engine, h)
	if config.IsDynamicAeTitlesEnabled() {
		InitConfigRouters(engine, h)
	}
	InitHealthRouters(engine, h)
	return engine
}

// InitInferenceRouters registers the inference submission and status routes.
func InitInferenceRouters(e *gin.Engine, h *Handler) {
	group := e.Group("inference")
	{
		group.POST("", h.CreateInferenceRequest)
		group.GET("status/:id", h.GetInferenceStatus)
	}
}

// InitConfigRouters registers the runtime AE configuration routes.
func InitConfigRouters(e *gin.Engine, h *Handler) {
	group := e.Group("config")
	{
		// Called AEs the SCP accepts
		group.POST("ae", h.CreateApplicationEntity)
		group.GET("ae", h.ListApplicationEntities)
		group.GET("ae/:name", h.GetApplicationEntity)
		group.DELETE("ae/:name", h.DeleteApplicationEntity)

		// Known calling AEs, keyed by AE title
		group.POST("source", h.CreateSourceApplicationEntity)
		group.GET("source", h.ListSourceApplicationEntities)
		group.GET("source/:aeTitle", h.GetSourceApplicationEntity)
		group.DELETE("source/:aeTitle", h.DeleteSourceApplicationEntity)

		// Export destinations
		group.POST("destination", h.CreateDestinationApplicationEntity)
		group.GET("destination", h.ListDestinationApplicationEntities)
		group.GET("destination/:name", h.GetDestinationApplicationEntity)
		group.DELETE("destination/:name", h.DeleteDestinationApplicationEntity)
	}
}

// InitHealthRouters registers the worker health endpoints.
func InitHealthRouters(e *gin.Engine, h *Handler) {
	group := e.Group("health")
	{
		group.GET("status", h.GetHealthStatus)
		group.GET("ready", h.GetReadiness)
	}
}
