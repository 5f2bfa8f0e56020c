/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package apiutil

import (
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

// Logger returns a gin middleware logging one line per request through klog.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		klog.Infof("%3d | %13v | %15s | %-7s %s",
			c.Writer.Status(), time.Since(start), c.ClientIP(), c.Request.Method, path)
		for _, err := range c.Errors {
			klog.ErrorS(err.Err, "request failed", "method", c.Request.Method, "path", path)
		}
	}
}
