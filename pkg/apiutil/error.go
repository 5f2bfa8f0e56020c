/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package apiutil

import (
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "k8s.io/apimachinery/pkg/api/errors"

	gatewayerrors "github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
)

// GatewayApiError is the unified error response body: HTTP code, gateway
// error code, and message.
type GatewayApiError struct {
	HttpCode     int    `json:"-"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// Error returns the error message string.
func (err *GatewayApiError) Error() string {
	return err.ErrorMessage
}

// AbortWithApiError converts the error into the standardized error format and
// aborts the request with a JSON error response.
func AbortWithApiError(c *gin.Context, err error) {
	_ = c.Error(err)
	rsp := convertToErrResponse(err)
	c.AbortWithStatusJSON(rsp.HttpCode, rsp)
}

// convertToErrResponse converts an error into a GatewayApiError. Errors that
// are not gateway StatusErrors become internal errors.
func convertToErrResponse(err error) GatewayApiError {
	var result *GatewayApiError
	if errors.As(err, &result) {
		return *result
	}
	var statusErr *apierrors.StatusError
	if !errors.As(err, &statusErr) {
		statusErr = gatewayerrors.NewInternalError(err.Error())
	}
	return GatewayApiError{
		HttpCode:     int(statusErr.Status().Code),
		ErrorCode:    string(statusErr.Status().Reason),
		ErrorMessage: statusErr.Error(),
	}
}
