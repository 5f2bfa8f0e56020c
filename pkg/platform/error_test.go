/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package platform

import (
	"context"
	"fmt"
	"testing"

	"gotest.tools/assert"

	gatewayerrors "github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/httpclient"
)

func TestResultToError(t *testing.T) {
	assert.NilError(t, resultToError("op", &httpclient.Result{StatusCode: 200}))
	assert.NilError(t, resultToError("op", &httpclient.Result{StatusCode: 204}))

	err := resultToError("op", &httpclient.Result{StatusCode: 404})
	assert.Assert(t, gatewayerrors.IsPermanentTransport(err))

	err = resultToError("op", &httpclient.Result{StatusCode: 401})
	assert.Assert(t, gatewayerrors.IsPermanentTransport(err))

	err = resultToError("op", &httpclient.Result{StatusCode: 503})
	assert.Assert(t, gatewayerrors.IsTransientTransport(err))
}

func TestTransportError(t *testing.T) {
	err := transportError("op", fmt.Errorf("connection refused"))
	assert.Assert(t, gatewayerrors.IsTransientTransport(err))

	err = transportError("op", context.Canceled)
	assert.Assert(t, gatewayerrors.IsCancelled(err))
}
