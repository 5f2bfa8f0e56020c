/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package platform

import (
	"fmt"

	gatewayerrors "github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/httpclient"
)

// resultToError maps an HTTP result to a transport error kind. A 4xx is a
// permanent fault (auth, schema, unknown id) that retrying cannot fix;
// anything else non-2xx is transient.
func resultToError(op string, result *httpclient.Result) error {
	if result.IsSuccess() {
		return nil
	}
	message := fmt.Sprintf("%s: %s", op, result.String())
	if result.StatusCode >= 400 && result.StatusCode < 500 {
		return gatewayerrors.NewPermanentTransport(message)
	}
	return gatewayerrors.NewTransientTransport(message)
}

// transportError wraps a failed round trip as a transient transport error.
func transportError(op string, err error) error {
	if gatewayerrors.IsCancelled(err) {
		return err
	}
	return gatewayerrors.NewTransientTransport(fmt.Sprintf("%s: %v", op, err))
}
