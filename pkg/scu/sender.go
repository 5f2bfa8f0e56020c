/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package scu abstracts the outbound DICOM association. The wire runtime is
// an external collaborator; the export service only needs "open an
// association to this destination and C-STORE these files".
package scu

import (
	"context"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

// Sender opens one association per call and sends every file. An error means
// the association itself failed; callers apply their own retry budget.
type Sender interface {
	Send(ctx context.Context, destination *types.DestinationApplicationEntity, files []types.File) error
}
