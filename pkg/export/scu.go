/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package export

import (
	"context"
	"fmt"
	"time"

	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/database"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/scu"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

// destinationParameter names the task parameter carrying the destination AE.
const destinationParameter = "destination"

// ScuPipeline pushes completed job outputs over a DICOM association to a
// configured DestinationApplicationEntity.
type ScuPipeline struct {
	db         database.ApplicationEntityInterface
	sender     scu.Sender
	maxRetries int
	retryWait  time.Duration
}

func NewScuPipeline(db database.ApplicationEntityInterface, sender scu.Sender) *ScuPipeline {
	return &ScuPipeline{
		db:         db,
		sender:     sender,
		maxRetries: config.GetExportMaxAssociationRetries(),
		retryWait:  time.Second,
	}
}

// Convert emits one output job aimed at the destination AE named by the task.
// An unnamed or unknown destination is a permanent failure.
func (p *ScuPipeline) Convert(ctx context.Context, task *types.TaskResponse) ([]*types.OutputJob, error) {
	name := task.Parameters[destinationParameter]
	if name == "" {
		return nil, errors.NewPermanentTransport(
			fmt.Sprintf("task %s names no destination", task.TaskId))
	}
	destination, err := p.db.GetDestinationApplicationEntity(ctx, name)
	if err != nil {
		return nil, err
	}
	if destination == nil {
		return nil, errors.NewPermanentTransport(
			fmt.Sprintf("destination %q is not configured", name))
	}
	return []*types.OutputJob{{
		TaskId:      task.TaskId,
		PayloadId:   task.PayloadId,
		JobId:       task.JobId,
		Agent:       task.Agent,
		Destination: name,
		Uris:        task.Uris,
	}}, nil
}

// Export opens an association to the destination and sends the files,
// retrying failed associations within the configured budget.
func (p *ScuPipeline) Export(ctx context.Context, job *types.OutputJob) error {
	destination, err := p.db.GetDestinationApplicationEntity(ctx, job.Destination)
	if err != nil {
		return err
	}
	if destination == nil {
		return errors.NewPermanentTransport(
			fmt.Sprintf("destination %q is not configured", job.Destination))
	}
	for attempt := 0; ; attempt++ {
		err = p.sender.Send(ctx, destination, job.Files)
		if err == nil {
			return nil
		}
		if errors.IsCancelled(err) || attempt >= p.maxRetries {
			return err
		}
		klog.ErrorS(err, "association failed, will retry",
			"destination", job.Destination, "attempt", attempt+1)
		select {
		case <-time.After(p.retryWait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
