/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package processor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/jobs"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

const (
	PipelineProcessorName = "pipeline"

	settingPipeline = "pipeline"
	settingTimeout  = "timeout"
	settingPriority = "priority"

	defaultGroupTimeout = 5 * time.Second
)

// PipelineDescriptor describes the built-in processor that groups stored
// instances per association and submits one job per group once the
// association goes quiet.
func PipelineDescriptor() Descriptor {
	return Descriptor{
		Name:     PipelineProcessorName,
		Validate: validatePipelineSettings,
		New: func(entity *types.ApplicationEntity, creator JobCreator) Processor {
			return newPipelineProcessor(entity, creator)
		},
	}
}

func validatePipelineSettings(settings map[string]string) error {
	if v, ok := settings[settingTimeout]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return errors.NewValidationError(fmt.Sprintf("timeout must be a positive integer, got %q", v))
		}
	}
	if v, ok := settings[settingPriority]; ok {
		switch types.JobPriority(v) {
		case types.JobPriorityLower, types.JobPriorityNormal, types.JobPriorityHigher:
		default:
			return errors.NewValidationError(fmt.Sprintf("unknown priority %q", v))
		}
	}
	return nil
}

type instanceGroup struct {
	instances []types.InstanceStorageInfo
	lastSeen  time.Time
}

type pipelineProcessor struct {
	entity   *types.ApplicationEntity
	creator  JobCreator
	timeout  time.Duration
	priority types.JobPriority
	groups   map[uint32]*instanceGroup
}

func newPipelineProcessor(entity *types.ApplicationEntity, creator JobCreator) Processor {
	timeout := defaultGroupTimeout
	if v, ok := entity.ProcessorSettings[settingTimeout]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}
	priority := types.JobPriorityNormal
	if v, ok := entity.ProcessorSettings[settingPriority]; ok {
		priority = types.JobPriority(v)
	}
	return &pipelineProcessor{
		entity:   entity,
		creator:  creator,
		timeout:  timeout,
		priority: priority,
		groups:   map[uint32]*instanceGroup{},
	}
}

// Run accumulates instances per association and flushes a group into a job
// after the association has been idle for the configured timeout. Remaining
// groups are flushed on shutdown so accepted instances are never dropped.
func (p *pipelineProcessor) Run(ctx context.Context, events <-chan types.InstanceStorageInfo) {
	ticker := time.NewTicker(p.timeout / 2)
	defer ticker.Stop()
	for {
		select {
		case info, ok := <-events:
			if !ok {
				p.flushAll(ctx)
				return
			}
			group := p.groups[info.AssociationId]
			if group == nil {
				group = &instanceGroup{}
				p.groups[info.AssociationId] = group
			}
			group.instances = append(group.instances, info)
			group.lastSeen = time.Now()
		case <-ticker.C:
			p.flushIdle(ctx)
		case <-ctx.Done():
			p.flushAll(context.Background())
			return
		}
	}
}

func (p *pipelineProcessor) flushIdle(ctx context.Context) {
	deadline := time.Now().Add(-p.timeout)
	for association, group := range p.groups {
		if group.lastSeen.Before(deadline) {
			p.flush(ctx, association, group)
			delete(p.groups, association)
		}
	}
}

func (p *pipelineProcessor) flushAll(ctx context.Context) {
	for association, group := range p.groups {
		p.flush(ctx, association, group)
		delete(p.groups, association)
	}
}

func (p *pipelineProcessor) flush(ctx context.Context, association uint32, group *instanceGroup) {
	pipelineId := p.entity.ProcessorSettings[settingPipeline]
	if pipelineId == "" {
		pipelineId = config.GetPipelineId(p.entity.Processor)
	}
	jobId, payloadId := jobs.NewJobId()
	job := &types.InferenceJob{
		JobId:      jobId,
		PayloadId:  payloadId,
		JobName:    fmt.Sprintf("%s-%d", p.entity.AeTitle, association),
		PipelineId: pipelineId,
		Priority:   p.priority,
		Source:     types.JobSourceScp,
	}
	if err := p.creator.Add(ctx, job, group.instances); err != nil {
		klog.ErrorS(err, "failed to create job for association",
			"aeTitle", p.entity.AeTitle, "association", association, "instances", len(group.instances))
		return
	}
	klog.Infof("association %d on %s produced job %s with %d instance(s)",
		association, p.entity.AeTitle, jobId, len(group.instances))
}
