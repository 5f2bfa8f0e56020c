/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package processor

import (
	"context"
	"fmt"
	"sync"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

// JobCreator accepts a new job together with the staged instances backing it.
type JobCreator interface {
	Add(ctx context.Context, job *types.InferenceJob, instances []types.InstanceStorageInfo) error
}

// Processor consumes the stored-instance events of one application entity and
// turns them into jobs. Run returns when the channel closes or ctx is done.
type Processor interface {
	Run(ctx context.Context, events <-chan types.InstanceStorageInfo)
}

// Descriptor binds a stable short name to a processor constructor and a
// settings validator. Unknown names and bad settings are rejected when the
// application entity is created, not when the first instance arrives.
type Descriptor struct {
	Name     string
	Validate func(settings map[string]string) error
	New      func(entity *types.ApplicationEntity, creator JobCreator) Processor
}

type Registry struct {
	mutex       sync.RWMutex
	descriptors map[string]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{descriptors: map[string]Descriptor{}}
}

func (r *Registry) Register(d Descriptor) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.descriptors[d.Name] = d
}

func (r *Registry) Resolve(name string) (Descriptor, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	d, ok := r.descriptors[name]
	return d, ok
}

// ValidateEntity checks that the entity names a registered processor and that
// its settings pass the descriptor's validator.
func (r *Registry) ValidateEntity(entity *types.ApplicationEntity) error {
	d, ok := r.Resolve(entity.Processor)
	if !ok {
		return errors.NewValidationError(fmt.Sprintf("unknown processor %q", entity.Processor))
	}
	if d.Validate != nil {
		if err := d.Validate(entity.ProcessorSettings); err != nil {
			return err
		}
	}
	return nil
}

// Default returns a registry with the built-in processors.
func Default() *Registry {
	r := NewRegistry()
	r.Register(PipelineDescriptor())
	return r
}
