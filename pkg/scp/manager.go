/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package scp

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/bus"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/database"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/processor"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/storagespace"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/worker"
)

const WorkerName = "scp-manager"

// maxAssociationId is where the association counter wraps. Association ids
// identify a live association only and are never persisted.
const maxAssociationId = math.MaxUint32

type runningProcessor struct {
	entity *types.ApplicationEntity
	cancel func()
}

// Manager owns the configured called application entities. It keeps an
// in-memory view of the entity table, runs one processor per entity fed from
// the notification bus, and admits inbound C-STOREs against that view.
type Manager struct {
	db       database.ApplicationEntityInterface
	storage  storagespace.Provider
	events   *bus.Bus
	registry *processor.Registry
	creator  processor.JobCreator
	workers  *worker.Registry

	mutex      sync.RWMutex
	entities   map[string]*types.ApplicationEntity
	processors map[string]*runningProcessor

	association atomic.Uint32
	watcher     *database.Watcher[*database.ApplicationEntityRow]

	runCtx context.Context
}

func NewManager(client *database.Client, storage storagespace.Provider, events *bus.Bus,
	registry *processor.Registry, creator processor.JobCreator, workers *worker.Registry) *Manager {
	m := &Manager{
		db:         client,
		storage:    storage,
		events:     events,
		registry:   registry,
		creator:    creator,
		workers:    workers,
		entities:   map[string]*types.ApplicationEntity{},
		processors: map[string]*runningProcessor{},
	}
	m.watcher = database.NewWatcher(client, database.TApplicationEntity,
		time.Duration(config.GetReadIntervalSecond())*time.Second,
		func(row *database.ApplicationEntityRow) string { return row.Name },
		func(row *database.ApplicationEntityRow) int64 { return row.Version },
		m.onEntityEvent)
	if workers != nil {
		workers.Register(WorkerName)
	}
	return m
}

// Run purges prior-run staging, bootstraps the static AE titles, then follows
// the entity table until cancellation.
func (m *Manager) Run(ctx context.Context) {
	m.runCtx = ctx
	m.bootstrap(ctx)
	m.purgeStaging(ctx)
	if m.workers != nil {
		m.workers.SetStatus(WorkerName, worker.StatusRunning)
		defer m.workers.SetStatus(WorkerName, worker.StatusCancelled)
	}
	m.watcher.Run(ctx)
	m.stopAllProcessors()
}

// bootstrap writes the statically configured AE titles through the entity
// table, so the watch feed is the single code path that activates them.
func (m *Manager) bootstrap(ctx context.Context) {
	for _, entry := range config.GetScpAeTitles() {
		entity := &types.ApplicationEntity{
			Name:                  entry.Name,
			AeTitle:               entry.AeTitle,
			IgnoredSopClasses:     entry.IgnoredSopClasses,
			OverwriteSameInstance: entry.OverwriteSameInstance,
			Processor:             entry.Processor,
			ProcessorSettings:     entry.ProcessorSettings,
		}
		if err := entity.Validate(); err != nil {
			klog.ErrorS(err, "skipping invalid static ae title", "name", entry.Name)
			continue
		}
		if err := m.db.UpsertApplicationEntity(ctx, entity); err != nil {
			klog.ErrorS(err, "failed to bootstrap ae title", "name", entry.Name)
		}
	}
}

// purgeStaging removes the staging subtree of every configured AE title.
// Prior-run artifacts never survive a restart.
func (m *Manager) purgeStaging(ctx context.Context) {
	entities, err := m.db.ListApplicationEntities(ctx)
	if err != nil {
		klog.ErrorS(err, "failed to list ae titles for staging purge")
		return
	}
	root := config.GetStorageTemporary()
	for _, entity := range entities {
		path := filepath.Join(root, entity.AeTitle)
		if err := os.RemoveAll(path); err != nil {
			klog.ErrorS(err, "failed to purge staging subtree", "path", path)
			continue
		}
		klog.Infof("purged staging subtree %s", path)
	}
}

func (m *Manager) onEntityEvent(eventType database.EventType, key string, row *database.ApplicationEntityRow) {
	switch eventType {
	case database.Added, database.Modified:
		if row == nil {
			return
		}
		m.activate(row.ToEntity())
	case database.Deleted:
		m.deactivate(key)
	}
}

// activate replaces the live entity and (re)starts its processor. A C-STORE
// arriving after activate sees the new configuration.
func (m *Manager) activate(entity *types.ApplicationEntity) {
	descriptor, ok := m.registry.Resolve(entity.Processor)
	if !ok {
		klog.Errorf("ae title %s names unknown processor %q, not activating", entity.AeTitle, entity.Processor)
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if running, ok := m.processors[entity.Name]; ok {
		running.cancel()
		delete(m.processors, entity.Name)
	}
	m.entities[entity.Name] = entity

	base := m.runCtx
	if base == nil {
		base = context.Background()
	}
	events, unsubscribe := m.events.Subscribe(entity.AeTitle)
	ctx, cancel := context.WithCancel(base)
	proc := descriptor.New(entity, m.creator)
	go proc.Run(ctx, events)
	m.processors[entity.Name] = &runningProcessor{
		entity: entity,
		cancel: func() {
			unsubscribe()
			cancel()
		},
	}
	klog.Infof("activated ae title %s (processor %s)", entity.AeTitle, entity.Processor)
}

// deactivate revokes the entity: subsequent C-STOREs for its AE title fail
// with AeNotConfigured.
func (m *Manager) deactivate(name string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if running, ok := m.processors[name]; ok {
		running.cancel()
		delete(m.processors, name)
	}
	if entity, ok := m.entities[name]; ok {
		delete(m.entities, name)
		klog.Infof("deactivated ae title %s", entity.AeTitle)
	}
}

func (m *Manager) stopAllProcessors() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for name, running := range m.processors {
		running.cancel()
		delete(m.processors, name)
	}
}

func (m *Manager) lookup(aeTitle string) *types.ApplicationEntity {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, entity := range m.entities {
		if entity.AeTitle == aeTitle {
			return entity
		}
	}
	return nil
}

// NextAssociation hands out the id for a freshly accepted association. The
// counter wraps at maxAssociationId.
func (m *Manager) NextAssociation() uint32 {
	return m.association.Add(1)
}
