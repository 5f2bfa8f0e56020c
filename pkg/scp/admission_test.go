/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package scp

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"gotest.tools/assert"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/bus"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

type fakeStorage struct {
	store    bool
	retrieve bool
	export   bool
}

func (f *fakeStorage) HasSpaceToStore() bool    { return f.store }
func (f *fakeStorage) HasSpaceToRetrieve() bool { return f.retrieve }
func (f *fakeStorage) HasSpaceForExport() bool  { return f.export }
func (f *fakeStorage) AvailableBytes() uint64   { return 0 }

func testManager(t *testing.T, entity *types.ApplicationEntity, storage *fakeStorage) (*Manager, *bus.Bus) {
	t.Helper()
	config.SetValue("storage.temporary", t.TempDir())
	events := bus.New()
	m := &Manager{
		storage:    storage,
		events:     events,
		entities:   map[string]*types.ApplicationEntity{},
		processors: map[string]*runningProcessor{},
	}
	if entity != nil {
		m.entities[entity.Name] = entity
	}
	return m, events
}

func storedEntity() *types.ApplicationEntity {
	return &types.ApplicationEntity{
		Name:      "brain",
		AeTitle:   "BRAIN",
		Processor: "pipeline",
	}
}

func testDataset() *Dataset {
	return &Dataset{
		SopClassUid:      "1.2.840.10008.5.1.4.1.1.2",
		SopInstanceUid:   "1.2.3",
		StudyInstanceUid: "1.2",
		PatientId:        "P1",
		Data:             []byte("dicom"),
	}
}

func TestHandleCStoreUnknownAeTitle(t *testing.T) {
	m, _ := testManager(t, nil, &fakeStorage{store: true})
	err := m.HandleCStore("UNKNOWN", "MODALITY", 1, testDataset())
	assert.Assert(t, errors.IsAeNotConfigured(err))

	matches, _ := filepath.Glob(filepath.Join(config.GetStorageTemporary(), "*", "*", "*.dcm"))
	assert.Equal(t, len(matches), 0)
}

func TestHandleCStoreInsufficientStorage(t *testing.T) {
	m, _ := testManager(t, storedEntity(), &fakeStorage{store: false})
	err := m.HandleCStore("BRAIN", "MODALITY", 1, testDataset())
	assert.Assert(t, errors.IsInsufficientStorage(err))
}

func TestHandleCStoreStagesAndPublishes(t *testing.T) {
	m, events := testManager(t, storedEntity(), &fakeStorage{store: true})
	ch, cancel := events.Subscribe("BRAIN")
	defer cancel()

	assert.NilError(t, m.HandleCStore("BRAIN", "MODALITY", 7, testDataset()))

	path := filepath.Join(config.GetStorageTemporary(), "BRAIN", strconv.Itoa(7), "1.2.3.dcm")
	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Equal(t, string(data), "dicom")

	info := <-ch
	assert.Equal(t, info.SopInstanceUid, "1.2.3")
	assert.Equal(t, info.CalledAeTitle, "BRAIN")
	assert.Equal(t, info.SourceAeTitle, "MODALITY")
	assert.Equal(t, info.AssociationId, uint32(7))
	assert.Equal(t, info.InstanceStorageFullPath, path)
}

func TestHandleCStoreIgnoredSopClass(t *testing.T) {
	entity := storedEntity()
	entity.IgnoredSopClasses = []string{"1.2.840.10008.5.1.4.1.1.2"}
	m, events := testManager(t, entity, &fakeStorage{store: true})
	ch, cancel := events.Subscribe("BRAIN")
	defer cancel()

	assert.NilError(t, m.HandleCStore("BRAIN", "MODALITY", 1, testDataset()))

	matches, _ := filepath.Glob(filepath.Join(config.GetStorageTemporary(), "BRAIN", "*", "*.dcm"))
	assert.Equal(t, len(matches), 0)
	select {
	case <-ch:
		t.Fatal("ignored sop class must not publish")
	default:
	}
}

func TestHandleCStoreSameInstanceNotOverwritten(t *testing.T) {
	m, _ := testManager(t, storedEntity(), &fakeStorage{store: true})
	assert.NilError(t, m.HandleCStore("BRAIN", "MODALITY", 1, testDataset()))

	second := testDataset()
	second.Data = []byte("changed")
	assert.NilError(t, m.HandleCStore("BRAIN", "MODALITY", 1, second))

	path := filepath.Join(config.GetStorageTemporary(), "BRAIN", "1", "1.2.3.dcm")
	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Equal(t, string(data), "dicom")
}

func TestHandleCStoreOverwriteEnabled(t *testing.T) {
	entity := storedEntity()
	entity.OverwriteSameInstance = true
	m, _ := testManager(t, entity, &fakeStorage{store: true})
	assert.NilError(t, m.HandleCStore("BRAIN", "MODALITY", 1, testDataset()))

	second := testDataset()
	second.Data = []byte("changed")
	assert.NilError(t, m.HandleCStore("BRAIN", "MODALITY", 1, second))

	path := filepath.Join(config.GetStorageTemporary(), "BRAIN", "1", "1.2.3.dcm")
	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Equal(t, string(data), "changed")
}

func TestNextAssociationIncrements(t *testing.T) {
	m, _ := testManager(t, nil, &fakeStorage{})
	first := m.NextAssociation()
	second := m.NextAssociation()
	assert.Equal(t, second, first+1)
}

func TestDeactivateRevokesAcceptance(t *testing.T) {
	m, _ := testManager(t, storedEntity(), &fakeStorage{store: true})
	assert.NilError(t, m.HandleCStore("BRAIN", "MODALITY", 1, testDataset()))

	m.deactivate("brain")
	err := m.HandleCStore("BRAIN", "MODALITY", 2, testDataset())
	assert.Assert(t, errors.IsAeNotConfigured(err))
}
