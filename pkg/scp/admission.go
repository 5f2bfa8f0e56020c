/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package scp

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/backoff"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

// HandleCStore admits one inbound C-STORE. Ignored SOP classes and
// already-present instances succeed without writing; everything persisted is
// published on the notification bus.
func (m *Manager) HandleCStore(calledAeTitle, callingAeTitle string, associationId uint32, dataset *Dataset) error {
	entity := m.lookup(calledAeTitle)
	if entity == nil {
		return errors.NewAeNotConfigured(calledAeTitle)
	}
	if !m.storage.HasSpaceToStore() {
		return errors.NewInsufficientStorage(
			fmt.Sprintf("staging disk above watermark, rejecting instance %s", dataset.SopInstanceUid))
	}
	for _, ignored := range entity.IgnoredSopClasses {
		if dataset.SopClassUid == ignored {
			klog.V(4).Infof("ignoring sop class %s on %s", dataset.SopClassUid, calledAeTitle)
			return nil
		}
	}

	path := instancePath(entity.AeTitle, associationId, dataset.SopInstanceUid)
	if _, err := os.Stat(path); err == nil && !entity.OverwriteSameInstance {
		klog.V(4).Infof("instance %s already staged, not overwriting", dataset.SopInstanceUid)
		return nil
	}
	if err := saveInstance(path, dataset.Data); err != nil {
		return err
	}

	m.events.Publish(types.InstanceStorageInfo{
		SopInstanceUid:          dataset.SopInstanceUid,
		StudyInstanceUid:        dataset.StudyInstanceUid,
		SeriesInstanceUid:       dataset.SeriesInstanceUid,
		PatientId:               dataset.PatientId,
		InstanceStorageFullPath: path,
		CalledAeTitle:           calledAeTitle,
		SourceAeTitle:           callingAeTitle,
		AssociationId:           associationId,
	})
	return nil
}

func instancePath(aeTitle string, associationId uint32, sopInstanceUid string) string {
	return filepath.Join(config.GetStorageTemporary(), aeTitle,
		strconv.FormatUint(uint64(associationId), 10), sopInstanceUid+".dcm")
}

// saveInstance writes the instance with the short save-retry schedule. Any
// failure after the last retry is fatal to this store only.
func saveInstance(path string, data []byte) error {
	return backoff.FixedRetry(func() error {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	}, backoff.InstanceSaveWaits())
}
