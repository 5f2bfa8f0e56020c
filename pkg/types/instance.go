/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package types

// InstanceStorageInfo describes a single staged DICOM instance. The staging
// path is absolute and the file is owned by whoever staged it until the
// reclaimer deletes it.
type InstanceStorageInfo struct {
	SopInstanceUid          string `json:"sopInstanceUid"`
	StudyInstanceUid        string `json:"studyInstanceUid,omitempty"`
	SeriesInstanceUid       string `json:"seriesInstanceUid,omitempty"`
	PatientId               string `json:"patientId,omitempty"`
	InstanceStorageFullPath string `json:"instanceStorageFullPath"`
	CalledAeTitle           string `json:"calledAeTitle,omitempty"`
	SourceAeTitle           string `json:"sourceAeTitle,omitempty"`
	AssociationId           uint32 `json:"associationId,omitempty"`
}
