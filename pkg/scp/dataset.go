/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package scp

// Dataset is one decoded C-STORE payload handed in by the DICOM runtime. The
// wire decoder lives outside this module; the admission path only needs the
// identifying attributes and the encoded bytes to stage.
type Dataset struct {
	SopClassUid       string
	SopInstanceUid    string
	StudyInstanceUid  string
	SeriesInstanceUid string
	PatientId         string
	Data              []byte
}

// Association is the live DICOM association an inbound C-STORE arrived on.
type Association interface {
	CalledAeTitle() string
	CallingAeTitle() string
	Id() uint32
}
