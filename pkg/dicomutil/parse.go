/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package dicomutil

import (
	"fmt"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	gatewayerrors "github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
)

// Attributes are the identifying header fields of a DICOM instance.
type Attributes struct {
	SopClassUid       string
	SopInstanceUid    string
	StudyInstanceUid  string
	SeriesInstanceUid string
	PatientId         string
}

// ParseHeader reads the header of a DICOM file and extracts the identifying
// UIDs. A file without a readable header or without a SOP Instance UID is
// corrupt for our purposes.
func ParseHeader(path string) (*Attributes, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, gatewayerrors.NewDataCorruption(fmt.Sprintf("invalid DICOM header in %s: %v", path, err))
	}
	attrs := &Attributes{
		SopClassUid:       stringValue(&ds, tag.SOPClassUID),
		SopInstanceUid:    stringValue(&ds, tag.SOPInstanceUID),
		StudyInstanceUid:  stringValue(&ds, tag.StudyInstanceUID),
		SeriesInstanceUid: stringValue(&ds, tag.SeriesInstanceUID),
		PatientId:         stringValue(&ds, tag.PatientID),
	}
	if attrs.SopInstanceUid == "" {
		return nil, gatewayerrors.NewDataCorruption(fmt.Sprintf("missing SOP Instance UID in %s", path))
	}
	return attrs, nil
}

func stringValue(ds *dicom.Dataset, t tag.Tag) string {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil {
		return ""
	}
	values, ok := elem.Value.GetValue().([]string)
	if !ok || len(values) == 0 {
		return ""
	}
	return values[0]
}
