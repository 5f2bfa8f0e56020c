/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package jobs

import (
	"testing"

	"gotest.tools/assert"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

func TestBuildMetadataDisabledByDefault(t *testing.T) {
	config.SetValue("platform.uploadMetadata", false)
	job := &types.InferenceJob{Instances: []types.InstanceStorageInfo{{PatientId: "P1"}}}
	assert.Assert(t, buildMetadata(job) == nil)
}

func TestBuildMetadataCollectsConfiguredTags(t *testing.T) {
	config.SetValue("platform.uploadMetadata", true)
	config.SetValue("platform.metadataDicomSource", []string{"PatientID", "StudyInstanceUID"})
	defer config.SetValue("platform.uploadMetadata", false)

	job := &types.InferenceJob{Instances: []types.InstanceStorageInfo{
		{PatientId: "P1", StudyInstanceUid: "1.2", SeriesInstanceUid: "1.2.1"},
		{PatientId: "P1", StudyInstanceUid: "1.3", SeriesInstanceUid: "1.3.1"},
	}}
	metadata := buildMetadata(job)
	assert.Equal(t, metadata["PatientID"], "P1")
	assert.Equal(t, metadata["StudyInstanceUID"], "1.2,1.3")
	_, ok := metadata["SeriesInstanceUID"]
	assert.Assert(t, !ok)
}
