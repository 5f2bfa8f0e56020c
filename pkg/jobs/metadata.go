/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package jobs

import (
	"strings"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

// buildMetadata assembles job metadata from the stored instances, driven by
// the uploadMetadata flag and the configured DICOM source tags. Multi-valued
// tags are joined with commas, duplicates removed in first-seen order.
func buildMetadata(job *types.InferenceJob) map[string]string {
	if !config.IsUploadMetadataEnabled() {
		return nil
	}
	sources := config.GetMetadataDicomSource()
	if len(sources) == 0 || len(job.Instances) == 0 {
		return nil
	}
	metadata := make(map[string]string, len(sources))
	for _, source := range sources {
		values := collectTag(job.Instances, source)
		if len(values) > 0 {
			metadata[source] = strings.Join(values, ",")
		}
	}
	return metadata
}

func collectTag(instances []types.InstanceStorageInfo, tagName string) []string {
	seen := make(map[string]struct{})
	var values []string
	for i := range instances {
		var value string
		switch tagName {
		case "PatientID":
			value = instances[i].PatientId
		case "StudyInstanceUID":
			value = instances[i].StudyInstanceUid
		case "SeriesInstanceUID":
			value = instances[i].SeriesInstanceUid
		case "SOPInstanceUID":
			value = instances[i].SopInstanceUid
		}
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	return values
}
