/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package retrieval

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

// fetch dispatches one DICOMweb input resource on the request's metadata type
// and stages everything it returns.
func (s *Service) fetch(ctx context.Context, client webClient,
	req *types.InferenceRequest, collector *collector) error {
	if req.InputMetadata == nil || req.InputMetadata.Details == nil {
		return errors.NewInferenceRequestError("request has no input metadata")
	}
	details := req.InputMetadata.Details
	switch details.Type {
	case types.MetadataTypeDicomUid:
		return s.fetchByUid(ctx, client, details.Studies, collector)
	case types.MetadataTypeDicomPatientId:
		return s.fetchByQuery(ctx, client, map[string]string{"PatientID": details.PatientId}, collector)
	case types.MetadataTypeAccessionNumber:
		for _, accession := range details.AccessionNumbers {
			err := s.fetchByQuery(ctx, client, map[string]string{"AccessionNumber": accession}, collector)
			if err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.NewInferenceRequestError(
			fmt.Sprintf("unsupported input metadata type %q", details.Type))
	}
}

func (s *Service) fetchByUid(ctx context.Context, client webClient,
	studies []types.RequestedStudy, collector *collector) error {
	for _, study := range studies {
		if len(study.Series) == 0 {
			if err := s.stage(ctx, collector, func() ([]types.File, error) {
				return client.RetrieveStudy(ctx, study.StudyInstanceUid)
			}); err != nil {
				return err
			}
			continue
		}
		for _, series := range study.Series {
			if len(series.Instances) == 0 {
				if err := s.stage(ctx, collector, func() ([]types.File, error) {
					return client.RetrieveSeries(ctx, study.StudyInstanceUid, series.SeriesInstanceUid)
				}); err != nil {
					return err
				}
				continue
			}
			for _, instance := range series.Instances {
				if err := s.stage(ctx, collector, func() ([]types.File, error) {
					return client.RetrieveInstance(ctx,
						study.StudyInstanceUid, series.SeriesInstanceUid, instance.SopInstanceUid)
				}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Service) fetchByQuery(ctx context.Context, client webClient,
	filters map[string]string, collector *collector) error {
	studyUids, err := client.QueryStudies(ctx, filters)
	if err != nil {
		return err
	}
	for _, studyUid := range studyUids {
		uid := studyUid
		if err := s.stage(ctx, collector, func() ([]types.File, error) {
			return client.RetrieveStudy(ctx, uid)
		}); err != nil {
			return err
		}
	}
	return nil
}

// stage runs one retrieve call and persists its files, re-checking the
// retrieve reserve before every save. Corrupt files are skipped.
func (s *Service) stage(ctx context.Context, collector *collector,
	retrieve func() ([]types.File, error)) error {
	files, err := retrieve()
	if err != nil {
		return err
	}
	for _, file := range files {
		if err = s.waitForSpace(ctx); err != nil {
			return err
		}
		if err = collector.add(file.Data); err != nil {
			if errors.IsDataCorruption(err) {
				klog.ErrorS(err, "skipping corrupt retrieved file")
				continue
			}
			return err
		}
	}
	return nil
}
