/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package types

import (
	"fmt"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
)

// Inference request lifecycle states.
type InferenceRequestState string

const (
	InferenceRequestStateQueued    InferenceRequestState = "Queued"
	InferenceRequestStateInProcess InferenceRequestState = "InProcess"
	InferenceRequestStateCompleted InferenceRequestState = "Completed"
)

// Terminal status of an inference request.
type InferenceRequestStatus string

const (
	InferenceRequestStatusUnknown InferenceRequestStatus = "Unknown"
	InferenceRequestStatusSuccess InferenceRequestStatus = "Success"
	InferenceRequestStatusFail    InferenceRequestStatus = "Fail"
)

// MaxRequestRetries bounds the try-count of an inference request; exceeding it
// archives the request as Fail.
const MaxRequestRetries = 3

// Input resource interface kinds.
type InputInterface string

const (
	InterfaceDicomWeb  InputInterface = "DicomWeb"
	InterfaceAlgorithm InputInterface = "Algorithm"
)

// Input metadata kinds; the union tag of InputMetadata.
type InputMetadataType string

const (
	MetadataTypeDicomUid        InputMetadataType = "DICOM_UID"
	MetadataTypeDicomPatientId  InputMetadataType = "DICOM_PATIENT_ID"
	MetadataTypeAccessionNumber InputMetadataType = "ACCESSION_NUMBER"
)

// Connection authentication kinds for DICOMweb resources.
type AuthType string

const (
	AuthTypeNone   AuthType = "None"
	AuthTypeBasic  AuthType = "Basic"
	AuthTypeBearer AuthType = "Bearer"
)

// ConnectionDetails carries the endpoint and credentials of a remote DICOMweb
// resource. The token is passed through verbatim into the Authorization header.
type ConnectionDetails struct {
	Uri       string   `json:"uri"`
	AuthType  AuthType `json:"authType,omitempty"`
	AuthToken string   `json:"authToken,omitempty"`
}

// RequestInputResource is one input of an inference request. Algorithm
// resources are pure descriptors and trigger no retrieval.
type RequestInputResource struct {
	Interface         InputInterface    `json:"interface"`
	ConnectionDetails ConnectionDetails `json:"connectionDetails"`
}

// RequestOutputResource is an export sink for the results of a request.
type RequestOutputResource struct {
	Interface         InputInterface    `json:"interface"`
	ConnectionDetails ConnectionDetails `json:"connectionDetails"`
}

// RequestedInstance identifies a single instance within a requested series.
type RequestedInstance struct {
	SopInstanceUid string `json:"sopInstanceUid"`
}

// RequestedSeries identifies a series within a requested study; an empty
// instance list means the whole series.
type RequestedSeries struct {
	SeriesInstanceUid string              `json:"seriesInstanceUid"`
	Instances         []RequestedInstance `json:"instances,omitempty"`
}

// RequestedStudy identifies a study to retrieve; an empty series list means
// the whole study.
type RequestedStudy struct {
	StudyInstanceUid string            `json:"studyInstanceUid"`
	Series           []RequestedSeries `json:"series,omitempty"`
}

// InputMetadataDetails is the typed union body selected by InputMetadataType.
type InputMetadataDetails struct {
	Type             InputMetadataType `json:"type"`
	Studies          []RequestedStudy  `json:"studies,omitempty"`
	PatientId        string            `json:"patientId,omitempty"`
	AccessionNumbers []string          `json:"accessionNumbers,omitempty"`
}

// InputMetadata describes what to retrieve from the request's input resources.
type InputMetadata struct {
	Details *InputMetadataDetails `json:"details,omitempty"`
}

// InferenceRequest is an externally submitted request to run a pipeline over
// remotely hosted DICOM data. The request and its derived job share ids only.
type InferenceRequest struct {
	TransactionId   string                  `json:"transactionId"`
	JobId           string                  `json:"jobId,omitempty"`
	PayloadId       string                  `json:"payloadId,omitempty"`
	Algorithm       string                  `json:"algorithm,omitempty"`
	Priority        JobPriority             `json:"priority,omitempty"`
	InputResources  []RequestInputResource  `json:"inputResources"`
	OutputResources []RequestOutputResource `json:"outputResources,omitempty"`
	InputMetadata   *InputMetadata          `json:"inputMetadata,omitempty"`
	StoragePath     string                  `json:"-"`
	State           InferenceRequestState   `json:"state,omitempty"`
	Status          InferenceRequestStatus  `json:"status,omitempty"`
	TryCount        int                     `json:"tryCount,omitempty"`
}

// Validate applies the submission-time validation matrix. It returns a 422
// validation error on the first violated rule.
func (r *InferenceRequest) Validate() error {
	if r.TransactionId == "" {
		return errors.NewValidationError("transactionId is required")
	}
	nonAlgorithm := 0
	for i := range r.InputResources {
		res := &r.InputResources[i]
		switch res.Interface {
		case InterfaceAlgorithm:
		case InterfaceDicomWeb:
			nonAlgorithm++
			if res.ConnectionDetails.Uri == "" {
				return errors.NewValidationError("DicomWeb input resource requires a uri")
			}
		default:
			return errors.NewValidationError(fmt.Sprintf("unknown input resource interface %q", res.Interface))
		}
	}
	if nonAlgorithm == 0 {
		return errors.NewValidationError("at least one non-algorithm input resource is required")
	}
	if r.InputMetadata == nil || r.InputMetadata.Details == nil {
		return errors.NewValidationError("inputMetadata.details is required")
	}
	details := r.InputMetadata.Details
	switch details.Type {
	case MetadataTypeDicomUid:
		if len(details.Studies) == 0 {
			return errors.NewValidationError("DICOM_UID metadata requires at least one study")
		}
		for i := range details.Studies {
			if details.Studies[i].StudyInstanceUid == "" {
				return errors.NewValidationError("studyInstanceUid is required")
			}
		}
	case MetadataTypeDicomPatientId:
		if details.PatientId == "" {
			return errors.NewValidationError("DICOM_PATIENT_ID metadata requires a patientId")
		}
	case MetadataTypeAccessionNumber:
		if len(details.AccessionNumbers) == 0 {
			return errors.NewValidationError("ACCESSION_NUMBER metadata requires at least one accession number")
		}
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown input metadata type %q", details.Type))
	}
	return nil
}

// DicomWebResources returns the DicomWeb input resources of the request, in
// submission order.
func (r *InferenceRequest) DicomWebResources() []RequestInputResource {
	var out []RequestInputResource
	for i := range r.InputResources {
		if r.InputResources[i].Interface == InterfaceDicomWeb {
			out = append(out, r.InputResources[i])
		}
	}
	return out
}

// DicomWebOutputResources returns the DicomWeb output resources of the request.
func (r *InferenceRequest) DicomWebOutputResources() []RequestOutputResource {
	var out []RequestOutputResource
	for i := range r.OutputResources {
		if r.OutputResources[i].Interface == InterfaceDicomWeb {
			out = append(out, r.OutputResources[i])
		}
	}
	return out
}

// InferenceStatusResponse fuses the gateway's view of a request with the
// downstream platform's last-seen job state.
type InferenceStatusResponse struct {
	TransactionId string              `json:"transactionId"`
	Dicom         DicomStatus         `json:"dicom"`
	Platform      *PlatformJobDetails `json:"platform,omitempty"`
	Message       string              `json:"message,omitempty"`
}

// DicomStatus is the gateway-local portion of a status response.
type DicomStatus struct {
	State  InferenceRequestState  `json:"state"`
	Status InferenceRequestStatus `json:"status"`
}
