/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const GatewayPrefix = "Gateway."

/*
   5-digit Error Code Convention: [xx][yyy]
   [xx] Business ID (00–99), used to distinguish errors from different business interfaces.
   00: General errors
   01: DICOM SCP/storage errors
   02: Inference-request errors
   03: Job-submission errors
   04: Export errors
   [yyy] Error code range (000–999)
*/

// public: 00xxx
const (
	InternalError      = GatewayPrefix + "00001"
	BadRequest         = GatewayPrefix + "00002"
	Forbidden          = GatewayPrefix + "00003"
	AlreadyExist       = GatewayPrefix + "00004"
	NotFound           = GatewayPrefix + "00005"
	TransientTransport = GatewayPrefix + "00006"
	PermanentTransport = GatewayPrefix + "00007"
	InvalidState       = GatewayPrefix + "00008"
)

// scp/storage: 01xxx
const (
	AeNotConfigured     = GatewayPrefix + "01001"
	InsufficientStorage = GatewayPrefix + "01002"
	IOFull              = GatewayPrefix + "01003"
	DataCorruption      = GatewayPrefix + "01004"
)

// inference request: 02xxx
const (
	InferenceRequestError = GatewayPrefix + "02001"
)

// job submission: 03xxx
const (
	PayloadUploadError = GatewayPrefix + "03001"
)

// IsGateway returns true if the specified error reason is a gateway error.
func IsGateway(err error) bool {
	if err == nil {
		return false
	}
	return strings.HasPrefix(string(apierrors.ReasonForError(err)), GatewayPrefix)
}

func IsBadRequest(err error) bool {
	return apierrors.ReasonForError(err) == BadRequest
}

func IsInternal(err error) bool {
	return apierrors.ReasonForError(err) == InternalError
}

func IsNotFound(err error) bool {
	return apierrors.ReasonForError(err) == NotFound || apierrors.IsNotFound(err)
}

func IsAeNotConfigured(err error) bool {
	return apierrors.ReasonForError(err) == AeNotConfigured
}

func IsInsufficientStorage(err error) bool {
	return apierrors.ReasonForError(err) == InsufficientStorage
}

func IsTransientTransport(err error) bool {
	return apierrors.ReasonForError(err) == TransientTransport
}

func IsPermanentTransport(err error) bool {
	return apierrors.ReasonForError(err) == PermanentTransport
}

func IsInferenceRequestError(err error) bool {
	return apierrors.ReasonForError(err) == InferenceRequestError
}

func IsPayloadUploadError(err error) bool {
	return apierrors.ReasonForError(err) == PayloadUploadError
}

func IsIOFull(err error) bool {
	return apierrors.ReasonForError(err) == IOFull
}

func IsInvalidState(err error) bool {
	return apierrors.ReasonForError(err) == InvalidState
}

func IsDataCorruption(err error) bool {
	return apierrors.ReasonForError(err) == DataCorruption
}

// IsCancelled reports whether the error is a context cancellation. Cancellation
// is logged at warning and swallowed at worker boundaries, never retried.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func IgnoreFound(err error) error {
	if err == nil || IsNotFound(err) {
		return nil
	}
	return err
}

func GetErrorCode(err error) string {
	if err == nil || !IsGateway(err) {
		return ""
	}
	return string(apierrors.ReasonForError(err))
}

func NewBadRequest(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusBadRequest,
		Reason:  BadRequest,
		Message: fmt.Sprintf("Bad request. %s", message),
	}}
}

func NewValidationError(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusUnprocessableEntity,
		Reason:  BadRequest,
		Message: fmt.Sprintf("Validation failed. %s", message),
	}}
}

func NewInternalError(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusInternalServerError,
		Reason:  InternalError,
		Message: fmt.Sprintf("Internal error. %s", message),
	}}
}

func NewAlreadyExist(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusConflict,
		Reason:  AlreadyExist,
		Message: message,
	}}
}

func NewNotFound(kind, name string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status: metav1.StatusFailure,
		Code:   http.StatusNotFound,
		Reason: NotFound,
		Details: &metav1.StatusDetails{
			Kind: kind,
			Name: name,
		},
		Message: fmt.Sprintf("%s %s not found.", kind, name),
	}}
}

func NewNotFoundWithMessage(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusNotFound,
		Reason:  NotFound,
		Message: message,
	}}
}

func NewAeNotConfigured(aeTitle string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusNotFound,
		Reason:  AeNotConfigured,
		Message: fmt.Sprintf("called AE title %q is not configured", aeTitle),
	}}
}

func NewInsufficientStorage(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusInsufficientStorage,
		Reason:  InsufficientStorage,
		Message: message,
	}}
}

func NewTransientTransport(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusBadGateway,
		Reason:  TransientTransport,
		Message: message,
	}}
}

func NewPermanentTransport(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusBadGateway,
		Reason:  PermanentTransport,
		Message: message,
	}}
}

func NewInferenceRequestError(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusInternalServerError,
		Reason:  InferenceRequestError,
		Message: message,
	}}
}

// NewPayloadUploadError reports a failed payload upload stage. The number of
// files that failed to upload is carried in the status details so callers can
// log it without parsing the message.
func NewPayloadUploadError(failureCount int) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusInternalServerError,
		Reason:  PayloadUploadError,
		Details: &metav1.StatusDetails{
			Name: fmt.Sprintf("%d", failureCount),
		},
		Message: fmt.Sprintf("failed to upload %d file(s)", failureCount),
	}}
}

// PayloadUploadFailureCount extracts the failure count from a payload-upload
// error; it returns 0 for any other error.
func PayloadUploadFailureCount(err error) int {
	if !IsPayloadUploadError(err) {
		return 0
	}
	var statusErr *apierrors.StatusError
	if !errors.As(err, &statusErr) || statusErr.ErrStatus.Details == nil {
		return 0
	}
	var n int
	_, _ = fmt.Sscanf(statusErr.ErrStatus.Details.Name, "%d", &n)
	return n
}

func NewIOFull(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusInsufficientStorage,
		Reason:  IOFull,
		Message: message,
	}}
}

func NewInvalidState(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusInternalServerError,
		Reason:  InvalidState,
		Message: message,
	}}
}

func NewDataCorruption(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusInternalServerError,
		Reason:  DataCorruption,
		Message: message,
	}}
}
