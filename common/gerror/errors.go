package gerror

import (
	"errors"
	"net/http"
)

// Code values correspond to the error taxonomy for the run execution engine.
// Each has a NewErrXxx constructor, a ToXxx extractor and an IsXxx predicate,
// so callers can classify an error without caring which layer produced it.
const (
	ErrCodeInternal           Code = "Internal"
	ErrCodeValidationFailed   Code = "ValidationFailed"
	ErrCodeStoreUnavailable   Code = "StoreUnavailable"
	ErrCodeQueueUnavailable   Code = "QueueUnavailable"
	ErrCodeNotFound           Code = "NotFound"
	ErrCodeManifestSealed     Code = "ManifestSealed"
	ErrCodeStatusMismatch     Code = "StatusMismatch"
	ErrCodeTimeout            Code = "Timeout"
	ErrCodeReportMissing      Code = "ReportMissing"
	ErrCodeInvalidQueryParam  Code = "InvalidQueryParameter"
)

// ToError locates an Error in the provided error chain and returns it if it
// matches the provided code. Otherwise, returns nil.
func ToError(err error, code Code) *Error {
	if err == nil {
		return nil
	}
	var gErr Error
	if errors.As(err, &gErr) && gErr.Code() == code {
		return &gErr
	}
	return nil
}

func NewErrInternal() Error {
	return NewError(
		"An internal error occurred",
		AudienceExternal,
		ErrCodeInternal,
		http.StatusInternalServerError,
		nil,
	)
}

func ToInternal(err error) *Error {
	return ToError(err, ErrCodeInternal)
}

func IsInternal(err error) bool {
	return ToInternal(err) != nil
}

// NewErrStoreUnavailable reports that the Artifact Store's backend could not
// be reached. The only permitted failure mode for the store (spec §4.1).
func NewErrStoreUnavailable(message string, err error) Error {
	return NewError(message, AudienceInternal, ErrCodeStoreUnavailable, http.StatusServiceUnavailable, err)
}

func ToStoreUnavailable(err error) *Error {
	return ToError(err, ErrCodeStoreUnavailable)
}

func IsStoreUnavailable(err error) bool {
	return ToStoreUnavailable(err) != nil
}

// NewErrQueueUnavailable reports that the Job Queue's backend (Redis) could
// not be reached. Submission is rejected; the worker retries with backoff.
func NewErrQueueUnavailable(message string, err error) Error {
	return NewError(message, AudienceInternal, ErrCodeQueueUnavailable, http.StatusServiceUnavailable, err)
}

func ToQueueUnavailable(err error) *Error {
	return ToError(err, ErrCodeQueueUnavailable)
}

func IsQueueUnavailable(err error) bool {
	return ToQueueUnavailable(err) != nil
}

func NewErrValidationFailed(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeValidationFailed, http.StatusBadRequest, nil)
}

func ToValidationFailed(err error) *Error {
	return ToError(err, ErrCodeValidationFailed)
}

func IsValidationFailed(err error) bool {
	return ToValidationFailed(err) != nil
}

func NewErrInvalidQueryParameter(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeInvalidQueryParam, http.StatusBadRequest, nil)
}

func ToInvalidQueryParameter(err error) *Error {
	return ToError(err, ErrCodeInvalidQueryParam)
}

func IsInvalidQueryParameter(err error) bool {
	return ToInvalidQueryParameter(err) != nil
}

func NewErrNotFound(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeNotFound, http.StatusNotFound, nil)
}

func ToNotFound(err error) *Error {
	return ToError(err, ErrCodeNotFound)
}

func IsNotFound(err error) bool {
	return ToNotFound(err) != nil
}

// NewErrManifestSealed reports a write attempted after the Run Manifest was
// sealed. Per spec §7 this is an internal bug: logged, never fatal to a caller.
func NewErrManifestSealed(runID string) Error {
	return NewError("manifest for run "+runID+" is sealed", AudienceInternal, ErrCodeManifestSealed, http.StatusConflict, nil)
}

func ToManifestSealed(err error) *Error {
	return ToError(err, ErrCodeManifestSealed)
}

func IsManifestSealed(err error) bool {
	return ToManifestSealed(err) != nil
}

// NewErrStatusMismatch reports an artifact/step-status coherence violation
// (spec §4.7, "Status coherence"). Always fails the run.
func NewErrStatusMismatch(message string) Error {
	return NewError(message, AudienceInternal, ErrCodeStatusMismatch, http.StatusInternalServerError, nil)
}

func ToStatusMismatch(err error) *Error {
	return ToError(err, ErrCodeStatusMismatch)
}

func IsStatusMismatch(err error) bool {
	return ToStatusMismatch(err) != nil
}

func NewErrTimeout(description string) Error {
	return NewError("timeout: "+description, AudienceInternal, ErrCodeTimeout, http.StatusGatewayTimeout, nil)
}

func ToTimeout(err error) *Error {
	return ToError(err, ErrCodeTimeout)
}

func IsTimeout(err error) bool {
	return ToTimeout(err) != nil
}

// NewErrReportMissing reports that the Report Enforcer could not find a
// final report artifact within max_wait. Always fails the run.
func NewErrReportMissing(runID string) Error {
	return NewError("no final report found for run "+runID, AudienceInternal, ErrCodeReportMissing, http.StatusInternalServerError, nil)
}

func ToReportMissing(err error) *Error {
	return ToError(err, ErrCodeReportMissing)
}

func IsReportMissing(err error) bool {
	return ToReportMissing(err) != nil
}
