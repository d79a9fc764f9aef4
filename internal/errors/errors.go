// Package errors defines the structured error type shared by the pipeline.
//
// Per-image failures are carried as *PipelineError values so the batch
// orchestrator and the CLI can tell recoverable conditions (an unreadable
// image) from fatal preconditions (a missing input folder, no OCR engine).
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies a pipeline failure.
type ErrorCode string

const (
	// Per-image errors, recovered by the batch orchestrator
	ErrorImageUnreadable ErrorCode = "IMAGE_UNREADABLE"
	ErrorWorkerFailed    ErrorCode = "WORKER_FAILED"

	// Precondition errors, fatal at startup
	ErrorOCRUnavailable ErrorCode = "OCR_UNAVAILABLE"
	ErrorInputMissing   ErrorCode = "INPUT_MISSING"
	ErrorNoImages       ErrorCode = "NO_IMAGES"
	ErrorInvalidConfig  ErrorCode = "INVALID_CONFIG"

	// Output errors
	ErrorExportFailed ErrorCode = "EXPORT_FAILED"
)

// PipelineError is a classified error, optionally tied to one image.
type PipelineError struct {
	Code    ErrorCode
	Message string
	Image   string
	Cause   error
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Image != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Image)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// HasCode reports whether err, or any error it wraps, is a *PipelineError
// carrying code.
func HasCode(err error, code ErrorCode) bool {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// CodeOf returns the code of the first *PipelineError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Code, true
	}
	return "", false
}

// Factory functions

func NewImageUnreadableError(image string, cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrorImageUnreadable,
		Message: "failed to read image",
		Image:   image,
		Cause:   cause,
	}
}

func NewWorkerFailedError(image string, cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrorWorkerFailed,
		Message: "image processing failed",
		Image:   image,
		Cause:   cause,
	}
}

func NewOCRUnavailableError(cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrorOCRUnavailable,
		Message: "OCR engine is not available",
		Cause:   cause,
	}
}

func NewInputMissingError(dir string, cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrorInputMissing,
		Message: fmt.Sprintf("input folder %s does not exist", dir),
		Cause:   cause,
	}
}

func NewNoImagesError(dir string) *PipelineError {
	return &PipelineError{
		Code:    ErrorNoImages,
		Message: fmt.Sprintf("no eligible images in %s", dir),
	}
}

func NewInvalidConfigError(cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrorInvalidConfig,
		Message: "configuration validation failed",
		Cause:   cause,
	}
}

func NewExportFailedError(path string, cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrorExportFailed,
		Message: fmt.Sprintf("failed to write %s", path),
		Cause:   cause,
	}
}
