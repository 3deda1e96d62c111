package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, preserving its code
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeArtifactMissing = "ARTIFACT_MISSING"
	CodeArtifactFormat  = "ARTIFACT_FORMAT"
	CodeUnknownModel    = "UNKNOWN_MODEL"
	CodeFeatureMismatch = "FEATURE_MISMATCH"
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ArtifactMissing(name string) *AppError {
	return New(CodeArtifactMissing, fmt.Sprintf("artifact %s is missing", name))
}

func ArtifactFormat(name string, cause error) *AppError {
	return &AppError{
		Code:    CodeArtifactFormat,
		Message: fmt.Sprintf("artifact %s is unreadable", name),
		Cause:   cause,
	}
}

func UnknownModel(name string) *AppError {
	return New(CodeUnknownModel, fmt.Sprintf("unknown model %q", name))
}

func FeatureMismatch(message string) *AppError {
	return New(CodeFeatureMismatch, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// IsArtifactMissing reports whether err carries the missing-artifact code.
func IsArtifactMissing(err error) bool {
	return GetCode(err) == CodeArtifactMissing
}

// IsArtifactFormat reports whether err carries the unreadable-artifact code.
func IsArtifactFormat(err error) bool {
	return GetCode(err) == CodeArtifactFormat
}

// IsUnknownModel reports whether err names a model outside the registry.
func IsUnknownModel(err error) bool {
	return GetCode(err) == CodeUnknownModel
}

// IsFeatureMismatch reports whether err describes an invalid feature vector.
func IsFeatureMismatch(err error) bool {
	return GetCode(err) == CodeFeatureMismatch
}
