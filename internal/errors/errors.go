package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
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

// Is matches any AppError carrying the same code, so sentinels such as
// ErrPrecision can be used with errors.Is regardless of the message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context, keeping the code of the
// nearest AppError in the chain when there is one.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
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
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Predefined error codes
const (
	CodeConfigInvalid     = "CONFIG_INVALID"
	CodeValidationError   = "VALIDATION_ERROR"
	CodeUnsupportedMethod = "UNSUPPORTED_METHOD"
	CodePrecisionError    = "PRECISION_ERROR"
	CodeEvaluationError   = "EVALUATION_ERROR"
	CodeConvergenceError  = "CONVERGENCE_ERROR"
	CodeInternalError     = "INTERNAL_ERROR"
)

// Sentinels for errors.Is. They match on code only.
var (
	ErrConfigInvalid     = New(CodeConfigInvalid, "invalid configuration")
	ErrValidation        = New(CodeValidationError, "validation failed")
	ErrUnsupportedMethod = New(CodeUnsupportedMethod, "unsupported method")
	ErrPrecision         = New(CodePrecisionError, "non-finite value")
	ErrEvaluation        = New(CodeEvaluationError, "function evaluation failed")
	ErrConvergence       = New(CodeConvergenceError, "integration did not converge")
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func ValidationErrorf(format string, args ...interface{}) *AppError {
	return Newf(CodeValidationError, format, args...)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

// UnsupportedMethod reports an unknown solver name together with the known ones.
func UnsupportedMethod(method string, available []string) *AppError {
	return Newf(CodeUnsupportedMethod, "method %q is not implemented (available: %s)",
		method, strings.Join(available, ", "))
}

// PrecisionError reports a non-finite function output.
func PrecisionError(message string) *AppError {
	return New(CodePrecisionError, message)
}

// EvaluationError wraps a failure raised by the user function.
func EvaluationError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeEvaluationError,
		Message: message,
		Cause:   cause,
	}
}

// ConvergenceError reports an adaptive integration that could not produce an
// estimate because an evaluation failed outright.
func ConvergenceError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeConvergenceError,
		Message: message,
		Cause:   cause,
	}
}
