package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// RenderError is a pipeline failure with a category, a human readable message
// and, where available, the underlying cause.
type RenderError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorType represents the categories of rendering failures
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeInvalidInput
	ErrorTypeInputNotFound
	ErrorTypeTemplateNotFound
	ErrorTypeFieldWriteFailed
	ErrorTypeRenderEngineUnavailable
	ErrorTypeRenderTimeout
	ErrorTypeConversionFailed
	ErrorTypeProvisionFailed
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
)

// Error implements the error interface
func (e *RenderError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Context != "" {
		msg += ": " + e.Context
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause
func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Is matches any RenderError of the same type, so callers can test a category
// with errors.Is(err, errors.New(ErrorTypeRenderTimeout, "")).
func (e *RenderError) Is(target error) bool {
	t, ok := target.(*RenderError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInvalidInput:
		return "INVALID_INPUT"
	case ErrorTypeInputNotFound:
		return "INPUT_NOT_FOUND"
	case ErrorTypeTemplateNotFound:
		return "TEMPLATE_NOT_FOUND"
	case ErrorTypeFieldWriteFailed:
		return "FIELD_WRITE_FAILED"
	case ErrorTypeRenderEngineUnavailable:
		return "RENDER_ENGINE_UNAVAILABLE"
	case ErrorTypeRenderTimeout:
		return "RENDER_TIMEOUT"
	case ErrorTypeConversionFailed:
		return "CONVERSION_FAILED"
	case ErrorTypeProvisionFailed:
		return "PROVISION_FAILED"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type. Only field
// writes are absorbed; everything else aborts the request.
func (et ErrorType) GetSeverity() ErrorSeverity {
	if et == ErrorTypeFieldWriteFailed {
		return SeverityWarning
	}
	return SeverityError
}

// New creates a RenderError of the given type
func New(errorType ErrorType, message string) *RenderError {
	return &RenderError{
		Type:      errorType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap creates a RenderError carrying cause
func Wrap(errorType ErrorType, message string, cause error) *RenderError {
	e := New(errorType, message)
	e.Cause = cause
	return e
}

// WithContext adds context to an existing RenderError
func (e *RenderError) WithContext(context string) *RenderError {
	e.Context = context
	return e
}

// TypeOf returns the category of err, or ErrorTypeUnknown when err carries no
// RenderError.
func TypeOf(err error) ErrorType {
	var re *RenderError
	if stderrors.As(err, &re) {
		return re.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err (or anything it wraps) is a RenderError of type t
func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}

// Is and As forward to the standard library so importers of this package do
// not need both.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// FieldFailures collects absorbed per-field write failures for one document
type FieldFailures struct {
	Warnings []*RenderError `json:"warnings"`
}

// Add records a failed field write
func (ff *FieldFailures) Add(field string, cause error) {
	ff.Warnings = append(ff.Warnings, Wrap(ErrorTypeFieldWriteFailed, "field write failed", cause).WithContext(field))
}

// Count returns the number of absorbed failures
func (ff *FieldFailures) Count() int {
	return len(ff.Warnings)
}

// Fields returns the names of the fields that failed
func (ff *FieldFailures) Fields() []string {
	names := make([]string, 0, len(ff.Warnings))
	for _, w := range ff.Warnings {
		names = append(names, w.Context)
	}
	return names
}

// Summary returns a text summary of the absorbed failures
func (ff *FieldFailures) Summary() string {
	if ff.Count() == 0 {
		return "No field failures"
	}
	return fmt.Sprintf("Skipped %d field(s)", ff.Count())
}
