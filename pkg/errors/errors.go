// Package errors provides severity-aware error types for the rating engine.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error codes
const (
	CodeUnresolvedZone  = "UNRESOLVED_ZONE"
	CodeRateNotFound    = "RATE_NOT_FOUND"
	CodeInvalidShipment = "INVALID_SHIPMENT"
	CodeConfiguration   = "CONFIGURATION_ERROR"
)

// RateError is a structured error with context. Every failure the engine can
// produce is one of the four codes above; callers branch on Code, not on
// message text.
type RateError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	Field       string   `json:"field,omitempty"`
	Recoverable bool     `json:"recoverable"`
}

func (e *RateError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s (field: %s)", e.Severity, e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
}

// CodeOf returns the rating error code carried by err, or "" when err is not
// a RateError.
func CodeOf(err error) string {
	var re *RateError
	if stderrors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsCode reports whether err carries the given rating error code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// NewUnresolvedZone creates an error for a zip/origin pair absent from the
// zone table.
func NewUnresolvedZone(zip, origin string) *RateError {
	return &RateError{
		Code:        CodeUnresolvedZone,
		Message:     fmt.Sprintf("no zone entry for zip %s from origin %s", zip, origin),
		Severity:    SeverityError,
		Recoverable: true,
	}
}

// NewRateNotFound creates an error for a weight/zone combination outside the
// base rate table.
func NewRateNotFound(tier, zone int) *RateError {
	return &RateError{
		Code:        CodeRateNotFound,
		Message:     fmt.Sprintf("no base rate for weight tier %d in zone %d", tier, zone),
		Severity:    SeverityError,
		Recoverable: true,
	}
}

// NewInvalidShipment creates an error for a structural precondition violation.
func NewInvalidShipment(field, reason string) *RateError {
	return &RateError{
		Code:        CodeInvalidShipment,
		Message:     reason,
		Severity:    SeverityError,
		Field:       field,
		Recoverable: true,
	}
}

// NewConfiguration creates an error for an internally inconsistent carrier
// config. Raised at load time, before any shipment is evaluated.
func NewConfiguration(reason string) *RateError {
	return &RateError{
		Code:        CodeConfiguration,
		Message:     reason,
		Severity:    SeverityFatal,
		Recoverable: false,
	}
}
