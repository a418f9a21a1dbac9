package export

import (
	"errors"
	"fmt"

	"cardterm/internal/theme"
)

// Code classifies why an export produced no artifact.
type Code string

const (
	CodeUndefinedTheme     Code = "UNDEFINED_THEME"
	CodeCaptureUnavailable Code = "CAPTURE_UNAVAILABLE"
	CodeEncodingFailure    Code = "ENCODING_FAILURE"
	CodeDeliveryFailure    Code = "DELIVERY_FAILURE"
	CodeUnsupportedFormat  Code = "UNSUPPORTED_FORMAT"
)

var (
	// ErrCaptureUnavailable indicates the source has no mounted surface.
	ErrCaptureUnavailable = errors.New("capture source unavailable")
	// ErrEncoding wraps failures while rasterizing or encoding.
	ErrEncoding = errors.New("encoding failed")
	// ErrDelivery wraps sink failures.
	ErrDelivery = errors.New("delivery failed")
	// ErrUnsupportedFormat indicates an unknown output format.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrJobConsumed is returned when a job is run more than once.
	ErrJobConsumed = errors.New("export job already run")
)

// Error reports a failed export. It unwraps to the underlying sentinel and
// cause so callers can use errors.Is.
type Error struct {
	Code   Code
	Stage  State
	Format Format
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export %s: %s while %s: %v", e.Format, e.Code, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// classifyCapture maps an error raised while reading the source.
func classifyCapture(err error) Code {
	switch {
	case errors.Is(err, theme.ErrUndefinedTheme):
		return CodeUndefinedTheme
	case errors.Is(err, ErrCaptureUnavailable):
		return CodeCaptureUnavailable
	default:
		return CodeEncodingFailure
	}
}
