// Package errs defines the error kinds an extraction can end with. Clients
// only ever see the message; the kind is used for logs and metrics.
package errs

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kinds reported by Kind.
const (
	KindValidation        = "validation"
	KindNavigationTimeout = "navigation_timeout"
	KindExternalService   = "external_service"
	KindExtraction        = "extraction"
	KindCanceled          = "canceled"
	KindUnknown           = "unknown"
)

// ErrURLRequired is returned when a request carries no page URL.
var ErrURLRequired = &ValidationError{Field: "page", Message: "URL parameter is required"}

// ValidationError rejects a request before any work starts
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NavigationTimeoutError means the page did not load within the deadline
type NavigationTimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *NavigationTimeoutError) Error() string {
	return fmt.Sprintf("navigation timeout of %d ms exceeded loading %s", e.Timeout.Milliseconds(), e.URL)
}

func (e *NavigationTimeoutError) Unwrap() error {
	return e.Err
}

// ExternalServiceError wraps failures of the generative model: unreachable,
// non-success status or a reply that is not valid JSON.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// ExtractionError covers any other failure while working with the page
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Kind classifies err for logging and metrics labels.
func Kind(err error) string {
	var (
		validation *ValidationError
		navigation *NavigationTimeoutError
		external   *ExternalServiceError
		extraction *ExtractionError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &navigation):
		return KindNavigationTimeout
	case errors.As(err, &external):
		return KindExternalService
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.As(err, &extraction):
		return KindExtraction
	default:
		return KindUnknown
	}
}
