package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrExternal indicates an external API failure
	ErrExternal = errors.New("external service error")

	// ErrNotImplemented indicates a feature is not implemented
	ErrNotImplemented = errors.New("not implemented")
)

// Pipeline-specific errors

var (
	// ErrExtractionFailed indicates no recognizable decision marker was found
	ErrExtractionFailed = errors.New("no recommendation could be extracted")

	// ErrNoRecommendation indicates both deterministic and LLM extraction failed
	ErrNoRecommendation = errors.New("no recommendation available")

	// ErrStageFailed indicates a pipeline stage failed and produced a fallback report
	ErrStageFailed = errors.New("pipeline stage failed")

	// ErrDataUnavailable indicates a data adapter could not produce a report
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrMissingCredentials indicates required API credentials are not configured
	ErrMissingCredentials = errors.New("missing credentials")
)

// Broker-specific errors

var (
	// ErrOrderRejected indicates an order was rejected by the broker
	ErrOrderRejected = errors.New("order rejected by broker")

	// ErrPositionNotFound indicates no open position for the symbol
	ErrPositionNotFound = errors.New("position not found")

	// ErrInsufficientBuyingPower indicates insufficient buying power
	ErrInsufficientBuyingPower = errors.New("insufficient buying power")

	// ErrRateLimitExceeded indicates API rate limit exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrMarketClosed indicates the market is closed for trading
	ErrMarketClosed = errors.New("market closed")
)

// DomainError wraps an error with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
