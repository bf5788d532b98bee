// Package scanner - Custom error types for better error handling
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Sentinel errors for the per-test failure taxonomy
var (
	// ErrTransientProbe indicates the enumeration probe could not reach the target
	ErrTransientProbe = errors.New("transient probe failure")

	// ErrNavigationTimeout indicates a navigation or evaluation ran past its deadline
	ErrNavigationTimeout = errors.New("navigation timeout")

	// ErrDriverInit indicates the browser engine failed to start for a worker
	ErrDriverInit = errors.New("browser driver initialization failed")

	// ErrWebhookUnreachable indicates a blind reconciliation poll failed
	ErrWebhookUnreachable = errors.New("webhook unreachable")

	// ErrElementInteraction indicates a form field could not be filled or clicked
	ErrElementInteraction = errors.New("element interaction failed")

	// ErrInjectionFailed indicates no injection path could be attempted
	ErrInjectionFailed = errors.New("injection failed")
)

// ScanError provides detailed error information for a single test
type ScanError struct {
	URL       string // The target being tested
	Parameter string // The injection point (if applicable)
	Payload   string // The payload being tested (if applicable)
	Operation string // The operation that failed
	Cause     error  // The underlying error
}

// Error implements the error interface
func (e *ScanError) Error() string {
	if e.Parameter != "" {
		return fmt.Sprintf("%s failed for %s on %s: %v",
			e.Operation, e.Parameter, truncateString(e.URL, 50), e.Cause)
	}
	return fmt.Sprintf("%s failed for %s: %v",
		e.Operation, truncateString(e.URL, 50), e.Cause)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// NewScanError creates a new ScanError
func NewScanError(operation, url string, cause error) *ScanError {
	return &ScanError{
		URL:       url,
		Operation: operation,
		Cause:     classify(cause),
	}
}

// NewPayloadError creates a ScanError for a failed (point, payload) test
func NewPayloadError(operation, url, point, payload string, cause error) *ScanError {
	return &ScanError{
		URL:       url,
		Parameter: point,
		Payload:   payload,
		Operation: operation,
		Cause:     classify(cause),
	}
}

// classify maps deadline errors onto ErrNavigationTimeout so callers can
// use errors.Is without knowing which engine produced them.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrNavigationTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrNavigationTimeout, err)
	}
	return err
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// IsRetryable returns true if the error can be retried on the next attempt
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrNavigationTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrTransientProbe) ||
		errors.Is(err, ErrWebhookUnreachable)
}

// ErrorAggregator collects browser launch and relaunch errors from
// multiple goroutines safely.
type ErrorAggregator struct {
	errors []error
	mu     sync.Mutex
}

// NewErrorAggregator creates a new error aggregator instance.
func NewErrorAggregator() *ErrorAggregator {
	return &ErrorAggregator{
		errors: make([]error, 0),
	}
}

// Add appends an error to the aggregator if it's not nil.
func (ea *ErrorAggregator) Add(err error) {
	if err == nil {
		return
	}
	ea.mu.Lock()
	ea.errors = append(ea.errors, err)
	ea.mu.Unlock()
}

// Errors returns a copy of all collected errors.
func (ea *ErrorAggregator) Errors() []error {
	ea.mu.Lock()
	defer ea.mu.Unlock()

	if len(ea.errors) == 0 {
		return nil
	}

	result := make([]error, len(ea.errors))
	copy(result, ea.errors)
	return result
}

// Messages returns the collected errors as strings, for the scan result.
func (ea *ErrorAggregator) Messages() []string {
	errs := ea.Errors()
	if errs == nil {
		return nil
	}
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}

// Count returns the number of collected errors.
func (ea *ErrorAggregator) Count() int {
	ea.mu.Lock()
	defer ea.mu.Unlock()
	return len(ea.errors)
}
