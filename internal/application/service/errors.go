package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCaseNotFound is returned when no case matches the requested id
	ErrCaseNotFound = errors.New("case not found")

	// ErrTransitionValidationFailed marks business-rule rejections; the
	// concrete *ValidationError carries the aggregated messages
	ErrTransitionValidationFailed = errors.New("transition validation failed")
)

// ValidationError aggregates every business rule violated by one request.
// It wraps ErrTransitionValidationFailed for errors.Is checks.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("transition validation failed: %s", strings.Join(e.Errors, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrTransitionValidationFailed
}
