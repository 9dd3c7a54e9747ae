package shared

import (
	"fmt"
	"strings"

	"github.com/storefront-labs/storefront/internal/platform/httpx"
)

var (
	ErrNotFound   = httpx.ErrNotFound
	ErrDuplicate  = httpx.ErrDuplicate
	ErrValidation = httpx.ErrValidation
	ErrInvalidID  = fmt.Errorf("invalid ID: %w", httpx.ErrValidation)
)

// ValidationError collects every violated rule of one request.
type ValidationError struct {
	Errors []string
}

// Add records a violation.
func (e *ValidationError) Add(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// OrNil returns e when at least one violation was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// Messages lists the violations in the order they were found.
func (e *ValidationError) Messages() []string {
	return e.Errors
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
