// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the service layer. Handlers translate these to
// HTTP statuses; services never reference HTTP.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func conflictf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

// ConflictError carries the structured conflict payload so callers can render
// remediation (which contract to suspend) without re-querying.
type ConflictError struct {
	Result *ConflictResult
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("proposal conflicts with %d active contract price(s)", e.Result.TotalConflictCount)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
