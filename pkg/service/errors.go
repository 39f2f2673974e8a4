package service

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotFound       = errors.New("transfer not found")
	ErrAlreadyClaimed = errors.New("transfer already claimed by someone else")
	ErrForbidden      = errors.New("admin access required")
	ErrUpstream       = errors.New("payment provider lookup failed")
)

// ValidationError is a request the caller must fix before retrying.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
