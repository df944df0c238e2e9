package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by RegistryService. Callers match them with errors.Is;
// the underlying cause stays reachable through the wrap chain.
var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("no such guest")
	ErrStore      = errors.New("guest store failure")
	ErrAllocation = errors.New("room allocation failed")
)

func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

func allocationError(err error) error {
	return fmt.Errorf("%w: %w", ErrAllocation, err)
}
