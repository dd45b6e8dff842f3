// Package errs provides small helpers for creating and wrapping errors.
package errs

import (
	stderrors "errors"
	"fmt"
)

// New returns an error with the given message.
func New(msg string) error {
	return stderrors.New(msg)
}

// Errorf returns an error with a formatted message.
func Errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// Wrap returns an error with the given message and wraps the original error.
//
// Returns nil if the original error is nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf returns an error with a formatted message and wraps the original error.
//
// Returns nil if the original error is nil.
func Wrapf(err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", fmt.Sprintf(msg, args...), err)
}

// Join combines errors into a single error, dropping nils.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// Multi is a collection of errors gathered across a sequence of operations.
type Multi []error

// Append appends an error to the collection if it is not nil.
func (m Multi) Append(err error) Multi {
	if err == nil {
		return m
	}
	return append(m, err)
}

// Join combines all collected errors into a single error.
func (m Multi) Join() error {
	if len(m) == 0 {
		return nil
	}
	return stderrors.Join(m...)
}

// Wrap joins the collected errors and wraps them with a message.
//
// Returns nil if there are no errors.
func (m Multi) Wrap(msg string) error {
	if len(m) == 0 {
		return nil
	}
	return Wrap(m.Join(), msg)
}
