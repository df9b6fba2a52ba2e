// Package errs holds the error kinds shared by the prediction and observation
// paths. Callers classify with errors.Is / errors.As; the HTTP layer maps kinds
// to status codes.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks client input problems. Every validation type below matches it.
	ErrValidation = errors.New("validation error")
	// ErrModelInference marks failures inside the fitted model.
	ErrModelInference = errors.New("model inference error")
	// ErrStorageUnavailable marks observation table I/O failures.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrModelLoad marks a missing or corrupt model artifact.
	ErrModelLoad = errors.New("model load error")
)

// MissingFeatureError lists required model fields absent from a payload.
type MissingFeatureError struct {
	Names []string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing required feature(s): %s", strings.Join(e.Names, ", "))
}

func (e *MissingFeatureError) Is(target error) bool { return target == ErrValidation }

// UnknownFeatureError lists fields the model does not know. Only raised in strict mode.
type UnknownFeatureError struct {
	Names []string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("unknown feature(s): %s", strings.Join(e.Names, ", "))
}

func (e *UnknownFeatureError) Is(target error) bool { return target == ErrValidation }

// InvalidDateError is returned when a date string cannot be normalised.
type InvalidDateError struct {
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", e.Value)
}

func (e *InvalidDateError) Unwrap() error { return e.Err }

func (e *InvalidDateError) Is(target error) bool { return target == ErrValidation }

// InvalidValueError is returned for non-finite or otherwise unusable numbers.
type InvalidValueError struct {
	Field  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Field, e.Reason)
}

func (e *InvalidValueError) Is(target error) bool { return target == ErrValidation }

// ModelInferenceError wraps a failure raised while computing a prediction.
type ModelInferenceError struct {
	Err error
}

func (e *ModelInferenceError) Error() string {
	return fmt.Sprintf("model inference failed: %v", e.Err)
}

func (e *ModelInferenceError) Unwrap() error { return e.Err }

func (e *ModelInferenceError) Is(target error) bool { return target == ErrModelInference }

// StorageUnavailableError wraps an I/O failure on the observation table.
type StorageUnavailableError struct {
	Op  string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("observation store %s: %v", e.Op, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

func (e *StorageUnavailableError) Is(target error) bool { return target == ErrStorageUnavailable }

// ModelLoadError is fatal at startup.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %s: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

func (e *ModelLoadError) Is(target error) bool { return target == ErrModelLoad }

// Storage wraps err as a StorageUnavailableError unless it already is one.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageUnavailableError
	if errors.As(err, &se) {
		return err
	}
	return &StorageUnavailableError{Op: op, Err: err}
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
