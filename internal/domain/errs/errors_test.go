package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationKinds(t *testing.T) {
	for _, err := range []error{
		&MissingFeatureError{Names: []string{"price_lag2"}},
		&UnknownFeatureError{Names: []string{"volume"}},
		&InvalidDateError{Value: "2024-13-45"},
		&InvalidValueError{Field: "price_today", Reason: "must be finite"},
	} {
		wrapped := fmt.Errorf("handler: %w", err)
		assert.True(t, IsValidation(wrapped), "%T", err)
		assert.False(t, errors.Is(wrapped, ErrStorageUnavailable))
		assert.False(t, errors.Is(wrapped, ErrModelInference))
	}
}

func TestMissingFeatureMessage(t *testing.T) {
	err := &MissingFeatureError{Names: []string{"price_lag1", "price_lag2"}}
	assert.Equal(t, "missing required feature(s): price_lag1, price_lag2", err.Error())
}

func TestStorageWrapping(t *testing.T) {
	assert.NoError(t, Storage("load", nil))

	err := Storage("load", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	again := Storage("save", err)
	var se *StorageUnavailableError
	assert.ErrorAs(t, again, &se)
	assert.Equal(t, "load", se.Op)
}

func TestInferenceAndLoadKinds(t *testing.T) {
	inf := &ModelInferenceError{Err: errors.New("boom")}
	assert.ErrorIs(t, inf, ErrModelInference)
	assert.False(t, IsValidation(inf))

	load := &ModelLoadError{Path: "m.json", Err: io.EOF}
	assert.ErrorIs(t, load, ErrModelLoad)
	assert.ErrorIs(t, load, io.EOF)
}
