package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelWrapping(t *testing.T) {
	err := Wrap(ErrInvalidTransition, "complete called on TODO job")
	assert.True(t, IsInvalidTransition(err))
	assert.False(t, IsNotFound(err))

	err = Wrapf(ErrNotFound, "job %d", 42)
	assert.True(t, IsNotFound(err))
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("startdate %q is not a date", "tomorrow")
	assert.True(t, IsConfigInvalid(err))
	assert.Contains(t, err.Error(), "startdate")
}

func TestNilChecks(t *testing.T) {
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsConfigInvalid(nil))
	assert.False(t, IsInvalidTransition(nil))
}
