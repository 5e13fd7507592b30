package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_Valid(t *testing.T) {
	assert.True(t, StateTodo.Valid())
	assert.True(t, StateInProgress.Valid())
	assert.True(t, StateDone.Valid())
	assert.False(t, State("X").Valid())
	assert.False(t, State("").Valid())
}

func TestState_Name(t *testing.T) {
	assert.Equal(t, "TODO", StateTodo.Name())
	assert.Equal(t, "IN_PROGRESS", StateInProgress.Name())
	assert.Equal(t, "DONE", StateDone.Name())
	assert.Equal(t, "X", State("X").Name())
}

func TestCanTransition(t *testing.T) {
	// Legal transitions.
	assert.True(t, CanTransition(StateTodo, StateInProgress))
	assert.True(t, CanTransition(StateInProgress, StateDone))
	assert.True(t, CanTransition(StateInProgress, StateTodo))
	assert.True(t, CanTransition(StateDone, StateTodo))

	// Everything else is rejected.
	assert.False(t, CanTransition(StateTodo, StateDone))
	assert.False(t, CanTransition(StateTodo, StateTodo))
	assert.False(t, CanTransition(StateDone, StateInProgress))
	assert.False(t, CanTransition(StateDone, StateDone))
	assert.False(t, CanTransition(StateInProgress, StateInProgress))
	assert.False(t, CanTransition(State("X"), StateTodo))
}
