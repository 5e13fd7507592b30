package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seismolab/noiseq/jobs"
)

func TestNewCommandHandler_Validation(t *testing.T) {
	_, err := NewCommandHandler("", "", "true")
	assert.Error(t, err)

	_, err = NewCommandHandler("CC", "", "")
	assert.Error(t, err)

	h, err := NewCommandHandler("CC", "STACK", "true")
	require.NoError(t, err)
	assert.Equal(t, "CC", h.Type())
	assert.Equal(t, "STACK", h.FollowUp())
}

func TestCommandHandler_Execute(t *testing.T) {
	job := jobs.NewJob("CC", "2024-01-01", "BE.GES:BE.MEM")
	job.ID = 1

	// The job lands in the child environment.
	h, err := NewCommandHandler("CC", "", "sh", "-c",
		`[ "$NOISEQ_JOB_TYPE" = CC ] && [ "$NOISEQ_DAY" = 2024-01-01 ] && [ "$NOISEQ_PAIR" = BE.GES:BE.MEM ]`)
	require.NoError(t, err)
	assert.NoError(t, h.Execute(context.Background(), &job))
}

func TestCommandHandler_ExecuteFailure(t *testing.T) {
	job := jobs.NewJob("CC", "2024-01-01", "BE.GES:BE.MEM")

	h, err := NewCommandHandler("CC", "", "sh", "-c", "echo 'no data for day' >&2; exit 3")
	require.NoError(t, err)

	execErr := h.Execute(context.Background(), &job)
	require.Error(t, execErr)
	assert.Contains(t, execErr.Error(), "no data for day")
	assert.Contains(t, execErr.Error(), "exit status 3")
}

func TestCommandHandler_ExecuteCancelled(t *testing.T) {
	job := jobs.NewJob("CC", "2024-01-01", "BE.GES:BE.MEM")

	h, err := NewCommandHandler("CC", "", "sleep", "60")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.Execute(ctx, &job), context.Canceled)
}
