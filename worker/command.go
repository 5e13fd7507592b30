package worker

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/seismolab/noiseq/errors"
	"github.com/seismolab/noiseq/jobs"
)

// CommandHandler executes jobs by running an external program once per job.
// The scientific processing steps are separate programs (often not even Go);
// this handler is the bridge between the queue and them.
//
// The job is passed through the environment:
//
//	NOISEQ_JOB_TYPE  the job type
//	NOISEQ_DAY       the reference day, YYYY-MM-DD
//	NOISEQ_PAIR      the pair key, NET.STA:NET.STA
//
// A zero exit status completes the job; anything else fails it back to TODO
// with the exit status and the tail of stderr recorded in the notes.
type CommandHandler struct {
	jobType  string
	followUp string
	program  string
	args     []string
}

// NewCommandHandler creates a handler that runs program for every jobType
// job and requeues followUp (may be empty) on success.
func NewCommandHandler(jobType, followUp, program string, args ...string) (*CommandHandler, error) {
	if jobType == "" {
		return nil, errors.New("command handler requires a job type")
	}
	if program == "" {
		return nil, errors.Newf("command handler for %s requires a program", jobType)
	}
	return &CommandHandler{
		jobType:  jobType,
		followUp: followUp,
		program:  program,
		args:     args,
	}, nil
}

func (h *CommandHandler) Type() string     { return h.jobType }
func (h *CommandHandler) FollowUp() string { return h.followUp }

// stderrTailLimit bounds how much stderr ends up in the job notes.
const stderrTailLimit = 500

func (h *CommandHandler) Execute(ctx context.Context, job *jobs.Job) error {
	cmd := exec.CommandContext(ctx, h.program, h.args...)
	cmd.Env = append(cmd.Environ(),
		"NOISEQ_JOB_TYPE="+job.Type,
		"NOISEQ_DAY="+job.Day,
		"NOISEQ_PAIR="+job.Pair,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := err.Error()
		if tail := strings.TrimSpace(stderr.String()); tail != "" {
			if len(tail) > stderrTailLimit {
				tail = tail[len(tail)-stderrTailLimit:]
			}
			msg = fmt.Sprintf("%s: %s", msg, tail)
		}
		return errors.Newf("%s", msg)
	}
	return nil
}
