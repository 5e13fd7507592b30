// Package worker runs the processing loop: claim jobs, hand them to the
// registered handler for their type, and reconcile the outcome. The actual
// scientific computation lives in handler implementations; this package only
// coordinates.
package worker

import (
	"context"
	"sync"

	"github.com/seismolab/noiseq/errors"
	"github.com/seismolab/noiseq/jobs"
)

// Handler executes jobs of one type. Implementations must be safe for
// concurrent use: the pool calls Execute from multiple goroutines.
//
// Execute should check ctx.Done() in long loops and return ctx.Err() when
// cancelled; the pool then fails the job back to the pool instead of
// marking it done.
type Handler interface {
	// Type returns the job type this handler processes ("CC", "STACK", ...).
	Type() string

	// Execute runs one job. Return nil on success, an error to fail the
	// job back to TODO with the error recorded.
	Execute(ctx context.Context, job *jobs.Job) error

	// FollowUp returns the job type to requeue for the same (day, pair)
	// after a successful Execute, or "" for none. This is how correlation
	// completion schedules stacking.
	FollowUp() string
}

// Registry maps job types to handlers. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler for its job type. Registering the same type twice
// is an error; job types route to exactly one handler.
func (r *Registry) Register(h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobType := h.Type()
	if jobType == "" {
		return errors.New("handler has empty job type")
	}
	if _, exists := r.handlers[jobType]; exists {
		return errors.Newf("handler already registered for job type %s", jobType)
	}
	r.handlers[jobType] = h
	return nil
}

// Get returns the handler for a job type, or nil.
func (r *Registry) Get(jobType string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[jobType]
}

// Types returns the registered job types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}
