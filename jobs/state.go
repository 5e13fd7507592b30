package jobs

// State is the lifecycle state of a job. The single-letter codes are what
// the database stores; they are the historical flag values every operator
// tool in this ecosystem greps for.
type State string

const (
	// StateTodo: available to be claimed.
	StateTodo State = "T"
	// StateInProgress: claimed by a worker, not yet reconciled.
	StateInProgress State = "I"
	// StateDone: completed; terminal until invalidated.
	StateDone State = "D"
)

// Valid returns true if s is a known state code.
func (s State) Valid() bool {
	switch s {
	case StateTodo, StateInProgress, StateDone:
		return true
	default:
		return false
	}
}

// Name returns the human-readable state name for logs and status output.
func (s State) Name() string {
	switch s {
	case StateTodo:
		return "TODO"
	case StateInProgress:
		return "IN_PROGRESS"
	case StateDone:
		return "DONE"
	default:
		return string(s)
	}
}

// The closed transition table. Anything not listed here is rejected with
// ErrInvalidTransition so races and worker-logic bugs surface instead of
// being silently absorbed.
//
//	claim:       TODO        -> IN_PROGRESS (compare-and-set; loser skips)
//	complete:    IN_PROGRESS -> DONE
//	fail:        IN_PROGRESS -> TODO
//	invalidate:  DONE        -> TODO
//	reset_stale: IN_PROGRESS -> TODO
var transitions = map[State][]State{
	StateTodo:       {StateInProgress},
	StateInProgress: {StateDone, StateTodo},
	StateDone:       {StateTodo},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to State) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
