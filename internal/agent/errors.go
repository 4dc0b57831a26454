package agent

import "errors"

// Sentinel errors for agent operations.
// Only errors that are checked with errors.Is() are defined here.
var (
	// ErrNoResponse indicates the model returned no usable candidate.
	ErrNoResponse = errors.New("model returned no response")

	// ErrToolLoopExceeded indicates the model kept requesting tools past
	// the iteration cap without producing a final answer.
	ErrToolLoopExceeded = errors.New("tool loop exceeded iteration limit")
)
