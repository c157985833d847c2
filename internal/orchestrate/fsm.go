package orchestrate

import (
	"fmt"

	"github.com/backstop-systems/backstop/pkg/types"
)

// Transition table: from -> allowed tos
var validTransitions = map[types.JobPhase][]types.JobPhase{
	types.PhasePending:        {types.PhaseStatusFetched, types.PhaseErrored},
	types.PhaseStatusFetched:  {types.PhaseSkipped, types.PhaseRetryRequested},
	types.PhaseRetryRequested: {types.PhaseRetryConfirmed, types.PhaseRetryFailed},
	types.PhaseSkipped:        {},
	types.PhaseRetryConfirmed: {},
	types.PhaseRetryFailed:    {},
	types.PhaseErrored:        {},
}

// CanTransition checks if moving a job from one phase to another is valid.
func CanTransition(from, to types.JobPhase) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, p := range allowed {
		if p == to {
			return true
		}
	}
	return false
}

// Transition validates a phase change, returning an error if it is invalid.
func Transition(from, to types.JobPhase) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	return nil
}

// IsTerminal returns true if the phase is a terminal (final) state for a job.
func IsTerminal(phase types.JobPhase) bool {
	return phase == types.PhaseSkipped ||
		phase == types.PhaseRetryConfirmed ||
		phase == types.PhaseRetryFailed ||
		phase == types.PhaseErrored
}
