package orchestrate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/backstop-systems/backstop/pkg/types"
)

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from  types.JobPhase
		to    types.JobPhase
		valid bool
	}{
		{types.PhasePending, types.PhaseStatusFetched, true},
		{types.PhasePending, types.PhaseErrored, true},
		{types.PhasePending, types.PhaseSkipped, false},
		{types.PhasePending, types.PhaseRetryConfirmed, false},
		{types.PhaseStatusFetched, types.PhaseSkipped, true},
		{types.PhaseStatusFetched, types.PhaseRetryRequested, true},
		{types.PhaseStatusFetched, types.PhaseRetryConfirmed, false},
		{types.PhaseStatusFetched, types.PhaseErrored, false},
		{types.PhaseRetryRequested, types.PhaseRetryConfirmed, true},
		{types.PhaseRetryRequested, types.PhaseRetryFailed, true},
		{types.PhaseRetryRequested, types.PhaseSkipped, false},
		{types.PhaseSkipped, types.PhasePending, false},
		{types.PhaseRetryConfirmed, types.PhaseRetryRequested, false},
		{types.PhaseRetryFailed, types.PhaseRetryRequested, false},
		{types.PhaseErrored, types.PhaseStatusFetched, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.valid, CanTransition(tt.from, tt.to))
			err := Transition(tt.from, tt.to)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(types.PhaseSkipped))
	assert.True(t, IsTerminal(types.PhaseRetryConfirmed))
	assert.True(t, IsTerminal(types.PhaseRetryFailed))
	assert.True(t, IsTerminal(types.PhaseErrored))
	assert.False(t, IsTerminal(types.PhasePending))
	assert.False(t, IsTerminal(types.PhaseStatusFetched))
	assert.False(t, IsTerminal(types.PhaseRetryRequested))
}
