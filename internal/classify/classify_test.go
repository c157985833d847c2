package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/backstop-systems/backstop/pkg/types"
)

var allStates = []types.JobState{types.StateRunning, types.StateIdle, types.StateUnknown}

var allResults = []types.JobResult{
	types.ResultSuccess, types.ResultWarning, types.ResultFailed,
	types.ResultNone, types.ResultUnknown,
}

func TestRunningAlwaysSkips(t *testing.T) {
	for _, result := range allResults {
		snap := types.JobStatusSnapshot{JobID: "1", CurrentState: types.StateRunning, LastResult: result}
		assert.Equal(t, types.DecisionSkipRunning, Decide(snap), "lastResult=%s", result)
	}
}

func TestHealthyResultsSkip(t *testing.T) {
	for _, state := range []types.JobState{types.StateIdle, types.StateUnknown} {
		for _, result := range []types.JobResult{types.ResultSuccess, types.ResultNone} {
			snap := types.JobStatusSnapshot{JobID: "1", CurrentState: state, LastResult: result}
			assert.Equal(t, types.DecisionSkipHealthy, Decide(snap), "state=%s lastResult=%s", state, result)
		}
	}
}

func TestFailedAndWarningRetry(t *testing.T) {
	for _, state := range []types.JobState{types.StateIdle, types.StateUnknown} {
		for _, result := range []types.JobResult{types.ResultFailed, types.ResultWarning} {
			snap := types.JobStatusSnapshot{JobID: "1", CurrentState: state, LastResult: result}
			assert.Equal(t, types.DecisionRetry, Decide(snap), "state=%s lastResult=%s", state, result)
		}
	}
}

func TestUnknownResultNeverRetries(t *testing.T) {
	// The edge case: not running but last result unknown must not retry blindly.
	snap := types.JobStatusSnapshot{JobID: "1", CurrentState: types.StateIdle, LastResult: types.ResultUnknown}
	assert.Equal(t, types.DecisionSkipUnknownStatus, Decide(snap))
}

func TestRetryInvariant(t *testing.T) {
	// Retry iff currentState != Running AND lastResult in {Failed, Warning}.
	for _, state := range allStates {
		for _, result := range allResults {
			snap := types.JobStatusSnapshot{JobID: "1", CurrentState: state, LastResult: result}
			want := state != types.StateRunning &&
				(result == types.ResultFailed || result == types.ResultWarning)
			got := Decide(snap) == types.DecisionRetry
			assert.Equal(t, want, got, "state=%s lastResult=%s", state, result)
		}
	}
}

func TestDecideIsIdempotent(t *testing.T) {
	for _, state := range allStates {
		for _, result := range allResults {
			snap := types.JobStatusSnapshot{JobID: "1", CurrentState: state, LastResult: result}
			assert.Equal(t, Decide(snap), Decide(snap))
		}
	}
}
