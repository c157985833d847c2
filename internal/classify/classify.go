// Package classify maps a job status snapshot to a retry decision.
package classify

import "github.com/backstop-systems/backstop/pkg/types"

// Decide returns the retry decision for one snapshot. Pure function: no I/O,
// no hidden state.
//
// Rules, in priority order:
//  1. a running job is never interrupted or restarted
//  2. Success and None (never run yet) are healthy
//  3. ambiguous data is never retried blindly
//  4. everything left is Failed or Warning, which warrants a retry
func Decide(s types.JobStatusSnapshot) types.RetryDecision {
	if s.CurrentState == types.StateRunning {
		return types.DecisionSkipRunning
	}
	switch s.LastResult {
	case types.ResultSuccess, types.ResultNone:
		return types.DecisionSkipHealthy
	case types.ResultFailed, types.ResultWarning:
		return types.DecisionRetry
	default:
		return types.DecisionSkipUnknownStatus
	}
}
