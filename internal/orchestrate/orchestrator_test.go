package orchestrate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/backstop-systems/backstop/internal/backupapi"
	"github.com/backstop-systems/backstop/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockAPI is a scriptable BackupAPI.
type mockAPI struct {
	loginErr   error
	jobs       []types.Job
	listErr    error
	statuses   map[string]*types.JobStatusSnapshot
	statusErrs map[string]error
	startErrs  map[string]error

	started []string
}

func (m *mockAPI) Login(_ context.Context) error { return m.loginErr }

func (m *mockAPI) ListJobs(_ context.Context) ([]types.Job, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.jobs, nil
}

func (m *mockAPI) GetJobStatus(_ context.Context, jobID string) (*types.JobStatusSnapshot, error) {
	if err, ok := m.statusErrs[jobID]; ok {
		return nil, err
	}
	snap, ok := m.statuses[jobID]
	if !ok {
		return nil, backupapi.ErrJobNotFound
	}
	return snap, nil
}

func (m *mockAPI) StartJob(_ context.Context, jobID string) error {
	if err, ok := m.startErrs[jobID]; ok {
		return err
	}
	m.started = append(m.started, jobID)
	return nil
}

// recordNotifier records notifications and returns a fixed result.
type recordNotifier struct {
	result        types.NotifyResult
	notifications []types.Notification
}

func (n *recordNotifier) Notify(_ context.Context, notification types.Notification) types.NotifyResult {
	n.notifications = append(n.notifications, notification)
	if n.result == "" {
		return types.NotifyDelivered
	}
	return n.result
}

func snapshot(id string, state types.JobState, result types.JobResult) *types.JobStatusSnapshot {
	return &types.JobStatusSnapshot{JobID: id, CurrentState: state, LastResult: result}
}

func TestAuthFailureIsFatal(t *testing.T) {
	api := &mockAPI{loginErr: &backupapi.AuthError{Err: fmt.Errorf("credentials rejected")}}
	o := New(api)

	report, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)

	var authErr *backupapi.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestInventoryFailureIsFatal(t *testing.T) {
	api := &mockAPI{listErr: &backupapi.InventoryError{Err: fmt.Errorf("gateway timeout")}}
	o := New(api)

	report, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)

	var invErr *backupapi.InventoryError
	assert.ErrorAs(t, err, &invErr)
}

func TestFailedJobIsRetriedAndNotified(t *testing.T) {
	// Scenario: job with a failed last result gets restarted and the operator
	// is notified exactly once.
	api := &mockAPI{
		jobs:     []types.Job{{ID: "1", Name: "DailyVM"}},
		statuses: map[string]*types.JobStatusSnapshot{"1": snapshot("1", types.StateIdle, types.ResultFailed)},
	}
	notifier := &recordNotifier{}
	o := New(api, WithNotifier(notifier))

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"1"}, api.started)
	require.Len(t, report.Outcomes, 1)
	outcome := report.Outcomes[0]
	assert.Equal(t, types.DecisionRetry, outcome.Decision)
	assert.Equal(t, types.PhaseRetryConfirmed, outcome.Phase)
	assert.Equal(t, types.NotifyDelivered, outcome.Notify)
	assert.True(t, IsTerminal(outcome.Phase))

	require.Len(t, notifier.notifications, 1)
	n := notifier.notifications[0]
	assert.Equal(t, report.RunID, n.RunID)
	assert.Equal(t, "DailyVM", n.JobName)
	assert.Equal(t, types.ResultFailed, n.LastResult)

	assert.Equal(t, 1, report.Summary.Checked)
	assert.Equal(t, 1, report.Summary.Retried)
	assert.Equal(t, 0, report.Summary.Errored)
}

func TestRunningJobIsNeverRestarted(t *testing.T) {
	api := &mockAPI{
		jobs:     []types.Job{{ID: "2", Name: "WeeklyFull"}},
		statuses: map[string]*types.JobStatusSnapshot{"2": snapshot("2", types.StateRunning, types.ResultFailed)},
	}
	notifier := &recordNotifier{}
	o := New(api, WithNotifier(notifier))

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, api.started)
	assert.Empty(t, notifier.notifications)
	outcome := report.Outcomes[0]
	assert.Equal(t, types.DecisionSkipRunning, outcome.Decision)
	assert.Equal(t, types.PhaseSkipped, outcome.Phase)
	assert.Equal(t, 1, report.Summary.SkippedRunning)
}

func TestNeverRunJobIsHealthy(t *testing.T) {
	api := &mockAPI{
		jobs:     []types.Job{{ID: "3", Name: "Archive"}},
		statuses: map[string]*types.JobStatusSnapshot{"3": snapshot("3", types.StateIdle, types.ResultNone)},
	}
	o := New(api)

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, api.started)
	assert.Equal(t, types.DecisionSkipHealthy, report.Outcomes[0].Decision)
	assert.Equal(t, 1, report.Summary.SkippedHealthy)
}

func TestStatusFetchErrorDoesNotAbortRun(t *testing.T) {
	api := &mockAPI{
		jobs: []types.Job{
			{ID: "4", Name: "Broken"},
			{ID: "5", Name: "AfterBroken"},
		},
		statuses:   map[string]*types.JobStatusSnapshot{"5": snapshot("5", types.StateIdle, types.ResultFailed)},
		statusErrs: map[string]error{"4": fmt.Errorf("connection reset")},
	}
	o := New(api)

	report, err := o.Run(context.Background())
	require.NoError(t, err, "per-job errors must not fail the run")

	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, types.PhaseErrored, report.Outcomes[0].Phase)
	assert.Contains(t, report.Outcomes[0].Error, "connection reset")

	// The job after the broken one is still processed.
	assert.Equal(t, types.PhaseRetryConfirmed, report.Outcomes[1].Phase)
	assert.Equal(t, []string{"5"}, api.started)

	assert.Equal(t, 2, report.Summary.Checked)
	assert.Equal(t, 1, report.Summary.Errored)
	assert.Equal(t, 1, report.Summary.Retried)
}

func TestUnmatchedSnapshotIsNeverRetried(t *testing.T) {
	api := &mockAPI{
		jobs: []types.Job{{ID: "6", Name: "Ghost"}},
		// no status entry: GetJobStatus returns ErrJobNotFound
	}
	o := New(api)

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, api.started)
	outcome := report.Outcomes[0]
	assert.Equal(t, types.DecisionSkipUnknownStatus, outcome.Decision)
	assert.Equal(t, types.PhaseSkipped, outcome.Phase)
	assert.Equal(t, 1, report.Summary.SkippedUnknown)
}

func TestStartJobErrorIsIsolated(t *testing.T) {
	api := &mockAPI{
		jobs: []types.Job{
			{ID: "7", Name: "WontStart"},
			{ID: "8", Name: "Fine"},
		},
		statuses: map[string]*types.JobStatusSnapshot{
			"7": snapshot("7", types.StateIdle, types.ResultFailed),
			"8": snapshot("8", types.StateIdle, types.ResultWarning),
		},
		startErrs: map[string]error{"7": fmt.Errorf("service busy")},
	}
	notifier := &recordNotifier{}
	o := New(api, WithNotifier(notifier))

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.PhaseRetryFailed, report.Outcomes[0].Phase)
	assert.Equal(t, types.PhaseRetryConfirmed, report.Outcomes[1].Phase)
	assert.Equal(t, []string{"8"}, api.started)

	// Notification only for the confirmed retry.
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, "Fine", notifier.notifications[0].JobName)

	assert.Equal(t, 1, report.Summary.Errored)
	assert.Equal(t, 1, report.Summary.Retried)
}

func TestNotificationFailureDoesNotChangeTerminalPhase(t *testing.T) {
	api := &mockAPI{
		jobs:     []types.Job{{ID: "9", Name: "DailyVM"}},
		statuses: map[string]*types.JobStatusSnapshot{"9": snapshot("9", types.StateIdle, types.ResultFailed)},
	}
	notifier := &recordNotifier{result: types.NotifyFailed}
	o := New(api, WithNotifier(notifier))

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	outcome := report.Outcomes[0]
	assert.Equal(t, types.PhaseRetryConfirmed, outcome.Phase)
	assert.Equal(t, types.NotifyFailed, outcome.Notify)
	assert.Equal(t, 1, report.Summary.Retried)
	assert.Equal(t, 0, report.Summary.Errored)
}

func TestNoNotifierConfigured(t *testing.T) {
	api := &mockAPI{
		jobs:     []types.Job{{ID: "10", Name: "DailyVM"}},
		statuses: map[string]*types.JobStatusSnapshot{"10": snapshot("10", types.StateIdle, types.ResultFailed)},
	}
	o := New(api)

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.NotifySkipped, report.Outcomes[0].Notify)
	assert.Equal(t, types.PhaseRetryConfirmed, report.Outcomes[0].Phase)
}

func TestDryRunStartsNothing(t *testing.T) {
	api := &mockAPI{
		jobs: []types.Job{
			{ID: "11", Name: "DailyVM"},
			{ID: "12", Name: "Healthy"},
		},
		statuses: map[string]*types.JobStatusSnapshot{
			"11": snapshot("11", types.StateIdle, types.ResultFailed),
			"12": snapshot("12", types.StateIdle, types.ResultSuccess),
		},
	}
	notifier := &recordNotifier{}
	o := New(api, WithNotifier(notifier), WithDryRun(true))

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Empty(t, api.started)
	assert.Empty(t, notifier.notifications)
	assert.Equal(t, types.PhaseRetryRequested, report.Outcomes[0].Phase)
	assert.Equal(t, 1, report.Summary.Retried)
	assert.Equal(t, 1, report.Summary.SkippedHealthy)
}

func TestAllOutcomesTerminal(t *testing.T) {
	api := &mockAPI{
		jobs: []types.Job{
			{ID: "a", Name: "Retry"},
			{ID: "b", Name: "Running"},
			{ID: "c", Name: "Healthy"},
			{ID: "d", Name: "FetchError"},
			{ID: "e", Name: "StartError"},
			{ID: "f", Name: "Ghost"},
		},
		statuses: map[string]*types.JobStatusSnapshot{
			"a": snapshot("a", types.StateIdle, types.ResultFailed),
			"b": snapshot("b", types.StateRunning, types.ResultFailed),
			"c": snapshot("c", types.StateIdle, types.ResultSuccess),
			"e": snapshot("e", types.StateIdle, types.ResultWarning),
		},
		statusErrs: map[string]error{"d": fmt.Errorf("boom")},
		startErrs:  map[string]error{"e": fmt.Errorf("busy")},
	}
	o := New(api)

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 6)

	for _, outcome := range report.Outcomes {
		assert.True(t, IsTerminal(outcome.Phase), "job %s ended in %s", outcome.Job.Name, outcome.Phase)
	}
	assert.Equal(t, 6, report.Summary.Checked)
	assert.Equal(t, 1, report.Summary.Retried)
	assert.Equal(t, 3, report.Summary.Skipped())
	assert.Equal(t, 2, report.Summary.Errored)
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.CompletedAt.Before(report.StartedAt))
}
