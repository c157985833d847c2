// Package orchestrate drives one remediation pass over the backup job
// inventory: fetch status, classify, act, record the outcome.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/backstop-systems/backstop/internal/backupapi"
	"github.com/backstop-systems/backstop/internal/classify"
	"github.com/backstop-systems/backstop/internal/metrics"
	"github.com/backstop-systems/backstop/pkg/types"
)

// BackupAPI is the surface of the backup service client used by the orchestrator.
type BackupAPI interface {
	Login(ctx context.Context) error
	ListJobs(ctx context.Context) ([]types.Job, error)
	GetJobStatus(ctx context.Context, jobID string) (*types.JobStatusSnapshot, error)
	StartJob(ctx context.Context, jobID string) error
}

// Notifier delivers an operator notification for one confirmed retry.
type Notifier interface {
	Notify(ctx context.Context, n types.Notification) types.NotifyResult
}

// Orchestrator runs the per-job retry state machine over the job inventory.
// Jobs are processed strictly sequentially; one job's error never aborts the
// run. Only authentication and inventory failures are fatal.
type Orchestrator struct {
	api      BackupAPI
	notifier Notifier
	logger   *slog.Logger
	tracer   trace.Tracer
	dryRun   bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNotifier sets the notification dispatcher.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithLogger sets the orchestrator logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithDryRun classifies jobs without starting them or notifying.
func WithDryRun(dry bool) Option {
	return func(o *Orchestrator) { o.dryRun = dry }
}

// New creates an Orchestrator for the given backup API client.
func New(api BackupAPI, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		api:    api,
		logger: slog.Default(),
		tracer: otel.Tracer("backstop/orchestrate"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run performs one full pass. The returned error is non-nil only for fatal
// failures (authentication, inventory); per-job errors are recorded in the
// report and counted, and the pass completes.
func (o *Orchestrator) Run(ctx context.Context) (*types.RunReport, error) {
	runID := ulid.Make().String()

	ctx, span := o.tracer.Start(ctx, "backstop.run",
		trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	logger := o.logger.With("runID", runID)
	logger.Info("starting remediation pass", "dryRun", o.dryRun)

	report := &types.RunReport{
		RunID:     runID,
		DryRun:    o.dryRun,
		StartedAt: time.Now(),
	}

	if err := o.api.Login(ctx); err != nil {
		return nil, fmt.Errorf("establishing session: %w", err)
	}

	jobs, err := o.api.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing job inventory: %w", err)
	}
	logger.Info("job inventory listed", "jobs", len(jobs))

	for _, job := range jobs {
		outcome := o.processJob(ctx, logger, runID, job)
		report.Outcomes = append(report.Outcomes, outcome)
		o.record(&report.Summary, outcome)
	}

	report.CompletedAt = time.Now()
	span.SetAttributes(
		attribute.Int("jobs.checked", report.Summary.Checked),
		attribute.Int("jobs.retried", report.Summary.Retried),
		attribute.Int("jobs.errored", report.Summary.Errored),
	)
	logger.Info("remediation pass complete",
		"checked", report.Summary.Checked,
		"retried", report.Summary.Retried,
		"skipped", report.Summary.Skipped(),
		"errored", report.Summary.Errored,
	)
	return report, nil
}

// processJob walks one job through the phase machine to a terminal phase.
func (o *Orchestrator) processJob(ctx context.Context, logger *slog.Logger, runID string, job types.Job) types.JobOutcome {
	ctx, span := o.tracer.Start(ctx, "backstop.job", trace.WithAttributes(
		attribute.String("job.id", job.ID),
		attribute.String("job.name", job.Name),
	))
	defer span.End()

	outcome := types.JobOutcome{Job: job, Phase: types.PhasePending}
	metrics.JobsChecked.Add(1)

	snap, err := o.api.GetJobStatus(ctx, job.ID)
	switch {
	case errors.Is(err, backupapi.ErrJobNotFound):
		// Fail safe: an unmatched snapshot is ambiguous data, never a retry.
		snap = &types.JobStatusSnapshot{
			JobID:        job.ID,
			CurrentState: types.StateUnknown,
			LastResult:   types.ResultUnknown,
		}
	case err != nil:
		o.advance(&outcome, types.PhaseErrored)
		outcome.Error = err.Error()
		metrics.StatusFetchErrors.Add(1)
		logger.Error("status fetch failed", "job", job.Name, "error", err)
		span.SetAttributes(attribute.String("job.phase", string(outcome.Phase)))
		return outcome
	}

	o.advance(&outcome, types.PhaseStatusFetched)
	outcome.Snapshot = snap
	outcome.Decision = classify.Decide(*snap)
	span.SetAttributes(attribute.String("job.decision", string(outcome.Decision)))

	if outcome.Decision != types.DecisionRetry {
		o.advance(&outcome, types.PhaseSkipped)
		metrics.JobsSkipped.Add(1)
		logger.Debug("job skipped",
			"job", job.Name,
			"decision", outcome.Decision,
			"state", snap.CurrentState,
			"lastResult", snap.LastResult,
		)
		span.SetAttributes(attribute.String("job.phase", string(outcome.Phase)))
		return outcome
	}

	o.advance(&outcome, types.PhaseRetryRequested)
	if o.dryRun {
		logger.Info("dry-run: would start job", "job", job.Name, "lastResult", snap.LastResult)
		span.SetAttributes(attribute.String("job.phase", string(outcome.Phase)))
		return outcome
	}

	if err := o.api.StartJob(ctx, job.ID); err != nil {
		// No second attempt within this run; the next pass re-evaluates the
		// job naturally since its last result still shows a non-success.
		o.advance(&outcome, types.PhaseRetryFailed)
		outcome.Error = err.Error()
		metrics.RetriesFailed.Add(1)
		logger.Error("retry failed", "job", job.Name, "error", err)
		span.SetAttributes(attribute.String("job.phase", string(outcome.Phase)))
		return outcome
	}

	o.advance(&outcome, types.PhaseRetryConfirmed)
	metrics.RetriesTriggered.Add(1)
	logger.Info("retry triggered", "job", job.Name, "lastResult", snap.LastResult)

	outcome.Notify = o.notify(ctx, logger, runID, job, snap)
	span.SetAttributes(attribute.String("job.phase", string(outcome.Phase)))
	return outcome
}

// notify fires the at-most-once notification for a confirmed retry. Its
// outcome never changes the job's terminal phase.
func (o *Orchestrator) notify(ctx context.Context, logger *slog.Logger, runID string, job types.Job, snap *types.JobStatusSnapshot) types.NotifyResult {
	if o.notifier == nil {
		return types.NotifySkipped
	}

	result := o.notifier.Notify(ctx, types.Notification{
		RunID:      runID,
		JobID:      job.ID,
		JobName:    job.Name,
		LastResult: snap.LastResult,
		Timestamp:  time.Now(),
	})
	switch result {
	case types.NotifyDelivered:
		metrics.NotificationsSent.Add(1)
	case types.NotifyFailed:
		metrics.NotificationsFailed.Add(1)
		logger.Warn("notification delivery failed", "job", job.Name)
	}
	return result
}

// advance moves a job to the next phase. Transitions are driven only from
// this package, so an invalid one is a bug; it is logged and applied anyway
// rather than corrupting the outcome with a stuck phase.
func (o *Orchestrator) advance(outcome *types.JobOutcome, to types.JobPhase) {
	if err := Transition(outcome.Phase, to); err != nil {
		o.logger.Error("phase transition rejected", "job", outcome.Job.Name, "error", err)
	}
	outcome.Phase = to
}

func (o *Orchestrator) record(s *types.RunSummary, outcome types.JobOutcome) {
	s.Checked++
	switch outcome.Decision {
	case types.DecisionSkipRunning:
		s.SkippedRunning++
	case types.DecisionSkipHealthy:
		s.SkippedHealthy++
	case types.DecisionSkipUnknownStatus:
		s.SkippedUnknown++
	}
	switch outcome.Phase {
	case types.PhaseRetryConfirmed:
		s.Retried++
	case types.PhaseRetryRequested:
		if o.dryRun {
			s.Retried++
		}
	case types.PhaseRetryFailed, types.PhaseErrored:
		s.Errored++
	}
}
