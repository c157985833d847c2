// Package types defines the public domain types for the Backstop backup
// remediation tool.
package types

import (
	"strings"
	"time"
)

// JobState represents whether a backup job is presently executing.
type JobState string

// JobState values enumerate the execution states reported by the backup service.
const (
	StateRunning JobState = "Running"
	StateIdle    JobState = "Idle"
	StateUnknown JobState = "Unknown"
)

// ParseJobState normalizes a raw state string from the service. Unrecognized
// values map to StateUnknown, never to an error.
func ParseJobState(s string) JobState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "running":
		return StateRunning
	case "idle":
		return StateIdle
	default:
		return StateUnknown
	}
}

// JobResult classifies the outcome of a job's most recent completed run.
type JobResult string

// JobResult values enumerate the last-run outcomes reported by the backup service.
const (
	ResultSuccess JobResult = "Success"
	ResultWarning JobResult = "Warning"
	ResultFailed  JobResult = "Failed"
	ResultNone    JobResult = "None"
	ResultUnknown JobResult = "Unknown"
)

// ParseJobResult normalizes a raw result string from the service. Unrecognized
// values map to ResultUnknown, never to an error.
func ParseJobResult(s string) JobResult {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success":
		return ResultSuccess
	case "warning":
		return ResultWarning
	case "failed":
		return ResultFailed
	case "none", "":
		return ResultNone
	default:
		return ResultUnknown
	}
}

// Job is a configured backup task tracked by the remote service.
// Immutable for the duration of a run.
type Job struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// JobStatusSnapshot is a job's state as observed immediately before the retry
// decision. Never cached across jobs or runs.
type JobStatusSnapshot struct {
	JobID        string    `json:"jobId"`
	CurrentState JobState  `json:"currentState"`
	LastResult   JobResult `json:"lastResult"`
}

// RetryDecision is the classifier's verdict for one job.
type RetryDecision string

// RetryDecision values enumerate the possible classifier verdicts.
const (
	DecisionSkipRunning       RetryDecision = "SKIP_RUNNING"
	DecisionSkipHealthy       RetryDecision = "SKIP_HEALTHY"
	DecisionSkipUnknownStatus RetryDecision = "SKIP_UNKNOWN_STATUS"
	DecisionRetry             RetryDecision = "RETRY"
)

// JobPhase represents the per-job position in the orchestration state machine.
type JobPhase string

// JobPhase values enumerate the orchestration states of a single job.
const (
	PhasePending        JobPhase = "PENDING"
	PhaseStatusFetched  JobPhase = "STATUS_FETCHED"
	PhaseSkipped        JobPhase = "SKIPPED"
	PhaseRetryRequested JobPhase = "RETRY_REQUESTED"
	PhaseRetryConfirmed JobPhase = "RETRY_CONFIRMED"
	PhaseRetryFailed    JobPhase = "RETRY_FAILED"
	PhaseErrored        JobPhase = "ERRORED"
)

// NotifyResult classifies the outcome of a notification attempt.
type NotifyResult string

// NotifyResult values enumerate the notification outcomes.
const (
	NotifyDelivered NotifyResult = "DELIVERED"
	NotifySkipped   NotifyResult = "SKIPPED"
	NotifyFailed    NotifyResult = "FAILED"
)

// Notification carries the operator-facing payload for one confirmed retry.
type Notification struct {
	RunID      string    `json:"runId"`
	JobID      string    `json:"jobId"`
	JobName    string    `json:"jobName"`
	LastResult JobResult `json:"lastResult"`
	Timestamp  time.Time `json:"timestamp"`
}

// JobOutcome records the terminal result of processing one job.
type JobOutcome struct {
	Job      Job                `json:"job"`
	Snapshot *JobStatusSnapshot `json:"snapshot,omitempty"`
	Decision RetryDecision      `json:"decision,omitempty"`
	Phase    JobPhase           `json:"phase"`
	Error    string             `json:"error,omitempty"`
	Notify   NotifyResult       `json:"notify,omitempty"`
}

// RunSummary aggregates per-job outcomes across one pass.
type RunSummary struct {
	Checked        int `json:"checked"`
	Retried        int `json:"retried"`
	SkippedRunning int `json:"skippedRunning"`
	SkippedHealthy int `json:"skippedHealthy"`
	SkippedUnknown int `json:"skippedUnknown"`
	Errored        int `json:"errored"`
}

// Skipped returns the total number of jobs skipped for any reason.
func (s RunSummary) Skipped() int {
	return s.SkippedRunning + s.SkippedHealthy + s.SkippedUnknown
}

// RunReport is the full result of one orchestration pass.
type RunReport struct {
	RunID       string       `json:"runId"`
	DryRun      bool         `json:"dryRun,omitempty"`
	StartedAt   time.Time    `json:"startedAt"`
	CompletedAt time.Time    `json:"completedAt"`
	Summary     RunSummary   `json:"summary"`
	Outcomes    []JobOutcome `json:"outcomes"`
}
