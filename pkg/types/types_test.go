package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseJobState(t *testing.T) {
	tests := []struct {
		raw  string
		want JobState
	}{
		{"Running", StateRunning},
		{"running", StateRunning},
		{" RUNNING ", StateRunning},
		{"Idle", StateIdle},
		{"idle", StateIdle},
		{"Stopping", StateUnknown},
		{"", StateUnknown},
		{"garbage", StateUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseJobState(tt.raw))
		})
	}
}

func TestParseJobResult(t *testing.T) {
	tests := []struct {
		raw  string
		want JobResult
	}{
		{"Success", ResultSuccess},
		{"success", ResultSuccess},
		{"Warning", ResultWarning},
		{"Failed", ResultFailed},
		{"FAILED", ResultFailed},
		{"None", ResultNone},
		{"", ResultNone},
		{"whatever", ResultUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseJobResult(tt.raw))
		})
	}
}

func TestRunSummarySkipped(t *testing.T) {
	s := RunSummary{SkippedRunning: 1, SkippedHealthy: 2, SkippedUnknown: 3}
	assert.Equal(t, 6, s.Skipped())
}

func TestAPIConfigTimeoutDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, APIConfig{}.TimeoutDuration())
	assert.Equal(t, 30*time.Second, APIConfig{Timeout: "bogus"}.TimeoutDuration())
	assert.Equal(t, 30*time.Second, APIConfig{Timeout: "-5s"}.TimeoutDuration())
	assert.Equal(t, 90*time.Second, APIConfig{Timeout: "90s"}.TimeoutDuration())
}

func TestBreakerConfigCooldownDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, BreakerConfig{}.CooldownDuration())
	assert.Equal(t, time.Minute, BreakerConfig{Cooldown: "1m"}.CooldownDuration())
}

func TestSecretRefIsZero(t *testing.T) {
	assert.True(t, SecretRef{}.IsZero())
	assert.False(t, SecretRef{Env: "X"}.IsZero())
	assert.False(t, SecretRef{File: "/tmp/x"}.IsZero())
}
