// Package backupapi implements the HTTP client for the backup orchestration
// service: session establishment, job inventory, status snapshots, and job
// start requests.
package backupapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/backstop-systems/backstop/internal/secret"
	"github.com/backstop-systems/backstop/pkg/types"
)

// Client talks to the backup orchestration service. The bearer token acquired
// by Login is read-only shared state for the rest of the run; it is never
// refreshed mid-run.
type Client struct {
	endpoint string
	username string
	secret   secret.Value

	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger

	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New creates a Client for the configured endpoint. All calls after Login go
// through a circuit breaker so a dead service fails fast for the remainder of
// the pass instead of burning the full timeout on every job.
func New(cfg types.APIConfig, sec secret.Value, breakerCfg *types.BreakerConfig, opts ...Option) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("api endpoint is required")
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("api username is required")
	}

	c := &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		username: cfg.Username,
		secret:   sec,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}

	if c.httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- operator opt-in for self-signed appliances
		}
		c.httpClient = &http.Client{
			Timeout:   cfg.TimeoutDuration(),
			Transport: transport,
		}
	}

	maxFailures := 5
	cooldown := types.BreakerConfig{}.CooldownDuration()
	if breakerCfg != nil {
		if breakerCfg.MaxFailures > 0 {
			maxFailures = breakerCfg.MaxFailures
		}
		cooldown = breakerCfg.CooldownDuration()
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "backupapi",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		// A 404 is an answer from the service, not a transport failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrJobNotFound)
		},
	})

	return c, nil
}

// Login establishes a session and stores the bearer token. Every failure
// mode, from an unreachable endpoint to a malformed response, collapses to
// *AuthError.
func (c *Client) Login(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/sessions", http.NoBody)
	if err != nil {
		return &AuthError{Err: err}
	}
	req.SetBasicAuth(c.username, c.secret.Reveal())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &AuthError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &AuthError{Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &AuthError{Err: fmt.Errorf("credentials rejected (status %d)", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return &AuthError{Err: fmt.Errorf("returned status %d: %s", resp.StatusCode, string(body))}
	}

	var session struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		return &AuthError{Err: fmt.Errorf("parsing response: %w", err)}
	}
	if session.Token == "" {
		return &AuthError{Err: fmt.Errorf("response missing token")}
	}

	c.token = session.Token
	c.logger.Debug("session established", "endpoint", c.endpoint, "user", c.username)
	return nil
}

// ListJobs returns the job inventory as of now, in service order.
func (c *Client) ListJobs(ctx context.Context) ([]types.Job, error) {
	body, err := c.get(ctx, "/api/jobs")
	if err != nil {
		return nil, &InventoryError{Err: err}
	}

	var payload struct {
		Jobs []types.Job `json:"jobs"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &InventoryError{Err: fmt.Errorf("parsing response: %w", err)}
	}
	return payload.Jobs, nil
}

// GetJobStatus fetches a fresh status snapshot for one job. A 404 maps to
// ErrJobNotFound; unrecognized state or result strings parse to Unknown.
func (c *Client) GetJobStatus(ctx context.Context, jobID string) (*types.JobStatusSnapshot, error) {
	body, err := c.get(ctx, "/api/jobs/"+jobID+"/status")
	if err != nil {
		return nil, fmt.Errorf("fetching status for job %s: %w", jobID, err)
	}

	var payload struct {
		JobID        string `json:"jobId"`
		CurrentState string `json:"currentState"`
		LastResult   string `json:"lastResult"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing status for job %s: %w", jobID, err)
	}
	if payload.JobID == "" {
		payload.JobID = jobID
	}

	return &types.JobStatusSnapshot{
		JobID:        payload.JobID,
		CurrentState: types.ParseJobState(payload.CurrentState),
		LastResult:   types.ParseJobResult(payload.LastResult),
	}, nil
}

// StartJob asks the service to start the job. The call is a fire-and-forget
// trigger; it does not wait for job completion.
func (c *Client) StartJob(ctx context.Context, jobID string) error {
	if _, err := c.do(ctx, http.MethodPost, "/api/jobs/"+jobID+"/start", nil); err != nil {
		return fmt.Errorf("starting job %s: %w", jobID, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if c.token == "" {
		return nil, fmt.Errorf("no session, call Login first")
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		var reader io.Reader = http.NoBody
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrJobNotFound
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("returned status %d: %s", resp.StatusCode, string(body))
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
