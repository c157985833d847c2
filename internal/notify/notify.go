// Package notify implements notification dispatching to multiple sinks.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/backstop-systems/backstop/internal/secret"
	"github.com/backstop-systems/backstop/pkg/types"
)

// Sink is a notification destination.
type Sink interface {
	Send(ctx context.Context, n types.Notification) error
	Name() string
}

// Dispatcher routes one notification per confirmed retry to all configured
// sinks. Delivery failures are logged and swallowed; they never propagate to
// the orchestration outcome.
type Dispatcher struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher from sink configs. SMTP credentials are
// resolved up front so a broken secret source fails at startup, not mid-run.
func NewDispatcher(ctx context.Context, configs []types.NotifyConfig, resolver *secret.Resolver, logger *slog.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{logger: logger}
	for _, cfg := range configs {
		sink, err := newSink(ctx, cfg, resolver)
		if err != nil {
			return nil, fmt.Errorf("creating %s sink: %w", cfg.Type, err)
		}
		d.sinks = append(d.sinks, sink)
	}
	return d, nil
}

// AddSink appends a sink. Useful for tests.
func (d *Dispatcher) AddSink(s Sink) { d.sinks = append(d.sinks, s) }

// Notify fans the notification out to every sink concurrently and reports the
// aggregate outcome: Skipped when nothing is configured, Delivered when at
// least one sink accepted, Failed only when every sink errored.
func (d *Dispatcher) Notify(ctx context.Context, n types.Notification) types.NotifyResult {
	if len(d.sinks) == 0 {
		return types.NotifySkipped
	}

	errs := make([]error, len(d.sinks))
	g, ctx := errgroup.WithContext(ctx)
	for i, sink := range d.sinks {
		i, sink := i, sink
		g.Go(func() error {
			if err := sink.Send(ctx, n); err != nil {
				d.logger.Error("notification delivery failed",
					"sink", sink.Name(), "job", n.JobName, "error", err)
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(d.sinks) {
		return types.NotifyFailed
	}
	return types.NotifyDelivered
}

func newSink(ctx context.Context, cfg types.NotifyConfig, resolver *secret.Resolver) (Sink, error) {
	switch cfg.Type {
	case types.NotifyConsole:
		return NewConsoleSink(), nil
	case types.NotifyFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file path required")
		}
		return NewFileSink(cfg.Path)
	case types.NotifyWebhook:
		if cfg.URL == "" {
			return nil, fmt.Errorf("webhook URL required")
		}
		return NewWebhookSink(cfg.URL), nil
	case types.NotifySNS:
		return NewSNSSink(cfg.TopicARN)
	case types.NotifySMTP:
		return NewSMTPSink(ctx, cfg, resolver)
	default:
		return nil, fmt.Errorf("unknown notify type %q", cfg.Type)
	}
}

// Subject renders the operator-facing subject line for a notification.
func Subject(n types.Notification) string {
	return fmt.Sprintf("[backstop] retry triggered: %s", n.JobName)
}

// Body renders the operator-facing message body for a notification.
func Body(n types.Notification) string {
	return fmt.Sprintf(
		"Backup job %q (id %s) last finished with result %s and has been restarted.\n\nRun: %s\nTime: %s\n",
		n.JobName, n.JobID, n.LastResult, n.RunID, n.Timestamp.Format("2006-01-02 15:04:05 MST"),
	)
}
