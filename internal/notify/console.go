package notify

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/backstop-systems/backstop/pkg/types"
)

// ConsoleSink writes notifications to the terminal with color.
type ConsoleSink struct{}

// NewConsoleSink creates a new console notification sink.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{}
}

// Name returns the sink identifier.
func (s *ConsoleSink) Name() string { return "console" }

// Send prints the notification to the terminal.
func (s *ConsoleSink) Send(_ context.Context, n types.Notification) error {
	prefix := color.CyanString("[NOTIFY]")
	fmt.Printf("%s [%s] restarted after %s\n", prefix, n.JobName, n.LastResult)
	return nil
}
