package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/backstop-systems/backstop/internal/backupapi"
	"github.com/backstop-systems/backstop/internal/config"
	"github.com/backstop-systems/backstop/internal/notify"
	"github.com/backstop-systems/backstop/internal/orchestrate"
	"github.com/backstop-systems/backstop/internal/secret"
	"github.com/backstop-systems/backstop/internal/telemetry"
	"github.com/backstop-systems/backstop/pkg/types"
)

const runTimeout = 10 * time.Minute

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	var configPath string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one remediation pass over the backup job inventory",
		Long: `Run authenticates against the backup service, lists every job, fetches a
fresh status snapshot per job, restarts the jobs whose last run failed or
finished with a warning, and notifies the configured sinks once per retry.

The exit code is 0 when the pass completes, even if individual jobs errored;
only authentication and inventory failures exit non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(configPath, dryRun)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the configuration file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "classify jobs without starting them or notifying")
	return cmd
}

func runPass(configPath string, dryRun bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	resolver := secret.NewResolver()
	apiSecret, err := resolver.Resolve(ctx, cfg.API.Secret)
	if err != nil {
		return fmt.Errorf("resolving api secret: %w", err)
	}

	client, err := backupapi.New(cfg.API, apiSecret, cfg.Breaker, backupapi.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("creating api client: %w", err)
	}

	dispatcher, err := notify.NewDispatcher(ctx, cfg.Notify, resolver, logger)
	if err != nil {
		return fmt.Errorf("creating notification dispatcher: %w", err)
	}

	orch := orchestrate.New(client,
		orchestrate.WithNotifier(dispatcher),
		orchestrate.WithLogger(logger),
		orchestrate.WithDryRun(dryRun),
	)

	report, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	printRunReport(report)
	return nil
}

func printRunReport(r *types.RunReport) {
	bold := color.New(color.Bold)
	fmt.Println()
	if r.DryRun {
		_, _ = bold.Printf("Run %s (dry-run)\n", r.RunID)
	} else {
		_, _ = bold.Printf("Run %s\n", r.RunID)
	}

	for _, outcome := range r.Outcomes {
		var statusStr string
		switch outcome.Phase {
		case types.PhaseRetryConfirmed:
			statusStr = color.GreenString("RETRIED")
		case types.PhaseRetryRequested:
			statusStr = color.CyanString("WOULD RETRY")
		case types.PhaseRetryFailed:
			statusStr = color.RedString("RETRY FAILED")
		case types.PhaseErrored:
			statusStr = color.RedString("ERROR")
		default:
			statusStr = color.YellowString("SKIPPED")
		}

		detail := string(outcome.Decision)
		if outcome.Error != "" {
			detail = outcome.Error
		}
		fmt.Printf("  %-30s %-22s %s\n", outcome.Job.Name, statusStr, detail)
	}

	fmt.Println()
	_, _ = bold.Println("Summary:")
	fmt.Printf("  checked: %d  retried: %d  skipped: %d  errored: %d\n",
		r.Summary.Checked, r.Summary.Retried, r.Summary.Skipped(), r.Summary.Errored)
	fmt.Printf("  duration: %s\n", r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Println()
}
