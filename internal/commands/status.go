package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/backstop-systems/backstop/internal/backupapi"
	"github.com/backstop-systems/backstop/internal/config"
	"github.com/backstop-systems/backstop/internal/secret"
	"github.com/backstop-systems/backstop/pkg/types"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show every backup job with its current state and last result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the configuration file")
	return cmd
}

func runStatus(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	resolver := secret.NewResolver()
	apiSecret, err := resolver.Resolve(ctx, cfg.API.Secret)
	if err != nil {
		return fmt.Errorf("resolving api secret: %w", err)
	}

	client, err := backupapi.New(cfg.API, apiSecret, cfg.Breaker, backupapi.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("creating api client: %w", err)
	}

	if err := client.Login(ctx); err != nil {
		return err
	}

	jobs, err := client.ListJobs(ctx)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs configured on the backup service.")
		return nil
	}

	bold := color.New(color.Bold)
	_, _ = bold.Println("Backup Jobs:")
	fmt.Println()

	for _, job := range jobs {
		snap, err := client.GetJobStatus(ctx, job.ID)
		if err != nil {
			fmt.Printf("  %-30s %s\n", job.Name, color.RedString("status unavailable: %v", err))
			continue
		}

		stateStr := string(snap.CurrentState)
		if snap.CurrentState == types.StateRunning {
			stateStr = color.CyanString(stateStr)
		}

		var resultStr string
		switch snap.LastResult {
		case types.ResultSuccess:
			resultStr = color.GreenString(string(snap.LastResult))
		case types.ResultFailed:
			resultStr = color.RedString(string(snap.LastResult))
		case types.ResultWarning:
			resultStr = color.YellowString(string(snap.LastResult))
		default:
			resultStr = string(snap.LastResult)
		}

		fmt.Printf("  %-30s state=%-18s lastResult=%s\n", job.Name, stateStr, resultStr)
	}
	fmt.Println()
	return nil
}
