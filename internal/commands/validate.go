package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/backstop-systems/backstop/internal/config"
	"github.com/backstop-systems/backstop/internal/notify"
	"github.com/backstop-systems/backstop/internal/secret"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration, secret sources, and notification sinks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the configuration file")
	return cmd
}

func runValidate(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Resolve the secret to prove the source works; the value is never printed.
	resolver := secret.NewResolver()
	if _, err := resolver.Resolve(ctx, cfg.API.Secret); err != nil {
		return fmt.Errorf("api secret: %w", err)
	}

	// Constructing the dispatcher exercises sink config and SMTP credentials.
	dispatcher, err := notify.NewDispatcher(ctx, cfg.Notify, resolver, newLogger(cfg.Log))
	if err != nil {
		return err
	}
	_ = dispatcher

	color.Green("Configuration OK")
	fmt.Printf("  endpoint: %s\n", cfg.API.Endpoint)
	fmt.Printf("  username: %s\n", cfg.API.Username)
	if len(cfg.Notify) == 0 {
		fmt.Println("  notifications: disabled")
	} else {
		fmt.Printf("  notification sinks:")
		for _, n := range cfg.Notify {
			fmt.Printf(" %s", n.Type)
		}
		fmt.Println()
	}
	return nil
}
