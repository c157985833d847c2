// Command backstop retries failed backup jobs on a remote backup
// orchestration service and notifies operators about each retry.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/backstop-systems/backstop/internal/commands"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// A .env file is a development convenience; absence is not an error.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:     "backstop",
		Short:   "Backup job retry remediation",
		Version: version,
		Long: `Backstop connects to a backup orchestration service, inspects every
configured job, and restarts the ones whose last run failed or finished
with a warning. Jobs that are currently running, healthy, or in an
unknown state are left alone.`,
		SilenceUsage: true,
	}

	root.AddCommand(commands.NewRunCmd())
	root.AddCommand(commands.NewStatusCmd())
	root.AddCommand(commands.NewValidateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
