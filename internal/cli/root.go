package cli

import (
	"github.com/spf13/cobra"

	"github.com/avmjs/vapdeploy/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "vapdeploy",
	Short: "Configuration-driven contract deployment",
	Long: `Vapdeploy compiles a declarative description of contracts to deploy,
stages their sources through a chain of loaders, and deploys each
artifact only if it materially changed since the prior run.

Deployed addresses round-trip through a JSON document, one key per
environment, so repeated runs against an unchanged configuration
issue no transactions at all.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logLevel)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}
