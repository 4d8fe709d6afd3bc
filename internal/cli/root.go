// Package cli implements the sentineld command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/daemon"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sentineld",
	Short: "Economy integrity sentinel",
	Long: `sentineld guards a gamified economy: it applies balance mutations
through a locked, replay-protected ledger, validates admin actions before
they persist, and scans the whole population for corruption and abuse.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default ~/.sentinel/config.toml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration honoring the --config flag.
func loadConfig() (daemon.Config, error) {
	return daemon.LoadConfig(configPath)
}
