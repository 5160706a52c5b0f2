// Package cmd wires the control plane's components into a runnable
// CLI: config/logger bootstrap, the health-probe stand-ins, and the
// run/tick/migrate subcommands. Nothing under internal/ imports this
// package; it is pure composition root.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version   string
	buildTime string
	gitCommit string

	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "reclaimerd",
	Short: "Stale pipeline reclaim and admission control plane",
	Long: `reclaimerd watches a drive table of windowed data-movement work
units, reclaims ones stuck IN_PROCESS past their expected duration
back to PENDING, and selects the PENDING rows admissible to run next.

Commands:
  tick     run one evaluation cycle and exit
  run      run tick repeatedly on a cron schedule
  migrate  create or roll back the drive table schema
`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion records build metadata printed by the version command.
func SetVersion(v, bt, gc string) {
	version = v
	buildTime = bt
	gitCommit = gc
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (overlaid with environment variables)")

	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("reclaimerd version %s (build %s, commit %s)\n", version, buildTime, gitCommit)
		return nil
	},
}
