// Package cli wires the daemon's cobra command tree. See
// NikeGunn-tutu/internal/cli/agent.go for the package-level
// var-plus-init()-registration idiom this mirrors.
package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "banditd",
	Short: "Online multi-armed bandit experiment service",
	Long: `banditd runs a directory of independent bandit experiments, each an
actor around a pluggable policy (epsilon-greedy, Thompson Sampling, or
UCB1), exposed over an HTTP API and snapshotted to a local state store.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
