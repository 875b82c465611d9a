/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package cmd

import (
	"context"
	"log/slog"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/stackhand/stackhand/internal/logging"
	"github.com/stackhand/stackhand/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stackhand",
	Short: "A command-line tool for deploying AWS CloudFormation stacks",
	Long: `Stackhand deploys CloudFormation stacks from rendered templates:

• Changeset preview with confirmation before anything is applied
• Live stack event tailing while the operation runs
• Automatic rollback or teardown recovery when a deployment fails
• Template offloading to S3 for bodies above the inline size limit
• Optional stackhand.yaml file with per-environment defaults

Use stackhand to deploy, sync, validate and delete stacks with consistent,
repeatable invocations.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(logging.NewLogger(os.Stderr, level))
	},
}

// Execute runs the root command. Interrupt and termination signals cancel
// the context handed to every command, so poll loops abort promptly.
// This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Short()),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

// RootCommand exposes the assembled command tree for documentation tooling
func RootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "stackhand.yaml", "config file with environment defaults")
	rootCmd.PersistentFlags().String("env", "", "named environment from the config file")
	rootCmd.PersistentFlags().String("region", "", "AWS region (overrides config)")
	rootCmd.PersistentFlags().StringP("profile", "p", "", "AWS profile (overrides config)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
}
