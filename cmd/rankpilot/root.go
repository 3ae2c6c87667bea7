package main

import (
	"os"

	"github.com/spf13/cobra"
)

var debugLogPath string

var rootCmd = &cobra.Command{
	Use:   "rankpilot",
	Short: "Marketing workflow and agent-team engine",
	Long: `RankPilot executes marketing workflows and AI agent teams.

Workflows are node graphs (triggers, agents, conditions, delays, splits,
merges, actions, reports) loaded from JSON and executed node by node, with
results delivered over email, WhatsApp, webhooks, or in-app notifications.

Agent teams are organizational charts loaded from YAML: each role runs as
an AI agent in hierarchy order, receives its superior's directive and its
peers' reports, and contributes tasks toward a weekly strategic plan and a
daily action calendar.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&debugLogPath, "debug-log", "", "Write debug logs to this file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(orchestrateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
