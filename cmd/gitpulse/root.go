package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit codes are part of the CLI contract: CI wrappers branch on them.
const (
	exitHealthy   = 0
	exitWarning   = 1
	exitUnhealthy = 2
	exitUsage     = 3
	exitCancelled = 130
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "gitpulse",
	Short: "Readiness and pipeline health poller for GitLab servers",
	Long: "Gitpulse polls a freshly provisioned GitLab server until it is ready, and " +
		"inspects CI pipelines for actionable failures. No database, no UI — YAML config, " +
		"a retry loop, and exit codes.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable styled output")
	rootCmd.PersistentFlags().String("target", "", "target host (IP or hostname)")
	rootCmd.PersistentFlags().Int("retries", 0, "max poll attempts")
	rootCmd.PersistentFlags().Int("interval", 0, "seconds between poll attempts")
	rootCmd.PersistentFlags().String("log-file", "", "append-only status log path")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("target", rootCmd.PersistentFlags().Lookup("target"))
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
