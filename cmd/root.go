// Package cmd implements the CLI commands for the teaching kernel.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"microkern-go/logging"
)

// Version information set at build time.
var (
	Version   = "0.1.0"
	SpecVer   = "1.0.0"
	BuildTime = "unknown"
)

// Global flags.
var (
	globalLog       string
	globalLogFormat string
	globalDebug     bool
)

// rootCmd is the base command for the kernel demo CLI.
var rootCmd = &cobra.Command{
	Use:   "microkern",
	Short: "Teaching kernel demo CLI",
	Long: `microkern drives the in-process teaching kernel: processes, kernel-scheduled
threads, pipes and stream-oriented local sockets behind one file-descriptor
surface.

"demo" exercises end-to-end kernel scenarios against a live kernel
instance, and "ps" renders the live process table through the kernel's own
procinfo stream.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetContext returns a context that cancels on SIGINT/SIGTERM.
func GetContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalLog, "log", "", "set the log file path")
	rootCmd.PersistentFlags().StringVar(&globalLogFormat, "log-format", "text", "set the format for log output (text or json)")
	rootCmd.PersistentFlags().BoolVar(&globalDebug, "debug", false, "enable debug logging")
}

func setupLogging() {
	var logOutput = os.Stderr
	if globalLog != "" {
		f, err := os.OpenFile(globalLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err == nil {
			logOutput = f
		}
	}

	logLevel := slog.LevelInfo
	if globalDebug {
		logLevel = slog.LevelDebug
	}

	logger := logging.NewLogger(logging.Config{
		Level:  logLevel,
		Format: globalLogFormat,
		Output: logOutput,
	})
	logging.SetDefault(logger)
}
