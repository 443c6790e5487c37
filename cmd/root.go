// Package cmd provides the CLI commands for Tasktime.
//
// This software is a derivative work based on Zeit (https://github.com/mrusme/zeit)
// Original work copyright (c) マリウス (mrusme)
// Modifications copyright (c) Manav Panchal
//
// Licensed under the SEGV License, Version 1.0
// See LICENSE file for full license text.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tasktime/internal/config"
	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/logging"
	"github.com/manav03panchal/tasktime/internal/output"
	"github.com/manav03panchal/tasktime/internal/runtime"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagFormat string
	flagColor  string
	flagDebug  bool
)

// ctx is the shared runtime context.
var ctx *runtime.Context

// annotationNoStore marks commands that run without the local store.
const annotationNoStore = "tasktime/no-store"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tasktime",
	Short: "Task management with built-in time tracking",
	Long: `Tasktime manages tasks and tracks the time spent on them. Tasks live in
the task API when TASKTIME_API_URL is set and in a local store otherwise;
when the API is unreachable the local copy is used.

Examples:
  tasktime task add "Write report" --priority high --due friday
  tasktime start 12
  tasktime stop
  tasktime dashboard
  tasktime report --range week`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for completion and help commands (but allow __complete for dynamic completions)
		if cmd.Name() == "completion" || cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		format, err := output.ParseFormat(flagFormat)
		if err != nil {
			return err
		}
		colorMode, err := output.ParseColorMode(flagColor)
		if err != nil {
			return err
		}

		if err := config.Load(".env"); err != nil {
			return errors.NewSystemError("failed to load .env", err)
		}
		if flagDebug {
			logging.Init(logging.DebugConfig())
		} else {
			logging.Init(withLogLevel(logging.DefaultConfig()))
		}

		// Long-running processes that do not use the local store must not
		// hold its lock.
		if cmd.Annotations[annotationNoStore] == "true" {
			return nil
		}

		// Create runtime context
		opts := runtime.DefaultOptions()
		opts.Format = format
		opts.ColorMode = colorMode
		opts.Debug = flagDebug

		ctx, err = runtime.New(opts)
		if err != nil {
			return err
		}
		if ctx.Remote != nil {
			ctx.Debugf("task API %s", logging.MaskURL(ctx.Remote.BaseURL()))
		}
		ctx.Debugf("store remote=%t", ctx.Store.Remote())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if ctx != nil {
			printWarnings()
			return ctx.Close()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: show current status
		return runStatus(cmd, args)
	},
}

// statusCmd shows the running timer.
var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"st"},
	Short:   "Show the task currently being timed",
	Args:    cobra.NoArgs,
	RunE:    runStatus,
}

// runStatus shows the current tracking status.
func runStatus(cmd *cobra.Command, args []string) error {
	tr := ctx.NewTracker()
	defer tr.Close()

	if _, err := tr.Load(cmd.Context()); err != nil {
		return err
	}

	id, ok := tr.Active()
	if !ok {
		if ctx.IsJSON() {
			return ctx.JSONFormatter().PrintStatus(nil, 0)
		}
		ctx.CLIFormatter().PrintStatus(nil, 0)
		return nil
	}

	task, _ := tr.Task(id)
	elapsed, _ := tr.Elapsed(id)
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus(task, elapsed)
	}
	ctx.CLIFormatter().PrintStatus(task, elapsed)
	return nil
}

// printWarnings reports store fallbacks that happened during the command.
func printWarnings() {
	if ctx.IsJSON() {
		return
	}
	seen := make(map[string]bool)
	for _, w := range ctx.DrainWarnings() {
		if !seen[w] {
			seen[w] = true
			ctx.CLIFormatter().Warning(w)
		}
	}
}

// withLogLevel applies TASKTIME_LOG_LEVEL on top of cfg.
func withLogLevel(cfg logging.Config) logging.Config {
	if lvl := os.Getenv(config.EnvPrefix + "LOG_LEVEL"); lvl != "" {
		cfg.Level = logging.ParseLevel(lvl)
	}
	return cfg
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		Die(err)
	}
	return err
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug output")

	// Add commands
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("tasktime %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
	},
}

// Die prints an error and exits.
func Die(err error) {
	if ctx != nil && ctx.IsJSON() {
		ctx.JSONFormatter().PrintError("error", err.Error(), errors.GetSuggestion(err))
	} else {
		os.Stderr.WriteString("Error: " + runtime.FormatError(err, flagDebug) + "\n")
	}
	if ctx != nil {
		ctx.Close()
	}
	os.Exit(1)
}
