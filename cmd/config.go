package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tasktime/internal/config"
	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/logging"
	"github.com/manav03panchal/tasktime/internal/notify"
	"github.com/manav03panchal/tasktime/internal/output"
	"github.com/manav03panchal/tasktime/internal/validate"
)

// configCmd represents the config command.
var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg", "settings"},
	Short:   "Show the effective configuration",
	Long: `Show the configuration Tasktime runs with. Values come from defaults,
a .env file in the working directory and TASKTIME_* environment variables,
in increasing order of precedence. Secrets are masked.

Examples:
  tasktime config
  tasktime config get TASKTIME_API_URL
  tasktime config test-notify`,
	Args: cobra.NoArgs,
	RunE: runConfigGet,
}

// configGetCmd gets configuration values.
var configGetCmd = &cobra.Command{
	Use:   "get [KEY]",
	Short: "Get configuration value",
	Long: `Get one configuration value by its environment variable name, with or
without the TASKTIME_ prefix, or all values.

Examples:
  tasktime config get
  tasktime config get api_url`,
	Args: cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var keys []string
		for _, s := range config.Global.Settings() {
			keys = append(keys, s.Key)
		}
		return completeValues(keys...)(cmd, args, toComplete)
	},
	RunE: runConfigGet,
}

// configTestNotifyCmd sends a test notification.
var configTestNotifyCmd = &cobra.Command{
	Use:   "test-notify",
	Short: "Send a test notification to the configured webhook",
	Args:  cobra.NoArgs,
	RunE:  runConfigTestNotify,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configTestNotifyCmd)
	rootCmd.AddCommand(configCmd)
}

// maskedSettings returns the settings with secrets masked.
func maskedSettings() []config.Setting {
	settings := ctx.Config.Settings()
	for i, s := range settings {
		if !s.Secret {
			continue
		}
		if strings.HasPrefix(s.Value, "http://") || strings.HasPrefix(s.Value, "https://") {
			settings[i].Value = logging.MaskURL(s.Value)
		} else {
			settings[i].Value = logging.MaskValue(s.Value)
		}
	}
	return settings
}

// runConfigGet handles the config and config get commands.
func runConfigGet(cmd *cobra.Command, args []string) error {
	settings := maskedSettings()

	if len(args) > 0 {
		key := strings.ToUpper(strings.TrimSpace(args[0]))
		if !strings.HasPrefix(key, config.EnvPrefix) {
			key = config.EnvPrefix + key
		}
		for _, s := range settings {
			if s.Key == key {
				if ctx.IsJSON() {
					return ctx.Formatter.PrintJSON(s)
				}
				ctx.Formatter.Println(s.Value)
				return nil
			}
		}
		return errors.NewUserErrorWithField("key", args[0], "Unknown config key",
			"Run 'tasktime config' to list all keys.")
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(settings)
	}

	rows := make([]output.TableRow, len(settings))
	for i, s := range settings {
		value := s.Value
		if value == "" {
			value = "-"
		}
		rows[i] = output.TableRow{Columns: []string{s.Key, value}}
	}
	ctx.CLIFormatter().PrintTable([]string{"KEY", "VALUE"}, rows)
	return nil
}

// runConfigTestNotify sends a test notification through the dispatcher.
func runConfigTestNotify(cmd *cobra.Command, args []string) error {
	dispatcher, err := newDispatcher(ctx.Config.Notify)
	if err != nil {
		return err
	}
	if !dispatcher.Enabled() {
		return errors.Wrap(errors.ErrNotConfigured, "notifications")
	}
	dispatcher.SetBellWriter(cmd.ErrOrStderr())

	results := dispatcher.Test(cmd.Context())
	if ctx.IsJSON() {
		out := make([]map[string]any, len(results))
		for i, r := range results {
			out[i] = map[string]any{
				"target":     r.Target,
				"success":    r.Success,
				"statusCode": r.StatusCode,
				"durationMs": r.Duration.Milliseconds(),
			}
			if r.Error != nil {
				out[i]["error"] = r.Error.Error()
			}
		}
		return ctx.Formatter.PrintJSON(out)
	}

	cli := ctx.CLIFormatter()
	for _, r := range results {
		if r.Success {
			cli.Success(fmt.Sprintf("%s: delivered in %s", r.Target, output.FormatDuration(r.Duration)))
		} else {
			cli.Error(fmt.Sprintf("%s: %v", r.Target, r.Error))
		}
	}
	return nil
}

// newDispatcher builds the notification dispatcher, rejecting webhook URLs
// that point at internal hosts.
func newDispatcher(cfg config.NotifyConfig) (*notify.Dispatcher, error) {
	if cfg.WebhookURL != "" {
		if err := validate.URL(cfg.WebhookURL); err != nil {
			return nil, err
		}
	}
	return notify.NewDispatcher(cfg, nil), nil
}
