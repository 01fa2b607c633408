// -- cmd/root.go --

// Package cmd wires the CLI commands together: configuration loading,
// logger initialization and the cobra command tree.
package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/internal/config"
	"github.com/xkilldash9x/winpilot-cli/internal/observability"
)

// contextKey scopes values this package stores on the command context.
type contextKey string

// configKey carries the loaded *config.Config to subcommands.
const configKey contextKey = "config"

var cfgFile string

// NewRootCommand builds a pristine root command with all subcommands
// attached. The interactive shell builds a fresh one per input line so flag
// state never leaks between runs.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "winpilot-cli",
		Short: "winpilot drives native Windows application menus over an accessibility driver.",
		Long: `winpilot-cli automates menu navigation in native Windows applications
through a WinAppDriver-compatible server. Menu paths mix captions and
braced key chords:

  winpilot-cli navigate --window "Untitled - Notepad" "file -> save as"
  winpilot-cli navigate --window MyApp "{F10} -> {Down 2} -> {Enter}"`,
		// Version is set at build time. See cmd/version.go.
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Runs before any command: load config, then bring up logging.
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				// Bring up a fallback logger so the failure is visible.
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "winpilot-cli"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Info("Starting winpilot-cli", zap.String("version", Version))

			// Hand the validated config to subcommands through the context.
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml or ~/.winpilot/config.yaml)")
	rootCmd.PersistentFlags().String("driver-url", "", "Base URL of the accessibility driver server. (Overrides config/env)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newWindowsCmd())
	rootCmd.AddCommand(newNavigateCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

// Execute builds the root command and runs it with the given signal-aware
// context. The caller decides the exit code from the returned error.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		return err
	}
	return nil
}

// initializeConfig reads in config file and ENV variables if set.
func initializeConfig(cmd *cobra.Command, v *viper.Viper) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".winpilot"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("WINPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Flags that map directly onto config keys override file and env.
	if f := cmd.Root().PersistentFlags().Lookup("driver-url"); f != nil {
		if err := v.BindPFlag("driver.url", f); err != nil {
			return err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}
	return nil
}

// configFromContext returns the config the root command loaded. Commands
// exercised without the root wiring fall back to the defaults.
func configFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	return config.NewDefaultConfig()
}
