// -- cmd/run.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/internal/driverlog"
	"github.com/xkilldash9x/winpilot-cli/internal/observability"
	"github.com/xkilldash9x/winpilot-cli/internal/scenario"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	var parallel int
	var driverLog string

	runCmd := &cobra.Command{
		Use:   "run FILE...",
		Short: "Run YAML navigation scenarios",
		Long: `Loads one or more YAML scenario files and executes them, each over its
own driver session. Scenarios run sequentially unless --parallel raises
the limit; steps within a scenario always run in order. The command
fails when any scenario fails, after every scenario had its chance.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := configFromContext(ctx)

			if cmd.Flags().Changed("parallel") {
				cfg.SetNavigationParallel(parallel)
			}
			if cmd.Flags().Changed("driver-log") {
				cfg.SetDriverLogFile(driverLog)
			}

			scenarios, err := scenario.LoadAll(args)
			if err != nil {
				return err
			}

			components, err := initializeNavComponents(ctx, cfg, logger)
			if err != nil {
				components.Shutdown()
				return fmt.Errorf("failed to initialize navigation components: %w", err)
			}
			defer components.Shutdown()

			// The driver's own console log often names the element a failed
			// command wanted, which the wire response does not carry. Tail it
			// when configured and surface faults next to our own logging.
			if path := cfg.Driver().LogFile; path != "" {
				watcher, werr := driverlog.NewWatcher(path, logger)
				if werr != nil {
					return werr
				}
				if werr := watcher.Start(ctx); werr != nil {
					return fmt.Errorf("failed to start driver log watcher: %w", werr)
				}
				go func() {
					for fault := range watcher.Faults() {
						logger.Warn("Driver reported a failed command.",
							zap.String("method", fault.Method),
							zap.String("request_path", fault.Path),
							zap.Int("status", fault.Status),
							zap.String("message", fault.Message))
					}
				}()
			}

			logger.Info("Running scenarios.",
				zap.Int("scenarios", len(scenarios)),
				zap.Int("parallel", cfg.Navigation().Parallel))

			outcomes := components.Runner.RunAll(ctx, scenarios, cfg.Navigation().Parallel)

			failed := 0
			for _, outcome := range outcomes {
				printOutcome(cmd.OutOrStdout(), outcome)
				if !outcome.Succeeded() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios failed", failed, len(outcomes))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nAll %d scenarios completed.\n", len(outcomes))
			return nil
		},
	}

	runCmd.Flags().IntVarP(&parallel, "parallel", "j", 0, "Number of scenarios to run concurrently. (Overrides config/env)")
	runCmd.Flags().StringVar(&driverLog, "driver-log", "", "Path of the driver server's console log to tail for fault details. (Overrides config/env)")

	return runCmd
}
