// -- cmd/navigate.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/internal/observability"
	"github.com/xkilldash9x/winpilot-cli/internal/scenario"
)

// newNavigateCmd creates and configures the `navigate` command.
func newNavigateCmd() *cobra.Command {
	var (
		windowTitle   string
		appPath       string
		values        []string
		valuesNamed   map[string]string
		expectDialog  string
		dialogTimeout time.Duration
	)

	navigateCmd := &cobra.Command{
		Use:   "navigate PATH",
		Short: "Execute one menu navigation path against a window",
		Long: `Runs a single navigation path against a window. The path mixes menu
captions and braced key chords, separated by "->":

  winpilot-cli navigate --window "Untitled - Notepad" "file -> save as"
  winpilot-cli navigate --window MyApp "{F10} -> {Down 2} -> {Enter}"

With --expect-dialog the command waits for the navigation to open a
dialog and fails when the observed kind differs. --values and
--values-named fill the dialog's input fields before the command
returns.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := configFromContext(ctx)

			if cmd.Flags().Changed("dialog-timeout") {
				cfg.SetNavigationDialogTimeout(dialogTimeout)
			}

			// A single navigation is just a one-step scenario, so it shares
			// the runner with `run` instead of duplicating the flow.
			sc := scenario.Scenario{
				Name:          "navigate",
				Window:        windowTitle,
				App:           appPath,
				DialogTimeout: scenario.Duration(cfg.Navigation().DialogTimeout),
				Steps: []scenario.Step{{
					Navigate:     args[0],
					ExpectDialog: expectDialog,
					Fill:         values,
					FillNamed:    valuesNamed,
				}},
			}
			if err := sc.Validate(); err != nil {
				return err
			}

			components, err := initializeNavComponents(ctx, cfg, logger)
			if err != nil {
				components.Shutdown()
				return fmt.Errorf("failed to initialize navigation components: %w", err)
			}
			defer components.Shutdown()

			outcome := components.Runner.Run(ctx, sc)
			printOutcome(cmd.OutOrStdout(), outcome)

			if outcome.Err != nil {
				if errors.Is(outcome.Err, context.Canceled) {
					logger.Warn("Navigation aborted.", zap.String("path", args[0]))
					return fmt.Errorf("navigation aborted by user signal")
				}
				return outcome.Err
			}
			return nil
		},
	}

	navigateCmd.Flags().StringVarP(&windowTitle, "window", "w", "", "Title substring of the window to attach to.")
	navigateCmd.Flags().StringVarP(&appPath, "app", "a", "", "Executable to launch and attach to instead of --window.")
	navigateCmd.Flags().StringSliceVar(&values, "values", nil, "Values for the dialog's input fields, in visual order.")
	navigateCmd.Flags().StringToStringVar(&valuesNamed, "values-named", nil, "Values for the dialog's input fields, keyed by label.")
	navigateCmd.Flags().StringVar(&expectDialog, "expect-dialog", "", "Dialog kind the navigation must open: none, single_input_form, multi_input_form, button_dialog or unknown.")
	navigateCmd.Flags().DurationVar(&dialogTimeout, "dialog-timeout", 0, "How long to poll for the expected dialog. (Overrides config/env)")

	return navigateCmd
}

// printOutcome renders one scenario outcome for the terminal.
func printOutcome(out io.Writer, o scenario.Outcome) {
	status := "OK"
	if !o.Succeeded() {
		status = "FAILED"
	}
	fmt.Fprintf(out, "Scenario %q: %s (%d steps, %s)\n",
		o.Scenario, status, len(o.Steps), o.Duration.Round(time.Millisecond))

	for _, so := range o.Steps {
		if so.Navigate == "" {
			fmt.Fprintf(out, "  step %d: pause\n", so.Index+1)
			continue
		}
		fmt.Fprintf(out, "  step %d: %s  [%d/%d steps", so.Index+1, so.Navigate,
			so.Navigation.StepsExecuted, so.Navigation.StepsPlanned)
		if so.Navigation.ChangeDetected {
			fmt.Fprint(out, ", change detected")
		}
		fmt.Fprintf(out, ", %s]\n", so.Navigation.Duration.Round(time.Millisecond))

		if so.Dialog != nil {
			fmt.Fprintf(out, "          dialog: %s (%d inputs, %d buttons)\n",
				so.Dialog.Kind, len(so.Dialog.Inputs), len(so.Dialog.Buttons))
		}
	}
	if o.Err != nil {
		fmt.Fprintf(out, "  error: %v\n", o.Err)
	}
}
