// -- cmd/inspect.go --
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/internal/driver"
	"github.com/xkilldash9x/winpilot-cli/internal/observability"
)

// newInspectCmd creates and configures the `inspect` command.
func newInspectCmd() *cobra.Command {
	var windowTitle string
	var depth int

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the accessibility tree of a window",
		Long: `Attaches to a running window and prints its accessibility tree as an
indented outline of control types and names. Useful for working out
which captions a navigation path should name.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := configFromContext(ctx)

			client := newDriverClient(cfg, logger)
			return runInspect(ctx, cmd.OutOrStdout(), client, driverTimeoutSecs(cfg), windowTitle, depth, logger)
		},
	}

	inspectCmd.Flags().StringVarP(&windowTitle, "window", "w", "", "Title substring of the window to inspect (required)")
	_ = inspectCmd.MarkFlagRequired("window")
	inspectCmd.Flags().IntVarP(&depth, "depth", "d", 0, "Maximum tree depth to print. 0 prints the whole tree.")

	return inspectCmd
}

// runInspect contains the core, testable logic for the tree dump.
func runInspect(ctx context.Context, out io.Writer, client *driver.Client, timeoutSecs int, windowTitle string, depth int, logger *zap.Logger) error {
	resolver := &windowResolver{client: client, timeout: timeoutSecs, logger: logger}
	win, err := resolver.FindByTitle(ctx, windowTitle)
	if err != nil {
		return err
	}

	sess, err := client.NewSession(ctx, driver.AttachCapabilities(win.Handle, timeoutSecs))
	if err != nil {
		return fmt.Errorf("failed to attach to %q: %w", win.Title, err)
	}
	defer func() {
		if cerr := sess.Close(ctx); cerr != nil {
			logger.Warn("Window session cleanup failed.", zap.Error(cerr))
		}
	}()

	tree, err := sess.Tree(ctx, depth)
	if err != nil {
		return fmt.Errorf("failed to read accessibility tree of %q: %w", win.Title, err)
	}
	fmt.Fprint(out, tree)

	logger.Info("Tree inspection completed.",
		zap.String("window", win.Title),
		zap.Int("depth", depth))
	return nil
}
