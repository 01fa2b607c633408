// -- cmd/windows.go --
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/internal/driver"
	"github.com/xkilldash9x/winpilot-cli/internal/observability"
	"github.com/xkilldash9x/winpilot-cli/internal/windows"
)

// newWindowsCmd creates and configures the `windows` command.
func newWindowsCmd() *cobra.Command {
	var filter string

	windowsCmd := &cobra.Command{
		Use:   "windows",
		Short: "List the visible top-level windows on the desktop",
		Long: `Enumerates the desktop's visible, titled top-level windows through a
short-lived driver session. The printed handle is what 'navigate' and
scenario files attach to when a title substring is ambiguous.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := configFromContext(ctx)

			client := newDriverClient(cfg, logger)
			return runWindows(ctx, cmd.OutOrStdout(), client, driverTimeoutSecs(cfg), filter, logger)
		},
	}

	windowsCmd.Flags().StringVarP(&filter, "filter", "f", "", "Only list windows whose title contains this substring.")

	return windowsCmd
}

// runWindows contains the core, testable logic for the windows listing.
func runWindows(ctx context.Context, out io.Writer, client *driver.Client, timeoutSecs int, filter string, logger *zap.Logger) error {
	sess, err := client.NewSession(ctx, driver.RootCapabilities(timeoutSecs))
	if err != nil {
		return fmt.Errorf("failed to open desktop session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(ctx); cerr != nil {
			logger.Warn("Desktop session cleanup failed.", zap.Error(cerr))
		}
	}()

	list, err := windows.New(sess, logger).List(ctx)
	if err != nil {
		return err
	}

	needle := strings.ToLower(strings.TrimSpace(filter))
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HANDLE\tPID\tTITLE\tCLASS")
	shown := 0
	for _, win := range list {
		if needle != "" && !strings.Contains(strings.ToLower(win.Title), needle) {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", win.Handle, win.PID, win.Title, win.ClassName)
		shown++
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if shown == 0 {
		if needle != "" {
			fmt.Fprintf(out, "No window title contains %q.\n", filter)
		} else {
			fmt.Fprintln(out, "No titled windows visible.")
		}
	}
	logger.Info("Window listing completed.", zap.Int("total", len(list)), zap.Int("shown", shown))
	return nil
}
