// -- cmd/components.go --
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
	"github.com/xkilldash9x/winpilot-cli/internal/config"
	"github.com/xkilldash9x/winpilot-cli/internal/driver"
	"github.com/xkilldash9x/winpilot-cli/internal/journal"
	"github.com/xkilldash9x/winpilot-cli/internal/navigator"
	"github.com/xkilldash9x/winpilot-cli/internal/scenario"
	"github.com/xkilldash9x/winpilot-cli/internal/windows"
)

// launchWaitSecs is how long the server waits for a launched app to show
// its main window before the session is usable.
const launchWaitSecs = 3

// driverOpener adapts the driver client to the navigator's session opener.
// Launch targets start a fresh app process; window targets attach by native
// handle.
type driverOpener struct {
	client *driver.Client
	// timeout is the session idle timeout in seconds, handed to the server.
	timeout int
}

func (o *driverOpener) Open(ctx context.Context, target navigator.Target) (schemas.DriverSession, error) {
	var caps driver.Capabilities
	if target.AppPath != "" {
		caps = driver.LaunchCapabilities(target.AppPath, o.timeout, launchWaitSecs)
	} else {
		caps = driver.AttachCapabilities(target.WindowHandle, o.timeout)
	}
	sess, err := o.client.NewSession(ctx, caps)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// windowResolver resolves window titles over a short-lived desktop session.
// Opening one per lookup keeps at most a single desktop session alive,
// which the driver server handles much better than parallel ones.
type windowResolver struct {
	client  *driver.Client
	timeout int
	logger  *zap.Logger
}

func (r *windowResolver) FindByTitle(ctx context.Context, substring string) (schemas.WindowInfo, error) {
	sess, err := r.client.NewSession(ctx, driver.RootCapabilities(r.timeout))
	if err != nil {
		return schemas.WindowInfo{}, fmt.Errorf("open desktop session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(ctx); cerr != nil {
			r.logger.Warn("Desktop session cleanup failed.", zap.Error(cerr))
		}
	}()
	return windows.New(sess, r.logger).FindByTitle(ctx, substring)
}

// navComponents holds the initialized services shared by the navigation
// commands.
type navComponents struct {
	Client   *driver.Client
	Runner   *scenario.Runner
	Resolver scenario.WindowResolver
	Journal  *journal.Journal
	DBPool   *pgxpool.Pool
}

// Shutdown releases held resources.
func (c *navComponents) Shutdown() {
	if c.DBPool != nil {
		c.DBPool.Close()
	}
}

// newDriverClient builds the wire client from configuration.
func newDriverClient(cfg *config.Config, logger *zap.Logger) *driver.Client {
	return driver.NewClient(cfg.Driver().URL, driver.Options{
		Timeout:           cfg.Driver().ConnectTimeout,
		RequestsPerSecond: cfg.Driver().RequestsPerSecond,
		Logger:            logger,
	})
}

// driverTimeoutSecs converts the configured command timeout into the whole
// seconds the server's newCommandTimeout capability expects.
func driverTimeoutSecs(cfg *config.Config) int {
	return int(cfg.Driver().CommandTimeout / time.Second)
}

// initializeNavComponents handles dependency injection for the navigate and
// run commands. The journal only comes up when a DSN is configured; without
// one, runs simply are not recorded.
func initializeNavComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*navComponents, error) {
	comps := &navComponents{}

	client := newDriverClient(cfg, logger)
	comps.Client = client

	timeoutSecs := driverTimeoutSecs(cfg)
	opener := &driverOpener{client: client, timeout: timeoutSecs}
	resolver := &windowResolver{client: client, timeout: timeoutSecs, logger: logger}
	comps.Resolver = resolver

	deps := scenario.Deps{
		NewConnection: func() scenario.Connector { return navigator.New(opener, logger) },
		Resolver:      resolver,
		Logger:        logger,
	}

	if dsn := cfg.Journal().DSN; dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return comps, fmt.Errorf("failed to connect to journal database: %w", err)
		}
		comps.DBPool = pool

		j, err := journal.New(ctx, pool, logger)
		if err != nil {
			return comps, fmt.Errorf("failed to initialize journal: %w", err)
		}
		if err := j.Init(ctx); err != nil {
			return comps, fmt.Errorf("failed to prepare journal schema: %w", err)
		}
		comps.Journal = j
		deps.Recorder = j
	}

	comps.Runner = scenario.NewRunner(deps)
	return comps, nil
}
