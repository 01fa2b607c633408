// -- internal/navigator/navigator.go --

// Package navigator owns the connection lifecycle and the navigation state
// machine. A Connection binds one driver session to one top-level window,
// classifies the hosting framework exactly once, and then executes parsed
// navigation paths step by step: keyboard steps through the executor, text
// steps through the strategy picked for the framework family.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
	"github.com/xkilldash9x/winpilot-cli/internal/apptype"
	"github.com/xkilldash9x/winpilot-cli/internal/keyexec"
	"github.com/xkilldash9x/winpilot-cli/internal/navlang"
	"github.com/xkilldash9x/winpilot-cli/internal/strategy"
)

const (
	// postNavigationSettle is the window between the last step and the
	// after-count sample, giving the UI time to react before change
	// detection reads the tree.
	postNavigationSettle = 1 * time.Second

	// changeThreshold is the absolute element count above which a window is
	// assumed to have grown new content even when the before-sample was
	// already large.
	changeThreshold = 50

	// Escape flush on disconnect, dismissing menus a failed navigation may
	// have left open.
	escapeFlushCount = 3
	escapeFlushDelay = 200 * time.Millisecond

	// releaseTimeout bounds the post-navigation modifier cleanup, which
	// runs even when the navigation's own context is already dead.
	releaseTimeout = 2 * time.Second
)

// State is the connection lifecycle phase.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected"
	StateNavigating   State = "navigating"
	StateIdle         State = "idle"
)

// Target selects the window a connection binds to. Exactly one of AppPath
// and WindowHandle must be set.
type Target struct {
	// AppPath launches an executable and binds to its main window.
	AppPath string
	// WindowHandle attaches to a running window by native handle, decimal
	// encoded.
	WindowHandle string
	// Title is the resolved window title, carried for logs and the journal.
	Title string
}

func (t Target) validate() error {
	switch {
	case t.AppPath == "" && t.WindowHandle == "":
		return errors.New("navigator: target needs an app path or a window handle")
	case t.AppPath != "" && t.WindowHandle != "":
		return errors.New("navigator: target cannot both launch and attach")
	}
	return nil
}

// Describe renders the target for logs.
func (t Target) Describe() string {
	if t.Title != "" {
		return t.Title
	}
	if t.AppPath != "" {
		return t.AppPath
	}
	return "hwnd " + t.WindowHandle
}

// SessionOpener establishes driver sessions. The driver package's client is
// adapted onto this at wiring time; tests substitute fakes.
type SessionOpener interface {
	Open(ctx context.Context, target Target) (schemas.DriverSession, error)
}

// Connection is one window-bound automation session. It is not safe for
// concurrent use: one navigation at a time, single caller thread.
type Connection struct {
	opener SessionOpener
	logger *zap.Logger

	state   State
	session schemas.DriverSession
	exec    strategy.StepRunner
	nav     strategy.TextNavigator
	appType schemas.ApplicationType

	settle func(ctx context.Context, d time.Duration)
}

// New returns a disconnected Connection.
func New(opener SessionOpener, logger *zap.Logger) *Connection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connection{
		opener: opener,
		logger: logger,
		state:  StateDisconnected,
		settle: sleepContext,
	}
}

// State returns the current lifecycle phase.
func (c *Connection) State() State { return c.state }

// AppType returns the framework classification made at connect time.
func (c *Connection) AppType() schemas.ApplicationType { return c.appType }

// Session exposes the underlying driver session for dialog classification
// and filling. Nil while disconnected.
func (c *Connection) Session() schemas.DriverSession { return c.session }

// Connect establishes the driver session and classifies the window's
// framework. Classification happens exactly once; the result is immutable
// for the connection's lifetime. A session failure leaves the connection
// disconnected. An unreadable window classifies as unknown rather than
// failing, which selects the most conservative strategy.
func (c *Connection) Connect(ctx context.Context, target Target) error {
	if c.state != StateDisconnected {
		return fmt.Errorf("navigator: already connected (state %s)", c.state)
	}
	if err := target.validate(); err != nil {
		return err
	}

	session, err := c.opener.Open(ctx, target)
	if err != nil {
		return fmt.Errorf("navigator: connect %s: %w", target.Describe(), err)
	}

	appType := schemas.AppUnknown
	meta, err := session.WindowMeta(ctx)
	if err != nil {
		c.logger.Warn("Window metadata unreadable, classifying as unknown.", zap.Error(err))
	} else {
		appType = apptype.Classify(meta)
	}

	exec := keyexec.New(session, c.logger)
	c.session = session
	c.appType = appType
	c.exec = exec
	c.nav = strategy.ForType(appType, exec, session, c.logger)
	c.state = StateConnected

	c.logger.Info("Connected to window.",
		zap.String("target", target.Describe()),
		zap.String("app_type", string(appType)),
		zap.String("strategy", string(c.nav.Family())),
		zap.String("class_name", meta.ClassName),
		zap.String("framework_id", meta.FrameworkID))
	return nil
}

// Navigate parses pathText and executes it against the connected window.
// An empty path is a successful no-op. The first failing step aborts the
// remainder; the returned result reports how far execution got either way.
// ChangeDetected is advisory and never affects the error: a navigation that
// executed every step is successful even when the window shows no growth.
func (c *Connection) Navigate(ctx context.Context, pathText string) (schemas.NavigationResult, error) {
	if c.state == StateDisconnected {
		return schemas.NavigationResult{}, errors.New("navigator: not connected")
	}

	steps := navlang.Parse(pathText)
	result := schemas.NavigationResult{StepsPlanned: len(steps)}
	if steps.Empty() {
		c.logger.Info("Navigation path parsed to nothing, treating as no-op.",
			zap.String("path", pathText))
		return result, nil
	}

	c.state = StateNavigating
	defer func() { c.state = StateIdle }()
	defer c.releaseModifiers(ctx)

	started := time.Now()
	result.ElementsBefore = c.elementCount(ctx)

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(started)
			return result, err
		}
		c.logger.Info("Executing navigation step.",
			zap.Int("step", i+1),
			zap.Int("of", len(steps)),
			zap.String("step_desc", step.Describe()))

		var err error
		switch {
		case step.Kind.Keyboard():
			err = c.exec.Execute(ctx, step)
		case step.Kind.Text():
			err = c.nav.ResolveText(ctx, step)
		default:
			err = fmt.Errorf("navigator: unsupported step kind %q", step.Kind)
		}
		if err != nil {
			result.Duration = time.Since(started)
			return result, fmt.Errorf("navigator: step %d (%s): %w", i+1, step.Describe(), err)
		}
		result.StepsExecuted = i + 1
	}

	c.settle(ctx, postNavigationSettle)
	result.ElementsAfter = c.elementCount(ctx)
	if result.ElementsAfter > result.ElementsBefore || result.ElementsAfter > changeThreshold {
		result.ChangeDetected = true
		c.logger.Info("Navigation change detected.",
			zap.Int("elements_before", result.ElementsBefore),
			zap.Int("elements_after", result.ElementsAfter))
	}
	result.Duration = time.Since(started)

	c.logger.Info("Navigation completed.",
		zap.Int("steps", result.StepsExecuted),
		zap.Bool("change_detected", result.ChangeDetected),
		zap.Duration("took", result.Duration))
	return result, nil
}

// Disconnect flushes dangling menus with a few Escapes and tears the
// session down. Callable from any state and idempotent; the connection is
// disconnected afterwards even when teardown reported an error.
func (c *Connection) Disconnect(ctx context.Context) error {
	if c.state == StateDisconnected || c.session == nil {
		c.state = StateDisconnected
		return nil
	}

	for i := 0; i < escapeFlushCount; i++ {
		if err := c.session.PressKey(ctx, "escape"); err != nil {
			c.logger.Debug("Escape flush keystroke failed.", zap.Error(err))
			break
		}
		c.settle(ctx, escapeFlushDelay)
	}

	err := c.session.Close(ctx)
	c.session = nil
	c.exec = nil
	c.nav = nil
	c.state = StateDisconnected
	if err != nil {
		return fmt.Errorf("navigator: disconnect: %w", err)
	}
	c.logger.Info("Disconnected from window.")
	return nil
}

// releaseModifiers drops anything a partial combination left held. It runs
// after every navigation on its own deadline so a canceled navigation still
// gets its keyboard back.
func (c *Connection) releaseModifiers(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := c.session.ReleaseAll(cleanupCtx); err != nil {
		c.logger.Warn("Failed to release held modifiers after navigation.", zap.Error(err))
	}
}

// elementCount samples the tree size for change detection. The signal is
// advisory, so an unreadable tree degrades to zero instead of failing the
// navigation.
func (c *Connection) elementCount(ctx context.Context) int {
	n, err := c.session.ElementCount(ctx)
	if err != nil {
		c.logger.Debug("Element count unavailable.", zap.Error(err))
		return 0
	}
	return n
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
