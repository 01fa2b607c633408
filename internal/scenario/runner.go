// -- internal/scenario/runner.go --
package scenario

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
	"github.com/xkilldash9x/winpilot-cli/internal/dialog"
	"github.com/xkilldash9x/winpilot-cli/internal/navigator"
)

const (
	defaultDialogTimeout = 5 * time.Second

	// disconnectTimeout bounds the teardown that runs even when the
	// scenario's context is already dead.
	disconnectTimeout = 10 * time.Second
)

// Connector is the connection surface the runner drives. Satisfied by
// *navigator.Connection.
type Connector interface {
	Connect(ctx context.Context, target navigator.Target) error
	Navigate(ctx context.Context, pathText string) (schemas.NavigationResult, error)
	Disconnect(ctx context.Context) error
	Session() schemas.DriverSession
	AppType() schemas.ApplicationType
}

// WindowResolver resolves a title substring to a window. Satisfied by
// *windows.Discovery.
type WindowResolver interface {
	FindByTitle(ctx context.Context, substring string) (schemas.WindowInfo, error)
}

// Recorder journals navigation runs. Satisfied by *journal.Journal.
type Recorder interface {
	Record(ctx context.Context, rec schemas.RunRecord) error
}

// dialogClassifier and formFiller mirror the dialog package so tests can
// script classifications without a live tree.
type dialogClassifier interface {
	Classify(ctx context.Context, baseline int, timeout time.Duration) schemas.DialogInfo
}

type formFiller interface {
	FillOrdered(ctx context.Context, info schemas.DialogInfo, values []string) error
	FillNamed(ctx context.Context, info schemas.DialogInfo, values map[string]string) error
}

// Deps wires a Runner. Recorder is optional; everything else is required.
type Deps struct {
	// NewConnection builds a fresh disconnected connection. Called once per
	// scenario; connections are never shared.
	NewConnection func() Connector
	Resolver      WindowResolver
	Recorder      Recorder
	Logger        *zap.Logger
}

// Runner executes scenarios.
type Runner struct {
	deps   Deps
	logger *zap.Logger

	settle        func(ctx context.Context, d time.Duration)
	newClassifier func(tree schemas.TreeQuery, logger *zap.Logger) dialogClassifier
	newFiller     func(tree schemas.TreeQuery, logger *zap.Logger) formFiller
}

func NewRunner(deps Deps) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		deps:   deps,
		logger: logger,
		settle: sleepContext,
		newClassifier: func(tree schemas.TreeQuery, logger *zap.Logger) dialogClassifier {
			return dialog.NewClassifier(tree, logger)
		},
		newFiller: func(tree schemas.TreeQuery, logger *zap.Logger) formFiller {
			return dialog.NewFiller(tree, logger)
		},
	}
}

// StepOutcome reports one executed step.
type StepOutcome struct {
	Index      int                      `json:"index"`
	Navigate   string                   `json:"navigate,omitempty"`
	Navigation schemas.NavigationResult `json:"navigation"`
	Dialog     *schemas.DialogInfo      `json:"dialog,omitempty"`
	Err        error                    `json:"-"`
}

// Outcome aggregates one scenario run. Err is the first fatal error; steps
// before it are reported as executed.
type Outcome struct {
	Scenario string        `json:"scenario"`
	Steps    []StepOutcome `json:"steps"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Succeeded reports whether every step completed.
func (o Outcome) Succeeded() bool { return o.Err == nil }

// Run executes one scenario over one fresh connection. The first failing
// step aborts the remainder; the connection is torn down either way.
func (r *Runner) Run(ctx context.Context, sc Scenario) Outcome {
	started := time.Now()
	out := Outcome{Scenario: sc.Name}
	logger := r.logger.With(zap.String("scenario", sc.Name))

	target, err := r.resolveTarget(ctx, sc)
	if err != nil {
		out.Err = err
		out.Duration = time.Since(started)
		return out
	}

	conn := r.deps.NewConnection()
	if err := conn.Connect(ctx, target); err != nil {
		out.Err = fmt.Errorf("scenario %q: %w", sc.Name, err)
		out.Duration = time.Since(started)
		return out
	}
	defer func() {
		teardownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
		defer cancel()
		if err := conn.Disconnect(teardownCtx); err != nil {
			logger.Warn("Scenario teardown failed.", zap.Error(err))
		}
	}()

	timeout := sc.DialogTimeout.Std()
	if timeout <= 0 {
		timeout = defaultDialogTimeout
	}

	logger.Info("Scenario starting.",
		zap.String("target", target.Describe()),
		zap.Int("steps", len(sc.Steps)))

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			out.Err = err
			break
		}
		so := r.runStep(ctx, conn, target, step, i, timeout, logger)
		out.Steps = append(out.Steps, so)
		if so.Err != nil {
			out.Err = fmt.Errorf("scenario %q: step %d: %w", sc.Name, i+1, so.Err)
			break
		}
	}

	out.Duration = time.Since(started)
	logger.Info("Scenario finished.",
		zap.Bool("succeeded", out.Succeeded()),
		zap.Int("steps_run", len(out.Steps)),
		zap.Duration("took", out.Duration))
	return out
}

func (r *Runner) resolveTarget(ctx context.Context, sc Scenario) (navigator.Target, error) {
	if sc.Window == "" {
		return navigator.Target{AppPath: sc.App}, nil
	}
	w, err := r.deps.Resolver.FindByTitle(ctx, sc.Window)
	if err != nil {
		return navigator.Target{}, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	return navigator.Target{WindowHandle: w.Handle, Title: w.Title}, nil
}

func (r *Runner) runStep(ctx context.Context, conn Connector, target navigator.Target, step Step, index int, dialogTimeout time.Duration, logger *zap.Logger) StepOutcome {
	so := StepOutcome{Index: index, Navigate: step.Navigate}

	if step.Pause > 0 {
		logger.Debug("Pausing.", zap.Duration("pause", step.Pause.Std()))
		r.settle(ctx, step.Pause.Std())
		so.Err = ctx.Err()
		return so
	}

	navStarted := time.Now()
	result, navErr := conn.Navigate(ctx, step.Navigate)
	so.Navigation = result
	r.record(ctx, conn, target, step.Navigate, navStarted, result, navErr, logger)
	if navErr != nil {
		so.Err = navErr
		return so
	}

	if step.ExpectDialog == "" && len(step.Fill) == 0 && len(step.FillNamed) == 0 {
		return so
	}

	// The pre-navigation sample doubles as the dialog baseline: growth is
	// measured against the window as it was before the menu action.
	info := r.newClassifier(conn.Session(), logger).Classify(ctx, result.ElementsBefore, dialogTimeout)
	so.Dialog = &info

	if step.ExpectDialog != "" && string(info.Kind) != step.ExpectDialog {
		so.Err = fmt.Errorf("expected dialog %q, observed %q", step.ExpectDialog, info.Kind)
		return so
	}

	switch {
	case len(step.Fill) > 0:
		so.Err = r.newFiller(conn.Session(), logger).FillOrdered(ctx, info, step.Fill)
	case len(step.FillNamed) > 0:
		so.Err = r.newFiller(conn.Session(), logger).FillNamed(ctx, info, step.FillNamed)
	}
	return so
}

// record journals one navigation. Journal trouble is logged and swallowed;
// persistence must never fail a run.
func (r *Runner) record(ctx context.Context, conn Connector, target navigator.Target, path string, startedAt time.Time, result schemas.NavigationResult, navErr error, logger *zap.Logger) {
	if r.deps.Recorder == nil {
		return
	}
	rec := schemas.RunRecord{
		StartedAt:      startedAt,
		WindowTitle:    target.Describe(),
		AppType:        conn.AppType(),
		Path:           path,
		StepsPlanned:   result.StepsPlanned,
		StepsExecuted:  result.StepsExecuted,
		Succeeded:      navErr == nil,
		ChangeDetected: result.ChangeDetected,
		Duration:       result.Duration,
	}
	if navErr != nil {
		rec.Failure = navErr.Error()
	}
	if err := r.deps.Recorder.Record(ctx, rec); err != nil {
		logger.Warn("Journal record failed.", zap.Error(err))
	}
}

// RunAll executes scenarios with bounded parallelism, one connection per
// scenario. A failing scenario never cancels its siblings; only caller
// cancellation does. Outcomes are returned in input order.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario, parallel int) []Outcome {
	if parallel <= 0 {
		parallel = 1
	}
	outcomes := make([]Outcome, len(scenarios))

	g := new(errgroup.Group)
	g.SetLimit(parallel)
	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			outcomes[i] = r.Run(ctx, sc)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
