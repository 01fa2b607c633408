// -- internal/scenario/runner_test.go --
package scenario

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
	"github.com/xkilldash9x/winpilot-cli/internal/navigator"
)

// -- Fakes --

type fakeConnector struct {
	mu         sync.Mutex
	trace      []string
	connectErr error
	navErr     map[string]error
	navResult  schemas.NavigationResult
	appType    schemas.ApplicationType
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{
		navErr:    map[string]error{},
		navResult: schemas.NavigationResult{StepsPlanned: 1, StepsExecuted: 1, ElementsBefore: 7},
		appType:   schemas.AppWin32,
	}
}

func (c *fakeConnector) Connect(_ context.Context, target navigator.Target) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connectErr != nil {
		return c.connectErr
	}
	c.trace = append(c.trace, "connect:"+target.Describe())
	return nil
}

func (c *fakeConnector) Navigate(_ context.Context, pathText string) (schemas.NavigationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.navErr[pathText]; err != nil {
		return schemas.NavigationResult{StepsPlanned: 2}, err
	}
	c.trace = append(c.trace, "navigate:"+pathText)
	return c.navResult, nil
}

func (c *fakeConnector) Disconnect(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trace = append(c.trace, "disconnect")
	return nil
}

func (c *fakeConnector) Session() schemas.DriverSession { return nil }

func (c *fakeConnector) AppType() schemas.ApplicationType { return c.appType }

func (c *fakeConnector) traced() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.trace))
	copy(out, c.trace)
	return out
}

type fakeResolver struct {
	mu      sync.Mutex
	windows map[string]schemas.WindowInfo
	err     error
	queries []string
}

func (r *fakeResolver) FindByTitle(_ context.Context, substring string) (schemas.WindowInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, substring)
	if r.err != nil {
		return schemas.WindowInfo{}, r.err
	}
	return r.windows[substring], nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []schemas.RunRecord
	err     error
}

func (r *fakeRecorder) Record(_ context.Context, rec schemas.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return r.err
}

func (r *fakeRecorder) recorded() []schemas.RunRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]schemas.RunRecord, len(r.records))
	copy(out, r.records)
	return out
}

type fakeClassifier struct {
	info        schemas.DialogInfo
	gotBaseline int
	gotTimeout  time.Duration
	calls       int
}

func (f *fakeClassifier) Classify(_ context.Context, baseline int, timeout time.Duration) schemas.DialogInfo {
	f.calls++
	f.gotBaseline = baseline
	f.gotTimeout = timeout
	return f.info
}

type fakeFiller struct {
	ordered [][]string
	named   []map[string]string
	err     error
}

func (f *fakeFiller) FillOrdered(_ context.Context, _ schemas.DialogInfo, values []string) error {
	f.ordered = append(f.ordered, values)
	return f.err
}

func (f *fakeFiller) FillNamed(_ context.Context, _ schemas.DialogInfo, values map[string]string) error {
	f.named = append(f.named, values)
	return f.err
}

type runnerFixture struct {
	runner     *Runner
	conn       *fakeConnector
	resolver   *fakeResolver
	recorder   *fakeRecorder
	classifier *fakeClassifier
	filler     *fakeFiller
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()
	fx := &runnerFixture{
		conn: newFakeConnector(),
		resolver: &fakeResolver{windows: map[string]schemas.WindowInfo{
			"notepad": {Title: "Untitled - Notepad", Handle: "42", PID: 7},
		}},
		recorder:   &fakeRecorder{},
		classifier: &fakeClassifier{info: schemas.DialogInfo{Kind: schemas.DialogNone}},
		filler:     &fakeFiller{},
	}
	fx.runner = NewRunner(Deps{
		NewConnection: func() Connector { return fx.conn },
		Resolver:      fx.resolver,
		Recorder:      fx.recorder,
		Logger:        zaptest.NewLogger(t),
	})
	fx.runner.settle = func(context.Context, time.Duration) {}
	fx.runner.newClassifier = func(schemas.TreeQuery, *zap.Logger) dialogClassifier { return fx.classifier }
	fx.runner.newFiller = func(schemas.TreeQuery, *zap.Logger) formFiller { return fx.filler }
	return fx
}

func windowScenario(steps ...Step) Scenario {
	return Scenario{Name: "demo", Window: "notepad", Steps: steps}
}

// -- Run --

// Verifies the window title resolves to a handle before connecting, and
// the connection is torn down afterwards.
func TestRunResolvesWindowTarget(t *testing.T) {
	t.Parallel()
	fx := newRunnerFixture(t)

	out := fx.runner.Run(context.Background(), windowScenario(Step{Navigate: "File -> New"}))
	require.NoError(t, out.Err)

	assert.Equal(t, []string{"notepad"}, fx.resolver.queries)
	assert.Equal(t, []string{"connect:Untitled - Notepad", "navigate:File -> New", "disconnect"}, fx.conn.traced())
}

// Verifies an app target skips window resolution.
func TestRunAppTarget(t *testing.T) {
	t.Parallel()
	fx := newRunnerFixture(t)
	sc := Scenario{Name: "launch", App: `C:\tools\editor.exe`, Steps: []Step{{Navigate: "File"}}}

	out := fx.runner.Run(context.Background(), sc)
	require.NoError(t, out.Err)

	assert.Empty(t, fx.resolver.queries)
	assert.Equal(t, []string{`connect:C:\tools\editor.exe`, "navigate:File", "disconnect"}, fx.conn.traced())
}

func TestRunWindowResolutionFailure(t *testing.T) {
	t.Parallel()
	fx := newRunnerFixture(t)
	fx.resolver.err = assert.AnError

	out := fx.runner.Run(context.Background(), windowScenario(Step{Navigate: "File"}))
	require.ErrorIs(t, out.Err, assert.AnError)
	assert.Empty(t, fx.conn.traced(), "must not connect without a resolved target")
}

func TestRunConnectFailure(t *testing.T) {
	t.Parallel()
	fx := newRunnerFixture(t)
	fx.conn.connectErr = assert.AnError

	out := fx.runner.Run(context.Background(), windowScenario(Step{Navigate: "File"}))
	require.ErrorIs(t, out.Err, assert.AnError)
	assert.Empty(t, out.Steps)
}

// Verifies steps run in order and pauses are steps too.
func TestRunStepSequence(t *testing.T) {
	t.Parallel()
	fx := newRunnerFixture(t)

	out := fx.runner.Run(context.Background(), windowScenario(
		Step{Navigate: "File -> New"},
		Step{Pause: Duration(time.Millisecond)},
		Step{Navigate: "{Ctrl+S}"},
	))
	require.NoError(t, out.Err)
	require.Len(t, out.Steps, 3)
	assert.Equal(t, []string{"connect:Untitled - Notepad", "navigate:File -> New", "navigate:{Ctrl+S}", "disconnect"}, fx.conn.traced())
}

// Verifies the first failing step aborts the scenario but still tears the
// connection down.
func TestRunStepFailureAborts(t *testing.T) {
	t.Parallel()
	fx := newRunnerFixture(t)
	fx.conn.navErr["Ghost"] = fmt.Errorf("no such menu")

	out := fx.runner.Run(context.Background(), windowScenario(
		Step{Navigate: "Ghost"},
		Step{Navigate: "File"},
	))
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "step 1")
	assert.Len(t, out.Steps, 1)
	assert.Equal(t, []string{"connect:Untitled - Notepad", "disconnect"}, fx.conn.traced(),
		"second navigate must not run")
}

// -- Dialog handling --

// Verifies the classifier is primed with the pre-navigation element count
// and the scenario's dialog timeout.
func TestRunDialogBaselineAndTimeout(t *testing.T) {
	t.Parallel()
	fx := newRunnerFixture(t)
	fx.classifier.info = schemas.DialogInfo{Kind: schemas.DialogSingleInput}
	sc := windowScenario(Step{Navigate: "File -> Save As", ExpectDialog: "single_input_form"})
	sc.DialogTimeout = Duration(2 * time.Second)

	out := fx.runner.Run(context.Background(), sc)
	require.NoError(t, out.Err)

	assert.Equal(t, 7, fx.classifier.gotBaseline, "baseline must be the pre-navigation sample")
	assert.Equal(t, 2*time.Second, fx.classifier.gotTimeout)
	require.NotNil(t, out.Steps[0].Dialog)
	assert.Equal(t, schemas.DialogSingleInput, out.Steps[0].Dialog.Kind)
}

func TestRunDialogDefaultTimeout(t *testing.T) {
	t.Parallel()
	fx := newRunnerFixture(t)
	fx.classifier.info = schemas.DialogInfo{Kind: schemas.DialogNone}

	out := fx.runner.Run(context.Background(), windowScenario(
		Step{Navigate: "File", ExpectDialog: "none"},
	))
	require.NoError(t, out.Err)
	assert.Equal(t, 5*time.Second, fx.classifier.gotTimeout)
}

// Verifies a dialog expectation mismatch fails the step.
func TestRunDialogExpectationMismatch(t *testing.T) {
	t.Parallel()
	fx := newRunnerFixture(t)
	fx.classifier.info = schemas.DialogInfo{Kind: schemas.DialogNone}

	out := fx.runner.Run(context.Background(), windowScenario(
		Step{Navigate: "File -> Save As", ExpectDialog: "single_input_form"},
	))
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), `expected dialog "single_input_form", observed "none"`)
}

// Verifies fills classify first even without an explicit expectation, then
// hand the inventory to the filler.
func TestRunFillOrdered(t *testing.T) {
	t.Parallel()
	fx := newRunnerFixture(t)
	fx.classifier.info = schemas.DialogInfo{
		Kind:   schemas.DialogSingleInput,
		Inputs: []schemas.InputFieldRef{{ID: "e1", Name: "File name"}},
	}

	out := fx.runner.Run(context.Background(), windowScenario(
		Step{Navigate: "File -> Save As", Fill: []string{"report.txt"}},
	))
	require.NoError(t, out.Err)
	assert.Equal(t, 1, fx.classifier.calls)
	assert.Equal(t, [][]string{{"report.txt"}}, fx.filler.ordered)
	assert.Empty(t, fx.filler.named)
}

func TestRunFillNamed(t *testing.T) {
	t.Parallel()
	fx := newRunnerFixture(t)
	fx.classifier.info = schemas.DialogInfo{Kind: schemas.DialogMultiInput}

	out := fx.runner.Run(context.Background(), windowScenario(
		Step{Navigate: "Edit -> Find", FillNamed: map[string]string{"find what": "needle"}},
	))
	require.NoError(t, out.Err)
	assert.Equal(t, []map[string]string{{"find what": "needle"}}, fx.filler.named)
}

func TestRunFillFailureAborts(t *testing.T) {
	t.Parallel()
	fx := newRunnerFixture(t)
	fx.classifier.info = schemas.DialogInfo{Kind: schemas.DialogSingleInput}
	fx.filler.err = assert.AnError

	out := fx.runner.Run(context.Background(), windowScenario(
		Step{Navigate: "File -> Save As", Fill: []string{"x"}},
		Step{Navigate: "File"},
	))
	require.ErrorIs(t, out.Err, assert.AnError)
	assert.Len(t, out.Steps, 1)
}

// -- Journal --

// Verifies every navigate is journaled, success and failure alike, and
// journal trouble never fails the run.
func TestRunJournalRecords(t *testing.T) {
	t.Parallel()
	fx := newRunnerFixture(t)
	fx.conn.navErr["Ghost"] = fmt.Errorf("no such menu")

	out := fx.runner.Run(context.Background(), windowScenario(
		Step{Navigate: "File"},
		Step{Navigate: "Ghost"},
	))
	require.Error(t, out.Err)

	records := fx.recorder.recorded()
	require.Len(t, records, 2)

	assert.Equal(t, "File", records[0].Path)
	assert.True(t, records[0].Succeeded)
	assert.Equal(t, "Untitled - Notepad", records[0].WindowTitle)
	assert.Equal(t, schemas.AppWin32, records[0].AppType)

	assert.Equal(t, "Ghost", records[1].Path)
	assert.False(t, records[1].Succeeded)
	assert.Contains(t, records[1].Failure, "no such menu")
}

func TestRunJournalFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	fx := newRunnerFixture(t)
	fx.recorder.err = assert.AnError

	out := fx.runner.Run(context.Background(), windowScenario(Step{Navigate: "File"}))
	require.NoError(t, out.Err)
}

func TestRunWithoutRecorder(t *testing.T) {
	t.Parallel()
	fx := newRunnerFixture(t)
	fx.runner.deps.Recorder = nil

	out := fx.runner.Run(context.Background(), windowScenario(Step{Navigate: "File"}))
	require.NoError(t, out.Err)
}

// -- RunAll --

// Verifies scenarios run with a fresh connection each, outcomes come back
// in input order, and one failure leaves the siblings untouched.
func TestRunAllIsolation(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	built := 0
	conns := map[string]*fakeConnector{}

	resolver := &fakeResolver{windows: map[string]schemas.WindowInfo{
		"a": {Title: "A", Handle: "1"},
		"b": {Title: "B", Handle: "2"},
		"c": {Title: "C", Handle: "3"},
	}}
	runner := NewRunner(Deps{
		NewConnection: func() Connector {
			mu.Lock()
			defer mu.Unlock()
			built++
			conn := newFakeConnector()
			conns[fmt.Sprintf("conn-%d", built)] = conn
			return conn
		},
		Resolver: resolver,
		Logger:   zap.NewNop(),
	})
	runner.settle = func(context.Context, time.Duration) {}

	scenarios := []Scenario{
		{Name: "first", Window: "a", Steps: []Step{{Navigate: "File"}}},
		{Name: "second", Window: "b", Steps: []Step{{Navigate: "File"}}},
		{Name: "third", Window: "c", Steps: []Step{{Navigate: "File"}}},
	}

	outcomes := runner.RunAll(context.Background(), scenarios, 2)
	require.Len(t, outcomes, 3)
	assert.Equal(t, "first", outcomes[0].Scenario)
	assert.Equal(t, "second", outcomes[1].Scenario)
	assert.Equal(t, "third", outcomes[2].Scenario)
	assert.Equal(t, 3, built, "each scenario needs its own connection")
	for _, out := range outcomes {
		assert.NoError(t, out.Err)
	}
}

func TestRunAllSiblingFailureDoesNotCancel(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{windows: map[string]schemas.WindowInfo{"a": {Title: "A", Handle: "1"}}}
	runner := NewRunner(Deps{
		NewConnection: func() Connector {
			conn := newFakeConnector()
			conn.navErr["Broken"] = fmt.Errorf("boom")
			return conn
		},
		Resolver: resolver,
		Logger:   zap.NewNop(),
	})
	runner.settle = func(context.Context, time.Duration) {}

	scenarios := []Scenario{
		{Name: "bad", Window: "a", Steps: []Step{{Navigate: "Broken"}}},
		{Name: "good", Window: "a", Steps: []Step{{Navigate: "File"}}},
	}

	outcomes := runner.RunAll(context.Background(), scenarios, 1)
	require.Len(t, outcomes, 2)
	assert.Error(t, outcomes[0].Err)
	assert.NoError(t, outcomes[1].Err)
}

// Verifies the worker pool drains completely, even when a scenario fails
// mid-flight. Deliberately not parallel so the check sees only this test.
func TestRunAllLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	resolver := &fakeResolver{windows: map[string]schemas.WindowInfo{"a": {Title: "A", Handle: "1"}}}
	runner := NewRunner(Deps{
		NewConnection: func() Connector {
			conn := newFakeConnector()
			conn.navErr["Broken"] = fmt.Errorf("boom")
			return conn
		},
		Resolver: resolver,
		Logger:   zap.NewNop(),
	})
	runner.settle = func(context.Context, time.Duration) {}

	scenarios := []Scenario{
		{Name: "one", Window: "a", Steps: []Step{{Navigate: "File"}}},
		{Name: "two", Window: "a", Steps: []Step{{Navigate: "Broken"}}},
		{Name: "three", Window: "a", Steps: []Step{{Navigate: "File"}, {Pause: Duration(time.Millisecond)}}},
	}

	outcomes := runner.RunAll(context.Background(), scenarios, 3)
	require.Len(t, outcomes, 3)
}
