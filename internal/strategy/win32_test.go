// -- internal/strategy/win32_test.go --
package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

func newWin32UnderTest(t *testing.T) (*Win32, *fakeRunner, *fakeTree, *[]time.Duration) {
	t.Helper()
	runner := &fakeRunner{}
	tree := newFakeTree()
	var settles []time.Duration
	s := NewWin32(runner, tree, zaptest.NewLogger(t))
	s.settle = instantSettle(&settles)
	return s, runner, tree, &settles
}

func TestWin32OpenMenuClicksTypedMatch(t *testing.T) {
	t.Parallel()
	s, runner, tree, _ := newWin32UnderTest(t)
	tree.add("Menu", "m1", "File")
	tree.byName["File"] = "generic"

	err := s.ResolveText(context.Background(), menuTextStep("File"))

	require.NoError(t, err)
	// The typed match wins; the generic probe never runs.
	assert.Equal(t, []schemas.ElementRef{"m1"}, tree.clicked)
	assert.Empty(t, runner.steps)
}

func TestWin32OpenMenuUsesGenericNameProbe(t *testing.T) {
	t.Parallel()
	s, runner, tree, settles := newWin32UnderTest(t)
	tree.byName["File"] = "g1"

	err := s.ResolveText(context.Background(), menuTextStep("File"))

	require.NoError(t, err)
	assert.Equal(t, []schemas.ElementRef{"g1"}, tree.clicked)
	assert.Empty(t, runner.steps)
	assert.Equal(t, []time.Duration{postClickSettle}, *settles)
}

func TestWin32OpenMenuKeyboardFallback(t *testing.T) {
	t.Parallel()
	s, runner, tree, settles := newWin32UnderTest(t)

	err := s.ResolveText(context.Background(), menuTextStep("Edit"))

	require.NoError(t, err)
	assert.Empty(t, tree.clicked)
	require.Len(t, runner.steps, 1)
	step := runner.steps[0]
	assert.Equal(t, schemas.StepKeyCombination, step.Kind)
	assert.Equal(t, []string{"alt"}, step.Modifiers)
	assert.Equal(t, "e", step.Key)
	assert.Equal(t, []time.Duration{menuOpenSettle}, *settles)
}

func TestWin32OpenMenuGenericProbeClickFailureFallsThrough(t *testing.T) {
	t.Parallel()
	s, runner, tree, _ := newWin32UnderTest(t)
	tree.byName["File"] = "g1"
	tree.clickErr["g1"] = assert.AnError

	err := s.ResolveText(context.Background(), menuTextStep("File"))

	require.NoError(t, err)
	require.Len(t, runner.steps, 1)
	assert.Equal(t, schemas.StepKeyCombination, runner.steps[0].Kind)
}

func TestWin32SelectItemClicksTypedMatch(t *testing.T) {
	t.Parallel()
	s, runner, tree, _ := newWin32UnderTest(t)
	tree.add("MenuItem", "i1", "Save As...")

	err := s.ResolveText(context.Background(), menuItemStep("save as"))

	require.NoError(t, err)
	assert.Equal(t, []schemas.ElementRef{"i1"}, tree.clicked)
	assert.Empty(t, runner.steps)
}

func TestWin32SelectItemSkipsGenericProbe(t *testing.T) {
	t.Parallel()
	s, runner, tree, _ := newWin32UnderTest(t)
	// A generic name match exists, but menu items never consult it.
	tree.byName["Save As"] = "g1"

	err := s.ResolveText(context.Background(), menuItemStep("Save As"))

	require.NoError(t, err)
	assert.Empty(t, tree.clicked)
	require.Len(t, runner.steps, 1)
	assert.Equal(t, schemas.StepKeySingle, runner.steps[0].Kind)
	assert.Equal(t, "s", runner.steps[0].Key)
}

func TestWin32RejectsKeyboardSteps(t *testing.T) {
	t.Parallel()
	s, _, _, _ := newWin32UnderTest(t)

	err := s.ResolveText(context.Background(), schemas.NavigationStep{
		Kind: schemas.StepKeySingle,
		Key:  "x",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a text step")
}
