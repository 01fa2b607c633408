// -- internal/strategy/dotnet_test.go --
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

func newDotNetUnderTest(t *testing.T) (*DotNet, *fakeRunner, *fakeTree, *[]time.Duration) {
	t.Helper()
	runner := &fakeRunner{}
	tree := newFakeTree()
	var settles []time.Duration
	s := NewDotNet(runner, tree, zaptest.NewLogger(t))
	s.settle = instantSettle(&settles)
	return s, runner, tree, &settles
}

func TestDotNetOpenMenuClicksTreeMatch(t *testing.T) {
	t.Parallel()
	s, runner, tree, settles := newDotNetUnderTest(t)
	tree.add("Menu", "m1", "File")

	err := s.ResolveText(context.Background(), menuTextStep("File"))

	require.NoError(t, err)
	assert.Equal(t, []schemas.ElementRef{"m1"}, tree.clicked)
	assert.Empty(t, runner.steps)
	assert.Equal(t, []time.Duration{postClickSettle}, *settles)
}

func TestDotNetOpenMenuFallsBackToAltMnemonic(t *testing.T) {
	t.Parallel()
	s, runner, tree, settles := newDotNetUnderTest(t)

	err := s.ResolveText(context.Background(), menuTextStep("File"))

	require.NoError(t, err)
	assert.Empty(t, tree.clicked)
	require.Len(t, runner.steps, 1)
	step := runner.steps[0]
	assert.Equal(t, schemas.StepKeyCombination, step.Kind)
	assert.Equal(t, []string{"alt"}, step.Modifiers)
	assert.Equal(t, "f", step.Key)
	assert.Equal(t, []time.Duration{menuOpenSettle}, *settles)
}

func TestDotNetOpenMenuFallsBackWhenClickFails(t *testing.T) {
	t.Parallel()
	s, runner, tree, _ := newDotNetUnderTest(t)
	tree.add("Menu", "m1", "File")
	tree.clickErr["m1"] = assert.AnError

	err := s.ResolveText(context.Background(), menuTextStep("File"))

	require.NoError(t, err)
	require.Len(t, runner.steps, 1)
	assert.Equal(t, schemas.StepKeyCombination, runner.steps[0].Kind)
}

func TestDotNetSelectItemClicksTreeMatch(t *testing.T) {
	t.Parallel()
	s, runner, tree, _ := newDotNetUnderTest(t)
	tree.add("MenuItem", "i1", "Create Project")

	err := s.ResolveText(context.Background(), menuItemStep("Create Project"))

	require.NoError(t, err)
	assert.Equal(t, []schemas.ElementRef{"i1"}, tree.clicked)
	assert.Empty(t, runner.steps)
}

func TestDotNetSelectItemSubstringMatch(t *testing.T) {
	t.Parallel()
	s, _, tree, _ := newDotNetUnderTest(t)
	tree.add("MenuItem", "i1", "Create Project (Ctrl+N)")

	err := s.ResolveText(context.Background(), menuItemStep("create project"))

	require.NoError(t, err)
	assert.Equal(t, []schemas.ElementRef{"i1"}, tree.clicked)
}

func TestDotNetSelectItemFallsBackToFirstLetter(t *testing.T) {
	t.Parallel()
	s, runner, tree, settles := newDotNetUnderTest(t)

	err := s.ResolveText(context.Background(), menuItemStep("Create Project"))

	require.NoError(t, err)
	assert.Empty(t, tree.clicked)
	require.Len(t, runner.steps, 1)
	step := runner.steps[0]
	assert.Equal(t, schemas.StepKeySingle, step.Kind)
	assert.Equal(t, "c", step.Key)
	assert.Equal(t, []time.Duration{postClickSettle}, *settles)
}

func TestDotNetKeyboardFallbackFailurePropagates(t *testing.T) {
	t.Parallel()
	s, runner, _, _ := newDotNetUnderTest(t)
	runner.failOn = func(schemas.NavigationStep) error { return assert.AnError }

	err := s.ResolveText(context.Background(), menuTextStep("File"))

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestDotNetRejectsKeyboardSteps(t *testing.T) {
	t.Parallel()
	s, _, _, _ := newDotNetUnderTest(t)

	err := s.ResolveText(context.Background(), schemas.NavigationStep{
		Kind:  schemas.StepKeyRepeat,
		Key:   "down",
		Count: 2,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a text step")
}
