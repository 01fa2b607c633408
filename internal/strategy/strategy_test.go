// -- internal/strategy/strategy_test.go --
package strategy

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

// fakeRunner records keyboard steps instead of sending them.
type fakeRunner struct {
	steps  []schemas.NavigationStep
	failOn func(step schemas.NavigationStep) error
}

func (r *fakeRunner) Execute(_ context.Context, step schemas.NavigationStep) error {
	r.steps = append(r.steps, step)
	if r.failOn != nil {
		return r.failOn(step)
	}
	return nil
}

func (r *fakeRunner) ExecuteAll(ctx context.Context, steps []schemas.NavigationStep) error {
	for _, step := range steps {
		if err := r.Execute(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

type focusResult struct {
	ref schemas.ElementRef
	err error
}

// fakeTree is a scriptable TreeQuery double.
type fakeTree struct {
	byTag       map[string][]schemas.ElementRef
	byName      map[string]schemas.ElementRef
	attrs       map[schemas.ElementRef]map[string]string
	attrErr     map[schemas.ElementRef]error
	texts       map[schemas.ElementRef]string
	focusScript []focusResult

	clicked    []schemas.ElementRef
	cleared    []schemas.ElementRef
	sent       map[schemas.ElementRef][]string
	clickErr   map[schemas.ElementRef]error
	findAllErr map[string]error
	count      int
}

func newFakeTree() *fakeTree {
	return &fakeTree{
		byTag:      map[string][]schemas.ElementRef{},
		byName:     map[string]schemas.ElementRef{},
		attrs:      map[schemas.ElementRef]map[string]string{},
		attrErr:    map[schemas.ElementRef]error{},
		texts:      map[schemas.ElementRef]string{},
		sent:       map[schemas.ElementRef][]string{},
		clickErr:   map[schemas.ElementRef]error{},
		findAllErr: map[string]error{},
	}
}

// add registers an element under a control type with the given name.
func (f *fakeTree) add(tag string, ref schemas.ElementRef, name string) {
	f.byTag[tag] = append(f.byTag[tag], ref)
	f.setAttr(ref, "Name", name)
}

func (f *fakeTree) setAttr(ref schemas.ElementRef, name, value string) {
	if f.attrs[ref] == nil {
		f.attrs[ref] = map[string]string{}
	}
	f.attrs[ref][name] = value
}

func (f *fakeTree) FindByName(_ context.Context, name string) (schemas.ElementRef, error) {
	if ref, ok := f.byName[name]; ok {
		return ref, nil
	}
	return "", schemas.ErrNoSuchElement
}

func (f *fakeTree) FindAllByTag(_ context.Context, controlType string) ([]schemas.ElementRef, error) {
	if err := f.findAllErr[controlType]; err != nil {
		return nil, err
	}
	return f.byTag[controlType], nil
}

func (f *fakeTree) Attribute(_ context.Context, el schemas.ElementRef, name string) (string, error) {
	if err, ok := f.attrErr[el]; ok {
		return "", err
	}
	return f.attrs[el][name], nil
}

func (f *fakeTree) Text(_ context.Context, el schemas.ElementRef) (string, error) {
	return f.texts[el], nil
}

func (f *fakeTree) Click(_ context.Context, el schemas.ElementRef) error {
	if err, ok := f.clickErr[el]; ok {
		return err
	}
	f.clicked = append(f.clicked, el)
	return nil
}

func (f *fakeTree) Clear(_ context.Context, el schemas.ElementRef) error {
	f.cleared = append(f.cleared, el)
	return nil
}

func (f *fakeTree) SendText(_ context.Context, el schemas.ElementRef, text string) error {
	f.sent[el] = append(f.sent[el], text)
	return nil
}

// ActiveElement replays the scripted focus order; the last entry repeats.
func (f *fakeTree) ActiveElement(_ context.Context) (schemas.ElementRef, error) {
	if len(f.focusScript) == 0 {
		return "", schemas.ErrNoSuchElement
	}
	res := f.focusScript[0]
	if len(f.focusScript) > 1 {
		f.focusScript = f.focusScript[1:]
	}
	return res.ref, res.err
}

func (f *fakeTree) ElementCount(_ context.Context) (int, error) {
	return f.count, nil
}

// instantSettle records requested settle durations without waiting.
func instantSettle(sink *[]time.Duration) func(context.Context, time.Duration) {
	return func(_ context.Context, d time.Duration) {
		*sink = append(*sink, d)
	}
}

func menuTextStep(original string) schemas.NavigationStep {
	return schemas.NavigationStep{
		Kind:     schemas.StepMenuText,
		Raw:      original,
		Value:    strings.ToLower(original),
		Original: original,
	}
}

func menuItemStep(original string) schemas.NavigationStep {
	return schemas.NavigationStep{
		Kind:     schemas.StepMenuItemText,
		Raw:      original,
		Value:    strings.ToLower(original),
		Original: original,
	}
}

func TestForType(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	tree := newFakeTree()
	logger := zaptest.NewLogger(t)

	tests := []struct {
		appType    schemas.ApplicationType
		wantFamily schemas.StrategyFamily
	}{
		{schemas.AppJava, schemas.FamilyJava},
		{schemas.AppDotNetWPF, schemas.FamilyDotNet},
		{schemas.AppDotNetWinForms, schemas.FamilyDotNet},
		{schemas.AppUWP, schemas.FamilyDotNet},
		{schemas.AppWin32, schemas.FamilyWin32},
		{schemas.AppWin32Dialog, schemas.FamilyWin32},
		{schemas.AppUnknown, schemas.FamilyWin32},
	}

	for _, tc := range tests {
		nav := ForType(tc.appType, runner, tree, logger)
		require.NotNil(t, nav, "type %s", tc.appType)
		assert.Equal(t, tc.wantFamily, nav.Family(), "type %s", tc.appType)
	}
}

func TestFindFirstByText(t *testing.T) {
	t.Parallel()

	t.Run("exact match beats substring", func(t *testing.T) {
		t.Parallel()
		tree := newFakeTree()
		tree.add("Menu", "m1", "File Menu")
		tree.add("Menu", "m2", "File")

		ref, err := findFirstByText(context.Background(), tree, "Menu", "file")
		require.NoError(t, err)
		assert.Equal(t, schemas.ElementRef("m2"), ref)
	})

	t.Run("substring match is case insensitive", func(t *testing.T) {
		t.Parallel()
		tree := newFakeTree()
		tree.add("MenuItem", "i1", "Create New Project...")

		ref, err := findFirstByText(context.Background(), tree, "MenuItem", "new project")
		require.NoError(t, err)
		assert.Equal(t, schemas.ElementRef("i1"), ref)
	})

	t.Run("unreadable elements are skipped", func(t *testing.T) {
		t.Parallel()
		tree := newFakeTree()
		tree.add("Menu", "broken", "File")
		tree.attrErr["broken"] = assert.AnError
		tree.add("Menu", "ok", "File")

		ref, err := findFirstByText(context.Background(), tree, "Menu", "file")
		require.NoError(t, err)
		assert.Equal(t, schemas.ElementRef("ok"), ref)
	})

	t.Run("no match reports ErrNoSuchElement", func(t *testing.T) {
		t.Parallel()
		tree := newFakeTree()
		tree.add("Menu", "m1", "Edit")

		_, err := findFirstByText(context.Background(), tree, "Menu", "file")
		assert.ErrorIs(t, err, schemas.ErrNoSuchElement)
	})

	t.Run("empty names never substring match", func(t *testing.T) {
		t.Parallel()
		tree := newFakeTree()
		tree.add("Menu", "anon", "")

		_, err := findFirstByText(context.Background(), tree, "Menu", "file")
		assert.ErrorIs(t, err, schemas.ErrNoSuchElement)
	})
}
