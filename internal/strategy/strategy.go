// -- internal/strategy/strategy.go --

// Package strategy resolves text navigation steps (menu roots and menu
// items) against a live window. Each UI framework family gets its own
// resolution tactic: Java menus are invisible to the accessibility tree and
// must be walked by keyboard, while .NET and Win32 menus can usually be
// found in the tree and clicked, with a keyboard fallback when they cannot.
package strategy

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

const (
	// menuOpenSettle is how long a menu gets to finish opening after the
	// keystroke or click that should have opened it.
	menuOpenSettle = 1 * time.Second

	// postClickSettle follows every tree-lookup click.
	postClickSettle = 500 * time.Millisecond

	// selectionSettle follows activating a found menu item, giving the
	// application time to surface whatever the item triggers.
	selectionSettle = 1 * time.Second
)

// StepRunner executes keyboard steps. Satisfied by *keyexec.Executor.
type StepRunner interface {
	Execute(ctx context.Context, step schemas.NavigationStep) error
	ExecuteAll(ctx context.Context, steps []schemas.NavigationStep) error
}

// TextNavigator resolves one menu_text or menu_item_text step against the
// live window. Implementations return an error when the step could not be
// resolved; the caller decides what that means for the rest of the path.
type TextNavigator interface {
	ResolveText(ctx context.Context, step schemas.NavigationStep) error
	Family() schemas.StrategyFamily
}

// ForType returns the navigator matching a detected application type.
// Selection happens once per connection. Unknown types get the Win32
// strategy: tree lookup with a keyboard fallback is the least damaging
// guess for a window nothing else recognized.
func ForType(appType schemas.ApplicationType, runner StepRunner, tree schemas.TreeQuery, logger *zap.Logger) TextNavigator {
	switch appType.Family() {
	case schemas.FamilyJava:
		return NewJava(runner, tree, logger)
	case schemas.FamilyDotNet:
		return NewDotNet(runner, tree, logger)
	default:
		return NewWin32(runner, tree, logger)
	}
}

// keyCombo builds a synthetic key_combination step for a strategy-issued
// shortcut.
func keyCombo(modifiers []string, key string) schemas.NavigationStep {
	return schemas.NavigationStep{
		Kind:      schemas.StepKeyCombination,
		Raw:       strings.Join(append(append([]string{}, modifiers...), key), "+"),
		Key:       key,
		Modifiers: modifiers,
	}
}

// keyPress builds a synthetic key_single step.
func keyPress(key string) schemas.NavigationStep {
	return schemas.NavigationStep{
		Kind: schemas.StepKeySingle,
		Raw:  key,
		Key:  key,
	}
}

// firstLetter returns the lowercased first rune of s, or "" when s is
// empty.
func firstLetter(s string) string {
	for _, r := range s {
		return strings.ToLower(string(r))
	}
	return ""
}

// findFirstByText fetches all elements of one control type and picks the
// best text match: case-insensitive exact name first, then case-insensitive
// substring. Element reads that fail are skipped, not fatal; the tree
// mutates under us constantly.
func findFirstByText(ctx context.Context, tree schemas.TreeQuery, tag, text string) (schemas.ElementRef, error) {
	refs, err := tree.FindAllByTag(ctx, tag)
	if err != nil {
		return "", err
	}

	type namedRef struct {
		ref  schemas.ElementRef
		name string
	}
	candidates := make([]namedRef, 0, len(refs))
	for _, ref := range refs {
		name, err := tree.Attribute(ctx, ref, "Name")
		if err != nil {
			continue
		}
		candidates = append(candidates, namedRef{ref: ref, name: strings.ToLower(name)})
	}

	target := strings.ToLower(text)
	for _, c := range candidates {
		if c.name == target {
			return c.ref, nil
		}
	}
	for _, c := range candidates {
		if c.name != "" && strings.Contains(c.name, target) {
			return c.ref, nil
		}
	}
	return "", schemas.ErrNoSuchElement
}

// sleepContext blocks for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
