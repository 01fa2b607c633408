// -- internal/strategy/java.go --
package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

// javaScanCeiling bounds the focus-walk over an open menu. Swing menus
// rarely hold more entries than this, and an unbounded walk would spin
// forever on a menu that wraps around.
const javaScanCeiling = 15

// javaMnemonics maps menu root names to the Alt-mnemonic letter Swing
// applications conventionally register for them.
var javaMnemonics = map[string]string{
	"file":          "f",
	"edit":          "e",
	"view":          "v",
	"actions":       "a",
	"configuration": "c",
	"config":        "c",
	"help":          "h",
	"tools":         "t",
	"window":        "w",
}

// Java navigates Swing menus by keyboard alone. Swing does not publish its
// menu structure to the accessibility tree, so the only readable signal is
// the text of whichever item currently holds focus.
type Java struct {
	runner StepRunner
	tree   schemas.TreeQuery
	logger *zap.Logger

	settle  func(ctx context.Context, d time.Duration)
	maxScan int
}

// NewJava returns the Swing menu navigator.
func NewJava(runner StepRunner, tree schemas.TreeQuery, logger *zap.Logger) *Java {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Java{
		runner:  runner,
		tree:    tree,
		logger:  logger,
		settle:  sleepContext,
		maxScan: javaScanCeiling,
	}
}

// Family identifies this strategy's framework family.
func (s *Java) Family() schemas.StrategyFamily { return schemas.FamilyJava }

// ResolveText opens a menu root via its Alt mnemonic or walks an open menu
// looking for an item.
func (s *Java) ResolveText(ctx context.Context, step schemas.NavigationStep) error {
	switch step.Kind {
	case schemas.StepMenuText:
		return s.openMenu(ctx, step)
	case schemas.StepMenuItemText:
		return s.selectItem(ctx, step)
	default:
		return fmt.Errorf("java: step kind %q is not a text step", step.Kind)
	}
}

func (s *Java) openMenu(ctx context.Context, step schemas.NavigationStep) error {
	letter, ok := javaMnemonics[step.Value]
	if !ok {
		return fmt.Errorf("java: no mnemonic for menu %q", step.Original)
	}

	s.logger.Debug("Opening menu via mnemonic.",
		zap.String("menu", step.Original),
		zap.String("mnemonic", "alt+"+letter))

	if err := s.runner.Execute(ctx, keyCombo([]string{"alt"}, letter)); err != nil {
		return fmt.Errorf("java: open menu %q: %w", step.Original, err)
	}
	s.settle(ctx, menuOpenSettle)
	return nil
}

// selectItem walks the open menu with Down-arrow, reading the focused
// item's text each stop. The walk trusts the menu's own focus order; a
// transient unreadable focus is skipped, not fatal. On exhaustion the menu
// is escaped closed so the window is not left with a dangling menu.
func (s *Java) selectItem(ctx context.Context, step schemas.NavigationStep) error {
	target := step.Value

	for attempt := 1; attempt <= s.maxScan; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, err := s.focusedText(ctx)
		if err != nil {
			s.logger.Debug("Focused element unreadable, retrying.",
				zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		s.logger.Debug("Scanning menu item.",
			zap.Int("attempt", attempt), zap.String("focused", text))

		if strings.Contains(strings.ToLower(text), target) {
			if err := s.runner.Execute(ctx, keyPress("enter")); err != nil {
				return fmt.Errorf("java: activate item %q: %w", step.Original, err)
			}
			s.settle(ctx, selectionSettle)
			return nil
		}

		if err := s.runner.Execute(ctx, keyPress("down")); err != nil {
			return fmt.Errorf("java: advance scan: %w", err)
		}
	}

	// Close the abandoned menu before reporting failure.
	if err := s.runner.Execute(ctx, keyPress("escape")); err != nil {
		s.logger.Warn("Could not escape out of menu after failed scan.", zap.Error(err))
	}
	return fmt.Errorf("java: item %q not found after %d attempts", step.Original, s.maxScan)
}

// focusedText reads the display text of the focused element, preferring the
// accessible name, then the element text, then the automation id.
func (s *Java) focusedText(ctx context.Context) (string, error) {
	ref, err := s.tree.ActiveElement(ctx)
	if err != nil {
		return "", err
	}

	if name, err := s.tree.Attribute(ctx, ref, "Name"); err == nil && name != "" {
		return name, nil
	}
	if text, err := s.tree.Text(ctx, ref); err == nil && text != "" {
		return text, nil
	}
	if id, err := s.tree.Attribute(ctx, ref, "AutomationId"); err == nil && id != "" {
		return id, nil
	}
	return "", nil
}
