// -- internal/strategy/win32.go --
package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

// Win32 navigates classic Win32 menus, and doubles as the strategy for
// windows nothing classified. The tiering mirrors DotNet with one extra
// probe: old Win32 apps often expose menu entries as untyped named
// elements, so a generic name lookup runs before giving up on the tree.
type Win32 struct {
	runner StepRunner
	tree   schemas.TreeQuery
	logger *zap.Logger

	settle func(ctx context.Context, d time.Duration)
}

// NewWin32 returns the Win32 menu navigator.
func NewWin32(runner StepRunner, tree schemas.TreeQuery, logger *zap.Logger) *Win32 {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Win32{
		runner: runner,
		tree:   tree,
		logger: logger,
		settle: sleepContext,
	}
}

// Family identifies this strategy's framework family.
func (s *Win32) Family() schemas.StrategyFamily { return schemas.FamilyWin32 }

// ResolveText resolves a text step: typed tree lookup, then a generic name
// probe for menu roots, then keyboard.
func (s *Win32) ResolveText(ctx context.Context, step schemas.NavigationStep) error {
	switch step.Kind {
	case schemas.StepMenuText:
		return s.openMenu(ctx, step)
	case schemas.StepMenuItemText:
		return s.selectItem(ctx, step)
	default:
		return fmt.Errorf("win32: step kind %q is not a text step", step.Kind)
	}
}

func (s *Win32) openMenu(ctx context.Context, step schemas.NavigationStep) error {
	if err := s.clickTyped(ctx, "Menu", step.Original); err == nil {
		return nil
	} else if !errors.Is(err, schemas.ErrNoSuchElement) {
		s.logger.Debug("Typed menu lookup errored.",
			zap.String("menu", step.Original), zap.Error(err))
	}

	// Second tier: any element carrying this exact name, whatever its
	// control type.
	if ref, err := s.tree.FindByName(ctx, step.Original); err == nil {
		if err := s.tree.Click(ctx, ref); err == nil {
			s.settle(ctx, postClickSettle)
			return nil
		}
		s.logger.Debug("Generic name match would not click.",
			zap.String("menu", step.Original))
	}

	letter := firstLetter(step.Value)
	if letter == "" {
		return fmt.Errorf("win32: menu %q has no mnemonic letter", step.Original)
	}

	s.logger.Debug("Menu not in tree, using Alt mnemonic.",
		zap.String("menu", step.Original), zap.String("mnemonic", "alt+"+letter))

	if err := s.runner.Execute(ctx, keyCombo([]string{"alt"}, letter)); err != nil {
		return fmt.Errorf("win32: open menu %q: %w", step.Original, err)
	}
	s.settle(ctx, menuOpenSettle)
	return nil
}

func (s *Win32) selectItem(ctx context.Context, step schemas.NavigationStep) error {
	if err := s.clickTyped(ctx, "MenuItem", step.Original); err == nil {
		return nil
	} else if !errors.Is(err, schemas.ErrNoSuchElement) {
		s.logger.Debug("Typed menu item lookup errored.",
			zap.String("item", step.Original), zap.Error(err))
	}

	letter := firstLetter(step.Value)
	if letter == "" {
		return fmt.Errorf("win32: item %q has no mnemonic letter", step.Original)
	}

	s.logger.Debug("Menu item not in tree, typing its first letter.",
		zap.String("item", step.Original), zap.String("letter", letter))

	if err := s.runner.Execute(ctx, keyPress(letter)); err != nil {
		return fmt.Errorf("win32: select item %q: %w", step.Original, err)
	}
	s.settle(ctx, postClickSettle)
	return nil
}

func (s *Win32) clickTyped(ctx context.Context, tag, text string) error {
	ref, err := findFirstByText(ctx, s.tree, tag, text)
	if err != nil {
		return err
	}
	if err := s.tree.Click(ctx, ref); err != nil {
		return fmt.Errorf("win32: click %s %q: %w", tag, text, err)
	}
	s.settle(ctx, postClickSettle)
	return nil
}
