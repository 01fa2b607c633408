// -- internal/strategy/dotnet.go --
package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

// DotNet navigates WPF, WinForms and UWP menus. These frameworks publish
// Menu and MenuItem elements to the accessibility tree, so the first tier
// is a tree lookup plus click; when the tree comes up empty the strategy
// falls back to the menu's conventional keyboard mnemonic.
type DotNet struct {
	runner StepRunner
	tree   schemas.TreeQuery
	logger *zap.Logger

	settle func(ctx context.Context, d time.Duration)
}

// NewDotNet returns the .NET family menu navigator.
func NewDotNet(runner StepRunner, tree schemas.TreeQuery, logger *zap.Logger) *DotNet {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DotNet{
		runner: runner,
		tree:   tree,
		logger: logger,
		settle: sleepContext,
	}
}

// Family identifies this strategy's framework family.
func (s *DotNet) Family() schemas.StrategyFamily { return schemas.FamilyDotNet }

// ResolveText resolves a text step: tree lookup first, keyboard fallback
// second.
func (s *DotNet) ResolveText(ctx context.Context, step schemas.NavigationStep) error {
	switch step.Kind {
	case schemas.StepMenuText:
		return s.openMenu(ctx, step)
	case schemas.StepMenuItemText:
		return s.selectItem(ctx, step)
	default:
		return fmt.Errorf("dotnet: step kind %q is not a text step", step.Kind)
	}
}

func (s *DotNet) openMenu(ctx context.Context, step schemas.NavigationStep) error {
	if err := s.clickByText(ctx, "Menu", step.Original); err == nil {
		return nil
	} else if !errors.Is(err, schemas.ErrNoSuchElement) {
		s.logger.Debug("Menu tree lookup errored, falling back to keyboard.",
			zap.String("menu", step.Original), zap.Error(err))
	}

	letter := firstLetter(step.Value)
	if letter == "" {
		return fmt.Errorf("dotnet: menu %q has no mnemonic letter", step.Original)
	}

	s.logger.Debug("Menu not in tree, using Alt mnemonic.",
		zap.String("menu", step.Original), zap.String("mnemonic", "alt+"+letter))

	if err := s.runner.Execute(ctx, keyCombo([]string{"alt"}, letter)); err != nil {
		return fmt.Errorf("dotnet: open menu %q: %w", step.Original, err)
	}
	s.settle(ctx, menuOpenSettle)
	return nil
}

func (s *DotNet) selectItem(ctx context.Context, step schemas.NavigationStep) error {
	if err := s.clickByText(ctx, "MenuItem", step.Original); err == nil {
		return nil
	} else if !errors.Is(err, schemas.ErrNoSuchElement) {
		s.logger.Debug("Menu item tree lookup errored, falling back to keyboard.",
			zap.String("item", step.Original), zap.Error(err))
	}

	letter := firstLetter(step.Value)
	if letter == "" {
		return fmt.Errorf("dotnet: item %q has no mnemonic letter", step.Original)
	}

	s.logger.Debug("Menu item not in tree, typing its first letter.",
		zap.String("item", step.Original), zap.String("letter", letter))

	if err := s.runner.Execute(ctx, keyPress(letter)); err != nil {
		return fmt.Errorf("dotnet: select item %q: %w", step.Original, err)
	}
	s.settle(ctx, postClickSettle)
	return nil
}

// clickByText finds the best name match of one control type and clicks it.
func (s *DotNet) clickByText(ctx context.Context, tag, text string) error {
	ref, err := findFirstByText(ctx, s.tree, tag, text)
	if err != nil {
		return err
	}
	if err := s.tree.Click(ctx, ref); err != nil {
		return fmt.Errorf("dotnet: click %s %q: %w", tag, text, err)
	}
	s.settle(ctx, postClickSettle)
	return nil
}
