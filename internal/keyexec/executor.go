// -- internal/keyexec/executor.go --

// Package keyexec turns parsed keyboard steps into keystrokes on a live
// driver session. It owns the timing between presses and the split between
// symbolic keys and literal text; what a given key does inside the target
// window is none of its business.
package keyexec

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

const (
	// settleDelay gives the target window time to absorb a keystroke before
	// the next step lands. Desktop menus animate; sending faster than this
	// drops input on slower apps.
	settleDelay = 300 * time.Millisecond

	// repeatDelay spaces out the presses of a repeated key so menu
	// highlight tracking keeps up with each one.
	repeatDelay = 200 * time.Millisecond
)

// Executor drives a KeySender through the keyboard step kinds of the
// navigation language. Text steps (menu_text, menu_item_text) belong to the
// navigator and are rejected here.
type Executor struct {
	sender schemas.KeySender
	logger *zap.Logger

	// settle pauses between keystrokes. Tests swap it out to run instantly.
	settle func(ctx context.Context, d time.Duration)
}

// New returns an Executor sending through the given sender.
func New(sender schemas.KeySender, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		sender: sender,
		logger: logger,
		settle: sleepContext,
	}
}

// Execute performs one keyboard step against the session.
func (e *Executor) Execute(ctx context.Context, step schemas.NavigationStep) error {
	e.logger.Debug("Executing keyboard step.", zap.String("step", step.Describe()))

	switch step.Kind {
	case schemas.StepKeySingle:
		return e.executeSingle(ctx, step)
	case schemas.StepKeyCombination:
		return e.executeCombination(ctx, step)
	case schemas.StepKeyRepeat:
		return e.executeRepeat(ctx, step)
	default:
		return fmt.Errorf("keyexec: step kind %q is not a keyboard step", step.Kind)
	}
}

// ExecuteAll performs keyboard steps in order, stopping at the first
// failure.
func (e *Executor) ExecuteAll(ctx context.Context, steps []schemas.NavigationStep) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Execute(ctx, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Describe(), err)
		}
	}
	return nil
}

func (e *Executor) executeSingle(ctx context.Context, step schemas.NavigationStep) error {
	if step.Key == "" {
		e.logger.Debug("Empty key step, nothing to send.", zap.String("raw", step.Raw))
		return nil
	}
	if err := e.press(ctx, step.Key); err != nil {
		return err
	}
	e.settle(ctx, settleDelay)
	return nil
}

func (e *Executor) executeCombination(ctx context.Context, step schemas.NavigationStep) error {
	held := make([]string, 0, len(step.Modifiers))
	for _, mod := range step.Modifiers {
		if err := e.sender.KeyDown(ctx, mod); err != nil {
			return fmt.Errorf("keyexec: hold %q: %w", mod, err)
		}
		held = append(held, mod)
	}

	// An empty key still cycles the modifiers down and back up.
	if step.Key != "" {
		if err := e.press(ctx, step.Key); err != nil {
			// Modifiers stay held here. The session-level ReleaseAll that
			// follows every navigation is what cleans this up.
			return err
		}
	}

	var firstErr error
	for i := len(held) - 1; i >= 0; i-- {
		if err := e.sender.KeyUp(ctx, held[i]); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("keyexec: release %q: %w", held[i], err)
		}
	}
	if firstErr != nil {
		return firstErr
	}

	e.settle(ctx, settleDelay)
	return nil
}

func (e *Executor) executeRepeat(ctx context.Context, step schemas.NavigationStep) error {
	canonical, ok := resolveKey(step.Key)
	if !ok {
		// Typing an unknown key Count times would land literal characters in
		// the window, so unlike a single press there is no literal fallback.
		return fmt.Errorf("keyexec: cannot repeat unknown key %q", step.Key)
	}
	for i := 0; i < step.Count; i++ {
		if err := e.sender.PressKey(ctx, canonical); err != nil {
			return fmt.Errorf("keyexec: press %q (%d/%d): %w", canonical, i+1, step.Count, err)
		}
		e.settle(ctx, repeatDelay)
	}
	return nil
}

// press sends one key token, symbolically when the name is known and as
// literal characters otherwise.
func (e *Executor) press(ctx context.Context, key string) error {
	if canonical, ok := resolveKey(key); ok {
		if err := e.sender.PressKey(ctx, canonical); err != nil {
			return fmt.Errorf("keyexec: press %q: %w", canonical, err)
		}
		return nil
	}
	if err := e.sender.SendKeys(ctx, key); err != nil {
		return fmt.Errorf("keyexec: type %q: %w", key, err)
	}
	return nil
}

// sleepContext blocks for d or until ctx is cancelled, whichever comes
// first.
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
