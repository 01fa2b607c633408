// -- internal/dialog/classifier.go --

// Package dialog detects and fills the transient surfaces a menu action
// leaves behind. Detection is indirect: the driver offers no "dialog
// opened" event, so growth in the window's element count stands in for one.
package dialog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

const (
	// pollInterval paces the growth checks while waiting for a dialog.
	pollInterval = 500 * time.Millisecond

	// growthDelta is how many elements beyond the baseline count as "a
	// dialog appeared" rather than ordinary tree churn.
	growthDelta = 3

	// loadSettle gives a detected dialog time to finish populating before
	// its controls are inventoried.
	loadSettle = 1 * time.Second
)

// inputTags are the control types that can receive text, in inventory
// order.
var inputTags = []string{"Edit", "Text", "ComboBox"}

// Classifier watches the accessibility tree for a dialog and inventories
// whatever appears. Results are never cached: the tree mutates between
// navigations, so each classification samples it fresh.
type Classifier struct {
	tree   schemas.TreeQuery
	logger *zap.Logger

	settle   func(ctx context.Context, d time.Duration)
	interval time.Duration
}

// NewClassifier returns a Classifier reading through tree.
func NewClassifier(tree schemas.TreeQuery, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		tree:     tree,
		logger:   logger,
		settle:   sleepContext,
		interval: pollInterval,
	}
}

// Classify waits up to timeout for the tree to grow past the baseline
// element count, then inventories and classifies the controls on screen.
// baseline is the element count from before the navigation that might have
// opened the dialog; pass a negative baseline to sample the current count
// instead. No growth within timeout is a valid outcome (DialogNone), not an
// error.
func (c *Classifier) Classify(ctx context.Context, baseline int, timeout time.Duration) schemas.DialogInfo {
	if baseline < 0 {
		count, err := c.tree.ElementCount(ctx)
		if err != nil {
			c.logger.Warn("Could not sample baseline element count.", zap.Error(err))
			count = 0
		}
		baseline = count
	}

	if !c.waitForGrowth(ctx, baseline, timeout) {
		return schemas.DialogInfo{Kind: schemas.DialogNone}
	}

	c.settle(ctx, loadSettle)
	return c.inventory(ctx)
}

// waitForGrowth polls the element count until it exceeds baseline by more
// than growthDelta or the deadline passes. Count failures are transient
// tree churn and keep the poll alive.
func (c *Classifier) waitForGrowth(ctx context.Context, baseline int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return false
		}

		count, err := c.tree.ElementCount(ctx)
		if err != nil {
			c.logger.Debug("Element count unavailable, still waiting.", zap.Error(err))
		} else if count > baseline+growthDelta {
			c.logger.Debug("Dialog growth detected.",
				zap.Int("baseline", baseline), zap.Int("count", count))
			return true
		}

		if !time.Now().Before(deadline) {
			return false
		}
		c.settle(ctx, c.interval)
	}
}

func (c *Classifier) inventory(ctx context.Context) schemas.DialogInfo {
	inputs, inputFailures := c.collectInputs(ctx)
	buttons, buttonErr := c.collectButtons(ctx)

	if inputFailures == len(inputTags) && buttonErr != nil {
		return schemas.DialogInfo{
			Kind:    schemas.DialogError,
			Failure: "every control query against the dialog failed",
		}
	}

	info := schemas.DialogInfo{Inputs: inputs, Buttons: buttons}
	switch {
	case len(inputs) >= 2:
		info.Kind = schemas.DialogMultiInput
	case len(inputs) == 1:
		info.Kind = schemas.DialogSingleInput
	case len(buttons) > 0:
		info.Kind = schemas.DialogButtons
	default:
		info.Kind = schemas.DialogUnknown
	}

	c.logger.Info("Dialog classified.",
		zap.String("kind", string(info.Kind)),
		zap.Int("inputs", len(inputs)),
		zap.Int("buttons", len(buttons)))
	return info
}

// collectInputs gathers keyboard-focusable text-capable controls. A failed
// query for one control type degrades to partial results; failures returns
// how many of the tag queries failed outright.
func (c *Classifier) collectInputs(ctx context.Context) (fields []schemas.InputFieldRef, failures int) {
	for _, tag := range inputTags {
		refs, err := c.tree.FindAllByTag(ctx, tag)
		if err != nil {
			failures++
			c.logger.Debug("Input query failed, continuing with partial results.",
				zap.String("control_type", tag), zap.Error(err))
			continue
		}
		for _, ref := range refs {
			focusable, err := c.tree.Attribute(ctx, ref, "IsKeyboardFocusable")
			if err != nil || focusable != "true" {
				continue
			}
			name, _ := c.tree.Attribute(ctx, ref, "Name")
			controlType, _ := c.tree.Attribute(ctx, ref, "ControlType")
			fields = append(fields, schemas.InputFieldRef{
				ID:          ref,
				Name:        name,
				ControlType: controlType,
			})
		}
	}
	return fields, failures
}

// collectButtons gathers every button with its enabled flag. Disabled
// buttons are recorded, not filtered; callers care which ones exist.
func (c *Classifier) collectButtons(ctx context.Context) ([]schemas.ButtonRef, error) {
	refs, err := c.tree.FindAllByTag(ctx, "Button")
	if err != nil {
		c.logger.Debug("Button query failed.", zap.Error(err))
		return nil, err
	}
	buttons := make([]schemas.ButtonRef, 0, len(refs))
	for _, ref := range refs {
		name, _ := c.tree.Attribute(ctx, ref, "Name")
		enabled, _ := c.tree.Attribute(ctx, ref, "IsEnabled")
		buttons = append(buttons, schemas.ButtonRef{
			ID:      ref,
			Name:    name,
			Enabled: enabled == "true",
		})
	}
	return buttons, nil
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
