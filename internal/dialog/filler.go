// -- internal/dialog/filler.go --
package dialog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

const (
	// fieldFocusSettle follows the click that focuses a field.
	fieldFocusSettle = 200 * time.Millisecond

	// fieldValueSettle follows writing a field's value.
	fieldValueSettle = 300 * time.Millisecond
)

// Filler writes values into the input fields of a classified dialog. Fills
// are not transactional: a failure aborts the call, but fields written
// before the failure keep their values.
type Filler struct {
	tree   schemas.TreeQuery
	logger *zap.Logger

	settle func(ctx context.Context, d time.Duration)
}

// NewFiller returns a Filler writing through tree.
func NewFiller(tree schemas.TreeQuery, logger *zap.Logger) *Filler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filler{
		tree:   tree,
		logger: logger,
		settle: sleepContext,
	}
}

// FillOrdered writes values into input fields by position. Extra values
// beyond the field count are ignored; too few values leave the trailing
// fields untouched.
func (f *Filler) FillOrdered(ctx context.Context, info schemas.DialogInfo, values []string) error {
	if len(info.Inputs) == 0 {
		return errors.New("dialog: no input fields to fill")
	}
	for i, value := range values {
		if i >= len(info.Inputs) {
			f.logger.Warn("More values than input fields, extras ignored.",
				zap.Int("fields", len(info.Inputs)), zap.Int("values", len(values)))
			break
		}
		if err := f.fillField(ctx, info.Inputs[i], value); err != nil {
			return fmt.Errorf("dialog: field %d: %w", i+1, err)
		}
	}
	return nil
}

// FillNamed writes values into input fields matched by name. Each key is
// matched case-insensitively as a substring of the field names; the first
// matching field wins. Keys matching nothing are logged and skipped. Keys
// are processed in sorted order so repeated runs fill identically.
func (f *Filler) FillNamed(ctx context.Context, info schemas.DialogInfo, values map[string]string) error {
	if len(info.Inputs) == 0 {
		return errors.New("dialog: no input fields to fill")
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, ok := matchField(info.Inputs, key)
		if !ok {
			f.logger.Warn("No input field matches value key, skipping.",
				zap.String("key", key))
			continue
		}
		if err := f.fillField(ctx, field, values[key]); err != nil {
			return fmt.Errorf("dialog: field %q: %w", key, err)
		}
	}
	return nil
}

// matchField finds the first field whose name contains key, ignoring case.
func matchField(fields []schemas.InputFieldRef, key string) (schemas.InputFieldRef, bool) {
	needle := strings.ToLower(key)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field.Name), needle) {
			return field, true
		}
	}
	return schemas.InputFieldRef{}, false
}

// fillField focuses, clears and writes one field.
func (f *Filler) fillField(ctx context.Context, field schemas.InputFieldRef, value string) error {
	f.logger.Debug("Filling input field.",
		zap.String("name", field.Name),
		zap.String("control_type", field.ControlType))

	if err := f.tree.Click(ctx, field.ID); err != nil {
		return fmt.Errorf("focus: %w", err)
	}
	f.settle(ctx, fieldFocusSettle)

	if err := f.tree.Clear(ctx, field.ID); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	if err := f.tree.SendText(ctx, field.ID, value); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	f.settle(ctx, fieldValueSettle)
	return nil
}
