// internal/windows/discovery.go

// Package windows discovers top-level desktop windows through a driver
// desktop session. Discovery happens at connection time only; once a
// navigation session is bound to a window, its handle never changes.
package windows

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

// ErrNotFound means no visible window matched the requested title.
var ErrNotFound = errors.New("no window matches title")

// Enumerator yields the raw desktop window list. Satisfied by a driver
// session created against the desktop root.
type Enumerator interface {
	Windows(ctx context.Context) ([]schemas.WindowInfo, error)
}

// Discovery filters and searches the desktop window list.
type Discovery struct {
	enum   Enumerator
	logger *zap.Logger
}

func New(enum Enumerator, logger *zap.Logger) *Discovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discovery{enum: enum, logger: logger}
}

// List returns the visible titled windows, sorted case-insensitively by
// title. Untitled windows are tool surfaces and trays a user cannot name,
// so they are dropped.
func (d *Discovery) List(ctx context.Context) ([]schemas.WindowInfo, error) {
	all, err := d.enum.Windows(ctx)
	if err != nil {
		return nil, fmt.Errorf("windows: enumerate: %w", err)
	}

	titled := make([]schemas.WindowInfo, 0, len(all))
	for _, w := range all {
		if strings.TrimSpace(w.Title) == "" {
			continue
		}
		titled = append(titled, w)
	}
	sort.SliceStable(titled, func(i, j int) bool {
		return strings.ToLower(titled[i].Title) < strings.ToLower(titled[j].Title)
	})

	d.logger.Debug("Enumerated desktop windows.",
		zap.Int("visible", len(all)),
		zap.Int("titled", len(titled)))
	return titled, nil
}

// FindByTitle resolves the first window whose title contains the given
// substring, compared case-insensitively over the sorted list so repeated
// lookups are deterministic.
func (d *Discovery) FindByTitle(ctx context.Context, substring string) (schemas.WindowInfo, error) {
	needle := strings.ToLower(strings.TrimSpace(substring))
	if needle == "" {
		return schemas.WindowInfo{}, errors.New("windows: title substring is empty")
	}

	titled, err := d.List(ctx)
	if err != nil {
		return schemas.WindowInfo{}, err
	}
	for _, w := range titled {
		if strings.Contains(strings.ToLower(w.Title), needle) {
			d.logger.Debug("Resolved window by title.",
				zap.String("query", substring),
				zap.String("title", w.Title),
				zap.String("handle", w.Handle))
			return w, nil
		}
	}
	return schemas.WindowInfo{}, fmt.Errorf("windows: %q: %w", substring, ErrNotFound)
}
