// api/schemas/navigation.go
package schemas

import (
	"fmt"
	"strings"
	"time"
)

// StepKind identifies how a single navigation step must be executed.
type StepKind string

const (
	// StepKeySingle is one symbolic or literal key press.
	StepKeySingle StepKind = "key_single"
	// StepKeyCombination is a modifier chord, e.g. Alt+F.
	StepKeyCombination StepKind = "key_combination"
	// StepKeyRepeat is a navigation key pressed a fixed number of times.
	StepKeyRepeat StepKind = "key_repeat"
	// StepMenuText is a top-level menu resolved by text search.
	StepMenuText StepKind = "menu_text"
	// StepMenuItemText is a menu item resolved by text search.
	StepMenuItemText StepKind = "menu_item_text"
)

// Keyboard reports whether the step is handled by the keyboard executor.
func (k StepKind) Keyboard() bool {
	switch k {
	case StepKeySingle, StepKeyCombination, StepKeyRepeat:
		return true
	}
	return false
}

// Text reports whether the step is handled by a text-navigation strategy.
func (k StepKind) Text() bool {
	return k == StepMenuText || k == StepMenuItemText
}

// NavigationStep is one parsed unit of a navigation path. Steps are plain
// values and must not be mutated after parsing; the parser is the only
// producer.
type NavigationStep struct {
	Kind StepKind `json:"kind"`
	// Raw is the original token text, kept for diagnostics.
	Raw string `json:"raw"`
	// Key is set for key_single, key_combination and key_repeat.
	Key string `json:"key,omitempty"`
	// Modifiers is the ordered modifier list of a key_combination.
	Modifiers []string `json:"modifiers,omitempty"`
	// Count is the repeat count of a key_repeat step.
	Count int `json:"count,omitempty"`
	// Value is the lowercased search text of a menu step.
	Value string `json:"value,omitempty"`
	// Original is the case-preserved search text of a menu step.
	Original string `json:"original,omitempty"`
}

// Describe renders the step for logs and interactive output.
func (s NavigationStep) Describe() string {
	switch s.Kind {
	case StepKeySingle:
		return fmt.Sprintf("key '%s'", s.Key)
	case StepKeyCombination:
		if len(s.Modifiers) == 0 {
			return fmt.Sprintf("combination '%s'", s.Key)
		}
		return fmt.Sprintf("combination '%s+%s'", strings.Join(s.Modifiers, "+"), s.Key)
	case StepKeyRepeat:
		return fmt.Sprintf("key '%s' x%d", s.Key, s.Count)
	case StepMenuText:
		return fmt.Sprintf("menu %q", s.Original)
	case StepMenuItemText:
		return fmt.Sprintf("menu item %q", s.Original)
	}
	return fmt.Sprintf("unknown step %q", s.Raw)
}

// NavigationPath is an ordered step sequence produced from one path
// expression. Order is execution order; the parser never reorders or inserts
// steps.
type NavigationPath []NavigationStep

// Empty reports whether the path contains no executable steps. Callers must
// treat an empty path as "nothing to do", not as an error.
func (p NavigationPath) Empty() bool { return len(p) == 0 }

// NavigationResult reports what a completed (or aborted) navigation call
// observed. Success is signalled by the absence of an error from Navigate;
// ChangeDetected is an out-of-band signal that never influences it, so a
// stricter caller can decide to treat "no observable change" as a failure.
type NavigationResult struct {
	StepsPlanned  int `json:"steps_planned"`
	StepsExecuted int `json:"steps_executed"`
	// ElementsBefore and ElementsAfter are accessibility-tree element counts
	// sampled around the step sequence.
	ElementsBefore int           `json:"elements_before"`
	ElementsAfter  int           `json:"elements_after"`
	ChangeDetected bool          `json:"change_detected"`
	Duration       time.Duration `json:"duration"`
}
