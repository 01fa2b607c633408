// internal/navlang/parser.go

// Package navlang implements the textual navigation mini-language used to
// describe menu and keyboard sequences, e.g.
//
//	File -> New Project
//	{Alt+F} -> Create Project
//	{Alt+F} -> {Down 2} -> {Enter}
//
// Segments are separated by "->". A segment wrapped in braces is a keyboard
// code: either a repeat ("{Down 3}"), a modifier combination ("{Ctrl+Shift+N}")
// or a single key ("{Enter}"). Any other segment is menu text, classified as a
// top-level menu when it matches the closed root set and as a menu item
// otherwise.
//
// The grammar is deliberately lenient: Parse never fails. Malformed segments
// degrade to fewer steps or to a literal menu-item search, so a zero-length
// result means "nothing to do" rather than "error". Inside a combination,
// tokens before the last that do not name a known modifier (including the
// empty tokens produced by "{Alt++F}") are dropped; a duplicated modifier is
// kept once; a trailing "+" yields a combination with an empty key, which the
// executor attempts as a modifier press with nothing in between.
package navlang

import (
	"strconv"
	"strings"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

// Separator splits a path expression into segments.
const Separator = "->"

// menuRoots is the closed set of recognized top-level menu names. Anything
// else is treated as a menu item search.
var menuRoots = map[string]struct{}{
	"file":          {},
	"edit":          {},
	"view":          {},
	"format":        {},
	"tools":         {},
	"help":          {},
	"window":        {},
	"actions":       {},
	"configuration": {},
}

// knownModifiers are the only tokens accepted as chord modifiers.
var knownModifiers = map[string]struct{}{
	"ctrl":  {},
	"alt":   {},
	"shift": {},
	"win":   {},
}

// repeatableKeys is the fixed vocabulary allowed in a repeat segment.
var repeatableKeys = map[string]struct{}{
	"up":     {},
	"down":   {},
	"left":   {},
	"right":  {},
	"tab":    {},
	"enter":  {},
	"escape": {},
}

// Parse turns a path expression into an ordered step sequence. It is pure and
// deterministic; parsing the same text twice yields identical steps. Empty and
// whitespace-only segments are skipped.
func Parse(text string) schemas.NavigationPath {
	var path schemas.NavigationPath
	for _, segment := range strings.Split(text, Separator) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		path = append(path, parseSegment(segment))
	}
	return path
}

// parseSegment classifies one trimmed, non-empty segment.
func parseSegment(segment string) schemas.NavigationStep {
	if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
		return parseKeyCode(segment)
	}
	return parseMenuText(segment)
}

// parseKeyCode handles a brace-wrapped keyboard segment. The raw token keeps
// its braces for diagnostics.
func parseKeyCode(segment string) schemas.NavigationStep {
	inner := strings.TrimSpace(segment[1 : len(segment)-1])

	if step, ok := parseRepeat(segment, inner); ok {
		return step
	}
	if strings.Contains(inner, "+") {
		return parseCombination(segment, inner)
	}
	return schemas.NavigationStep{
		Kind: schemas.StepKeySingle,
		Raw:  segment,
		Key:  strings.ToLower(inner),
	}
}

// parseRepeat matches "<Direction|Tab|Enter|Escape> <positive integer>",
// case-insensitively.
func parseRepeat(segment, inner string) (schemas.NavigationStep, bool) {
	fields := strings.Fields(inner)
	if len(fields) != 2 {
		return schemas.NavigationStep{}, false
	}
	key := strings.ToLower(fields[0])
	if _, ok := repeatableKeys[key]; !ok {
		return schemas.NavigationStep{}, false
	}
	count, err := strconv.Atoi(fields[1])
	if err != nil || count <= 0 {
		return schemas.NavigationStep{}, false
	}
	return schemas.NavigationStep{
		Kind:  schemas.StepKeyRepeat,
		Raw:   segment,
		Key:   key,
		Count: count,
	}, true
}

// parseCombination splits on "+", keeping recognized modifiers in written
// order and taking the trailing token as the key. There is no hard failure
// here: unknown and empty leading tokens are dropped, and a missing key
// produces a combination with an empty key.
func parseCombination(segment, inner string) schemas.NavigationStep {
	tokens := strings.Split(inner, "+")
	key := strings.ToLower(strings.TrimSpace(tokens[len(tokens)-1]))

	var mods []string
	seen := map[string]struct{}{}
	for _, token := range tokens[:len(tokens)-1] {
		mod := strings.ToLower(strings.TrimSpace(token))
		if _, ok := knownModifiers[mod]; !ok {
			continue
		}
		if _, dup := seen[mod]; dup {
			continue
		}
		seen[mod] = struct{}{}
		mods = append(mods, mod)
	}

	return schemas.NavigationStep{
		Kind:      schemas.StepKeyCombination,
		Raw:       segment,
		Key:       key,
		Modifiers: mods,
	}
}

// parseMenuText classifies a plain segment against the menu root set. The
// full trimmed text becomes the search value, so an unbalanced brace stays in
// the literal.
func parseMenuText(segment string) schemas.NavigationStep {
	kind := schemas.StepMenuItemText
	if _, ok := menuRoots[strings.ToLower(segment)]; ok {
		kind = schemas.StepMenuText
	}
	return schemas.NavigationStep{
		Kind:     kind,
		Raw:      segment,
		Value:    strings.ToLower(segment),
		Original: segment,
	}
}
