// -- internal/scenario/scenario.go --

// Package scenario loads and runs YAML navigation scenarios: an ordered
// list of navigation paths against one window, with optional dialog
// expectations and form fills per step. One scenario drives one connection;
// parallelism only ever happens across scenarios.
package scenario

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

// Duration decodes "500ms" / "5s" style YAML scalars. Bare numbers are
// rejected; a unit is always required.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("bad duration %q (value needs a unit, e.g. \"5s\")", raw)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Scenario is one scripted run against one window. Exactly one of Window
// (title substring to attach to) and App (executable to launch) selects the
// target.
type Scenario struct {
	Name          string   `yaml:"name"`
	Window        string   `yaml:"window,omitempty"`
	App           string   `yaml:"app,omitempty"`
	DialogTimeout Duration `yaml:"dialog_timeout,omitempty"`
	Steps         []Step   `yaml:"steps"`
}

// Step is one action: either a navigation path (optionally followed by a
// dialog expectation and a form fill) or a plain pause.
type Step struct {
	Navigate     string            `yaml:"navigate,omitempty"`
	ExpectDialog string            `yaml:"expect_dialog,omitempty"`
	Fill         []string          `yaml:"fill,omitempty"`
	FillNamed    map[string]string `yaml:"fill_named,omitempty"`
	Pause        Duration          `yaml:"pause,omitempty"`
}

// expectableDialogKinds are the classifications a step may assert on. The
// error kind is excluded: it describes a broken query layer, not a UI
// state a scenario can meaningfully wait for.
var expectableDialogKinds = map[string]struct{}{
	string(schemas.DialogNone):        {},
	string(schemas.DialogSingleInput): {},
	string(schemas.DialogMultiInput):  {},
	string(schemas.DialogButtons):     {},
	string(schemas.DialogUnknown):     {},
}

// Validate checks structural rules the YAML schema cannot express.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return errors.New("scenario has no name")
	}
	switch {
	case s.Window == "" && s.App == "":
		return fmt.Errorf("scenario %q: needs a window title or an app path", s.Name)
	case s.Window != "" && s.App != "":
		return fmt.Errorf("scenario %q: window and app are mutually exclusive", s.Name)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %q: has no steps", s.Name)
	}

	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("scenario %q: step %d: %w", s.Name, i+1, err)
		}
	}
	return nil
}

func (step Step) validate() error {
	hasNavigate := step.Navigate != ""
	hasPause := step.Pause > 0

	switch {
	case !hasNavigate && !hasPause:
		return errors.New("needs a navigate path or a pause")
	case hasNavigate && hasPause:
		return errors.New("navigate and pause are mutually exclusive")
	}

	if !hasNavigate {
		if step.ExpectDialog != "" || len(step.Fill) > 0 || len(step.FillNamed) > 0 {
			return errors.New("dialog expectations and fills require a navigate path")
		}
		return nil
	}

	if len(step.Fill) > 0 && len(step.FillNamed) > 0 {
		return errors.New("fill and fill_named are mutually exclusive")
	}
	if step.ExpectDialog != "" {
		if _, ok := expectableDialogKinds[step.ExpectDialog]; !ok {
			return fmt.Errorf("unknown dialog kind %q", step.ExpectDialog)
		}
	}
	return nil
}
