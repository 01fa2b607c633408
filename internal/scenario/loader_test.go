// -- internal/scenario/loader_test.go --
package scenario

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// Verifies a full scenario file round-trips with durations, fills and
// pauses intact.
func TestLoadValidScenario(t *testing.T) {
	t.Parallel()
	path := writeScenario(t, "save_as.yaml", `
name: save under new name
window: Notepad
dialog_timeout: 2s
steps:
  - navigate: "File -> Save As"
    expect_dialog: single_input_form
    fill: ["report.txt"]
  - pause: 500ms
  - navigate: "{Enter}"
  - navigate: "Edit -> Find"
    fill_named:
      find what: needle
`)

	sc, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "save under new name", sc.Name)
	assert.Equal(t, "Notepad", sc.Window)
	assert.Equal(t, 2*time.Second, sc.DialogTimeout.Std())
	require.Len(t, sc.Steps, 4)

	assert.Equal(t, "File -> Save As", sc.Steps[0].Navigate)
	assert.Equal(t, "single_input_form", sc.Steps[0].ExpectDialog)
	assert.Equal(t, []string{"report.txt"}, sc.Steps[0].Fill)
	assert.Equal(t, 500*time.Millisecond, sc.Steps[1].Pause.Std())
	assert.Equal(t, map[string]string{"find what": "needle"}, sc.Steps[3].FillNamed)
}

// Verifies an unnamed scenario inherits the file's base name.
func TestLoadDefaultsNameFromFilename(t *testing.T) {
	t.Parallel()
	path := writeScenario(t, "smoke_test.yaml", `
window: Calculator
steps:
  - navigate: View
`)

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "smoke_test", sc.Name)
}

// Verifies typoed keys are rejected instead of silently ignored.
func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	path := writeScenario(t, "typo.yaml", `
window: Notepad
steps:
  - navigte: "File -> New"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "navigte")
}

// Verifies durations without a unit fail loudly.
func TestLoadRejectsUnitlessDuration(t *testing.T) {
	t.Parallel()
	path := writeScenario(t, "bad_pause.yaml", `
window: Notepad
steps:
  - pause: 5
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a unit")
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateRules(t *testing.T) {
	t.Parallel()
	navigate := Step{Navigate: "File"}

	cases := []struct {
		name    string
		sc      Scenario
		wantErr string
	}{
		{
			name:    "no target",
			sc:      Scenario{Name: "x", Steps: []Step{navigate}},
			wantErr: "window title or an app path",
		},
		{
			name:    "both targets",
			sc:      Scenario{Name: "x", Window: "a", App: "b", Steps: []Step{navigate}},
			wantErr: "mutually exclusive",
		},
		{
			name:    "no steps",
			sc:      Scenario{Name: "x", Window: "a"},
			wantErr: "no steps",
		},
		{
			name:    "step with nothing to do",
			sc:      Scenario{Name: "x", Window: "a", Steps: []Step{{}}},
			wantErr: "navigate path or a pause",
		},
		{
			name:    "step with navigate and pause",
			sc:      Scenario{Name: "x", Window: "a", Steps: []Step{{Navigate: "File", Pause: Duration(time.Second)}}},
			wantErr: "mutually exclusive",
		},
		{
			name:    "fill without navigate",
			sc:      Scenario{Name: "x", Window: "a", Steps: []Step{{Pause: Duration(time.Second), Fill: []string{"v"}}}},
			wantErr: "require a navigate",
		},
		{
			name:    "both fill forms",
			sc:      Scenario{Name: "x", Window: "a", Steps: []Step{{Navigate: "File", Fill: []string{"v"}, FillNamed: map[string]string{"k": "v"}}}},
			wantErr: "mutually exclusive",
		},
		{
			name:    "unknown dialog kind",
			sc:      Scenario{Name: "x", Window: "a", Steps: []Step{{Navigate: "File", ExpectDialog: "popup"}}},
			wantErr: `unknown dialog kind "popup"`,
		},
		{
			name: "valid pause only",
			sc:   Scenario{Name: "x", Window: "a", Steps: []Step{{Pause: Duration(time.Second)}}},
		},
		{
			name: "valid dialog expectation",
			sc:   Scenario{Name: "x", App: "b", Steps: []Step{{Navigate: "File", ExpectDialog: "button_dialog"}}},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.sc.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadAllStopsAtFirstBadFile(t *testing.T) {
	t.Parallel()
	good := writeScenario(t, "good.yaml", "window: a\nsteps:\n  - navigate: File\n")
	bad := writeScenario(t, "bad.yaml", "steps: []\n")

	_, err := LoadAll([]string{good, bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")

	scenarios, err := LoadAll([]string{good})
	require.NoError(t, err)
	assert.Len(t, scenarios, 1)
}
