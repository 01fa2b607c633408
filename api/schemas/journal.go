package schemas

import "time"

// RunRecord is one journaled navigation run: one Navigate call against one
// connected window, successful or not.
type RunRecord struct {
	StartedAt      time.Time       `json:"started_at"`
	WindowTitle    string          `json:"window_title"`
	AppType        ApplicationType `json:"app_type"`
	Path           string          `json:"path"`
	StepsPlanned   int             `json:"steps_planned"`
	StepsExecuted  int             `json:"steps_executed"`
	Succeeded      bool            `json:"succeeded"`
	ChangeDetected bool            `json:"change_detected"`
	Duration       time.Duration   `json:"duration"`
	// Failure is the step error when Succeeded is false.
	Failure string `json:"failure,omitempty"`
}
