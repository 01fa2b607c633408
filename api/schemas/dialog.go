package schemas

// DialogKind classifies the surface that appeared (or didn't) after a
// navigation.
type DialogKind string

const (
	// DialogNone means no dialog appeared within the wait window. This is a
	// valid terminal outcome, not an error.
	DialogNone        DialogKind = "none"
	DialogSingleInput DialogKind = "single_input_form"
	DialogMultiInput  DialogKind = "multi_input_form"
	DialogButtons     DialogKind = "button_dialog"
	DialogUnknown     DialogKind = "unknown"
	// DialogError means the tree could not be queried at all.
	DialogError DialogKind = "error"
)

// InputFieldRef is a handle to one input-capable control of a classified
// dialog, in discovery order.
type InputFieldRef struct {
	ID          ElementRef `json:"id"`
	Name        string     `json:"name"`
	ControlType string     `json:"control_type"`
}

// ButtonRef is a handle to one button of a classified dialog.
type ButtonRef struct {
	ID      ElementRef `json:"id"`
	Name    string     `json:"name"`
	Enabled bool       `json:"enabled"`
}

// DialogInfo is the result of one dialog classification. It is constructed
// fresh on every call and must never be cached across navigations; the
// underlying tree is mutable and the element handles go stale.
type DialogInfo struct {
	Kind    DialogKind      `json:"kind"`
	Inputs  []InputFieldRef `json:"inputs,omitempty"`
	Buttons []ButtonRef     `json:"buttons,omitempty"`
	// Failure carries the reason when Kind is DialogError.
	Failure string `json:"failure,omitempty"`
}
