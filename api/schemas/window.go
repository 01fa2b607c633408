package schemas

// WindowInfo describes one visible top-level window, as enumerated through
// the driver's desktop session. Handle is the native window handle rendered
// as a decimal string, the form the driver accepts back in an
// appTopLevelWindow capability.
type WindowInfo struct {
	Title     string `json:"title"`
	Handle    string `json:"handle"`
	PID       int    `json:"pid"`
	ClassName string `json:"class_name,omitempty"`
}
