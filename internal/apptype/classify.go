// -- internal/apptype/classify.go --

// Package apptype identifies the UI framework behind a top-level window so
// navigation can pick a strategy that framework actually responds to.
package apptype

import (
	"strings"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

// win32Hints are class-name fragments of stock Win32 applications and
// controls. Matched against the lowercased class name.
var win32Hints = []string{"notepad", "calculator", "edit", "button", "static"}

// Classify maps a window's accessibility metadata to an application type.
// Rules run in priority order and the first match wins. Java is checked
// before the framework id rules: JVM windows frequently report a Win32
// framework id even though only the AWT class name tells the truth.
func Classify(meta schemas.WindowMeta) schemas.ApplicationType {
	class := meta.ClassName
	framework := meta.FrameworkID

	switch {
	case strings.Contains(class, "SunAwt") || strings.Contains(class, "Java"):
		return schemas.AppJava
	case framework == "WPF" || strings.Contains(class, "Wpf"):
		return schemas.AppDotNetWPF
	case framework == "WinForm" || strings.Contains(class, "WindowsForms"):
		return schemas.AppDotNetWinForms
	case framework == "XAML" || strings.HasPrefix(class, "Windows.UI"):
		return schemas.AppUWP
	case strings.HasPrefix(class, "#32770") || strings.Contains(class, "Dialog"):
		return schemas.AppWin32Dialog
	case framework == "Win32" || containsWin32Hint(class):
		return schemas.AppWin32
	default:
		return schemas.AppUnknown
	}
}

func containsWin32Hint(class string) bool {
	lower := strings.ToLower(class)
	for _, hint := range win32Hints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
