package schemas

// ApplicationType classifies the UI framework hosting a connected window.
// It is determined once per connection from static window properties and is
// immutable for the connection's lifetime; framework identity is a property
// of the window class, not of its content.
type ApplicationType string

const (
	AppJava           ApplicationType = "java"
	AppDotNetWPF      ApplicationType = "dotnet_wpf"
	AppDotNetWinForms ApplicationType = "dotnet_winforms"
	AppUWP            ApplicationType = "uwp"
	AppWin32          ApplicationType = "win32"
	AppWin32Dialog    ApplicationType = "win32_dialog"
	AppUnknown        ApplicationType = "unknown"
)

// StrategyFamily names the text-navigation strategy bound to a connection.
type StrategyFamily string

const (
	FamilyJava   StrategyFamily = "java"
	FamilyDotNet StrategyFamily = "dotnet"
	FamilyWin32  StrategyFamily = "win32"
)

// Family folds an application type onto its strategy family. Unknown types
// fall back to the Win32 family, the most conservative strategy (tree lookup
// first, keyboard second).
func (t ApplicationType) Family() StrategyFamily {
	switch t {
	case AppJava:
		return FamilyJava
	case AppDotNetWPF, AppDotNetWinForms, AppUWP:
		return FamilyDotNet
	default:
		return FamilyWin32
	}
}

// WindowMeta carries the three window properties the classifier reads. All
// three come from a single query of the top-level window element.
type WindowMeta struct {
	ClassName   string `json:"class_name"`
	FrameworkID string `json:"framework_id"`
	ProcessID   string `json:"process_id"`
}
