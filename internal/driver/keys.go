// -- internal/driver/keys.go --
package driver

// WebDriver key code points (JSON wire protocol, private-use area). The
// server treats modifier codes as toggles: sending one presses the key,
// sending it again releases it, and keyNull releases everything held.
const keyNull = "\uE000"

// keyCodes maps the canonical symbolic key names to their wire code
// points.
var keyCodes = map[string]string{
	"backspace": "\uE003",
	"tab":       "\uE004",
	"enter":     "\uE007",
	"escape":    "\uE00C",
	"space":     "\uE00D",
	"pageup":    "\uE00E",
	"pagedown":  "\uE00F",
	"end":       "\uE010",
	"home":      "\uE011",
	"left":      "\uE012",
	"up":        "\uE013",
	"right":     "\uE014",
	"down":      "\uE015",
	"insert":    "\uE016",
	"delete":    "\uE017",
	"f1":        "\uE031",
	"f2":        "\uE032",
	"f3":        "\uE033",
	"f4":        "\uE034",
	"f5":        "\uE035",
	"f6":        "\uE036",
	"f7":        "\uE037",
	"f8":        "\uE038",
	"f9":        "\uE039",
	"f10":       "\uE03A",
	"f11":       "\uE03B",
	"f12":       "\uE03C",
}

// modifierCodes maps modifier names to their wire code points.
var modifierCodes = map[string]string{
	"shift": "\uE008",
	"ctrl":  "\uE009",
	"alt":   "\uE00A",
	"win":   "\uE03D",
}
