// -- internal/driver/source.go --
package driver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

// parseSource parses the XML page source the server returns for a window or
// for the desktop root.
func parseSource(src string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(src); err != nil {
		return nil, fmt.Errorf("driver: parse page source: %w", err)
	}
	return doc, nil
}

// countElements counts el and every element beneath it.
func countElements(el *etree.Element) int {
	n := 1
	for _, child := range el.ChildElements() {
		n += countElements(child)
	}
	return n
}

// rootMeta reads the classifier's three window properties off the source
// root. Missing attributes read as empty, which the classifier treats as
// "no signal".
func rootMeta(doc *etree.Document) schemas.WindowMeta {
	root := doc.Root()
	if root == nil {
		return schemas.WindowMeta{}
	}
	return schemas.WindowMeta{
		ClassName:   root.SelectAttrValue("ClassName", ""),
		FrameworkID: root.SelectAttrValue("FrameworkId", ""),
		ProcessID:   root.SelectAttrValue("ProcessId", ""),
	}
}

// renderTree turns a parsed source into an indented outline, one element
// per line as "ControlType \"Name\"", two spaces per level. The element tag
// in the driver's XML is the UIA control type.
func renderTree(doc *etree.Document, maxDepth int) string {
	root := doc.Root()
	if root == nil {
		return ""
	}
	var b strings.Builder
	writeTreeNode(&b, root, 0, maxDepth)
	return b.String()
}

func writeTreeNode(b *strings.Builder, el *etree.Element, depth, maxDepth int) {
	if maxDepth > 0 && depth >= maxDepth {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(el.Tag)
	if name := el.SelectAttrValue("Name", ""); name != "" {
		fmt.Fprintf(b, " %q", name)
	}
	b.WriteByte('\n')
	for _, child := range el.ChildElements() {
		writeTreeNode(b, child, depth+1, maxDepth)
	}
}

// windowsFromSource lists the top-level windows in a desktop source. Each
// direct child of the desktop root is one window; children without a native
// handle are decorations the driver cannot attach to, so they are skipped.
func windowsFromSource(doc *etree.Document) []schemas.WindowInfo {
	root := doc.Root()
	if root == nil {
		return nil
	}
	var windows []schemas.WindowInfo
	for _, el := range root.ChildElements() {
		handle := el.SelectAttrValue("NativeWindowHandle", "")
		if handle == "" || handle == "0" {
			continue
		}
		pid, _ := strconv.Atoi(el.SelectAttrValue("ProcessId", ""))
		windows = append(windows, schemas.WindowInfo{
			Title:     el.SelectAttrValue("Name", ""),
			Handle:    handle,
			PID:       pid,
			ClassName: el.SelectAttrValue("ClassName", ""),
		})
	}
	return windows
}
