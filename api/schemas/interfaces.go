// api/schemas/interfaces.go
package schemas

import "context"

// ElementRef is an opaque element handle issued by the accessibility driver.
// Handles are only valid within the session that produced them and go stale
// whenever the UI tree changes.
type ElementRef string

// None reports whether the reference points at nothing.
func (e ElementRef) None() bool { return e == "" }

// -- Input Injection --

// KeySender injects keystrokes into the window bound to a driver session.
// Symbolic keys and literal text travel through separate methods so "enter"
// the key and "enter" the word can never be confused on the wire.
type KeySender interface {
	// KeyDown presses and holds a modifier key (ctrl, alt, shift, win).
	KeyDown(ctx context.Context, modifier string) error
	// KeyUp releases a held modifier key.
	KeyUp(ctx context.Context, modifier string) error
	// PressKey presses and releases one key named in the driver's symbolic
	// vocabulary (enter, escape, down, f10, ...). An unrecognized name is
	// reported as ErrUnknownKey.
	PressKey(ctx context.Context, symbol string) error
	// SendKeys types a literal character sequence.
	SendKeys(ctx context.Context, literal string) error
	// ReleaseAll drops every held modifier, whatever state the previous
	// steps left the keyboard in.
	ReleaseAll(ctx context.Context) error
}

// -- Accessibility Queries --

// TreeQuery reads and manipulates the live accessibility tree of the
// connected window. Every call is a blocking round trip to the driver. The
// tree is asynchronous and eventually consistent, so callers poll with
// bounded ceilings instead of trusting a single read.
type TreeQuery interface {
	// FindByName resolves the first element whose accessible name matches
	// exactly. A miss is an error the driver package marks as
	// ErrNoSuchElement, letting scanning loops distinguish "no match yet"
	// from transport failure.
	FindByName(ctx context.Context, name string) (ElementRef, error)
	// FindAllByTag returns every element of one control type, e.g. "MenuItem".
	FindAllByTag(ctx context.Context, controlType string) ([]ElementRef, error)
	// Attribute reads a named accessibility attribute of an element.
	Attribute(ctx context.Context, el ElementRef, name string) (string, error)
	// Text reads the display text of an element.
	Text(ctx context.Context, el ElementRef) (string, error)
	Click(ctx context.Context, el ElementRef) error
	Clear(ctx context.Context, el ElementRef) error
	// SendText types a literal value into an element.
	SendText(ctx context.Context, el ElementRef, text string) error
	// ActiveElement returns the currently focused element.
	ActiveElement(ctx context.Context) (ElementRef, error)
	// ElementCount counts every element in the window's tree. Used as a
	// cheap change signal around navigations and dialog waits.
	ElementCount(ctx context.Context) (int, error)
}

// -- Session --

// DriverSession is one established accessibility-driver session, bound to
// exactly one top-level window.
type DriverSession interface {
	KeySender
	TreeQuery
	// WindowMeta reads the class name, framework id and process id of the
	// session's top-level window in a single element query.
	WindowMeta(ctx context.Context) (WindowMeta, error)
	// Close tears the session down. Safe to call more than once.
	Close(ctx context.Context) error
}
