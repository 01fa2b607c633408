// -- internal/driver/session.go --
package driver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

// Session binds wire commands to one server-side session id. It implements
// schemas.DriverSession.
type Session struct {
	client *Client
	id     string
	logger *zap.Logger
	closed atomic.Bool
}

var _ schemas.DriverSession = (*Session)(nil)

// ID returns the server-issued session identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) path(suffix string) string {
	return "/session/" + s.id + suffix
}

// elementRef is the wire form of an element handle.
type elementRef struct {
	Element string `json:"ELEMENT"`
}

// -- Keyboard --

func (s *Session) sendKeyValues(ctx context.Context, values ...string) error {
	body := map[string]any{"value": values}
	_, err := s.client.command(ctx, http.MethodPost, s.path("/keys"), body)
	return err
}

// KeyDown holds a modifier. The wire protocol treats modifier codes as
// toggles, so sending the code while the key is up presses it.
func (s *Session) KeyDown(ctx context.Context, modifier string) error {
	code, ok := modifierCodes[modifier]
	if !ok {
		return fmt.Errorf("driver: hold %q: %w", modifier, schemas.ErrUnknownKey)
	}
	return s.sendKeyValues(ctx, code)
}

// KeyUp releases a held modifier by sending its toggle code again.
func (s *Session) KeyUp(ctx context.Context, modifier string) error {
	code, ok := modifierCodes[modifier]
	if !ok {
		return fmt.Errorf("driver: release %q: %w", modifier, schemas.ErrUnknownKey)
	}
	return s.sendKeyValues(ctx, code)
}

// PressKey presses and releases one symbolic key.
func (s *Session) PressKey(ctx context.Context, symbol string) error {
	code, ok := keyCodes[symbol]
	if !ok {
		return fmt.Errorf("driver: press %q: %w", symbol, schemas.ErrUnknownKey)
	}
	return s.sendKeyValues(ctx, code)
}

// SendKeys types a literal character sequence into the focused element.
func (s *Session) SendKeys(ctx context.Context, literal string) error {
	if literal == "" {
		return nil
	}
	return s.sendKeyValues(ctx, literal)
}

// ReleaseAll sends the NULL code, defined by the protocol as "release every
// held modifier".
func (s *Session) ReleaseAll(ctx context.Context) error {
	return s.sendKeyValues(ctx, keyNull)
}

// -- Tree queries --

func (s *Session) findElement(ctx context.Context, using, value string) (schemas.ElementRef, error) {
	body := map[string]string{"using": using, "value": value}
	wire, err := s.client.command(ctx, http.MethodPost, s.path("/element"), body)
	if err != nil {
		return "", err
	}
	var ref elementRef
	if err := wire.decode(&ref); err != nil {
		return "", fmt.Errorf("driver: decode element: %w", err)
	}
	found := schemas.ElementRef(ref.Element)
	if found.None() {
		// Some servers answer a miss with success and an empty handle.
		return "", fmt.Errorf("driver: find %s %q: %w", using, value, schemas.ErrNoSuchElement)
	}
	return found, nil
}

// FindByName resolves the first element whose accessible name matches
// exactly.
func (s *Session) FindByName(ctx context.Context, name string) (schemas.ElementRef, error) {
	return s.findElement(ctx, "name", name)
}

// FindAllByTag returns every element of one control type, in document
// order. An empty result is not an error.
func (s *Session) FindAllByTag(ctx context.Context, controlType string) ([]schemas.ElementRef, error) {
	body := map[string]string{"using": "tag name", "value": controlType}
	wire, err := s.client.command(ctx, http.MethodPost, s.path("/elements"), body)
	if err != nil {
		// Servers disagree on whether zero matches is a miss or an empty
		// list. Fold the miss form into the empty list.
		if errors.Is(err, schemas.ErrNoSuchElement) {
			return nil, nil
		}
		return nil, err
	}
	var refs []elementRef
	if err := wire.decode(&refs); err != nil {
		return nil, fmt.Errorf("driver: decode elements: %w", err)
	}
	out := make([]schemas.ElementRef, 0, len(refs))
	for _, r := range refs {
		out = append(out, schemas.ElementRef(r.Element))
	}
	return out, nil
}

// Attribute reads one accessibility attribute. Attributes the element does
// not carry come back as the empty string.
func (s *Session) Attribute(ctx context.Context, el schemas.ElementRef, name string) (string, error) {
	wire, err := s.client.command(ctx, http.MethodGet, s.path("/element/"+string(el)+"/attribute/"+name), nil)
	if err != nil {
		return "", err
	}
	var value *string
	if err := wire.decode(&value); err != nil {
		return "", fmt.Errorf("driver: decode attribute %q: %w", name, err)
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

// Text reads the display text of an element.
func (s *Session) Text(ctx context.Context, el schemas.ElementRef) (string, error) {
	wire, err := s.client.command(ctx, http.MethodGet, s.path("/element/"+string(el)+"/text"), nil)
	if err != nil {
		return "", err
	}
	var text string
	if err := wire.decode(&text); err != nil {
		return "", fmt.Errorf("driver: decode text: %w", err)
	}
	return text, nil
}

// Click clicks an element.
func (s *Session) Click(ctx context.Context, el schemas.ElementRef) error {
	_, err := s.client.command(ctx, http.MethodPost, s.path("/element/"+string(el)+"/click"), map[string]any{})
	return err
}

// Clear empties an editable element.
func (s *Session) Clear(ctx context.Context, el schemas.ElementRef) error {
	_, err := s.client.command(ctx, http.MethodPost, s.path("/element/"+string(el)+"/clear"), map[string]any{})
	return err
}

// SendText types a literal value into an element.
func (s *Session) SendText(ctx context.Context, el schemas.ElementRef, text string) error {
	body := map[string]any{"value": []string{text}}
	_, err := s.client.command(ctx, http.MethodPost, s.path("/element/"+string(el)+"/value"), body)
	return err
}

// ActiveElement returns the element holding keyboard focus.
func (s *Session) ActiveElement(ctx context.Context) (schemas.ElementRef, error) {
	wire, err := s.client.command(ctx, http.MethodPost, s.path("/element/active"), nil)
	if err != nil {
		return "", err
	}
	var ref elementRef
	if err := wire.decode(&ref); err != nil {
		return "", fmt.Errorf("driver: decode active element: %w", err)
	}
	found := schemas.ElementRef(ref.Element)
	if found.None() {
		return "", fmt.Errorf("driver: active element: %w", schemas.ErrNoSuchElement)
	}
	return found, nil
}

// -- Page source --

func (s *Session) pageSource(ctx context.Context) (string, error) {
	wire, err := s.client.command(ctx, http.MethodGet, s.path("/source"), nil)
	if err != nil {
		return "", err
	}
	var xml string
	if err := wire.decode(&xml); err != nil {
		return "", fmt.Errorf("driver: decode source: %w", err)
	}
	return xml, nil
}

// ElementCount counts every element in the window's accessibility tree by
// walking the XML page source. One round trip regardless of tree size,
// which keeps it cheap enough to use as a change signal.
func (s *Session) ElementCount(ctx context.Context) (int, error) {
	src, err := s.pageSource(ctx)
	if err != nil {
		return 0, err
	}
	doc, err := parseSource(src)
	if err != nil {
		return 0, err
	}
	root := doc.Root()
	if root == nil {
		return 0, nil
	}
	return countElements(root), nil
}

// Tree renders the window's accessibility tree as an indented outline of
// control types and names. Levels deeper than maxDepth are elided; a
// maxDepth of zero or less renders the whole tree.
func (s *Session) Tree(ctx context.Context, maxDepth int) (string, error) {
	src, err := s.pageSource(ctx)
	if err != nil {
		return "", err
	}
	doc, err := parseSource(src)
	if err != nil {
		return "", err
	}
	return renderTree(doc, maxDepth), nil
}

// WindowMeta reads the class name, framework id and process id of the
// session's top-level window from the root of the page source.
func (s *Session) WindowMeta(ctx context.Context) (schemas.WindowMeta, error) {
	src, err := s.pageSource(ctx)
	if err != nil {
		return schemas.WindowMeta{}, err
	}
	doc, err := parseSource(src)
	if err != nil {
		return schemas.WindowMeta{}, err
	}
	return rootMeta(doc), nil
}

// Windows enumerates the top-level windows visible in this session's
// source. Only meaningful on a desktop session created with
// RootCapabilities.
func (s *Session) Windows(ctx context.Context) ([]schemas.WindowInfo, error) {
	src, err := s.pageSource(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := parseSource(src)
	if err != nil {
		return nil, err
	}
	return windowsFromSource(doc), nil
}

// Close tears the session down on the server. Closing twice, or closing a
// session the server already expired, is not an error.
func (s *Session) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	_, err := s.client.command(ctx, http.MethodDelete, s.path(""), nil)
	if err != nil {
		if errors.Is(err, schemas.ErrSessionClosed) {
			return nil
		}
		return fmt.Errorf("driver: close session: %w", err)
	}
	s.logger.Info("Driver session closed.")
	return nil
}
