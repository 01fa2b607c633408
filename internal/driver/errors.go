// -- internal/driver/errors.go --
package driver

import (
	"fmt"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

// JSON wire protocol status codes the client tells apart. Everything else
// surfaces as a generic StatusError.
const (
	statusSuccess       = 0
	statusNoSuchDriver  = 6
	statusNoSuchElement = 7
	statusStaleElement  = 10
)

// StatusError is a non-zero status carried in a driver response envelope.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("driver status %d", e.Status)
	}
	return fmt.Sprintf("driver status %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses onto the shared sentinels so callers can
// use errors.Is without importing this package.
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case statusNoSuchElement:
		return schemas.ErrNoSuchElement
	case statusNoSuchDriver:
		return schemas.ErrSessionClosed
	default:
		return nil
	}
}
