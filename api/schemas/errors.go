// api/schemas/errors.go
package schemas

import "errors"

// Sentinel errors shared across the driver boundary. Implementations wrap
// these with request detail; callers match them with errors.Is.
var (
	// ErrNoSuchElement reports that a lookup matched nothing in the window's
	// current accessibility tree. Scanning loops treat it as "keep looking",
	// not as a failure.
	ErrNoSuchElement = errors.New("no such element")

	// ErrUnknownKey reports a symbolic key name outside the driver's
	// vocabulary.
	ErrUnknownKey = errors.New("unknown symbolic key")

	// ErrSessionClosed reports an operation attempted on a session that was
	// already deleted on the driver side.
	ErrSessionClosed = errors.New("session closed")
)
