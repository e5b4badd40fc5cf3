package gesture

import "errors"

// ErrUnknownKind is returned when a gesture tag does not name a template.
var ErrUnknownKind = errors.New("unknown gesture kind")
