package replay

import "errors"

// ErrInvalidScript is returned when a gesture script cannot be used.
var ErrInvalidScript = errors.New("invalid gesture script")
