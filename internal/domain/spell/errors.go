package spell

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrInvalidSpell   = errors.New("invalid spell definition")
	ErrDuplicateSpell = errors.New("duplicate spell id")
)
