package gesture

import (
	"fmt"
	"strings"
)

// Kind tags the template a spell is drawn with.
type Kind int

const (
	// Circle is a closed loop of roughly constant radius.
	Circle Kind = iota
	// Line is a straight stroke between its endpoints.
	Line
	// Zigzag has no scoring template yet; it always scores 0.
	Zigzag
)

var kindNames = [...]string{Circle: "circle", Line: "line", Zigzag: "zigzag"}

// String returns the lowercase tag used in configuration.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= Circle && k <= Zigzag
}

// ParseKind resolves a configuration tag, case-insensitively.
func ParseKind(s string) (Kind, error) {
	tag := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == tag {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}
