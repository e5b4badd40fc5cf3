package session

// State is the draw-mode state of a Machine.
type State int

// Draw-mode states. Stroking only ever occurs inside Drawing.
const (
	Idle State = iota
	Drawing
	Stroking
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Stroking:
		return "stroking"
	default:
		return "unknown"
	}
}

// InDrawing reports whether s is Drawing or the nested Stroking state.
func (s State) InDrawing() bool {
	return s == Drawing || s == Stroking
}
