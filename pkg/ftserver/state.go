package ftserver

// State is the lifecycle state of a Server.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateListening
	StateShuttingDown
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateListening:
		return "Listening"
	case StateShuttingDown:
		return "ShuttingDown"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// CanStart reports whether Start may be called in this state.
func (s State) CanStart() bool {
	return s == StateStopped || s == StateCrashed
}

// CanStop reports whether Stop may be called in this state. A Server whose
// accept loop crashed reports StateCrashed yet still accepts one Stop, which
// drains its sessions and shuts its plugins down.
func (s State) CanStop() bool {
	return s == StateStarting || s == StateListening
}

// IsRunning reports whether the server is accepting connections.
func (s State) IsRunning() bool {
	return s == StateListening
}
