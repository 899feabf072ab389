package ftserver

// EventHandler receives notifications about server activity.
// Methods are called synchronously from the goroutine that produced the
// event and should return quickly. Session events arrive from the session's
// own goroutine, so implementations must be safe for concurrent use.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnSessionStart(event SessionStartEvent)
	OnSessionEnd(event SessionEndEvent)
	OnFileComplete(event FileCompleteEvent)
	OnRejected(event RejectedEvent)
}

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// SessionStartEvent is emitted when an admitted connection starts its session.
type SessionStartEvent struct {
	SessionID string
	Peer      string
}

// SessionEndEvent is emitted once per session.
type SessionEndEvent struct {
	SessionID string
	Peer      string

	// Reason is "exit", "peer_closed", "idle_timeout" or an error kind such
	// as "malformed_header".
	Reason string

	Frames int64
	Bytes  int64
	Files  int

	// Err is nil for a clean end.
	Err error
}

// FileCompleteEvent is emitted when a sender marks a file done.
type FileCompleteEvent struct {
	SessionID string
	Peer      string
	Name      string
	Path      string
	Bytes     int64
}

// RejectedEvent is emitted when a connection is turned away at capacity.
type RejectedEvent struct {
	Peer     string
	Active   int
	Capacity int
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)   {}
func (BaseEventHandler) OnSessionStart(SessionStartEvent) {}
func (BaseEventHandler) OnSessionEnd(SessionEndEvent)     {}
func (BaseEventHandler) OnFileComplete(FileCompleteEvent) {}
func (BaseEventHandler) OnRejected(RejectedEvent)         {}

var _ EventHandler = BaseEventHandler{}
