package sender

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected is returned by Dial when the receiver answers "Failed".
	ErrRejected = errors.New("sender: receiver rejected the connection")

	// ErrBadHandshake is returned by Dial when the receiver sends anything
	// other than an admission token.
	ErrBadHandshake = errors.New("sender: unexpected admission token")

	// ErrInvalidPath is returned by SendFile for missing paths and directories.
	ErrInvalidPath = errors.New("sender: not a regular file")

	// ErrClosed is returned when the client is used after Close.
	ErrClosed = errors.New("sender: client closed")
)

// ConnError reports a failed write to the receiver.
type ConnError struct {
	Op   string
	Peer string
	Err  error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Peer, e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}
