package domain

import (
	"errors"
	"fmt"
	"os"

	"github.com/faadiallop/FileTransferServer/pkg/frame"
)

// Lifecycle and configuration errors.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("filetransfer: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("filetransfer: not running")

	// ErrShutdownTimeout is returned when in-flight sessions outlive the drain timeout.
	ErrShutdownTimeout = errors.New("filetransfer: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("filetransfer: invalid configuration")
)

// Session errors. Each one terminates the session that hit it.
var (
	// ErrNoActiveFile is returned when a content frame arrives before any new-file frame.
	ErrNoActiveFile = errors.New("content frame before any new-file frame")

	// ErrInvalidFileName is returned when a new-file frame names a path outside
	// the output directory or is otherwise unusable.
	ErrInvalidFileName = errors.New("invalid file name")

	// ErrFileInUse is returned when another session is writing the same output file.
	ErrFileInUse = errors.New("output file in use by another session")

	// ErrTruncatedStream is returned when the peer closes mid-frame.
	ErrTruncatedStream = errors.New("peer closed the connection mid-frame")
)

// ConnectionIOError reports a failed read or write on a peer connection.
type ConnectionIOError struct {
	Op   string
	Peer string
	Err  error
}

func (e *ConnectionIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Peer, e.Err)
}

func (e *ConnectionIOError) Unwrap() error {
	return e.Err
}

// Kind classifies err into a short label for status lines.
func Kind(err error) string {
	var connErr *ConnectionIOError
	var pathErr *os.PathError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, frame.ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, frame.ErrFrameTooLarge):
		return "frame_too_large"
	case errors.Is(err, ErrNoActiveFile):
		return "no_active_file"
	case errors.Is(err, ErrInvalidFileName):
		return "invalid_file_name"
	case errors.Is(err, ErrFileInUse):
		return "file_in_use"
	case errors.Is(err, ErrTruncatedStream):
		return "truncated_stream"
	case errors.As(err, &connErr):
		return "connection_io"
	case errors.As(err, &pathErr):
		return "output_io"
	default:
		return "unknown"
	}
}
