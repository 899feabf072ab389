package ftserver

import "github.com/faadiallop/FileTransferServer/internal/domain"

// Errors returned by Server.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
)

// Session errors reported in SessionEndEvent.Err.
var (
	ErrNoActiveFile    = domain.ErrNoActiveFile
	ErrInvalidFileName = domain.ErrInvalidFileName
	ErrFileInUse       = domain.ErrFileInUse
	ErrTruncatedStream = domain.ErrTruncatedStream
)
