package ports

import "io"

// OutputStore opens the files a session reconstructs.
// Implementations validate names and must be safe for concurrent use.
type OutputStore interface {
	// Resolve validates name and returns the path it maps to without
	// touching the filesystem.
	Resolve(name string) (string, error)

	// Open returns a handle for name. When truncate is true an existing file
	// is emptied first; otherwise writes append to it.
	// Returns domain.ErrInvalidFileName for names outside the store and
	// domain.ErrFileInUse while another handle for the same name is open.
	Open(name string, truncate bool) (OutputFile, error)
}

// OutputFile is an open output file. Writes append in call order.
type OutputFile interface {
	io.Writer

	// Name returns the name the file was opened with.
	Name() string

	// Path returns the on-disk location.
	Path() string

	// Close releases the handle. It is safe to call more than once.
	Close() error
}
