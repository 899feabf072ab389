// Package domain contains the error taxonomy and shared value types of the
// receiver.
//
// It has no dependencies on infrastructure concerns (sockets, file system,
// logging). Errors defined here are returned by the public API and can be
// checked with errors.Is and errors.As.
package domain
