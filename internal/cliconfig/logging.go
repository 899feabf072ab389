package cliconfig

import (
	"io"

	"github.com/faadiallop/FileTransferServer/pkg/log"
)

// NewLogger returns the CLI logger: zerolog console output on w at the named
// level.
func NewLogger(w io.Writer, level string) (*log.ZerologAdapter, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewZerologAdapter(w, lvl), nil
}
