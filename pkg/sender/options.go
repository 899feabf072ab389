package sender

import (
	"time"

	"github.com/faadiallop/FileTransferServer/pkg/log"
)

// Default timeouts used by Dial.
const (
	DefaultDialTimeout      = 10 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
)

// Option configures a Client.
type Option func(*options)

type options struct {
	logger           log.Logger
	dialTimeout      time.Duration
	handshakeTimeout time.Duration
}

func defaultOptions() options {
	return options{
		logger:           log.NewNoopLogger(),
		dialTimeout:      DefaultDialTimeout,
		handshakeTimeout: DefaultHandshakeTimeout,
	}
}

// WithLogger sets the logger. If not provided, nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDialTimeout bounds the TCP connect.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.dialTimeout = d
		}
	}
}

// WithHandshakeTimeout bounds the wait for the admission token.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.handshakeTimeout = d
		}
	}
}
