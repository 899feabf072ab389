package ftserver

import (
	"net"

	"github.com/faadiallop/FileTransferServer/pkg/log"
)

// Option configures optional behavior of a Server.
type Option func(*options)

type options struct {
	logger       log.Logger
	eventHandler EventHandler
	plugins      []Plugin
	listener     net.Listener
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets the logger for status lines.
// If not provided, nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventHandler sets a handler for server events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the server starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithListener makes the first Start serve ln instead of binding
// Config.ListenAddr. Later starts bind ListenAddr.
func WithListener(ln net.Listener) Option {
	return func(o *options) {
		o.listener = ln
	}
}
