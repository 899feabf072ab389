package ftserver

import (
	"context"

	"github.com/faadiallop/FileTransferServer/pkg/log"
)

// Plugin extends a Server. Plugins are initialized in registration order
// during Start and shut down in reverse order during Stop.
type Plugin interface {
	// Name returns a short identifier used in logs.
	Name() string

	// Initialize is called during Start. Long-running work must be started
	// in a goroutine bound to ctx. A non-nil error aborts Start.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called during Stop.
	Shutdown(ctx context.Context) error
}

// Controller is the part of a Server a plugin may adjust at runtime.
type Controller interface {
	MaxConnections() int
	SetMaxConnections(n int) error
}

// PluginConfig is passed to Plugin.Initialize.
type PluginConfig struct {
	// ConfigPath is Config.ConfigPath; empty when none was given.
	ConfigPath string

	Logger     log.Logger
	Controller Controller
}

// BasePlugin implements Plugin with no-op Initialize and Shutdown.
type BasePlugin struct {
	name string
}

// NewBasePlugin returns a BasePlugin named name.
func NewBasePlugin(name string) BasePlugin {
	return BasePlugin{name: name}
}

func (b BasePlugin) Name() string                                 { return b.name }
func (BasePlugin) Initialize(context.Context, PluginConfig) error { return nil }
func (BasePlugin) Shutdown(context.Context) error                 { return nil }
