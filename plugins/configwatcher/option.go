package configwatcher

import "github.com/faadiallop/FileTransferServer/pkg/ftserver"

// WithConfigWatcher returns a Server option that reloads max_connections
// from Config.ConfigPath whenever the file changes.
//
// Usage:
//
//	s, err := ftserver.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        DebounceDelay: 250 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) ftserver.Option {
	return ftserver.WithPlugin(New(cfg))
}

// WithDefaultConfigWatcher returns a Server option that enables config
// watching with default settings (debounce 100ms).
func WithDefaultConfigWatcher() ftserver.Option {
	return WithConfigWatcher(DefaultConfig())
}
