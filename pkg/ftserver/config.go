package ftserver

import (
	"fmt"
	"time"

	"github.com/faadiallop/FileTransferServer/internal/domain"
	"github.com/faadiallop/FileTransferServer/pkg/frame"
)

// Defaults applied by SetDefaults.
const (
	DefaultListenAddr     = ":5555"
	DefaultMaxConnections = 4
	DefaultOutputDir      = "."
	DefaultOutputSuffix   = ".output"
	DefaultDrainTimeout   = 30 * time.Second
)

// Config holds the receiver configuration.
type Config struct {
	// ListenAddr is the TCP address to accept senders on.
	// Default: ":5555"
	ListenAddr string

	// MaxConnections caps the number of concurrent transfer sessions.
	// Extra connections receive "Failed" and are closed.
	// Default: 4
	MaxConnections int

	// OutputDir is where reconstructed files are written. Announced names
	// may not escape it.
	// Default: "."
	OutputDir string

	// OutputSuffix is appended to every announced file name.
	// Default: ".output"
	OutputSuffix string

	// MaxPayloadBytes caps the payload of a single frame.
	// Default: the largest length the header can express
	MaxPayloadBytes int

	// IdleTimeout ends sessions that send nothing for this long.
	// Zero disables it.
	IdleTimeout time.Duration

	// DrainTimeout is how long Stop waits for in-flight sessions.
	// Default: 30 seconds
	DrainTimeout time.Duration

	// ConfigPath is the TOML file the receiver was configured from, if any.
	// Plugins such as configwatcher use it.
	ConfigPath string
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var cfg Config
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills zero-valued fields.
func (c *Config) SetDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.MaxConnections == 0 {
		c.MaxConnections = DefaultMaxConnections
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.OutputSuffix == "" {
		c.OutputSuffix = DefaultOutputSuffix
	}
	if c.MaxPayloadBytes == 0 {
		c.MaxPayloadBytes = frame.MaxPayloadSize
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = DefaultDrainTimeout
	}
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen address is required", domain.ErrInvalidConfig)
	}
	if c.MaxConnections < 1 {
		return fmt.Errorf("%w: max connections must be at least 1, got %d", domain.ErrInvalidConfig, c.MaxConnections)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output directory is required", domain.ErrInvalidConfig)
	}
	if c.MaxPayloadBytes < 1 || c.MaxPayloadBytes > frame.MaxPayloadSize {
		return fmt.Errorf("%w: max payload must be between 1 and %d, got %d",
			domain.ErrInvalidConfig, frame.MaxPayloadSize, c.MaxPayloadBytes)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("%w: idle timeout must not be negative", domain.ErrInvalidConfig)
	}
	if c.DrainTimeout <= 0 {
		return fmt.Errorf("%w: drain timeout must be positive", domain.ErrInvalidConfig)
	}
	return nil
}
