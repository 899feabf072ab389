package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/faadiallop/FileTransferServer/pkg/ftserver"
	"github.com/faadiallop/FileTransferServer/pkg/log"
)

// DefaultSenderAddr is the receiver address the sender dials by default.
const DefaultSenderAddr = "localhost:5555"

// Config holds CLI configuration for the receiver.
type Config struct {
	ListenAddr      string
	MaxConnections  int
	OutputDir       string
	OutputSuffix    string
	MaxPayloadBytes int
	IdleTimeout     time.Duration
	DrainTimeout    time.Duration

	LogLevel    string
	WatchConfig bool
	ConfigPath  string
}

// SenderConfig holds CLI configuration for the sender.
type SenderConfig struct {
	Addr        string
	DialTimeout time.Duration
	LogLevel    string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	d := ftserver.DefaultConfig()
	return Config{
		ListenAddr:      d.ListenAddr,
		MaxConnections:  d.MaxConnections,
		OutputDir:       d.OutputDir,
		OutputSuffix:    d.OutputSuffix,
		MaxPayloadBytes: d.MaxPayloadBytes,
		DrainTimeout:    d.DrainTimeout,
		LogLevel:        "info",
	}
}

// DefaultSenderConfig returns a SenderConfig with default values.
func DefaultSenderConfig() SenderConfig {
	return SenderConfig{
		Addr:        DefaultSenderAddr,
		DialTimeout: 10 * time.Second,
		LogLevel:    "info",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	if c.WatchConfig && c.ConfigPath == "" {
		return fmt.Errorf("watch-config requires a config file")
	}
	sc := c.ServerConfig()
	sc.SetDefaults()
	return sc.Validate()
}

// ServerConfig converts c into the receiver library configuration.
func (c *Config) ServerConfig() ftserver.Config {
	return ftserver.Config{
		ListenAddr:      c.ListenAddr,
		MaxConnections:  c.MaxConnections,
		OutputDir:       c.OutputDir,
		OutputSuffix:    c.OutputSuffix,
		MaxPayloadBytes: c.MaxPayloadBytes,
		IdleTimeout:     c.IdleTimeout,
		DrainTimeout:    c.DrainTimeout,
		ConfigPath:      c.ConfigPath,
	}
}

// LogFields describes the effective configuration for the startup log line.
func (c *Config) LogFields() []log.Field {
	return []log.Field{
		log.String("listen", c.ListenAddr),
		log.Int("max_connections", c.MaxConnections),
		log.String("output_dir", c.OutputDir),
		log.String("suffix", c.OutputSuffix),
		log.Int("max_payload", c.MaxPayloadBytes),
		log.Duration("idle_timeout", c.IdleTimeout),
		log.Duration("drain_timeout", c.DrainTimeout),
		log.Bool("watch_config", c.WatchConfig),
		log.String("config", c.ConfigPath),
	}
}

// Validate checks the sender configuration for errors.
func (c *SenderConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
