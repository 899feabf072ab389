package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig is the TOML config file layout. Durations are strings.
type FileConfig struct {
	Receiver ReceiverFileConfig `toml:"receiver"`
	Sender   SenderFileConfig   `toml:"sender"`
}

// ReceiverFileConfig is the [receiver] table.
type ReceiverFileConfig struct {
	Listen          string `toml:"listen"`
	MaxConnections  int    `toml:"max_connections"`
	OutputDir       string `toml:"output_dir"`
	Suffix          string `toml:"suffix"`
	MaxPayloadBytes int    `toml:"max_payload_bytes"`
	IdleTimeout     string `toml:"idle_timeout"`
	DrainTimeout    string `toml:"drain_timeout"`
	LogLevel        string `toml:"log_level"`
	WatchConfig     *bool  `toml:"watch_config"`
}

// SenderFileConfig is the [sender] table.
type SenderFileConfig struct {
	Addr        string `toml:"addr"`
	DialTimeout string `toml:"dial_timeout"`
	LogLevel    string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.filetransfer/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".filetransfer", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies the [receiver] table to cfg.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)
	r := fc.Receiver

	s.setString("listen", r.Listen, &cfg.ListenAddr)
	s.setString("output-dir", r.OutputDir, &cfg.OutputDir)
	s.setString("suffix", r.Suffix, &cfg.OutputSuffix)
	s.setString("log-level", r.LogLevel, &cfg.LogLevel)

	s.setInt("max-connections", r.MaxConnections, &cfg.MaxConnections)
	s.setInt("max-payload", r.MaxPayloadBytes, &cfg.MaxPayloadBytes)

	if err := s.setDuration("idle-timeout", r.IdleTimeout, &cfg.IdleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("drain-timeout", r.DrainTimeout, &cfg.DrainTimeout); err != nil {
		return err
	}

	s.setBool("watch-config", r.WatchConfig, &cfg.WatchConfig)

	return nil
}

// ApplySenderFileConfig applies the [sender] table to cfg.
func ApplySenderFileConfig(cfg *SenderConfig, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)
	snd := fc.Sender

	s.setString("addr", snd.Addr, &cfg.Addr)
	s.setString("log-level", snd.LogLevel, &cfg.LogLevel)

	return s.setDuration("dial-timeout", snd.DialTimeout, &cfg.DialTimeout)
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
