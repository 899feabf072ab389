package cliconfig

import "os"

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "FILETRANSFER_"

func getenv(name string) string {
	return os.Getenv(EnvPrefix + name)
}

// ApplyEnvConfig applies receiver configuration from environment variables
// (FILETRANSFER_*). It respects flags that have been explicitly set (changed
// map). Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", getenv("LISTEN"), &cfg.ListenAddr)
	s.setString("output-dir", getenv("OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("suffix", getenv("SUFFIX"), &cfg.OutputSuffix)
	s.setString("log-level", getenv("LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setIntFromString("max-connections", getenv("MAX_CONNECTIONS"), &cfg.MaxConnections); err != nil {
		return err
	}
	if err := s.setIntFromString("max-payload", getenv("MAX_PAYLOAD"), &cfg.MaxPayloadBytes); err != nil {
		return err
	}

	if err := s.setDuration("idle-timeout", getenv("IDLE_TIMEOUT"), &cfg.IdleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("drain-timeout", getenv("DRAIN_TIMEOUT"), &cfg.DrainTimeout); err != nil {
		return err
	}

	s.setBoolFromString("watch-config", getenv("WATCH_CONFIG"), &cfg.WatchConfig)

	return nil
}

// ApplySenderEnvConfig applies sender configuration from environment variables.
func ApplySenderEnvConfig(cfg *SenderConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("addr", getenv("ADDR"), &cfg.Addr)
	s.setString("log-level", getenv("LOG_LEVEL"), &cfg.LogLevel)

	return s.setDuration("dial-timeout", getenv("DIAL_TIMEOUT"), &cfg.DialTimeout)
}
