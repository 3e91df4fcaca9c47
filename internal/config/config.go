package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	Environment       string        `mapstructure:"environment" yaml:"environment"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// Presence tunables.
	AwayThreshold time.Duration `mapstructure:"away_threshold" yaml:"away_threshold"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
	TypingExpiry  time.Duration `mapstructure:"typing_expiry" yaml:"typing_expiry"`
}

// Default returns configuration with reasonable starter defaults. The
// presence values mirror the classic chat behavior: two minutes of silence
// flips a participant to away, checked every thirty seconds, and a typing
// indicator survives five seconds without a keystroke.
func Default() Config {
	return Config{
		Addr:              ":8080",
		Environment:       "development",
		LogLevel:          "info",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		AwayThreshold:     2 * time.Minute,
		SweepInterval:     30 * time.Second,
		TypingExpiry:      5 * time.Second,
	}
}
