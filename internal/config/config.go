package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogPretty         bool          `mapstructure:"log_pretty" yaml:"log_pretty"`
	JWTSecret         string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer         string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience       string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	TokenTTL          time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// CallRingTimeout bounds how long a call may stay in ringing before the
	// hub ends it on the caller's behalf. Zero disables server-side expiry
	// and leaves ring duration to client convention.
	CallRingTimeout time.Duration `mapstructure:"call_ring_timeout" yaml:"call_ring_timeout"`

	// WSMessageRateLimit caps inbound frames per connection per minute.
	// Zero disables the limiter.
	WSMessageRateLimit int `mapstructure:"ws_message_rate_limit" yaml:"ws_message_rate_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		DatabasePath:       "duochat.db",
		LogLevel:           "info",
		LogPretty:          true,
		JWTSecret:          "",
		JWTIssuer:          "duochat",
		JWTAudience:        "duochat-clients",
		TokenTTL:           24 * time.Hour,
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		CallRingTimeout:    0,
		WSMessageRateLimit: 240,
	}
}
