package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	// Room synchronization knobs. See DESIGN.md for the rationale behind
	// the defaults.
	LockIdleTimeout   time.Duration `mapstructure:"lock_idle_timeout" yaml:"lock_idle_timeout"`
	LockSweepInterval time.Duration `mapstructure:"lock_sweep_interval" yaml:"lock_sweep_interval"`
	RoomEvictionGrace time.Duration `mapstructure:"room_eviction_grace" yaml:"room_eviction_grace"`

	// Persistence gateway tuning.
	PersistQueueSize  int `mapstructure:"persist_queue_size" yaml:"persist_queue_size"`
	PersistMaxRetries int `mapstructure:"persist_max_retries" yaml:"persist_max_retries"`

	// WSMessageLimit caps inbound messages per connection per minute.
	// Zero disables the limit.
	WSMessageLimit int `mapstructure:"ws_message_limit" yaml:"ws_message_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "boardsync.db",
		LogLevel:          "info",
		JWTSecret:         "dev-secret-change-me",
		JWTIssuer:         "boardsync",
		JWTAudience:       "boardsync-clients",
		LockIdleTimeout:   90 * time.Second,
		LockSweepInterval: 15 * time.Second,
		RoomEvictionGrace: 30 * time.Second,
		PersistQueueSize:  256,
		PersistMaxRetries: 3,
		WSMessageLimit:    0,
	}
}
