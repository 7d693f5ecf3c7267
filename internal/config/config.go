package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// StaticDir is the built frontend to serve; empty disables static
	// serving (a reverse proxy handles assets in production).
	StaticDir string `mapstructure:"static_dir" yaml:"static_dir"`

	// ConnLimit caps registered clients and tracked source addresses.
	ConnLimit int `mapstructure:"conn_limit" yaml:"conn_limit"`
	// RoomsLimit caps rooms a single client may have created at once.
	RoomsLimit int `mapstructure:"rooms_limit" yaml:"rooms_limit"`
	// BanLimit caps the ban table; at capacity no connection is admitted.
	BanLimit int `mapstructure:"ban_limit" yaml:"ban_limit"`
	// AddrConnLimit caps open connections per source address.
	AddrConnLimit int `mapstructure:"addr_conn_limit" yaml:"addr_conn_limit"`

	// RateSweepInterval is how often the rate limiter's background sweep
	// runs.
	RateSweepInterval time.Duration `mapstructure:"rate_sweep_interval" yaml:"rate_sweep_interval"`
	// MaxReqCount is the guarded-event budget of one rate window.
	MaxReqCount int `mapstructure:"max_req_count" yaml:"max_req_count"`

	// HTTPRateRPS/HTTPRateBurst throttle the plain HTTP surface per IP.
	HTTPRateRPS   float64 `mapstructure:"http_rate_rps" yaml:"http_rate_rps"`
	HTTPRateBurst int     `mapstructure:"http_rate_burst" yaml:"http_rate_burst"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		ConnLimit:         100,
		RoomsLimit:        2,
		BanLimit:          100,
		AddrConnLimit:     10,
		RateSweepInterval: 5 * time.Second,
		MaxReqCount:       10,
		HTTPRateRPS:       20,
		HTTPRateBurst:     40,
	}
}
