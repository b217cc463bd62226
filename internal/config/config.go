package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the process configuration, read from STARCREW_* environment
// variables. Command-line flags may override the listener settings.
type Config struct {
	HTTPPort       string        `envconfig:"HTTP_PORT" default:"8080"`
	HTTPSPort      string        `envconfig:"HTTPS_PORT" default:"8443"`
	CertFile       string        `envconfig:"CERT_FILE"`
	KeyFile        string        `envconfig:"KEY_FILE"`
	TLSOnly        bool          `envconfig:"TLS_ONLY"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS"`
	TickInterval   time.Duration `envconfig:"TICK_INTERVAL" default:"1s"`
	Debug          bool          `envconfig:"DEBUG"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	err := envconfig.Process("starcrew", &cfg)
	return cfg, err
}
