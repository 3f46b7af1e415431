// Package jukecfg defines the producer-side configuration surface (spec
// §6.6), loaded from the environment the way api/pkg/config.LoadServerConfig
// loads ServerConfig via kelseyhightower/envconfig.
package jukecfg

import "github.com/kelseyhightower/envconfig"

// Config is the full set of recognized producer-side options.
type Config struct {
	// FbSocket is the rendezvous socket path for the framebuffer channel.
	FbSocket string `envconfig:"FB_SOCKET" default:"/run/juke/fb.sock"`

	// AudioSocket is the rendezvous socket path for the audio channel.
	AudioSocket string `envconfig:"AUDIO_SOCKET" default:"/run/juke/audio.sock"`

	// MetricsAddr, if non-empty, is the address an optional /metrics HTTP
	// handler listens on. Empty disables it.
	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`

	// LogLevel selects the slog level: debug, info, warn or error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads Config from the environment, using the JUKE_ prefix (e.g.
// JUKE_FB_SOCKET).
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("juke", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
