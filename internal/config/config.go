// Package config loads the pageparse CLI's configuration from an
// optional file plus environment variables, in the teacher corpus's
// viper-over-a-struct style (grounded on omnidex's pkg/cmd/config.go).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for cmd/pageparse.
type Config struct {
	Network NetworkConfig `mapstructure:"network"`
	Store   StoreConfig   `mapstructure:"store"`
	Output  OutputConfig  `mapstructure:"output"`
}

// NetworkConfig tunes cmd/pageparse's HTTP fetches: TimeoutSeconds applies
// to the seed-document fetch and to the network.HTTPEngine client;
// UserAgent is sent only with the seed-document fetch.
type NetworkConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// StoreConfig locates the local file store used for FILE identifiers.
type StoreConfig struct {
	Root string `mapstructure:"root"`
}

// OutputConfig selects how reduced results are rendered.
type OutputConfig struct {
	Format string `mapstructure:"format"` // "text" or "json"
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Network: NetworkConfig{UserAgent: "hydrus-pageparse/1.0", TimeoutSeconds: 30},
		Store:   StoreConfig{Root: "."},
		Output:  OutputConfig{Format: "text"},
	}
}

// Load reads path (if non-empty) as a viper config file, overlays
// HYDRUS_-prefixed environment variables, and unmarshals onto Default().
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	// Registering every key lets AutomaticEnv apply to Unmarshal.
	v.SetDefault("network.user_agent", cfg.Network.UserAgent)
	v.SetDefault("network.timeout_seconds", cfg.Network.TimeoutSeconds)
	v.SetDefault("store.root", cfg.Store.Root)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetEnvPrefix("hydrus")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
