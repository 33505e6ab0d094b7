package config

import (
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port        string `mapstructure:"GATEWAY_PORT"`
	GinMode     string `mapstructure:"GIN_MODE"`
	Environment string `mapstructure:"ENVIRONMENT"`

	// Upstream services
	FileStoreURL string `mapstructure:"FILESTORE_URL"`
	AnalysisURL  string `mapstructure:"ANALYSIS_URL"`
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("GATEWAY_PORT", "8080")
	viper.SetDefault("GIN_MODE", "release")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("FILESTORE_URL", "http://localhost:8081")
	viper.SetDefault("ANALYSIS_URL", "http://localhost:8082")

	_ = viper.ReadInConfig()

	cfg := &Config{}
	for _, key := range []string{
		"GATEWAY_PORT", "GIN_MODE", "ENVIRONMENT",
		"FILESTORE_URL", "ANALYSIS_URL",
	} {
		if val := os.Getenv(key); val != "" {
			viper.Set(key, val)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Upstreams maps target names to base URLs. Routes bind to these names, so
// the route catalogue can change without touching the services themselves.
func (c *Config) Upstreams() map[string]string {
	return map[string]string{
		"filestore": c.FileStoreURL,
		"analysis":  c.AnalysisURL,
	}
}
