package config

import (
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port        string `mapstructure:"ANALYSIS_PORT"`
	GinMode     string `mapstructure:"GIN_MODE"`
	Environment string `mapstructure:"ENVIRONMENT"`

	// Database
	DatabaseURL string `mapstructure:"ANALYSIS_DATABASE_URL"`

	// Redis (optional hot cache for analysis results)
	RedisURL    string `mapstructure:"ANALYSIS_REDIS_URL"`
	CacheTTLMin int    `mapstructure:"ANALYSIS_CACHE_TTL_MINUTES"`

	// External services
	FileStoreURL string `mapstructure:"FILESTORE_URL"`
	WordCloudURL string `mapstructure:"WORDCLOUD_URL"`
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("ANALYSIS_PORT", "8082")
	viper.SetDefault("GIN_MODE", "release")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("ANALYSIS_CACHE_TTL_MINUTES", 60)
	viper.SetDefault("FILESTORE_URL", "http://localhost:8081")
	viper.SetDefault("WORDCLOUD_URL", "https://quickchart.io")

	_ = viper.ReadInConfig()

	cfg := &Config{}
	for _, key := range []string{
		"ANALYSIS_PORT", "GIN_MODE", "ENVIRONMENT",
		"ANALYSIS_DATABASE_URL", "ANALYSIS_REDIS_URL", "ANALYSIS_CACHE_TTL_MINUTES",
		"FILESTORE_URL", "WORDCLOUD_URL",
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
