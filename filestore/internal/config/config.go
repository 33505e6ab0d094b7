package config

import (
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port        string `mapstructure:"FILESTORE_PORT"`
	GinMode     string `mapstructure:"GIN_MODE"`
	Environment string `mapstructure:"ENVIRONMENT"`

	// Database
	DatabaseURL string `mapstructure:"FILESTORE_DATABASE_URL"`

	// Blob storage
	DataDir string `mapstructure:"FILESTORE_DATA_DIR"`
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("FILESTORE_PORT", "8081")
	viper.SetDefault("GIN_MODE", "release")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("FILESTORE_DATA_DIR", "./stored_files")

	_ = viper.ReadInConfig()

	cfg := &Config{}
	for _, key := range []string{
		"FILESTORE_PORT", "GIN_MODE", "ENVIRONMENT",
		"FILESTORE_DATABASE_URL", "FILESTORE_DATA_DIR",
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
