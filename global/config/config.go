package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"chathub/logger"
)

// Load reads the process configuration from the environment. A local .env
// file is honored when present; a missing one is not an error.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded .env file")
	}
	var cfg AppConfig
	if err := envconfig.Process("CHATHUB", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
