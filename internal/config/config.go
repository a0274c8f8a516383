// Package config loads server settings from an optional cesta.yaml file and
// CESTA_* environment variables, the environment winning.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string
	DBPath   string
	LogLevel string

	// Classifier settings. An empty APIKey disables upstream
	// classification; adds then use the deterministic fallback.
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
}

// Load reads configuration. A missing config file is not an error; every
// setting has a default or comes from the environment.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("cesta")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/cesta")

	v.SetEnvPrefix("cesta")
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "cesta.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", "")
	v.SetDefault("gemini_base_url", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return Config{
		Port:          v.GetString("port"),
		DBPath:        v.GetString("db_path"),
		LogLevel:      v.GetString("log_level"),
		GeminiAPIKey:  v.GetString("gemini_api_key"),
		GeminiModel:   v.GetString("gemini_model"),
		GeminiBaseURL: v.GetString("gemini_base_url"),
	}, nil
}
