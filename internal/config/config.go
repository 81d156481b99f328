// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port                 int  `mapstructure:"port"`
	PollIntervalSeconds  int  `mapstructure:"poll_interval_seconds"`
	FetchSteps           bool `mapstructure:"fetch_steps"`
	HistoryRetentionDays int  `mapstructure:"history_retention_days"`
	API                  struct {
		Token string `mapstructure:"token"`
	} `mapstructure:"api"`
	Backend struct {
		BaseURL string `mapstructure:"base_url"`
		Token   string `mapstructure:"token"`
	} `mapstructure:"backend"`
	Webhook struct {
		Secret string `mapstructure:"secret"`
	} `mapstructure:"webhook"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or "yaml"
	viper.AddConfigPath(".")      // looking for config in the current directory

	// --- Environment Variable Overrides ---
	// This tells Viper to look for environment variables with a "LEADWATCH_" prefix.
	// e.g., LEADWATCH_BACKEND_BASE_URL will override the `backend.base_url` key.
	viper.SetEnvPrefix("LEADWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("port", 8085)
	viper.SetDefault("poll_interval_seconds", 4)
	viper.SetDefault("fetch_steps", false)
	viper.SetDefault("history_retention_days", 14)
	viper.SetDefault("api.token", "")
	viper.SetDefault("backend.base_url", "http://localhost:3001")
	viper.SetDefault("backend.token", "")
	viper.SetDefault("webhook.secret", "")
	viper.SetDefault("database.path", "./leadwatch.db")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// PollInterval returns the poll period as a duration, clamped to a sane
// minimum so a zeroed config can never produce a busy loop.
func (c *Config) PollInterval() time.Duration {
	secs := c.PollIntervalSeconds
	if secs < 1 {
		secs = 4
	}
	return time.Duration(secs) * time.Second
}
