// Package config loads environment-driven configuration with sane defaults.
// A .env file in the working directory is honored if present; the
// environment always wins.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the server needs at startup.
type Config struct {
	AppName string
	Port    int
	DBPath  string

	// Batch scheduler
	BatchInterval    time.Duration
	PerWorkerTimeout time.Duration
	SchedulerEnabled bool

	// Worker numbers
	WorkerNumberPrefix string

	// Notification
	SendgridAPIKey string
	FromName       string
	FromEmail      string

	// Logging
	LogLevel string
	LogPath  string
}

// Load reads configuration from the environment (WFE_ prefix), falling back
// to defaults. A ".env" file is loaded first if it exists.
func Load() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return Config{}, err
		}
	}

	v := viper.New()
	v.SetEnvPrefix("WFE")
	v.AutomaticEnv()

	v.SetDefault("app_name", "Workforce Engine")
	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "workforce.db")
	v.SetDefault("batch_interval", 7*24*time.Hour)
	v.SetDefault("per_worker_timeout", 30*time.Second)
	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("worker_number_prefix", "LGW")
	v.SetDefault("from_name", "Workforce Admin")
	v.SetDefault("from_email", "noreply@localhost")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_path", "")

	return Config{
		AppName:            v.GetString("app_name"),
		Port:               v.GetInt("port"),
		DBPath:             v.GetString("db_path"),
		BatchInterval:      v.GetDuration("batch_interval"),
		PerWorkerTimeout:   v.GetDuration("per_worker_timeout"),
		SchedulerEnabled:   v.GetBool("scheduler_enabled"),
		WorkerNumberPrefix: v.GetString("worker_number_prefix"),
		SendgridAPIKey:     v.GetString("sendgrid_api_key"),
		FromName:           v.GetString("from_name"),
		FromEmail:          v.GetString("from_email"),
		LogLevel:           v.GetString("log_level"),
		LogPath:            v.GetString("log_path"),
	}, nil
}
