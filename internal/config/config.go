package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the housing-registry settings.
type Config struct {
	Database struct {
		Path string
	}
	Log struct {
		Level  string
		Format string
	}
	SeedSampleData bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Database.Path = getEnv("DB_PATH", "housing_registry.db")
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	cfg.SeedSampleData = getEnv("SEED_SAMPLE_DATA", "true") == "true"

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
