package config

import (
	"os"
	"time"
)

type Config struct {
	Team         string
	Port         string
	PartnerName  string
	PartnerURL   string
	StorageFile  string
	FundsFile    string
	DatabaseURL  string
	ImagesDir    string
	PollInterval time.Duration
	Environment  string
}

func Load() *Config {
	return &Config{
		Team:         getEnv("TEAM", "BLU"),
		Port:         getEnv("PORT", "3002"),
		PartnerName:  getEnv("PARTNER_NAME", "RED"),
		PartnerURL:   getEnv("PARTNER_URL", "http://localhost:3000"),
		StorageFile:  getEnv("STORAGE_FILE", "storage.json"),
		FundsFile:    getEnv("FUNDS_FILE", "funds.json"),
		DatabaseURL:  getEnv("DATABASE_URL", "hat_store.db"),
		ImagesDir:    getEnv("IMAGES_DIR", "./public/images"),
		PollInterval: getDuration("POLL_INTERVAL", 30*time.Second),
		Environment:  getEnv("ENVIRONMENT", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
