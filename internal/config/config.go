package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Port             int
	DataDir          string
	StorageRoot      string
	AdminToken       string
	LogLevel         string
	Dev              bool
	StartupAudit     bool
	AuditInterval    time.Duration
	ReconcileWorkers int
}

func Load() *Config {
	dataDir := getEnv("DATA_DIR", ".stratus")
	return &Config{
		Port:             getEnvInt("PORT", 8080),
		DataDir:          dataDir,
		StorageRoot:      getEnv("STORAGE_ROOT", filepath.Join(dataDir, "storage")),
		AdminToken:       getEnv("ADMIN_TOKEN", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Dev:              getEnvBool("DEV", false),
		StartupAudit:     getEnvBool("STARTUP_AUDIT", true),
		AuditInterval:    time.Duration(getEnvInt("AUDIT_INTERVAL_MINUTES", 0)) * time.Minute,
		ReconcileWorkers: getEnvInt("RECONCILE_WORKERS", 4),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
