package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// ArchiveConfig selects the optional SQL sink for run results.
type ArchiveConfig struct {
	Backend string
	DSN     string
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string
	LogDir              string
	OutputDir           string
	SettingsFile        string
	EnableMermaidCharts bool
	OpenDashboard       bool
	Archive             ArchiveConfig
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory first
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	outputDir := getEnv("OUTPUT_DIR", filepath.Join(dataPath, "reports"))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", outputDir).Msg("Failed to create output directory")
	}

	cfg := &AppConfig{
		DataPath:            dataPath,
		LogDir:              logDir,
		OutputDir:           outputDir,
		SettingsFile:        getEnv("AGILE_SETTINGS", ""),
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", true),
		OpenDashboard:       getEnvBool("OPEN_DASHBOARD", false),
		Archive: ArchiveConfig{
			Backend: getEnv("ARCHIVE_BACKEND", "none"),
			DSN:     getEnv("ARCHIVE_DSN", ""),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
