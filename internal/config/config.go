package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	ServerAddress    string       `json:"serverAddress"`
	MaxRequestSizeMB int64        `json:"maxRequestSizeMB"`
	DatabasePath     string       `json:"databasePath"`
	DatabaseURL      string       `json:"databaseUrl"`
	PhotoStorage     PhotoStorage `json:"photoStorage"`
	Telemetry        Telemetry    `json:"telemetry"`
}

// UsePostgres returns true if PostgreSQL should be used
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// PhotoStorage configuration
type PhotoStorage struct {
	BasePath      string `json:"basePath"`
	MaxFileSizeMB int64  `json:"maxFileSizeMB"`
}

// Telemetry configuration
type Telemetry struct {
	Enabled        bool   `json:"enabled"`
	ServiceName    string `json:"serviceName"`
	ServiceVersion string `json:"serviceVersion"`
	Environment    string `json:"environment"`
	OTLPEndpoint   string `json:"otlpEndpoint"`
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		ServerAddress:    ":3000",
		MaxRequestSizeMB: 100,
		DatabasePath:     "leftovers.db",
		PhotoStorage: PhotoStorage{
			BasePath:      "./photos",
			MaxFileSizeMB: 10,
		},
		Telemetry: Telemetry{
			Enabled:        false,
			ServiceName:    "leftovers-server",
			ServiceVersion: "dev",
			Environment:    "development",
			OTLPEndpoint:   "localhost:4317",
		},
	}
}

// Load loads configuration from defaults, a .env file, a JSON config file and
// the environment, later sources overriding earlier ones.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	cfg := defaultConfig()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	applyEnv(cfg)

	if err := os.MkdirAll(cfg.PhotoStorage.BasePath, 0755); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(cfg.PhotoStorage.BasePath)
	if err != nil {
		return nil, err
	}
	cfg.PhotoStorage.BasePath = absPath

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.ServerAddress = addr
	}
	if size := os.Getenv("MAX_REQUEST_SIZE_MB"); size != "" {
		if mb, err := strconv.ParseInt(size, 10, 64); err == nil && mb > 0 {
			cfg.MaxRequestSizeMB = mb
		}
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}

	// PHOTO_UPLOAD_DIR is accepted for compatibility with older deployments
	if basePath := os.Getenv("PHOTO_UPLOAD_DIR"); basePath != "" {
		cfg.PhotoStorage.BasePath = basePath
	}
	if basePath := os.Getenv("PHOTO_STORAGE_PATH"); basePath != "" {
		cfg.PhotoStorage.BasePath = basePath
	}
	if size := os.Getenv("MAX_PHOTO_SIZE_MB"); size != "" {
		if mb, err := strconv.ParseInt(size, 10, 64); err == nil && mb > 0 {
			cfg.PhotoStorage.MaxFileSizeMB = mb
		}
	}

	if enabled := os.Getenv("OTEL_ENABLED"); enabled != "" {
		cfg.Telemetry.Enabled = enabled == "true" || enabled == "1"
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		cfg.Telemetry.OTLPEndpoint = endpoint
	}
	if name := os.Getenv("SERVICE_NAME"); name != "" {
		cfg.Telemetry.ServiceName = name
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		cfg.Telemetry.Environment = env
	}
}
