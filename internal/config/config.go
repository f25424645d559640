package config

import (
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Gateway   GatewayConfig
	Sync      SyncConfig
	Local     LocalStoreConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
}

type GatewayConfig struct {
	BaseURL        string `validate:"required,url"`
	AuthToken      string
	TimeoutSeconds int `validate:"gt=0"`
}

type SyncConfig struct {
	ContextTTLSeconds    int `validate:"gt=0"`
	DatasourceTTLSeconds int `validate:"gt=0"`
	SessionTTLSeconds    int `validate:"gt=0"`
	DebounceMs           int `validate:"gt=0"`
	PageSize             int `validate:"gt=0,lte=100"`
}

type LocalStoreConfig struct {
	FilePath string
	RedisURL string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "sync-client.log"),
		},
		Gateway: GatewayConfig{
			BaseURL:        getEnv("GATEWAY_BASE_URL", "http://localhost:3000"),
			AuthToken:      getEnv("GATEWAY_AUTH_TOKEN", ""),
			TimeoutSeconds: getEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 30),
		},
		Sync: SyncConfig{
			ContextTTLSeconds:    getEnvAsInt("SYNC_CONTEXT_TTL_SECONDS", 300),
			DatasourceTTLSeconds: getEnvAsInt("SYNC_DATASOURCE_TTL_SECONDS", 60),
			SessionTTLSeconds:    getEnvAsInt("SYNC_SESSION_TTL_SECONDS", 60),
			DebounceMs:           getEnvAsInt("SYNC_DEBOUNCE_MS", 500),
			PageSize:             getEnvAsInt("SYNC_PAGE_SIZE", 20),
		},
		Local: LocalStoreConfig{
			FilePath: getEnv("LOCAL_STORE_PATH", ".sync-selection.cache"),
			RedisURL: getEnv("LOCAL_STORE_REDIS_URL", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnv("OTEL_ENABLED", "false") == "true",
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

// Validate checks the loaded configuration against struct tags.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c.Gateway); err != nil {
		return err
	}
	return v.Struct(c.Sync)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
