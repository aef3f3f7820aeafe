package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port string

	GCPProjectID string
	GCPLocation  string
	ModelName    string

	StorageBackend string // "file", "memory" or "firestore"
	DataDir        string // directory for the file backend
	UseMockLLM     bool   // true = use mock even on GCP

	JWTSecret string
	TokenTTL  time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// Load reads all env vars (after a best-effort .env load) and builds the config.
func Load() *Config {
	_ = godotenv.Load()

	modeStr := getEnv("TUTOR_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("TUTOR_PORT", "8080"),

		GCPProjectID: getEnv("TUTOR_GCP_PROJECT", ""),
		GCPLocation:  getEnv("TUTOR_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("TUTOR_MODEL_NAME", "gemini-2.5-flash"),

		StorageBackend: getEnv("TUTOR_STORAGE_BACKEND", "file"),
		DataDir:        getEnv("TUTOR_DATA_DIR", "."),
		UseMockLLM:     getBoolEnv("TUTOR_USE_MOCK_LLM", mode == ModeLocal),

		JWTSecret: getEnv("TUTOR_JWT_SECRET", "dev-only-secret"),
		TokenTTL:  getDurationEnv("TUTOR_TOKEN_TTL", 24*time.Hour),
	}

	// Minimal validation in GCP mode
	if cfg.Mode == ModeGCP && cfg.GCPProjectID == "" {
		log.Fatal("TUTOR_GCP_PROJECT must be set in gcp mode")
	}

	return cfg
}
