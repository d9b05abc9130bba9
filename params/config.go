package params

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Builder holds the block-builder's timer/size trigger thresholds.
type Builder struct {
	PollInterval time.Duration // how often the builder checks for pending traces
	MaxBlockAge  time.Duration // force a block if the oldest pending trace is older than this
	MaxBatch     int           // force a block once this many traces are pending
}

// Node holds process-level settings.
type Node struct {
	DataDir  string // pebble block-store directory
	HTTPAddr string // control-surface bind address
}

type Config struct {
	Builder Builder
	Node    Node
}

func Default() Config {
	return Config{
		Builder: Builder{
			PollInterval: 100 * time.Millisecond,
			MaxBlockAge:  200 * time.Millisecond,
			MaxBatch:     100,
		},
		Node: Node{
			DataDir:  "./data/blocks",
			HTTPAddr: ":8080",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and environment
// variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("BUILDER_POLL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Builder.PollInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("BUILDER_MAX_BLOCK_AGE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Builder.MaxBlockAge = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("BUILDER_MAX_BATCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Builder.MaxBatch = n
		}
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Node.DataDir = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Node.HTTPAddr = v
	}

	return cfg
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
