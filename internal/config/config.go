package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"

	"gutcheck/internal/errors"
)

// ClassifierBackend selects the classification engine implementation.
type ClassifierBackend string

const (
	BackendKmer     ClassifierBackend = "kmer"
	BackendExternal ClassifierBackend = "external"
)

// Config is the complete application configuration, constructed once
// at batch start and passed by value into every component. There is no
// process-wide mutable configuration state.
type Config struct {
	Pipeline PipelineConfig
	Batch    BatchConfig
	Database DatabaseConfig
	Paths    PathConfig
	External ExternalConfig
	Backend  ClassifierBackend
}

// PipelineConfig holds per-sample processing thresholds.
type PipelineConfig struct {
	MinReadLength  int
	MinMeanQuality float64
	MinConfidence  float64
}

// BatchConfig holds orchestration settings.
type BatchConfig struct {
	Workers     int
	MaxRetries  int
	RetryBaseMS int
}

// DatabaseConfig holds the optional result store connection.
type DatabaseConfig struct {
	URL string
}

// PathConfig holds file system paths.
type PathConfig struct {
	RulesFile string
}

// ExternalConfig holds the out-of-process classifier invocation.
type ExternalConfig struct {
	Binary string
	Args   []string
}

// Load reads configuration from the environment (honoring a local
// .env file) and validates it. Invalid values are a ConfigError, fatal
// before any sample begins.
func Load() (Config, error) {
	// Missing .env is fine; the environment may be fully populated.
	_ = godotenv.Load()

	cfg := Config{
		Pipeline: PipelineConfig{
			MinReadLength:  intEnv("GUTCHECK_MIN_READ_LENGTH", 100),
			MinMeanQuality: floatEnv("GUTCHECK_MIN_MEAN_QUALITY", 7),
			MinConfidence:  floatEnv("GUTCHECK_MIN_CONFIDENCE", 0.10),
		},
		Batch: BatchConfig{
			Workers:     intEnv("GUTCHECK_WORKERS", defaultWorkers()),
			MaxRetries:  intEnv("GUTCHECK_MAX_RETRIES", 2),
			RetryBaseMS: intEnv("GUTCHECK_RETRY_BASE_MS", 250),
		},
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Paths:    PathConfig{RulesFile: envOr("GUTCHECK_RULES", "databases.yaml")},
		External: ExternalConfig{Binary: os.Getenv("GUTCHECK_EXTERNAL_CLASSIFIER")},
		Backend:  ClassifierBackend(envOr("GUTCHECK_CLASSIFIER", string(BackendKmer))),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values that would put the batch under an invalid
// contract.
func (c Config) Validate() error {
	if c.Pipeline.MinReadLength < 0 {
		return errors.ConfigInvalid("GUTCHECK_MIN_READ_LENGTH must be >= 0")
	}
	if c.Pipeline.MinMeanQuality < 0 {
		return errors.ConfigInvalid("GUTCHECK_MIN_MEAN_QUALITY must be >= 0")
	}
	if c.Pipeline.MinConfidence < 0 || c.Pipeline.MinConfidence > 1 {
		return errors.ConfigInvalid("GUTCHECK_MIN_CONFIDENCE must be in [0,1]")
	}
	if c.Batch.Workers < 1 {
		return errors.ConfigInvalid("GUTCHECK_WORKERS must be >= 1")
	}
	if c.Batch.MaxRetries < 0 {
		return errors.ConfigInvalid("GUTCHECK_MAX_RETRIES must be >= 0")
	}
	switch c.Backend {
	case BackendKmer:
	case BackendExternal:
		if c.External.Binary == "" {
			return errors.ConfigInvalid("GUTCHECK_EXTERNAL_CLASSIFIER is required for the external backend")
		}
	default:
		return errors.ConfigInvalid("GUTCHECK_CLASSIFIER must be \"kmer\" or \"external\"")
	}
	return nil
}

// defaultWorkers derives the pool size from available cores, capped so
// in-flight read buffers plus the shared index stay inside a modest
// memory budget.
func defaultWorkers() int {
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return n
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		return -1 // force validation failure on garbage
	}
	return fallback
}

func floatEnv(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return -1
	}
	return fallback
}
