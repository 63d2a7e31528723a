// Package config assembles process configuration from the environment and
// an optional YAML tuning file.
//
// Pipeline tunables never come from ambient state at decode time: the tuning
// file is resolved once at startup into an omr.Config that the server then
// passes explicitly on every request.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gradeworks/omr-engine/internal/omr"
)

// Config is the process-level configuration of the OMR service.
type Config struct {
	// Port the HTTP server listens on.
	Port string

	// Version is the build version reported by the health endpoint.
	// Stamped by the binary, not read from the environment.
	Version string

	// ClassifierURL is the base URL of the remote row-classification
	// service. Empty disables the classifier strategy.
	ClassifierURL string

	// ClassifierTimeout bounds each per-row remote call.
	ClassifierTimeout time.Duration

	// ClassifierWorkers caps concurrent in-flight remote calls.
	ClassifierWorkers int

	// FetchTimeout bounds the download of the source image.
	FetchTimeout time.Duration

	// TuningPath optionally points at a YAML file overriding pipeline
	// tunables; see LoadTuning.
	TuningPath string
}

// Load reads process configuration from the environment, applying defaults
// for anything unset.
func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		ClassifierURL:     getEnv("OMR_CLASSIFIER_URL", ""),
		ClassifierTimeout: getDuration("OMR_CLASSIFIER_TIMEOUT", 15*time.Second),
		ClassifierWorkers: getInt("OMR_CLASSIFIER_WORKERS", 5),
		FetchTimeout:      getDuration("OMR_FETCH_TIMEOUT", 30*time.Second),
		TuningPath:        getEnv("OMR_TUNING_FILE", ""),
	}
}

// LoadTuning resolves the pipeline configuration: the defaults, overridden
// by whatever fields the YAML file at path sets. An empty path returns the
// defaults unchanged.
func LoadTuning(path string) (omr.Config, error) {
	cfg := omr.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
