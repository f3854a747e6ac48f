// Package config loads the server configuration from a YAML file with
// overrides from the environment.  A .env file in the working directory
// is honored when present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ModelConfig locates one model artifact and its labels.  Model may be a
// local file path or an HTTP URL fetched into the model cache at startup.
type ModelConfig struct {
	Model     string `yaml:"model"`
	Labels    string `yaml:"labels"`
	InputSize int    `yaml:"input_size"`
}

// Config holds the helmetvisiond server settings
type Config struct {
	// Listen is the address the HTTP server binds to
	Listen string `yaml:"listen"`
	// LogMode selects the logger, production or development
	LogMode string `yaml:"log_mode"`
	// PoolSize is the number of detector services to share across
	// request handlers
	PoolSize int `yaml:"pool_size"`
	// Threshold is the confidence cutoff for helmet detections
	Threshold float64 `yaml:"threshold"`
	// ModelCacheDir is where URL sourced model artifacts are stored
	ModelCacheDir string `yaml:"model_cache_dir"`

	Detector   ModelConfig `yaml:"detector"`
	Classifier ModelConfig `yaml:"classifier"`
}

// Load reads the configuration file and applies environment overrides
func Load(file string) (*Config, error) {

	// a missing .env file is not an error
	_ = godotenv.Load()

	data, err := os.ReadFile(file)

	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := &Config{}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.Detector.Model == "" {
		return nil, fmt.Errorf("config is missing the detector model")
	}
	if cfg.Classifier.Model == "" {
		return nil, fmt.Errorf("config is missing the classifier model")
	}

	return cfg, nil
}

// applyEnv overrides file settings from HELMETVISION_ variables
func (c *Config) applyEnv() {

	if v := os.Getenv("HELMETVISION_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("HELMETVISION_LOG_MODE"); v != "" {
		c.LogMode = v
	}
	if v := os.Getenv("HELMETVISION_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.PoolSize = n
		}
	}
	if v := os.Getenv("HELMETVISION_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Threshold = f
		}
	}
	if v := os.Getenv("HELMETVISION_DETECTOR_MODEL"); v != "" {
		c.Detector.Model = v
	}
	if v := os.Getenv("HELMETVISION_CLASSIFIER_MODEL"); v != "" {
		c.Classifier.Model = v
	}
}

// applyDefaults fills unset fields
func (c *Config) applyDefaults() {

	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.LogMode == "" {
		c.LogMode = "production"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 1
	}
	if c.Threshold == 0 {
		c.Threshold = 0.5
	}
	if c.ModelCacheDir == "" {
		c.ModelCacheDir = "./models"
	}
}
