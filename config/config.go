package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const DefaultDataURL = "https://raw.githubusercontent.com/IBM/telco-customer-churn-on-icp4d/master/data/Telco-Customer-Churn.csv"

type Config struct {
	Data struct {
		URL           string `yaml:"url"`
		RawPath       string `yaml:"raw_path"`
		TargetColumn  string `yaml:"target_column"`
		IDColumn      string `yaml:"id_column"`
		PositiveLabel string `yaml:"positive_label"`

		// Columns stored as text that must be read as numbers.
		NumericTextColumns []string `yaml:"numeric_text_columns"`
	} `yaml:"data"`
	Training struct {
		TestSize        float64 `yaml:"test_size"`
		RandomState     int64   `yaml:"random_state"`
		NEstimators     int     `yaml:"n_estimators"`
		MaxDepth        int     `yaml:"max_depth"`
		MinSamplesSplit int     `yaml:"min_samples_split"`
	} `yaml:"training"`
	Model struct {
		Path        string `yaml:"path"`
		MetricsPath string `yaml:"metrics_path"`
	} `yaml:"model"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Http struct {
		Port           int           `yaml:"port"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		CacheSize      int           `yaml:"cache_size"`
	} `yaml:"http"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
}

// Default mirrors the constants the pipeline was first built with.
func Default() *Config {
	var c Config
	c.Data.URL = DefaultDataURL
	c.Data.RawPath = "data/raw/telco_customer_churn.csv"
	c.Data.TargetColumn = "Churn"
	c.Data.IDColumn = "customerID"
	c.Data.PositiveLabel = "Yes"
	c.Data.NumericTextColumns = []string{"TotalCharges"}

	c.Training.TestSize = 0.2
	c.Training.RandomState = 42
	c.Training.NEstimators = 100
	c.Training.MinSamplesSplit = 2

	c.Model.Path = "models/model.json"
	c.Model.MetricsPath = "models/metrics.json"
	c.Database.Path = "models/runs.db"

	c.Http.Port = 8000
	c.Http.ReadTimeout = 15 * time.Second
	c.Http.WriteTimeout = 15 * time.Second
	c.Http.AllowedOrigins = []string{"*"}
	c.Http.CacheSize = 1024

	c.Log.Level = "info"
	c.Log.File = "logs/churnserve.log"
	c.Log.MaxSizeMB = 50
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28
	return &c
}

// Load reads a YAML config over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return fmt.Errorf("training.test_size must be in (0, 1), got %v", c.Training.TestSize)
	}
	if c.Training.NEstimators <= 0 {
		return errors.New("training.n_estimators must be positive")
	}
	if c.Training.MinSamplesSplit < 2 {
		return errors.New("training.min_samples_split must be at least 2")
	}
	if c.Data.TargetColumn == "" {
		return errors.New("data.target_column is required")
	}
	if c.Data.PositiveLabel == "" {
		return errors.New("data.positive_label is required")
	}
	if c.Model.Path == "" || c.Model.MetricsPath == "" {
		return errors.New("model.path and model.metrics_path are required")
	}
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.Http.Port)
	}
	return nil
}
