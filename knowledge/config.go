package knowledge

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/knowbase/extract"
)

// Config holds all knowledge service configuration.
type Config struct {
	DBPath  string         `yaml:"db_path"`
	Extract extract.Config `yaml:"extract"`
	Monitor MonitorConfig  `yaml:"monitor"`
}

// MonitorConfig controls the background sweep.
type MonitorConfig struct {
	// SweepInterval is how often to poll for pending documents. Default: 15s.
	SweepInterval time.Duration `yaml:"sweep_interval"`
	// BatchSize caps documents processed per sweep. Default: 25.
	BatchSize int `yaml:"batch_size"`
	// DocumentTimeout bounds processing of one document; a hung extraction
	// (typically a slow website) fails that document instead of stalling
	// the sweep. Default: 60s.
	DocumentTimeout time.Duration `yaml:"document_timeout"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "knowbase.db"
	}
	c.Monitor.defaults()
}

func (c *MonitorConfig) defaults() {
	if c.SweepInterval <= 0 {
		c.SweepInterval = 15 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 25
	}
	if c.DocumentTimeout <= 0 {
		c.DocumentTimeout = 60 * time.Second
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
