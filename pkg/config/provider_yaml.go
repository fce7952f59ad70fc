package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const defaultRESTPort = 8080

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig reads, validates and caches the configuration file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	data, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	cfg, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", y.filename, err)
	}

	y.config = cfg
	return cfg, nil
}

// ParseYAML decodes and validates a YAML configuration document and fills
// in defaults.
func ParseYAML(data []byte) (*ConfigData, error) {
	var cfg ConfigData
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *ConfigData) {
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.DuplicateTimestamps == "" {
		cfg.DuplicateTimestamps = "reject"
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.REST.Port == 0 {
		cfg.REST.Port = defaultRESTPort
	}
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
