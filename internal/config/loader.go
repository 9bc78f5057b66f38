package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the retrieval tuning file
type YAMLConfig struct {
	Retrievers struct {
		// Enabled lists retriever names in consultation order. Empty keeps the default order.
		Enabled []string `yaml:"enabled"`
	} `yaml:"retrievers"`
	Keywords struct {
		Weather   []string `yaml:"weather"`
		Knowledge []string `yaml:"knowledge"`
		Stopwords []string `yaml:"stopwords"`
	} `yaml:"keywords"`
	Timeouts struct {
		Geocode   time.Duration `yaml:"geocode"`
		Weather   time.Duration `yaml:"weather"`
		TourAPI   time.Duration `yaml:"tour_api"`
		Embedding time.Duration `yaml:"embedding"`
		Retriever time.Duration `yaml:"retriever"`
	} `yaml:"timeouts"`
}

// LoadConfig loads the tuning overlay from a YAML file
func LoadConfig(filepath string) (*YAMLConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config YAMLConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	for i, name := range config.Retrievers.Enabled {
		config.Retrievers.Enabled[i] = strings.ToLower(strings.TrimSpace(name))
	}
	return &config, nil
}

// LoadOptional returns an empty overlay when filepath is blank.
func LoadOptional(filepath string) (*YAMLConfig, error) {
	if strings.TrimSpace(filepath) == "" {
		return &YAMLConfig{}, nil
	}
	return LoadConfig(filepath)
}

// RetrieverEnabled reports whether name is allowed. No list means all are.
func (c *YAMLConfig) RetrieverEnabled(name string) bool {
	if len(c.Retrievers.Enabled) == 0 {
		return true
	}
	for _, n := range c.Retrievers.Enabled {
		if n == name {
			return true
		}
	}
	return false
}

// DurationOr returns d when positive, else fallback.
func DurationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
