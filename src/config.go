package src

import (
	"fmt"
	"tour_guide_rag/src/model"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogConfig      model.LogConfig      `envconfig:""`
	ServerConfig   model.ServerConfig   `envconfig:""`
	LLMConfig      model.LLMConfig      `envconfig:""`
	TourAPIConfig  model.TourAPIConfig  `envconfig:""`
	DatabaseConfig model.DatabaseConfig `envconfig:""`
	CacheConfig    model.CacheConfig    `envconfig:""`
	EnrichConfig   model.EnrichConfig   `envconfig:""`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %v", err)
	}

	return &config, nil
}
