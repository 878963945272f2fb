package config

import (
	"fmt"
	"os"

	"github.com/go-core-fx/config"
)

type httpConfig struct {
	Address     string   `koanf:"address"      validate:"required,hostname_port"`
	ProxyHeader string   `koanf:"proxy_header"`
	Proxies     []string `koanf:"proxies"`

	// Debug switches 5xx responses from the structured JSON body to a
	// plain-text error trace. Never enable in production.
	Debug bool `koanf:"debug"`
}

type storageConfig struct {
	DataDir  string `koanf:"data_dir" validate:"required_unless=InMemory true"`
	InMemory bool   `koanf:"in_memory"`

	// Wipe drops every key right after the store opens.
	Wipe bool `koanf:"wipe"`
}

type indexConfig struct {
	Field  string `koanf:"field"  validate:"required"`
	Unique bool   `koanf:"unique"`
}

type apiConfig struct {
	Prefix     string        `koanf:"prefix"     validate:"required,startswith=/"`
	Collection string        `koanf:"collection" validate:"required,alphanum"`
	Indexes    []indexConfig `koanf:"indexes"    validate:"dive"`
}

type Config struct {
	HTTP httpConfig `koanf:"http"`

	Storage storageConfig `koanf:"storage"`
	API     apiConfig     `koanf:"api"`
}

func Default() Config {
	//nolint:exhaustruct //default values
	return Config{
		HTTP: httpConfig{
			Address:     "127.0.0.1:8888",
			ProxyHeader: "X-Forwarded-For",
			Proxies:     []string{},
		},

		Storage: storageConfig{
			DataDir: "./data",
		},

		API: apiConfig{
			Prefix:     "/",
			Collection: "documents",
		},
	}
}

func New() (Config, error) {
	cfg := Default()

	options := []config.Option{}
	if yamlPath := os.Getenv("CONFIG_PATH"); yamlPath != "" {
		options = append(options, config.WithLocalYAML(yamlPath))
	}

	if err := config.Load(&cfg, options...); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}
