// Package config holds sketchmint configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all sketchmint configuration.
type Config struct {
	Chain     ChainConfig     `yaml:"chain" json:"chain"`
	Metadata  MetadataConfig  `yaml:"metadata" json:"metadata"`
	Generator GeneratorConfig `yaml:"generator" json:"generator"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// ChainConfig configures the JSON-RPC endpoint used for contract reads.
type ChainConfig struct {
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
	ChainID     int64  `yaml:"chain_id" json:"chain_id"`
	CallTimeout string `yaml:"call_timeout" json:"call_timeout"`
}

// MetadataConfig configures metadata document retrieval.
type MetadataConfig struct {
	IPFSGateway string `yaml:"ipfs_gateway" json:"ipfs_gateway"`
	HTTPTimeout string `yaml:"http_timeout" json:"http_timeout"`
}

// GeneratorConfig configures code generation.
type GeneratorConfig struct {
	// MaxChunkSize is the segment size handed to the sketch segmenter.
	MaxChunkSize int `yaml:"max_chunk_size" json:"max_chunk_size"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Development bool   `yaml:"development" json:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Chain: ChainConfig{
			Endpoint:    "https://rpc.forma.art",
			ChainID:     984122,
			CallTimeout: "15s",
		},
		Metadata: MetadataConfig{
			IPFSGateway: "https://ipfs.io/ipfs/",
			HTTPTimeout: "30s",
		},
		Generator: GeneratorConfig{
			MaxChunkSize: 14000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a config file (YAML or JSON by extension) over the defaults,
// then applies environment overrides. An empty path yields defaults plus
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		switch filepath.Ext(path) {
		case ".json":
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays SKETCHMINT_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("SKETCHMINT_RPC_ENDPOINT"); v != "" {
		c.Chain.Endpoint = v
	}
	if v := os.Getenv("SKETCHMINT_CHAIN_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Chain.ChainID = id
		}
	}
	if v := os.Getenv("SKETCHMINT_IPFS_GATEWAY"); v != "" {
		c.Metadata.IPFSGateway = v
	}
	if v := os.Getenv("SKETCHMINT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the config for values that cannot work.
func (c *Config) Validate() error {
	if c.Chain.ChainID <= 0 {
		return fmt.Errorf("chain_id must be positive, got %d", c.Chain.ChainID)
	}
	if c.Generator.MaxChunkSize <= 0 {
		return fmt.Errorf("max_chunk_size must be positive, got %d", c.Generator.MaxChunkSize)
	}
	if _, err := c.ChainCallTimeout(); err != nil {
		return err
	}
	if _, err := c.MetadataHTTPTimeout(); err != nil {
		return err
	}
	return nil
}

// ChainCallTimeout parses the configured contract-call timeout.
func (c *Config) ChainCallTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Chain.CallTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid call_timeout: %w", err)
	}
	return d, nil
}

// MetadataHTTPTimeout parses the configured metadata fetch timeout.
func (c *Config) MetadataHTTPTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Metadata.HTTPTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid http_timeout: %w", err)
	}
	return d, nil
}
