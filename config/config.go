// Package config loads the mcpgen configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"goa.design/mcpgen/codegen/typescript"
)

// ErrInvalidConfig is returned when the configuration cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the generator configuration loaded from YAML.
type Config struct {
	// Manifest is the path of the introspection snapshot.
	Manifest string `yaml:"manifest"`
	// OutputPath is where the generated module is written. It is also
	// recorded in the module header.
	OutputPath string `yaml:"outputPath"`
	// ClientPrefix is reserved.
	ClientPrefix    string `yaml:"clientPrefix"`
	IncludeComments bool   `yaml:"includeComments"`
	TreeShakable    bool   `yaml:"treeShakable"`
	// Collisions is the identifier collision policy: "last-wins" or
	// "suffix".
	Collisions    string `yaml:"collisions"`
	StrictSchemas bool   `yaml:"strictSchemas"`
}

// Load reads configuration from the supplied path or returns defaults when
// path is empty or does not exist.
func Load(path string) (Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML configuration document. Keys absent from the
// document keep their default value; unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := defaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if _, err := typescript.ParseCollisionPolicy(c.Collisions); err != nil {
		return fmt.Errorf("%w: collisions: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Options returns the generation options described by the configuration.
func (c Config) Options() *typescript.Options {
	opts := typescript.DefaultOptions()
	opts.OutputPath = c.OutputPath
	opts.ClientPrefix = c.ClientPrefix
	opts.IncludeComments = c.IncludeComments
	opts.TreeShakable = c.TreeShakable
	if policy, err := typescript.ParseCollisionPolicy(c.Collisions); err == nil {
		opts.Collisions = policy
	}
	return opts
}

func defaultConfig() Config {
	return Config{
		IncludeComments: true,
		TreeShakable:    true,
		Collisions:      string(typescript.CollisionLastWins),
	}
}
