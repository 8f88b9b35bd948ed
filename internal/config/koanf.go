package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/hupe1980/recgo/model"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RECGO_"

// PathEnvVar names the environment variable that can point at a config file.
const PathEnvVar = "RECGO_CONFIG"

// DefaultPaths lists the config files searched when no path is given.
// The first file found is used.
var DefaultPaths = []string{
	"recgo.yaml",
	"recgo.yml",
	"/etc/recgo/config.yaml",
}

// Load builds the configuration from defaults, the YAML file at path (or the
// first of DefaultPaths that exists when path is empty) and RECGO_* variables,
// then validates it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, &model.ConfigurationError{Option: "config", Value: path, Reason: "failed to load config file: " + err.Error()}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, &model.ConfigurationError{Option: "env", Value: EnvPrefix + "*", Reason: "failed to load environment variables: " + err.Error()}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, &model.ConfigurationError{Option: "config", Value: path, Reason: "failed to unmarshal configuration: " + err.Error()}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc maps RECGO_SECTION_SOME_KEY to section.some_key. Every
// section name is a single word, so only the first underscore separates.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		return ""
	}
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + rest
}
