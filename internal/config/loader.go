// Package config provides configuration loading for searchd.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// LoadWithFile loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SEARCHD_BACKEND_HOST, SEARCHD_SEARCH_MIN_SCORE, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// Environment variables are prefixed with SEARCHD_ and map section_field
// to section.field: SEARCHD_BACKEND_HOST -> backend.host.
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		info, err := os.Stat(configPath)
		switch {
		case os.IsNotExist(err):
			// Missing file is fine; defaults + env apply.
		case err != nil:
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		default:
			if info.Size() > maxConfigFileSize {
				return nil, fmt.Errorf("config file %s exceeds %d bytes", configPath, maxConfigFileSize)
			}
			content, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	// Env override: SEARCHD_<SECTION>_<FIELD_NAME> -> section.field_name.
	// Split on the first underscore after the prefix only, so compound
	// field names survive (SEARCHD_SEARCH_MIN_SCORE -> search.min_score).
	if err := k.Load(env.Provider("SEARCHD_", ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, "SEARCHD_"))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := NewDefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Backend.ApplyDefaults()
	cfg.Embeddings.ApplyDefaults()
	cfg.Search.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
