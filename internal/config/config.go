// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

// Package config loads node runtime configuration from an optional YAML
// file overridden by environment variables, following koanf's own
// documented composition order: defaults, then file provider, then env
// provider, last writer wins.
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
)

// StoreBackend selects the policy store's persistence layer.
type StoreBackend string

const (
	BackendMemory StoreBackend = "memory"
	BackendBolt   StoreBackend = "bbolt"
)

// Config holds every externally-tunable setting for one node process.
type Config struct {
	// PolicyStoreBackend selects memory or bbolt for the policy store.
	// Defaults to bbolt.
	PolicyStoreBackend StoreBackend `koanf:"policy_store.backend"`
	// PolicyStorePath is the bbolt file path, used only when
	// PolicyStoreBackend is BackendBolt.
	PolicyStorePath string `koanf:"policy_store.path"`

	// AttributeStoreBackend selects memory, bbolt, or postgres for the
	// identity attribute store.
	AttributeStoreBackend StoreBackend `koanf:"attribute_store.backend"`
	AttributeStorePath    string       `koanf:"attribute_store.path"`
	AttributeStoreDSN     string       `koanf:"attribute_store.dsn"`

	// Overwrite controls whether identity attributes may replace an
	// existing binding in the gate's base environment.
	Overwrite bool `koanf:"gate.overwrite"`

	LogFormat string `koanf:"log.format"`
	LogLevel  string `koanf:"log.level"`

	ServiceName    string `koanf:"service.name"`
	ServiceVersion string `koanf:"service.version"`
}

// defaultValues is the configuration used when no file or environment
// override is present, expressed as a flat key map matching the
// `koanf` struct tags above.
func defaultValues() map[string]any {
	return map[string]any{
		"policy_store.backend":    string(BackendBolt),
		"policy_store.path":       "policies.bolt",
		"attribute_store.backend": string(BackendBolt),
		"attribute_store.path":    "attributes.bolt",
		"log.format":              "json",
		"log.level":               "info",
		"service.name":            "abac-node",
		"service.version":         "dev",
	}
}

// Load builds a Config from defaults, an optional YAML file at path (an
// empty path skips the file layer entirely), and environment variables
// prefixed ABAC_ (e.g. ABAC_POLICY_STORE_BACKEND maps to
// policy_store.backend). Each layer overrides the previous one.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_DEFAULTS_FAILED").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	}

	envProvider := env.Provider("ABAC_", ".", func(s string) string {
		// Only the last underscore separates section from field, so a
		// section name such as policy_store keeps its own underscore.
		s = strings.ToLower(strings.TrimPrefix(s, "ABAC_"))
		if i := strings.LastIndex(s, "_"); i >= 0 {
			s = s[:i] + "." + s[i+1:]
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{FlatPaths: true}); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}
	return &cfg, nil
}
