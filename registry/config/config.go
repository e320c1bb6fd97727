// Package config loads the aggregator configuration from a YAML file and
// builds the configured MergedRegistry from it.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/chain-registry/chain-registry-framework/pkg/logger"
	"github.com/chain-registry/chain-registry-framework/registry"
	"github.com/chain-registry/chain-registry-framework/registry/filestore"
	"github.com/chain-registry/chain-registry-framework/registry/httpstore"
)

// BackendConfig describes one backend registry. Exactly one of Path or URL
// is meaningful, depending on the kind.
type BackendConfig struct {
	// Kind is the backend family: "memory", "filesystem" or "http".
	Kind string `mapstructure:"kind" yaml:"kind"`
	// Path is the registry root for filesystem backends, or a diagnostic
	// label for memory backends.
	Path string `mapstructure:"path" yaml:"path"`
	// URL is the snapshot base URL for http backends.
	URL string `mapstructure:"url" yaml:"url"`
}

// OverridesConfig carries the static override layer. Keys are chain names.
type OverridesConfig struct {
	Metadata  map[string]map[string]any    `mapstructure:"metadata" yaml:"metadata"`
	Addresses map[string]map[string]string `mapstructure:"addresses" yaml:"addresses"`
}

// Config wraps the entire aggregator configuration.
type Config struct {
	// Registries lists the backends in precedence order: later entries
	// override earlier ones on reads, and writes are attempted in this
	// order.
	Registries []BackendConfig `mapstructure:"registries" yaml:"registries"`
	Overrides  OverridesConfig `mapstructure:"overrides" yaml:"overrides"`
}

// Load loads the config from a file. Environment variables of the form
// REGISTRY_<n>_PATH and REGISTRY_<n>_URL override the location of the
// backend at index n after the file is read.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filePath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// viper lowercases map keys, which would corrupt chain names and
	// metadata field names in the override layer. Re-decode that subtree
	// from the raw file with a case-preserving YAML decoder.
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var preserved struct {
		Overrides OverridesConfig `yaml:"overrides"`
	}
	if err := yaml.Unmarshal(raw, &preserved); err != nil {
		return nil, err
	}
	cfg.Overrides = preserved.Overrides

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides lets the environment override backend locations.
// Backends are addressed by their index in the registries list; viper's
// BindEnv cannot target list entries, so the lookup happens after decoding.
func applyEnvOverrides(cfg *Config) {
	for i := range cfg.Registries {
		if val, ok := os.LookupEnv(fmt.Sprintf("REGISTRY_%d_PATH", i)); ok {
			cfg.Registries[i].Path = val
		}
		if val, ok := os.LookupEnv(fmt.Sprintf("REGISTRY_%d_URL", i)); ok {
			cfg.Registries[i].URL = val
		}
	}
}

// overrides converts the configured override layer to the registry types.
func (c *Config) overrides() registry.Overrides {
	o := registry.Overrides{}
	if len(c.Overrides.Metadata) > 0 {
		o.Metadata = make(map[registry.ChainName]registry.ChainMetadata, len(c.Overrides.Metadata))
		for name, record := range c.Overrides.Metadata {
			o.Metadata[registry.ChainName(name)] = registry.ChainMetadata(record)
		}
	}
	if len(c.Overrides.Addresses) > 0 {
		o.Addresses = make(map[registry.ChainName]registry.ChainAddresses, len(c.Overrides.Addresses))
		for name, record := range c.Overrides.Addresses {
			o.Addresses[registry.ChainName(name)] = registry.ChainAddresses(record)
		}
	}

	return o
}

// BuildMergedRegistry constructs the aggregator described by the config:
// one backend per entry, in configured order, with the static overrides
// installed.
func BuildMergedRegistry(lggr logger.Logger, cfg *Config) (*registry.MergedRegistry, error) {
	backends := make([]registry.Registry, 0, len(cfg.Registries))

	for i, bc := range cfg.Registries {
		switch registry.Kind(bc.Kind) {
		case registry.KindMemory:
			uri := bc.Path
			if uri == "" {
				uri = fmt.Sprintf("memory://registry-%d", i)
			}
			backends = append(backends, registry.NewMemoryRegistry(uri))
		case registry.KindFileSystem:
			if bc.Path == "" {
				return nil, fmt.Errorf("registry %d: filesystem backend requires a path", i)
			}
			backends = append(backends, filestore.NewOS(bc.Path))
		case registry.KindHTTP:
			if bc.URL == "" {
				return nil, fmt.Errorf("registry %d: http backend requires a url", i)
			}
			backends = append(backends, httpstore.New(bc.URL))
		default:
			return nil, fmt.Errorf("registry %d: unknown backend kind %q", i, bc.Kind)
		}
	}

	return registry.NewMergedRegistry(lggr, backends, registry.WithOverrides(cfg.overrides()))
}
