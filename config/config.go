// Package config loads the docindex YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/reglet-docindex/implementors"
	"github.com/reglet-dev/reglet-docindex/loader"
	"github.com/reglet-dev/reglet-docindex/logging"
	"github.com/reglet-dev/reglet-docindex/manifest"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = ".docindex.yaml"

// Config is the on-disk configuration.
type Config struct {
	Root     string         `yaml:"root"`
	Log      LogConfig      `yaml:"log"`
	Registry RegistryConfig `yaml:"registry"`
	Loader   LoaderConfig   `yaml:"loader"`
}

// LogConfig selects the log level and handler format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RegistryConfig configures the implementor registry.
type RegistryConfig struct {
	DuplicatePolicy string `yaml:"duplicate_policy"`
}

// LoaderConfig configures how a documentation tree is read.
type LoaderConfig struct {
	Implementors     []string `yaml:"implementors"`
	Sidebar          []string `yaml:"sidebar"`
	MaxFileBytes     int64    `yaml:"max_file_bytes"`
	Workers          int      `yaml:"workers"`
	Manifest         string   `yaml:"manifest"`
	FormatConstraint string   `yaml:"format_constraint"`
	StrictIntegrity  bool     `yaml:"strict_integrity"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Root: ".",
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
		Registry: RegistryConfig{
			DuplicatePolicy: string(implementors.DuplicateAppend),
		},
		Loader: LoaderConfig{
			Implementors: append([]string(nil), loader.DefaultImplementorsPatterns...),
			Sidebar:      append([]string(nil), loader.DefaultSidebarPatterns...),
			MaxFileBytes: loader.DefaultMaxFileBytes,
			Workers:      loader.DefaultWorkers,
		},
	}
}

// Load reads path over the defaults. A missing file yields Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Root == "" {
		errs = append(errs, errors.New("root must not be empty"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if !logging.ValidFormat(c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if _, err := implementors.ParseDuplicatePolicy(c.Registry.DuplicatePolicy); err != nil {
		errs = append(errs, fmt.Errorf("registry.duplicate_policy: %w", err))
	}
	for _, p := range append(append([]string(nil), c.Loader.Implementors...), c.Loader.Sidebar...) {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("loader: invalid glob pattern %q", p))
		}
	}
	if c.Loader.MaxFileBytes < 0 {
		errs = append(errs, errors.New("loader.max_file_bytes must not be negative"))
	}
	if c.Loader.Workers < 0 {
		errs = append(errs, errors.New("loader.workers must not be negative"))
	}

	return errors.Join(errs...)
}

// Logger builds the logger described by the log section.
func (c *Config) Logger() *slog.Logger {
	return logging.New(c.Log.Level, c.Log.Format, os.Stderr)
}

// RegistryOptions returns the registry options for this configuration.
func (c *Config) RegistryOptions(logger *slog.Logger) ([]implementors.Option, error) {
	policy, err := implementors.ParseDuplicatePolicy(c.Registry.DuplicatePolicy)
	if err != nil {
		return nil, err
	}
	return []implementors.Option{
		implementors.WithDuplicatePolicy(policy),
		implementors.WithLogger(logger),
		implementors.WithWarningHandler(&implementors.LogWarningHandler{Logger: logger}),
	}, nil
}

// LoaderOptions returns the loader options for this configuration. A
// non-nil m pins the tree; loading it from Loader.Manifest is up to the caller.
func (c *Config) LoaderOptions(m *manifest.Manifest, logger *slog.Logger) []loader.Option {
	opts := []loader.Option{
		loader.WithImplementorsPatterns(c.Loader.Implementors...),
		loader.WithSidebarPatterns(c.Loader.Sidebar...),
		loader.WithMaxFileBytes(c.Loader.MaxFileBytes),
		loader.WithWorkers(c.Loader.Workers),
		loader.WithFormatConstraint(c.Loader.FormatConstraint),
		loader.WithStrictIntegrity(c.Loader.StrictIntegrity),
		loader.WithLogger(logger),
	}
	if m != nil {
		opts = append(opts, loader.WithManifest(m))
	}
	return opts
}
