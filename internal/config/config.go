package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is used when neither -config nor PKGDB_CONFIG is given.
	DefaultConfigFile = "config.yaml"
	envPrefix         = "pkgdb"
)

var ErrNoConfigFile = errors.New("config file not found")

// Config is the host configuration consumed by the local database.
type Config struct {
	// Storage is the default storage root; relative values are anchored at
	// the directory holding the config file.
	Storage  string       `yaml:"storage"`
	Packages PackageRules `yaml:"packages"`
	Logging  LogConfig    `yaml:"logs"`

	// SelfPath is the path the configuration was read from.
	SelfPath string `yaml:"-"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// envOverlay lists what may be overridden from the environment.
type envOverlay struct {
	Config   string `envconfig:"CONFIG"`
	Storage  string `envconfig:"STORAGE"`
	LogLevel string `envconfig:"LOG_LEVEL"`
	LogDev   *bool  `envconfig:"LOG_DEV"`
}

// Default returns the configuration used before any file or environment is applied.
func Default() *Config {
	return &Config{
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// Load reads the YAML file at path (or PKGDB_CONFIG / config.yaml when path
// is empty) and applies the environment overlay on top.
// Priority: defaults < file < environment.
func Load(path string) (*Config, error) {
	var env envOverlay
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	explicit := path != "" || env.Config != ""
	if path == "" {
		path = env.Config
	}
	if path == "" {
		path = DefaultConfigFile
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		if !errors.Is(err, ErrNoConfigFile) || explicit {
			return nil, err
		}
		// A missing default file is fine as long as the environment names a storage root
		cfg = Default()
		if abs, absErr := filepath.Abs(path); absErr == nil {
			cfg.SelfPath = abs
		}
	}

	env.apply(cfg)
	return cfg, nil
}

// LoadFrom reads configuration from a specific file without the environment overlay.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- operator supplied path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoConfigFile, path)
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	cfg.SelfPath = abs
	return cfg, nil
}

// Parse decodes YAML configuration on top of Default().
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	return cfg, nil
}

func (e envOverlay) apply(cfg *Config) {
	if e.Storage != "" {
		cfg.Storage = e.Storage
	}
	if e.LogLevel != "" {
		cfg.Logging.Level = e.LogLevel
	}
	if e.LogDev != nil {
		cfg.Logging.Development = *e.LogDev
	}
}

// BasePath is the directory relative storage paths are resolved against.
func (c *Config) BasePath() string {
	if c.SelfPath == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
		return "."
	}
	return filepath.Dir(c.SelfPath)
}

// StorageFor resolves the override storage root configured for a package.
func (c *Config) StorageFor(name string) (string, bool) {
	rule, ok := c.Packages.Match(name)
	if !ok || rule.Storage == "" {
		return "", false
	}
	return rule.Storage, true
}

// StorageNames lists every distinct override storage root in configuration order.
func (c *Config) StorageNames() []string {
	return c.Packages.StorageNames()
}

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate reports every problem found in the configuration.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(c.Storage) == "" {
		errs = append(errs, ValidationError{Field: "storage", Message: "default storage root is required"})
	}
	for _, rule := range c.Packages {
		if rule.Storage == "" {
			continue
		}
		if filepath.IsAbs(rule.Storage) || strings.HasPrefix(filepath.Clean(rule.Storage), "..") {
			errs = append(errs, ValidationError{
				Field:   "packages." + rule.Pattern + ".storage",
				Message: "override storage must be a directory below the default storage root",
			})
		}
	}
	return errs
}
