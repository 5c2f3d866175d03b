package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/schaermu/metapair/internal/asset"
)

// DefaultFileName is looked up at the repository top level when no config
// path is given
const DefaultFileName = ".metapair.yaml"

const (
	DefaultRoot      = "Assets"
	DefaultGitBinary = "git"
)

// Config represents the complete metapair configuration
type Config struct {
	Assets AssetsConfig `yaml:"assets"`
	Check  CheckConfig  `yaml:"check"`
	Git    GitConfig    `yaml:"git"`
}

// AssetsConfig configures where assets live and how they pair
type AssetsConfig struct {
	Root             string   `yaml:"root"`
	DescriptorSuffix string   `yaml:"descriptor_suffix"`
	Ignore           []string `yaml:"ignore"`
}

// CheckConfig selects which verification passes run
type CheckConfig struct {
	Tracked  *bool `yaml:"tracked"`
	Staged   *bool `yaml:"staged"`
	Parallel *bool `yaml:"parallel"`
}

// GitConfig configures the git collaborator
type GitConfig struct {
	Binary string `yaml:"binary"`
}

// Default returns the configuration used when no config file exists
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// LoadOptional behaves like Load but returns the default configuration when
// the file does not exist.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes, defaults and validates YAML configuration data
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.expandEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// expandEnv expands environment variables in all string fields
func (c *Config) expandEnv() {
	c.Assets.Root = os.ExpandEnv(c.Assets.Root)
	c.Assets.DescriptorSuffix = os.ExpandEnv(c.Assets.DescriptorSuffix)
	for i, pattern := range c.Assets.Ignore {
		c.Assets.Ignore[i] = os.ExpandEnv(pattern)
	}
	c.Git.Binary = os.ExpandEnv(c.Git.Binary)
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Assets.Root == "" {
		c.Assets.Root = DefaultRoot
	}
	if c.Assets.DescriptorSuffix == "" {
		c.Assets.DescriptorSuffix = asset.DefaultDescriptorSuffix
	}
	if c.Check.Tracked == nil {
		c.Check.Tracked = boolPtr(true)
	}
	if c.Check.Staged == nil {
		c.Check.Staged = boolPtr(true)
	}
	if c.Check.Parallel == nil {
		c.Check.Parallel = boolPtr(true)
	}
	if c.Git.Binary == "" {
		c.Git.Binary = DefaultGitBinary
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	// Validate asset root
	root := filepath.ToSlash(c.Assets.Root)
	if root == "" {
		return fmt.Errorf("assets.root is required")
	}
	if filepath.IsAbs(c.Assets.Root) || strings.HasPrefix(root, "/") {
		return fmt.Errorf("assets.root must be a repository-relative path: %s", c.Assets.Root)
	}
	if clean := path.Clean(root); clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("assets.root must not leave the repository: %s", c.Assets.Root)
	}

	// Validate descriptor suffix
	suffix := c.Assets.DescriptorSuffix
	if len(suffix) < 2 || suffix[0] != '.' {
		return fmt.Errorf("assets.descriptor_suffix must start with '.' followed by at least one character: %q", suffix)
	}
	if strings.ContainsRune(suffix, '/') {
		return fmt.Errorf("assets.descriptor_suffix must not contain '/': %q", suffix)
	}

	// Validate ignore globs
	for _, pattern := range c.Assets.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid assets.ignore pattern: %q", pattern)
		}
	}

	if !c.TrackedEnabled() && !c.StagedEnabled() {
		return fmt.Errorf("check: at least one of tracked or staged must be enabled")
	}

	return nil
}

// Root returns the normalised asset root
func (c *Config) Root() asset.Path {
	return asset.NewPath(c.Assets.Root)
}

// Pairing builds the descriptor pairing rules from the asset settings
func (c *Config) Pairing() (*asset.Pairing, error) {
	return asset.NewPairing(c.Assets.DescriptorSuffix, c.Assets.Ignore...)
}

// TrackedEnabled reports whether the tracked-snapshot pass runs
func (c *Config) TrackedEnabled() bool {
	return boolValue(c.Check.Tracked, true)
}

// StagedEnabled reports whether the staged-change pass runs
func (c *Config) StagedEnabled() bool {
	return boolValue(c.Check.Staged, true)
}

// ParallelEnabled reports whether both readers are queried concurrently
func (c *Config) ParallelEnabled() bool {
	return boolValue(c.Check.Parallel, true)
}

func boolPtr(b bool) *bool {
	return &b
}

func boolValue(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
