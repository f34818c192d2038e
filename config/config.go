// Package config handles smold.toml configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

// FileName is the configuration file searched for by FindAndLoad.
const FileName = "smold.toml"

const (
	DefaultArenaSize = 16 << 20
	DefaultTrigger   = "core"
)

// Config represents a smold.toml file.
type Config struct {
	ModuleDir   string            `toml:"module_dir"`
	ArenaSize   uint32            `toml:"arena_size"`
	Trigger     string            `toml:"trigger"`
	Timeout     time.Duration     `toml:"timeout"`
	MemoryPages uint32            `toml:"memory_pages"`
	Cache       bool              `toml:"cache"`
	Commands    map[string]string `toml:"commands"`
	Log         Log               `toml:"log"`

	// Dir is the directory containing the smold.toml file (set at load time).
	Dir string `toml:"-"`
}

// Log configures logging.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no smold.toml exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.ModuleDir == "" {
		c.ModuleDir = "."
	}
	if c.ArenaSize == 0 {
		c.ArenaSize = DefaultArenaSize
	}
	if c.Trigger == "" {
		c.Trigger = DefaultTrigger
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Commands == nil {
		c.Commands = map[string]string{}
	}
	for _, name := range []string{"identity", "hex", "upper", "strlen"} {
		if _, ok := c.Commands[name]; !ok {
			c.Commands[name] = name
		}
	}
}

// Load parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	if c.ModuleDir != "" && !filepath.IsAbs(c.ModuleDir) {
		c.ModuleDir = filepath.Join(c.Dir, c.ModuleDir)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

// FindAndLoad walks up from startDir to find a smold.toml file, then loads
// it. Returns the defaults if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var err error
	if c.Timeout < 0 {
		err = multierr.Append(err, fmt.Errorf("timeout must not be negative, got %v", c.Timeout))
	}
	if c.MemoryPages > 65536 {
		err = multierr.Append(err, fmt.Errorf("memory_pages must be at most 65536, got %d", c.MemoryPages))
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	for token, module := range c.Commands {
		if token == "" || module == "" {
			err = multierr.Append(err, errors.New("commands entries need a token and a module"))
		}
	}
	return err
}

// Module returns the module a command token maps to.
func (c *Config) Module(token string) (string, bool) {
	m, ok := c.Commands[token]
	return m, ok
}

// Tokens returns the command tokens in sorted order.
func (c *Config) Tokens() []string {
	out := make([]string, 0, len(c.Commands))
	for t := range c.Commands {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
