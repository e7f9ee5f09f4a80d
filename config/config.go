// Package config handles icache.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/icache/ic"
)

// FileName is the name of the configuration file.
const FileName = "icache.toml"

// Config represents an icache.toml configuration.
type Config struct {
	IC          ICConfig          `toml:"ic"`
	Megamorphic MegamorphicConfig `toml:"megamorphic"`
	CodeLog     CodeLogConfig     `toml:"codelog"`

	// Dir is the directory containing the icache.toml file (set at load time).
	Dir string `toml:"-"`
}

// ICConfig configures the call-site state machine.
type ICConfig struct {
	Enabled             bool `toml:"enabled"`
	PolymorphicCapacity int  `toml:"polymorphic-capacity"`
	Trace               bool `toml:"trace"`
}

// MegamorphicConfig configures the global stub table.
type MegamorphicConfig struct {
	MaxEntries int `toml:"max-entries"`
}

// CodeLogConfig configures the code-created event sink.
type CodeLogConfig struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no icache.toml exists.
func Default() *Config {
	d := ic.DefaultConfig()
	return &Config{
		IC: ICConfig{
			Enabled:             d.Enabled,
			PolymorphicCapacity: d.PolymorphicCapacity,
			Trace:               d.Trace,
		},
		Megamorphic: MegamorphicConfig{MaxEntries: d.MegamorphicMaxEntries},
	}
}

// Parse decodes configuration text. Keys that are absent keep their
// defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %s", undecoded[0])
	}
	if err := c.IsolateConfig().Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load parses an icache.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return c, nil
}

// LoadFile parses the configuration file at path, whatever its name.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find an icache.toml file,
// then loads and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// IsolateConfig converts the file configuration to isolate tunables.
func (c *Config) IsolateConfig() ic.Config {
	return ic.Config{
		Enabled:               c.IC.Enabled,
		PolymorphicCapacity:   c.IC.PolymorphicCapacity,
		Trace:                 c.IC.Trace,
		MegamorphicMaxEntries: c.Megamorphic.MaxEntries,
	}
}

// CodeLogPath returns the code log path resolved against Dir, or "" when
// no code log is configured.
func (c *Config) CodeLogPath() string {
	if c.CodeLog.Path == "" || filepath.IsAbs(c.CodeLog.Path) || c.Dir == "" {
		return c.CodeLog.Path
	}
	return filepath.Join(c.Dir, c.CodeLog.Path)
}
