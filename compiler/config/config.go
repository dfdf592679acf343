// Package config loads the compiler settings file.
package config

import (
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml"
	"tlog.app/go/errors"
)

type (
	Config struct {
		Compiler Compiler `toml:"compiler"`
		Build    Build    `toml:"build"`
	}

	Compiler struct {
		// Version is a constraint the running compiler version must satisfy.
		Version string `toml:"version,omitempty"`
		Target  string `toml:"target,omitempty"`

		Comments bool `toml:"comments"`
	}

	Build struct {
		CC     string `toml:"cc,omitempty"`
		Output string `toml:"output,omitempty"`
	}
)

// Version of the compiler.
const Version = "0.1.0"

// FileName is the settings file looked up in the working directory.
const FileName = "exprc.toml"

const (
	TargetAMD64 = "amd64"
	TargetLLVM  = "llvm"
)

func Default() *Config {
	c := &Config{}
	c.fill()

	return c
}

func (c *Config) fill() {
	if c.Compiler.Target == "" {
		c.Compiler.Target = TargetAMD64
	}

	if c.Build.CC == "" {
		c.Build.CC = "cc"
	}

	if c.Build.Output == "" {
		c.Build.Output = "a.out"
	}
}

// Load reads the file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "%v", path)
	}

	return c, nil
}

// Parse decodes data, fills unset fields with defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	c := &Config{}

	err := toml.Unmarshal(data, c)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}

	c.fill()

	err = c.Check()
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) Check() error {
	switch c.Compiler.Target {
	case TargetAMD64, TargetLLVM:
	default:
		return errors.New("unsupported target: %q", c.Compiler.Target)
	}

	if c.Compiler.Version == "" {
		return nil
	}

	con, err := semver.NewConstraint(c.Compiler.Version)
	if err != nil {
		return errors.Wrap(err, "version constraint")
	}

	v := semver.MustParse(Version)

	if !con.Check(v) {
		return errors.New("compiler version %v does not satisfy %q", Version, c.Compiler.Version)
	}

	return nil
}
