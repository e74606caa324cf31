// Package config loads the optional cpplite.yaml project file.
package config

import (
	stderrors "errors"
	"io"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	cperrors "github.com/cpplite-lang/cpplite/internal/errors"
	"github.com/cpplite-lang/cpplite/internal/term"
)

// DefaultPath is where the tools look for a project file.
const DefaultPath = "cpplite.yaml"

// Config is the decoded project file. Zero values mean "not set".
type Config struct {
	Requires    string      `yaml:"requires"`
	Log         Log         `yaml:"log"`
	Run         Run         `yaml:"run"`
	Diagnostics Diagnostics `yaml:"diagnostics"`
	Serve       Serve       `yaml:"serve"`

	// Path is the file the config was read from; empty for defaults.
	Path string `yaml:"-"`
}

// Log controls logger verbosity.
type Log struct {
	Verbose bool `yaml:"verbose"`
	Debug   bool `yaml:"debug"`
}

// Run controls `cpplite run`.
type Run struct {
	Timeout         time.Duration `yaml:"timeout"`
	DumpGlobals     bool          `yaml:"dump_globals"`
	TrailingNewline *bool         `yaml:"trailing_newline"`
	MaxDepth        int           `yaml:"max_depth"`
	MaxOutput       int64         `yaml:"max_output"`
}

// Diagnostics controls error rendering.
type Diagnostics struct {
	Color string `yaml:"color"`
}

// Serve controls `cpplite serve`.
type Serve struct {
	Addr      string        `yaml:"addr"`
	TLSCert   string        `yaml:"tls_cert"`
	TLSKey    string        `yaml:"tls_key"`
	MaxBody   int64         `yaml:"max_body"`
	MaxDepth  int           `yaml:"max_depth"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxOutput int64         `yaml:"max_output"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() *Config {
	newline := true
	return &Config{
		Run:         Run{TrailingNewline: &newline},
		Diagnostics: Diagnostics{Color: string(term.ColorAuto)},
		Serve: Serve{
			Addr:      "127.0.0.1:9443",
			MaxBody:   1 << 20,
			MaxDepth:  10000,
			Timeout:   10 * time.Second,
			MaxOutput: 1 << 20,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults;
// unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a config from memory.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Requires != "" {
		if _, err := semver.NewConstraint(c.Requires); err != nil {
			return cperrors.InvalidConfig("requires", err.Error())
		}
	}
	if _, err := term.ParseColorMode(c.Diagnostics.Color); err != nil {
		return cperrors.InvalidConfig("diagnostics.color", err.Error())
	}
	if c.Run.Timeout < 0 {
		return cperrors.InvalidConfig("run.timeout", "must not be negative")
	}
	if c.Run.MaxDepth < 0 || c.Serve.MaxDepth < 0 {
		return cperrors.InvalidConfig("max_depth", "must not be negative")
	}
	if c.Run.MaxOutput < 0 {
		return cperrors.InvalidConfig("run.max_output", "must not be negative")
	}
	if c.Serve.MaxBody <= 0 {
		return cperrors.InvalidConfig("serve.max_body", "must be positive")
	}
	if c.Serve.Timeout <= 0 {
		return cperrors.InvalidConfig("serve.timeout", "must be positive")
	}
	if c.Serve.MaxOutput <= 0 {
		return cperrors.InvalidConfig("serve.max_output", "must be positive")
	}
	if (c.Serve.TLSCert == "") != (c.Serve.TLSKey == "") {
		return cperrors.InvalidConfig("serve", "tls_cert and tls_key must be set together")
	}
	return nil
}

// CheckVersion fails when version does not satisfy the requires constraint.
func (c *Config) CheckVersion(version string) error {
	if c.Requires == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(c.Requires)
	if err != nil {
		return cperrors.InvalidConfig("requires", err.Error())
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return cperrors.InvalidConfig("version", err.Error())
	}
	if !constraint.Check(v) {
		return cperrors.VersionMismatch(version, c.Requires)
	}
	return nil
}

// TrailingNewline reports whether run output ends with a newline.
func (c *Config) TrailingNewline() bool {
	return c.Run.TrailingNewline == nil || *c.Run.TrailingNewline
}

// ColorMode returns the parsed diagnostics color mode.
func (c *Config) ColorMode() term.ColorMode {
	m, err := term.ParseColorMode(c.Diagnostics.Color)
	if err != nil {
		return term.ColorAuto
	}
	return m
}
