// Package config defines the compiler's ambient configuration: toolchain
// and temp-directory overrides, output directory, and logging
// preferences, loadable from a YAML file and overridable by environment
// variables and flags.
package config

import (
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/annc-dev/annc/internal/xerrors"
)

// Config holds every knob the CLI exposes.
type Config struct {
	CC        string `yaml:"cc"`
	TempDir   string `yaml:"temp_dir"`
	OutDir    string `yaml:"out_dir"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		OutDir:    ".",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Merge overlays non-zero fields of override onto c, returning the
// result. Used to apply, in order, a loaded file then environment
// variables then flags — each call's non-zero fields win.
func (c Config) Merge(override Config) Config {
	if override.CC != "" {
		c.CC = override.CC
	}
	if override.TempDir != "" {
		c.TempDir = override.TempDir
	}
	if override.OutDir != "" {
		c.OutDir = override.OutDir
	}
	if override.LogLevel != "" {
		c.LogLevel = override.LogLevel
	}
	if override.LogFormat != "" {
		c.LogFormat = override.LogFormat
	}
	return c
}

// Load reads a YAML config file. Unknown keys are rejected: yaml.v3's
// strict decoder catches typos in hand-edited config files early instead
// of silently ignoring them.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, xerrors.New(xerrors.File, "config.Load", "could not open config file", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var c Config
	if err := dec.Decode(&c); err != nil {
		return Config{}, xerrors.New(xerrors.Syntax, "config.Load", "could not parse config file", err)
	}
	return c, nil
}

// FromEnvironment reads CC, the first non-empty of TMPDIR/TMP/TEMP,
// ANNC_OUT_DIR and ANNC_LOG_LEVEL.
func FromEnvironment() Config {
	return Config{
		CC:       os.Getenv("CC"),
		TempDir:  firstNonEmpty(os.Getenv("TMPDIR"), os.Getenv("TMP"), os.Getenv("TEMP")),
		OutDir:   os.Getenv("ANNC_OUT_DIR"),
		LogLevel: os.Getenv("ANNC_LOG_LEVEL"),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// ApplyLogging configures the global logrus logger from c.
func (c Config) ApplyLogging() error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return xerrors.New(xerrors.Argument, "config.ApplyLogging", "invalid log level: "+c.LogLevel, err)
	}
	logrus.SetLevel(level)
	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
