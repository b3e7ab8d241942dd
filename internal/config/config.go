// Package config holds the settings of the vfat command line tool.
package config

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultListen is the address the HTTP shim binds to by default.
const DefaultListen = "127.0.0.1:8080"

// Formats supported for command output.
var Formats = []string{"text", "json", "yaml"}

// Config holds the settings of one invocation.
type Config struct {
	// Image is the path of the disk or volume image
	Image string `yaml:"image"`

	// Partition selects a partition of Image, 0 uses the whole file
	Partition int `yaml:"partition"`

	// Mmap maps the volume into memory instead of reading the file
	Mmap bool `yaml:"mmap"`

	// LogLevel is a zap level name
	LogLevel string `yaml:"log_level"`

	// Format is the output format of the subcommands
	Format string `yaml:"format"`

	// Listen is the address of the HTTP shim
	Listen string `yaml:"listen"`

	// Uid and Gid override the owner reported for every entry.
	// Negative values keep the owner of the process.
	Uid int `yaml:"uid"`
	Gid int `yaml:"gid"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "warn",
		Format:   "text",
		Listen:   DefaultListen,
		Uid:      -1,
		Gid:      -1,
	}
}

// Load reads the YAML file at path on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate checks the values which cannot be checked by the YAML decoder.
func (c Config) Validate() error {
	if c.Partition < 0 {
		return errors.Errorf("invalid partition %d", c.Partition)
	}
	if _, err := c.Level(); err != nil {
		return err
	}

	for _, f := range Formats {
		if c.Format == f {
			return nil
		}
	}
	return errors.Errorf("unsupported format %q (supported: text, json, yaml)", c.Format)
}

// Level parses LogLevel.
func (c Config) Level() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return level, errors.Wrapf(err, "invalid log level %q", c.LogLevel)
	}
	return level, nil
}
