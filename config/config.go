// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package config loads queue profiles from TOML or YAML files.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nxgtw/typedmq/codec"
	"github.com/nxgtw/typedmq/internal/logging"
	"github.com/nxgtw/typedmq/mq"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// log formats.
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config is a queue profile.
type Config struct {
	Queue Queue `toml:"queue" yaml:"queue"`
	Log   Log   `toml:"log" yaml:"log"`
}

// Queue describes a queue and how endpoints open it.
type Queue struct {
	Name        string `toml:"name" yaml:"name"`
	MaxMessages int64  `toml:"max_messages" yaml:"max_messages"`
	MessageSize int64  `toml:"message_size" yaml:"message_size"`
	// Perm is an octal string, like "0600".
	Perm        string `toml:"perm" yaml:"perm"`
	Codec       string `toml:"codec" yaml:"codec"`
	NonBlocking bool   `toml:"nonblocking" yaml:"nonblocking"`
}

// Log configures the logger of the CLI.
type Log struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns a profile with default queue attributes.
func Default() *Config {
	return &Config{
		Queue: Queue{
			Name:        "/typedmq",
			MaxMessages: mq.DefaultMaxMsg,
			MessageSize: mq.DefaultMsgSize,
			Perm:        "0600",
			Codec:       codec.NameCBOR,
		},
		Log: Log{
			Level:  "info",
			Format: FormatAuto,
		},
	}
}

// Load reads a profile. The format is chosen by the file extension.
// Missing values keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, errors.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate checks all values of the profile.
func (c *Config) Validate() error {
	if err := c.Queue.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}

// Validate checks the queue section.
func (q *Queue) Validate() error {
	if err := mq.ValidateName(q.Name); err != nil {
		return err
	}
	attrs := q.Attrs()
	if err := attrs.Validate(); err != nil {
		return err
	}
	if _, err := q.FileMode(); err != nil {
		return err
	}
	if _, err := codec.ByName(q.Codec); err != nil {
		return err
	}
	return nil
}

// Attrs returns creation attributes of the queue.
func (q *Queue) Attrs() mq.Attrs {
	return mq.Attrs{MaxMsg: q.MaxMessages, MsgSize: q.MessageSize}
}

// FileMode parses Perm. Execute bits are rejected, as the kernel does.
func (q *Queue) FileMode() (os.FileMode, error) {
	if q.Perm == "" {
		return 0600, nil
	}
	perm, err := strconv.ParseUint(q.Perm, 8, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid perm %q", q.Perm)
	}
	if perm&^0777 != 0 || perm&0111 != 0 {
		return 0, errors.Errorf("invalid perm %q: only read and write bits are allowed", q.Perm)
	}
	return os.FileMode(perm), nil
}

// CodecValue returns the codec named in the profile.
func (q *Queue) CodecValue() (codec.Codec, error) {
	return codec.ByName(q.Codec)
}

// Validate checks the log section.
func (l *Log) Validate() error {
	if _, err := logging.ParseLevel(l.Level); err != nil {
		return err
	}
	switch l.Format {
	case "", FormatAuto, FormatConsole, FormatJSON:
		return nil
	default:
		return errors.Errorf("unknown log format %q", l.Format)
	}
}
