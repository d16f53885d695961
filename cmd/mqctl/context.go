// Copyright 2016 Aleksandr Demakin. All rights reserved.

package main

import (
	"log/slog"

	"github.com/nxgtw/typedmq"
	"github.com/nxgtw/typedmq/config"
	"github.com/nxgtw/typedmq/internal/logging"

	"github.com/pkg/errors"
)

// commandContext holds state shared by all subcommands.
type commandContext struct {
	configPath *string
	logLevel   *string
	logFormat  *string

	cfg    *config.Config
	logger *slog.Logger
}

func newCommandContext(configPath, logLevel, logFormat *string) *commandContext {
	return &commandContext{configPath: configPath, logLevel: logLevel, logFormat: logFormat}
}

// ensureConfig loads the profile once, applies log flags and builds the logger.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg := config.Default()
	if *c.configPath != "" {
		loaded, err := config.Load(*c.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if *c.logLevel != "" {
		cfg.Log.Level = *c.logLevel
	}
	if *c.logFormat != "" {
		cfg.Log.Format = *c.logFormat
	}
	if err := cfg.Log.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.logger = logger
	return cfg, nil
}

// queue returns the queue section with the name from args, if given.
func (c *commandContext) queue(args []string) (config.Queue, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return config.Queue{}, err
	}
	q := cfg.Queue
	if len(args) > 0 {
		q.Name = args[0]
	}
	if err := q.Validate(); err != nil {
		return config.Queue{}, errors.Wrap(err, "invalid queue")
	}
	return q, nil
}

// endpointOptions converts the queue section into endpoint options.
func (c *commandContext) endpointOptions(q config.Queue) ([]typedmq.Option, error) {
	cd, err := q.CodecValue()
	if err != nil {
		return nil, err
	}
	perm, err := q.FileMode()
	if err != nil {
		return nil, err
	}
	opts := []typedmq.Option{
		typedmq.WithCodec(cd),
		typedmq.WithPerm(perm),
		typedmq.WithLogger(c.logger),
	}
	if q.NonBlocking {
		opts = append(opts, typedmq.WithNonBlocking())
	}
	return opts, nil
}
