// Copyright 2016 Aleksandr Demakin. All rights reserved.

package typedmq

import (
	"log/slog"
	"os"

	"github.com/nxgtw/typedmq/codec"
	"github.com/nxgtw/typedmq/mq"
)

// DefaultPerm is the permission of queues created by Listen: owner read/write.
const DefaultPerm os.FileMode = 0600

// Option configures an endpoint.
type Option func(*options)

type options struct {
	codec       codec.Codec
	logger      *slog.Logger
	perm        os.FileMode
	nonBlocking bool
	readWrite   bool
	exclusive   bool
}

func newOptions(opts []Option) *options {
	o := &options{
		codec: codec.Default,
		perm:  DefaultPerm,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// openFlag returns mq open flags for the given access mode.
func (o *options) openFlag(access int) int {
	flag := access
	if o.readWrite {
		flag = os.O_RDWR
	}
	if o.nonBlocking {
		flag |= mq.O_NONBLOCK
	}
	if o.exclusive {
		flag |= os.O_EXCL
	}
	return flag
}

// WithCodec sets the codec. Both sides of a queue must use the same one.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger sets the logger used for lifecycle events and teardown failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPerm sets permission bits of a queue created by Listen.
func WithPerm(perm os.FileMode) Option {
	return func(o *options) {
		o.perm = perm
	}
}

// WithNonBlocking makes Send fail with KindQueueFull instead of blocking on a full queue,
// and Receive fail with EAGAIN instead of blocking on an empty one.
func WithNonBlocking() Option {
	return func(o *options) {
		o.nonBlocking = true
	}
}

// WithReadWrite opens the descriptor for both reading and writing.
func WithReadWrite() Option {
	return func(o *options) {
		o.readWrite = true
	}
}

// WithExclusive makes Listen fail, if the queue already exists.
func WithExclusive() Option {
	return func(o *options) {
		o.exclusive = true
	}
}
