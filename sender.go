// Copyright 2016 Aleksandr Demakin. All rights reserved.

package typedmq

import (
	"log/slog"
	"os"

	"github.com/nxgtw/typedmq/codec"
	"github.com/nxgtw/typedmq/internal/common"
	"github.com/nxgtw/typedmq/mq"
)

// Sender sends values of type T to an existing queue.
// It never creates or removes the queue.
// A Sender may be used from several goroutines.
type Sender[T any] struct {
	handle      *mq.Handle
	name        string
	codec       codec.Codec
	msgSize     int
	nonBlocking bool
	logger      *slog.Logger
}

// Connect opens a write-only connection to an existing queue.
// It fails with KindQueueOpenFailed, if there is no such queue.
func Connect[T any](name string, opts ...Option) (*Sender[T], error) {
	o := newOptions(opts)
	handle, err := mq.Connect(name, o.openFlag(os.O_WRONLY))
	if err != nil {
		return nil, openFailed("connect", name, err)
	}
	o.logger.Debug("connected to queue",
		"queue", name,
		"msgsize", handle.MsgSize(),
		"codec", o.codec.Name())
	return &Sender[T]{
		handle:      handle,
		name:        name,
		codec:       o.codec,
		msgSize:     handle.MsgSize(),
		nonBlocking: o.nonBlocking,
		logger:      o.logger,
	}, nil
}

// Send encodes the value and sends it with the given priority.
// Values, whose encoded form exceeds the message size of the queue,
// are rejected with KindMessageTooLarge and never reach the queue.
// Send blocks while the queue is full, unless the sender is non-blocking,
// in which case it fails with KindQueueFull.
func (s *Sender[T]) Send(value T, priority uint) error {
	if s == nil || s.handle == nil || s.handle.Closed() {
		return invalidState("send", s.queueName())
	}
	data, err := s.codec.Marshal(value)
	if err != nil {
		return &Error{Kind: KindSerializationFailed, Op: "send", Name: s.name, Err: err}
	}
	if len(data) > s.msgSize {
		return &Error{Kind: KindMessageTooLarge, Op: "send", Name: s.name, Size: len(data), Limit: s.msgSize}
	}
	if err := s.handle.Send(data, priority); err != nil {
		if s.nonBlocking && common.IsAgainErr(err) {
			return &Error{Kind: KindQueueFull, Op: "send", Name: s.name, Err: err}
		}
		return syscallFailed("send", s.name, err)
	}
	return nil
}

// Close closes the connection. The queue stays in place.
func (s *Sender[T]) Close() error {
	if s == nil || s.handle == nil {
		return nil
	}
	if err := s.handle.Close(); err != nil {
		s.logger.Warn("failed to close queue descriptor", "queue", s.name, "error", err)
		return syscallFailed("close", s.name, err)
	}
	return nil
}

// Name returns the queue name.
func (s *Sender[T]) Name() string {
	return s.queueName()
}

// MaxMessageSize returns the largest payload the queue accepts.
func (s *Sender[T]) MaxMessageSize() int {
	if s == nil {
		return 0
	}
	return s.msgSize
}

func (s *Sender[T]) queueName() string {
	if s == nil {
		return ""
	}
	return s.name
}
