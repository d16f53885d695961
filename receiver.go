// Copyright 2016 Aleksandr Demakin. All rights reserved.

package typedmq

import (
	"log/slog"
	"os"
	"sync"

	"github.com/nxgtw/typedmq/codec"
	"github.com/nxgtw/typedmq/mq"
)

// Receiver receives values of type T from a queue it creates or attaches to.
// If the receiver created the queue, it owns it and removes it on Close.
type Receiver[T any] struct {
	handle *mq.Handle
	name   string
	owner  bool
	codec  codec.Codec
	logger *slog.Logger

	mu  sync.Mutex // guards buf
	buf []byte

	closeOnce sync.Once
	closeErr  error
}

// Listen creates the queue with the given attributes, or attaches to an existing one.
// The attributes of an existing queue are not changed, the receiver uses them as they are.
func Listen[T any](name string, attrs mq.Attrs, opts ...Option) (*Receiver[T], error) {
	o := newOptions(opts)
	handle, err := mq.OpenOrCreate(name, &attrs, o.openFlag(os.O_RDONLY), o.perm)
	if err != nil {
		return nil, openFailed("listen", name, err)
	}
	if handle.Created() {
		o.logger.Debug("queue created",
			"queue", name,
			"maxmsg", attrs.MaxMsg,
			"msgsize", attrs.MsgSize,
			"perm", o.perm)
	} else {
		o.logger.Debug("attached to existing queue", "queue", name, "msgsize", handle.MsgSize())
		if int64(handle.MsgSize()) != attrs.MsgSize {
			o.logger.Warn("existing queue has a different message size",
				"queue", name,
				"requested", attrs.MsgSize,
				"actual", handle.MsgSize())
		}
	}
	return &Receiver[T]{
		handle: handle,
		name:   name,
		owner:  handle.Created(),
		codec:  o.codec,
		logger: o.logger,
		buf:    make([]byte, handle.MsgSize()),
	}, nil
}

// Receive blocks until a message is available, removes the oldest message
// with the highest priority from the queue and decodes it.
// A message, which cannot be decoded, is consumed anyway and reported with KindDeserializationFailed.
func (r *Receiver[T]) Receive() (T, error) {
	value, _, err := r.ReceivePriority()
	return value, err
}

// ReceivePriority is Receive, which also returns the priority of the message.
func (r *Receiver[T]) ReceivePriority() (T, uint, error) {
	var value T
	if r == nil || r.handle == nil || r.handle.Closed() {
		return value, 0, invalidState("receive", r.queueName())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n, prio, err := r.handle.Receive(r.buf)
	if err != nil {
		return value, 0, syscallFailed("receive", r.name, err)
	}
	if err := r.codec.Unmarshal(r.buf[:n], &value); err != nil {
		return value, prio, &Error{Kind: KindDeserializationFailed, Op: "receive", Name: r.name, Err: err}
	}
	return value, prio, nil
}

// Close closes the descriptor, and removes the queue if this receiver created it.
// A failure to remove the queue is logged, not returned.
// Calling Close more than once is a no-op.
func (r *Receiver[T]) Close() error {
	if r == nil || r.handle == nil {
		return nil
	}
	r.closeOnce.Do(func() {
		if err := r.handle.Close(); err != nil {
			r.logger.Warn("failed to close queue descriptor", "queue", r.name, "error", err)
			r.closeErr = syscallFailed("close", r.name, err)
		}
		if !r.owner {
			return
		}
		if err := mq.Unlink(r.name); err != nil {
			r.logger.Warn("failed to remove queue", "queue", r.name, "error", err)
			return
		}
		r.logger.Debug("queue removed", "queue", r.name)
	})
	return r.closeErr
}

// Name returns the queue name.
func (r *Receiver[T]) Name() string {
	return r.queueName()
}

// Owner returns true, if the receiver created the queue and will remove it on Close.
func (r *Receiver[T]) Owner() bool {
	return r != nil && r.owner
}

// MaxMessageSize returns the message size of the queue.
func (r *Receiver[T]) MaxMessageSize() int {
	if r == nil {
		return 0
	}
	return len(r.buf)
}

// Attrs returns current attributes of the queue, including the number of pending messages.
func (r *Receiver[T]) Attrs() (*mq.Attrs, error) {
	if r == nil || r.handle == nil {
		return nil, invalidState("attrs", r.queueName())
	}
	attrs, err := r.handle.Attrs()
	if err != nil {
		return nil, syscallFailed("attrs", r.name, err)
	}
	return attrs, nil
}

func (r *Receiver[T]) queueName() string {
	if r == nil {
		return ""
	}
	return r.name
}
