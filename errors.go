// Copyright 2016 Aleksandr Demakin. All rights reserved.

package typedmq

import (
	"fmt"
	"syscall"

	"github.com/nxgtw/typedmq/internal/common"
	"github.com/nxgtw/typedmq/mq"

	"github.com/pkg/errors"
)

// Kind classifies endpoint errors.
type Kind int

// error kinds.
const (
	KindQueueOpenFailed Kind = iota + 1
	KindMessageTooLarge
	KindQueueFull
	KindSerializationFailed
	KindDeserializationFailed
	KindSystemCallFailed
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindQueueOpenFailed:
		return "queue open failed"
	case KindMessageTooLarge:
		return "message too large"
	case KindQueueFull:
		return "queue full"
	case KindSerializationFailed:
		return "serialization failed"
	case KindDeserializationFailed:
		return "deserialization failed"
	case KindSystemCallFailed:
		return "system call failed"
	case KindInvalidState:
		return "invalid endpoint state"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by all endpoint operations.
type Error struct {
	Kind Kind
	// Op is the endpoint operation: connect, listen, send, receive or close.
	Op   string
	Name string
	// Reason is set for KindQueueOpenFailed.
	Reason mq.OpenReason
	// Errno is set for KindSystemCallFailed, if the kernel reported one.
	Errno syscall.Errno
	// Size and Limit are set for KindMessageTooLarge.
	Size, Limit int
	Err         error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("typedmq: %s %q: %s", e.Op, e.Name, e.Kind)
	switch e.Kind {
	case KindQueueOpenFailed:
		msg += " (" + e.Reason.String() + ")"
	case KindMessageTooLarge:
		msg += fmt.Sprintf(" (%d > %d bytes)", e.Size, e.Limit)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Cause implements pkg/errors causer.
func (e *Error) Cause() error {
	return e.Err
}

// ErrClosed is the cause of KindInvalidState errors.
var ErrClosed = errors.New("endpoint is not open")

func invalidState(op, name string) *Error {
	return &Error{Kind: KindInvalidState, Op: op, Name: name, Err: ErrClosed}
}

func openFailed(op, name string, err error) *Error {
	result := &Error{Kind: KindQueueOpenFailed, Op: op, Name: name, Reason: mq.ReasonOther, Err: err}
	var openErr *mq.OpenError
	if errors.As(err, &openErr) {
		result.Reason = openErr.Reason
	}
	return result
}

func syscallFailed(op, name string, err error) *Error {
	if errors.Is(err, mq.ErrClosed) {
		return &Error{Kind: KindInvalidState, Op: op, Name: name, Err: err}
	}
	result := &Error{Kind: KindSystemCallFailed, Op: op, Name: name, Err: err}
	if errno, ok := common.SyscallErrno(err); ok {
		result.Errno = errno
	}
	return result
}

// KindOf returns the kind of an endpoint error, or 0 for other errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsQueueOpenFailed returns true, if a queue could not be created or opened.
func IsQueueOpenFailed(err error) bool {
	return KindOf(err) == KindQueueOpenFailed
}

// IsMessageTooLarge returns true, if an encoded value did not fit into a message.
func IsMessageTooLarge(err error) bool {
	return KindOf(err) == KindMessageTooLarge
}

// IsQueueFull returns true, if a non-blocking send found the queue full.
func IsQueueFull(err error) bool {
	return KindOf(err) == KindQueueFull
}

// IsSerializationFailed returns true, if the codec could not encode a value.
func IsSerializationFailed(err error) bool {
	return KindOf(err) == KindSerializationFailed
}

// IsDeserializationFailed returns true, if the codec rejected a received payload.
func IsDeserializationFailed(err error) bool {
	return KindOf(err) == KindDeserializationFailed
}

// IsSystemCallFailed returns true for kernel-reported failures.
func IsSystemCallFailed(err error) bool {
	return KindOf(err) == KindSystemCallFailed
}

// IsInvalidState returns true, if an operation was called on an endpoint, which is not open.
func IsInvalidState(err error) bool {
	return KindOf(err) == KindInvalidState
}

// IsTemporary returns true, if repeating the operation may succeed.
func IsTemporary(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindQueueFull:
		return true
	case KindSystemCallFailed:
		return e.Errno == syscall.EINTR || e.Errno == syscall.EAGAIN
	default:
		return false
	}
}
