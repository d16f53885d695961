// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/nxgtw/typedmq/internal/common"

	"github.com/pkg/errors"
)

const (
	// O_NONBLOCK makes send and receive fail with EAGAIN instead of blocking.
	// It can be combined with os.O_RDONLY, os.O_WRONLY, os.O_RDWR and os.O_EXCL.
	O_NONBLOCK = 0x00000800

	// MaxNameLen is the max length of a queue name excluding the leading slash (NAME_MAX).
	MaxNameLen = 255

	// MaxPriority is the highest priority accepted by linux (MQ_PRIO_MAX - 1).
	MaxPriority = 32767
	// PortableMaxPriority is the highest priority every POSIX system must accept.
	PortableMaxPriority = 31

	// DefaultMaxMsg is the default queue capacity.
	DefaultMaxMsg = 10
	// DefaultMsgSize is the default max message size.
	DefaultMsgSize = 8192
)

var (
	// ErrClosed is returned by the operations on a handle, which was not opened or was already closed.
	ErrClosed = errors.New("mq: handle is not open")
	// ErrUnsupported is returned on platforms without POSIX message queues.
	ErrUnsupported = errors.New("mq: posix message queues are not supported on this platform")
	// ErrInvalidName is returned for names, which the kernel would reject.
	ErrInvalidName = errors.New("mq: invalid queue name")
	// ErrBufferTooSmall is returned by Receive for a buffer shorter than the queue message size.
	ErrBufferTooSmall = errors.New("mq: receive buffer is smaller than the message size")
)

// Attrs mirrors struct mq_attr.
type Attrs struct {
	Flags   int64 // 0 or O_NONBLOCK
	MaxMsg  int64 // max # of messages on queue
	MsgSize int64 // max message size (bytes)
	CurMsgs int64 // # of messages currently in queue, read-only
}

// DefaultAttrs returns attributes with DefaultMaxMsg and DefaultMsgSize.
func DefaultAttrs() Attrs {
	return Attrs{MaxMsg: DefaultMaxMsg, MsgSize: DefaultMsgSize}
}

// Validate checks the attributes used for queue creation.
func (a *Attrs) Validate() error {
	if a.MaxMsg <= 0 {
		return errors.Errorf("max messages must be positive, got %d", a.MaxMsg)
	}
	if a.MsgSize <= 0 {
		return errors.Errorf("message size must be positive, got %d", a.MsgSize)
	}
	return nil
}

func (a Attrs) String() string {
	return fmt.Sprintf("maxmsg=%d msgsize=%d curmsgs=%d flags=%#x", a.MaxMsg, a.MsgSize, a.CurMsgs, a.Flags)
}

// ValidateName checks that the name starts with a slash, has no other slashes,
// and fits into NAME_MAX.
func ValidateName(name string) error {
	if !strings.HasPrefix(name, "/") {
		return errors.Wrapf(ErrInvalidName, "%q must start with '/'", name)
	}
	rest := name[1:]
	switch {
	case len(rest) == 0:
		return errors.Wrapf(ErrInvalidName, "%q is empty", name)
	case len(rest) > MaxNameLen:
		return errors.Wrapf(ErrInvalidName, "%q is longer than %d bytes", name, MaxNameLen)
	case strings.ContainsAny(rest, "/\x00"):
		return errors.Wrapf(ErrInvalidName, "%q contains '/' or NUL after the leading slash", name)
	case rest == "." || rest == "..":
		return errors.Wrapf(ErrInvalidName, "%q is reserved", name)
	}
	return nil
}

func checkMqPerm(perm os.FileMode) bool {
	return uint(perm)&0111 == 0
}

// OpenReason classifies open failures.
type OpenReason int

// open failure reasons.
const (
	ReasonOther OpenReason = iota
	ReasonInvalidName
	ReasonInvalidAttrs
	ReasonExist
	ReasonNotExist
	ReasonPermission
	ReasonLimit
)

func (r OpenReason) String() string {
	switch r {
	case ReasonInvalidName:
		return "invalid name"
	case ReasonInvalidAttrs:
		return "invalid attributes"
	case ReasonExist:
		return "already exists"
	case ReasonNotExist:
		return "does not exist"
	case ReasonPermission:
		return "permission denied"
	case ReasonLimit:
		return "resource limit reached"
	default:
		return "other"
	}
}

// OpenError is returned by OpenOrCreate and Connect.
type OpenError struct {
	Name   string
	Reason OpenReason
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("mq: open %q failed (%s): %v", e.Name, e.Reason, e.Err)
}

// Unwrap returns the underlying error.
func (e *OpenError) Unwrap() error {
	return e.Err
}

// Cause implements pkg/errors causer.
func (e *OpenError) Cause() error {
	return e.Err
}

func newOpenError(name string, reason OpenReason, err error) *OpenError {
	return &OpenError{Name: name, Reason: reason, Err: err}
}

func openReasonFor(err error) OpenReason {
	if errors.Is(err, ErrInvalidName) {
		return ReasonInvalidName
	}
	errno, ok := common.SyscallErrno(err)
	if !ok {
		return ReasonOther
	}
	switch errno {
	case syscall.EEXIST:
		return ReasonExist
	case syscall.ENOENT:
		return ReasonNotExist
	case syscall.EACCES, syscall.EPERM:
		return ReasonPermission
	case syscall.EINVAL:
		return ReasonInvalidAttrs
	case syscall.ENAMETOOLONG:
		return ReasonInvalidName
	case syscall.EMFILE, syscall.ENFILE, syscall.ENOSPC, syscall.ENOMEM:
		return ReasonLimit
	default:
		return ReasonOther
	}
}

// IsTemporary returns true, if the operation may succeed if repeated:
// the call was interrupted, or a non-blocking queue was full or empty.
func IsTemporary(err error) bool {
	return common.IsInterruptedSyscallErr(err) || common.IsAgainErr(err)
}
