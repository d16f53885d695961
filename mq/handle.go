// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"os"
	"sync"
	"syscall"

	"github.com/nxgtw/typedmq/internal/common"

	"github.com/pkg/errors"
)

// Handle owns a single queue descriptor. It must not be copied.
// Close may be called while Send or Receive is blocked in another goroutine:
// the descriptor is released by the last in-flight operation, so its number
// is never reused under a running syscall.
type Handle struct {
	mu      sync.Mutex
	fd      int
	open    bool
	inUse   int // in-flight operations holding fd
	name    string
	created bool
	msgSize int
}

// OpenOrCreate creates the queue if it does not exist, or opens an existing one.
//	name  - queue name, starting with '/'.
//	attrs - attributes used if the queue is created. Ignored for an existing queue.
//	flag  - a combination of access mode (os.O_RDONLY, os.O_WRONLY, os.O_RDWR),
//		O_NONBLOCK and os.O_EXCL. With os.O_EXCL the call fails if the queue exists.
//	perm  - permission bits of a new queue. Execute bits are not allowed.
// Handle.Created reports which of the two happened.
func OpenOrCreate(name string, attrs *Attrs, flag int, perm os.FileMode) (*Handle, error) {
	if err := ValidateName(name); err != nil {
		return nil, newOpenError(name, ReasonInvalidName, err)
	}
	if attrs == nil {
		return nil, newOpenError(name, ReasonInvalidAttrs, errors.New("attributes are required for creation"))
	}
	if err := attrs.Validate(); err != nil {
		return nil, newOpenError(name, ReasonInvalidAttrs, err)
	}
	if !checkMqPerm(perm) {
		return nil, newOpenError(name, ReasonInvalidAttrs, errors.Errorf("invalid mq permissions %v", perm))
	}
	if _, err := common.AccessMode(flag); err != nil {
		return nil, newOpenError(name, ReasonInvalidAttrs, err)
	}
	mode := common.OpenOrCreate
	if flag&os.O_EXCL != 0 {
		mode = common.CreateOnly
	}
	var fd int
	created, err := common.OpenOrCreateObject(func(create bool) error {
		var err error
		if create {
			fd, err = sysOpen(name, flag, true, perm, attrs)
		} else {
			fd, err = sysOpen(name, flag, false, 0, nil)
		}
		return err
	}, mode)
	if err != nil {
		return nil, newOpenError(name, openReasonFor(err), errors.Wrap(err, "mq_open failed"))
	}
	return newHandle(fd, name, created)
}

// Connect opens an existing queue. It fails with ReasonNotExist, if there is no such queue.
//	flag - a combination of access mode (os.O_RDONLY, os.O_WRONLY, os.O_RDWR) and O_NONBLOCK.
func Connect(name string, flag int) (*Handle, error) {
	if err := ValidateName(name); err != nil {
		return nil, newOpenError(name, ReasonInvalidName, err)
	}
	if _, err := common.AccessMode(flag); err != nil {
		return nil, newOpenError(name, ReasonInvalidAttrs, err)
	}
	var fd int
	_, err := common.OpenOrCreateObject(func(create bool) error {
		var err error
		fd, err = sysOpen(name, flag&^os.O_EXCL, create, 0, nil)
		return err
	}, common.OpenOnly)
	if err != nil {
		return nil, newOpenError(name, openReasonFor(err), errors.Wrap(err, "mq_open failed"))
	}
	return newHandle(fd, name, false)
}

func newHandle(fd int, name string, created bool) (*Handle, error) {
	h := &Handle{fd: fd, open: true, name: name, created: created}
	attrs, err := h.Attrs()
	if err != nil {
		h.Close()
		if created {
			sysUnlink(name)
		}
		return nil, newOpenError(name, ReasonOther, errors.Wrap(err, "failed to get mq attrs"))
	}
	h.msgSize = int(attrs.MsgSize)
	return h, nil
}

// acquire returns the fd of an open handle and pins it until release.
func (h *Handle) acquire() (int, error) {
	if h == nil {
		return -1, ErrClosed
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return -1, ErrClosed
	}
	h.inUse++
	return h.fd, nil
}

// release unpins the fd. The last operation after Close closes it.
func (h *Handle) release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inUse--
	if !h.open && h.inUse == 0 && h.fd >= 0 {
		sysClose(h.fd)
		h.fd = -1
	}
}

// Send sends a message with the given priority.
// It blocks if the queue is full, unless the handle is non-blocking.
func (h *Handle) Send(data []byte, prio uint) error {
	// the kernel takes an unsigned int, larger values would be truncated.
	if prio > MaxPriority {
		return errors.Wrapf(os.NewSyscallError("MQ_TIMEDSEND", syscall.EINVAL), "mq: priority %d exceeds %d", prio, MaxPriority)
	}
	fd, err := h.acquire()
	if err != nil {
		return err
	}
	defer h.release()
	if err := sysSend(fd, data, prio); err != nil {
		return errors.Wrap(err, "mq: send failed")
	}
	return nil
}

// Receive receives the oldest of the highest priority messages.
// It blocks if the queue is empty, unless the handle is non-blocking.
// buf must be at least MsgSize() bytes long. Returns message len and priority.
func (h *Handle) Receive(buf []byte) (int, uint, error) {
	if h == nil {
		return 0, 0, ErrClosed
	}
	if len(buf) < h.msgSize {
		return 0, 0, errors.Wrapf(ErrBufferTooSmall, "%d < %d", len(buf), h.msgSize)
	}
	fd, err := h.acquire()
	if err != nil {
		return 0, 0, err
	}
	defer h.release()
	n, prio, err := sysReceive(fd, buf)
	if err != nil {
		return 0, 0, errors.Wrap(err, "mq: receive failed")
	}
	return n, prio, nil
}

// Attrs returns current attributes of the queue.
func (h *Handle) Attrs() (*Attrs, error) {
	fd, err := h.acquire()
	if err != nil {
		return nil, err
	}
	defer h.release()
	attrs, err := sysGetAttrs(fd)
	if err != nil {
		return nil, errors.Wrap(err, "mq_getsetattr failed")
	}
	return attrs, nil
}

// SetBlocking sets whether send/receive operations block.
// This applies to the current descriptor only.
func (h *Handle) SetBlocking(block bool) error {
	fd, err := h.acquire()
	if err != nil {
		return err
	}
	defer h.release()
	if err := sysSetNonblock(fd, !block); err != nil {
		return errors.Wrap(err, "mq_getsetattr failed")
	}
	return nil
}

// Close closes the descriptor. It does not remove the queue.
// If operations are still in flight, the descriptor is closed when the last of them returns.
// Calling Close more than once is a no-op.
func (h *Handle) Close() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return nil
	}
	h.open = false
	if h.inUse > 0 {
		return nil
	}
	fd := h.fd
	h.fd = -1
	if err := sysClose(fd); err != nil {
		return errors.Wrap(err, "mq: close failed")
	}
	return nil
}

// Name returns the queue name.
func (h *Handle) Name() string {
	return h.name
}

// Created returns true, if the queue was created when this handle was opened.
func (h *Handle) Created() bool {
	return h.created
}

// MsgSize returns max message size of the queue, as reported by the kernel at open.
func (h *Handle) MsgSize() int {
	return h.msgSize
}

// Fd returns the descriptor, or -1 if the handle is closed.
func (h *Handle) Fd() int {
	if h == nil {
		return -1
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return -1
	}
	return h.fd
}

// Closed returns true, if the handle is not open.
func (h *Handle) Closed() bool {
	return h.Fd() < 0
}

// Unlink removes the queue name. Open descriptors remain valid
// until closed. It is not an error if the queue does not exist.
func Unlink(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := sysUnlink(name); err != nil {
		if common.IsNotExistErr(err) {
			return nil
		}
		return errors.Wrap(err, "mq_unlink failed")
	}
	return nil
}
