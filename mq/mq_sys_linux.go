// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build linux

package mq

import (
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// linuxMqAttr is struct mq_attr. The kernel copies the reserved tail as well.
type linuxMqAttr struct {
	Flags    int /* Flags: 0 or O_NONBLOCK */
	Maxmsg   int /* Max. # of messages on queue */
	Msgsize  int /* Max. message size (bytes) */
	Curmsgs  int /* # of messages currently in queue */
	reserved [4]int
}

func sysOpen(name string, flag int, create bool, perm os.FileMode, attrs *Attrs) (int, error) {
	sysflags := flag&(os.O_RDONLY|os.O_WRONLY|os.O_RDWR) | unix.O_CLOEXEC
	if flag&O_NONBLOCK != 0 {
		sysflags |= unix.O_NONBLOCK
	}
	var sysAttrs *linuxMqAttr
	if create {
		sysflags |= unix.O_CREAT | unix.O_EXCL
		if attrs != nil {
			sysAttrs = &linuxMqAttr{Maxmsg: int(attrs.MaxMsg), Msgsize: int(attrs.MsgSize)}
		}
	}
	return mq_open(name, sysflags, uint32(perm.Perm()), sysAttrs)
}

func sysSend(fd int, data []byte, prio uint) error {
	return mq_timedsend(fd, data, prio, nil)
}

func sysReceive(fd int, buf []byte) (int, uint, error) {
	var prio uint32
	n, err := mq_timedreceive(fd, buf, &prio, nil)
	return n, uint(prio), err
}

func sysGetAttrs(fd int) (*Attrs, error) {
	var attrs linuxMqAttr
	if err := mq_getsetattr(fd, nil, &attrs); err != nil {
		return nil, err
	}
	return &Attrs{
		Flags:   int64(attrs.Flags),
		MaxMsg:  int64(attrs.Maxmsg),
		MsgSize: int64(attrs.Msgsize),
		CurMsgs: int64(attrs.Curmsgs),
	}, nil
}

func sysSetNonblock(fd int, nonblock bool) error {
	attrs := new(linuxMqAttr)
	if nonblock {
		attrs.Flags = unix.O_NONBLOCK
	}
	return mq_getsetattr(fd, attrs, nil)
}

func sysClose(fd int) error {
	return unix.Close(fd)
}

func sysUnlink(name string) error {
	return mq_unlink(name)
}

// syscalls. The kernel expects names without the leading slash, which libc strips.

func kernelName(name string) (*byte, error) {
	return unix.BytePtrFromString(strings.TrimPrefix(name, "/"))
}

func mq_open(name string, flags int, mode uint32, attrs *linuxMqAttr) (int, error) {
	nameBytes, err := kernelName(name)
	if err != nil {
		return -1, err
	}
	id, _, errno := unix.Syscall6(unix.SYS_MQ_OPEN,
		uintptr(unsafe.Pointer(nameBytes)),
		uintptr(flags),
		uintptr(mode),
		uintptr(unsafe.Pointer(attrs)),
		0,
		0)
	if errno != 0 {
		return -1, os.NewSyscallError("MQ_OPEN", errno)
	}
	return int(id), nil
}

func mq_timedsend(id int, data []byte, prio uint, timeout *unix.Timespec) error {
	var rawData unsafe.Pointer
	if len(data) > 0 {
		rawData = unsafe.Pointer(&data[0])
	}
	_, _, errno := unix.Syscall6(unix.SYS_MQ_TIMEDSEND,
		uintptr(id),
		uintptr(rawData),
		uintptr(len(data)),
		uintptr(prio),
		uintptr(unsafe.Pointer(timeout)),
		0)
	if errno != 0 {
		return os.NewSyscallError("MQ_TIMEDSEND", errno)
	}
	return nil
}

func mq_timedreceive(id int, data []byte, prio *uint32, timeout *unix.Timespec) (int, error) {
	var rawData unsafe.Pointer
	if len(data) > 0 {
		rawData = unsafe.Pointer(&data[0])
	}
	msgSize, _, errno := unix.Syscall6(unix.SYS_MQ_TIMEDRECEIVE,
		uintptr(id),
		uintptr(rawData),
		uintptr(len(data)),
		uintptr(unsafe.Pointer(prio)),
		uintptr(unsafe.Pointer(timeout)),
		0)
	if errno != 0 {
		return 0, os.NewSyscallError("MQ_TIMEDRECEIVE", errno)
	}
	return int(msgSize), nil
}

func mq_getsetattr(id int, attrs, oldAttrs *linuxMqAttr) error {
	_, _, errno := unix.Syscall(unix.SYS_MQ_GETSETATTR,
		uintptr(id),
		uintptr(unsafe.Pointer(attrs)),
		uintptr(unsafe.Pointer(oldAttrs)))
	if errno != 0 {
		return os.NewSyscallError("MQ_GETSETATTR", errno)
	}
	return nil
}

func mq_unlink(name string) error {
	nameBytes, err := kernelName(name)
	if err != nil {
		return err
	}
	_, _, errno := unix.Syscall(unix.SYS_MQ_UNLINK, uintptr(unsafe.Pointer(nameBytes)), 0, 0)
	if errno != 0 {
		return os.NewSyscallError("MQ_UNLINK", errno)
	}
	return nil
}
