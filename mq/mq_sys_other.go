// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build !linux

package mq

import "os"

func sysOpen(name string, flag int, create bool, perm os.FileMode, attrs *Attrs) (int, error) {
	return -1, ErrUnsupported
}

func sysSend(fd int, data []byte, prio uint) error {
	return ErrUnsupported
}

func sysReceive(fd int, buf []byte) (int, uint, error) {
	return 0, 0, ErrUnsupported
}

func sysGetAttrs(fd int) (*Attrs, error) {
	return nil, ErrUnsupported
}

func sysSetNonblock(fd int, nonblock bool) error {
	return ErrUnsupported
}

func sysClose(fd int) error {
	return ErrUnsupported
}

func sysUnlink(name string) error {
	return ErrUnsupported
}
