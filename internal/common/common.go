// Copyright 2016 Aleksandr Demakin. All rights reserved.

package common

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// open modes for objects, which can be either created or opened.
const (
	OpenOrCreate = iota
	CreateOnly
	OpenOnly
)

// openAttempts limits the number of create/open rounds in OpenOrCreateObject.
// Another process may remove the object between our failed create and our open.
const openAttempts = 16

// OpenOrCreateObject calls creator according to the mode.
// creator(true) must try to exclusively create an object, creator(false) must open an existing one.
// It returns true, if the object was created by this call.
func OpenOrCreateObject(creator func(create bool) error, mode int) (bool, error) {
	switch mode {
	case OpenOnly:
		return false, creator(false)
	case CreateOnly:
		if err := creator(true); err != nil {
			return false, err
		}
		return true, nil
	case OpenOrCreate:
		var err error
		for attempt := 0; attempt < openAttempts; attempt++ {
			if err = creator(true); !IsExistErr(err) {
				return err == nil, err
			}
			if err = creator(false); !IsNotExistErr(err) {
				return false, err
			}
		}
		return false, err
	default:
		return false, errors.Errorf("unknown open mode %d", mode)
	}
}

// AccessMode extracts an access mode (os.O_RDONLY, os.O_WRONLY or os.O_RDWR)
// from the flag, returning an error for contradicting combinations.
func AccessMode(flag int) (int, error) {
	switch flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR) {
	case os.O_RDONLY:
		return os.O_RDONLY, nil
	case os.O_WRONLY:
		return os.O_WRONLY, nil
	case os.O_RDWR:
		return os.O_RDWR, nil
	default:
		return 0, errors.New("incompatible access flags")
	}
}

// SyscallErrno extracts the errno from a syscall error chain.
func SyscallErrno(err error) (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno, true
	}
	return 0, false
}

// SyscallErrHasCode returns true, if the error chain contains the given errno.
func SyscallErrHasCode(err error, code syscall.Errno) bool {
	errno, ok := SyscallErrno(err)
	return ok && errno == code
}

// IsExistErr returns true for EEXIST.
func IsExistErr(err error) bool {
	return SyscallErrHasCode(err, syscall.EEXIST)
}

// IsNotExistErr returns true for ENOENT.
func IsNotExistErr(err error) bool {
	return SyscallErrHasCode(err, syscall.ENOENT)
}

// IsInterruptedSyscallErr returns true for EINTR.
func IsInterruptedSyscallErr(err error) bool {
	return SyscallErrHasCode(err, syscall.EINTR)
}

// IsAgainErr returns true for EAGAIN, which is what a non-blocking queue reports when it is full or empty.
func IsAgainErr(err error) bool {
	return SyscallErrHasCode(err, syscall.EAGAIN)
}
