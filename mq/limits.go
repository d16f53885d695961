// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultLimitsDir is where linux exposes mqueue limits.
const DefaultLimitsDir = "/proc/sys/fs/mqueue"

// Limits are system-wide mqueue limits. Unprivileged processes cannot create
// queues with MaxMsg > MsgMax or MsgSize > MsgSizeMax.
type Limits struct {
	MsgMax         int64
	MsgSizeMax     int64
	QueuesMax      int64
	MsgDefault     int64
	MsgSizeDefault int64
}

// ReadLimits reads limits from DefaultLimitsDir.
func ReadLimits() (*Limits, error) {
	return ReadLimitsFrom(DefaultLimitsDir)
}

// ReadLimitsFrom reads limits from the given directory with procfs layout.
func ReadLimitsFrom(dir string) (*Limits, error) {
	var l Limits
	fields := []struct {
		file string
		dst  *int64
	}{
		{"msg_max", &l.MsgMax},
		{"msgsize_max", &l.MsgSizeMax},
		{"queues_max", &l.QueuesMax},
		{"msg_default", &l.MsgDefault},
		{"msgsize_default", &l.MsgSizeDefault},
	}
	for _, f := range fields {
		data, err := os.ReadFile(filepath.Join(dir, f.file))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read mqueue limit %s", f.file)
		}
		value, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid mqueue limit %s", f.file)
		}
		*f.dst = value
	}
	return &l, nil
}

// Fits returns nil, if an unprivileged process may create a queue with the given attributes.
func (l *Limits) Fits(attrs Attrs) error {
	if attrs.MaxMsg > l.MsgMax {
		return errors.Errorf("max messages %d exceeds msg_max %d", attrs.MaxMsg, l.MsgMax)
	}
	if attrs.MsgSize > l.MsgSizeMax {
		return errors.Errorf("message size %d exceeds msgsize_max %d", attrs.MsgSize, l.MsgSizeMax)
	}
	return nil
}
