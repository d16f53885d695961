// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build linux

package mq

import (
	"os"
	"sort"
	"syscall"
	"testing"
	"time"

	"github.com/nxgtw/typedmq/internal/common"
	testutil "github.com/nxgtw/typedmq/internal/test"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestMq(t *testing.T, maxMsg, msgSize int64, flag int) *Handle {
	name := testutil.QueueName("mq")
	h, err := OpenOrCreate(name, &Attrs{MaxMsg: maxMsg, MsgSize: msgSize}, flag, 0600)
	require.NoError(t, err)
	t.Cleanup(func() {
		h.Close()
		Unlink(name)
	})
	return h
}

func TestOpenOrCreateThenAttach(t *testing.T) {
	a := assert.New(t)
	h := createTestMq(t, 5, 121, os.O_RDWR)
	a.True(h.Created())
	a.Equal(121, h.MsgSize())
	a.GreaterOrEqual(h.Fd(), 0)

	// a second call attaches, ignoring its own attributes.
	h2, err := OpenOrCreate(h.Name(), &Attrs{MaxMsg: 1, MsgSize: 16}, os.O_RDONLY, 0600)
	require.NoError(t, err)
	defer h2.Close()
	a.False(h2.Created())
	a.Equal(121, h2.MsgSize())
}

func TestOpenOrCreateExcl(t *testing.T) {
	h := createTestMq(t, 1, 8, os.O_RDWR)
	_, err := OpenOrCreate(h.Name(), &Attrs{MaxMsg: 1, MsgSize: 8}, os.O_RDWR|os.O_EXCL, 0600)
	var openErr *OpenError
	require.True(t, errors.As(err, &openErr))
	assert.Equal(t, ReasonExist, openErr.Reason)
	assert.True(t, common.IsExistErr(err))
}

func TestConnectNotExist(t *testing.T) {
	_, err := Connect(testutil.QueueName("absent"), os.O_WRONLY)
	var openErr *OpenError
	require.True(t, errors.As(err, &openErr))
	assert.Equal(t, ReasonNotExist, openErr.Reason)
}

func TestGetAttrs(t *testing.T) {
	a := assert.New(t)
	h := createTestMq(t, 5, 121, os.O_RDWR)
	a.NoError(h.Send(make([]byte, 1), 0))
	attrs, err := h.Attrs()
	require.NoError(t, err)
	a.Equal(int64(5), attrs.MaxMsg)
	a.Equal(int64(121), attrs.MsgSize)
	a.Equal(int64(1), attrs.CurMsgs)
	a.Equal(int64(0), attrs.Flags)
}

func TestCloseIdempotent(t *testing.T) {
	a := assert.New(t)
	h := createTestMq(t, 1, 8, os.O_RDWR)
	a.NoError(h.Close())
	a.NoError(h.Close())
	a.True(h.Closed())
	a.Equal(ErrClosed, h.Send([]byte{1}, 0))
	_, _, err := h.Receive(make([]byte, 8))
	a.Equal(ErrClosed, err)
}

func TestUnlinkKeepsOpenDescriptors(t *testing.T) {
	a := assert.New(t)
	h := createTestMq(t, 2, 8, os.O_RDWR)
	client, err := Connect(h.Name(), os.O_WRONLY)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, Unlink(h.Name()))
	a.NoError(Unlink(h.Name()), "unlinking a missing queue is not an error")

	a.NoError(client.Send([]byte("abc"), 1))
	buf := make([]byte, 8)
	n, prio, err := h.Receive(buf)
	require.NoError(t, err)
	a.Equal("abc", string(buf[:n]))
	a.Equal(uint(1), prio)

	_, err = Connect(h.Name(), os.O_WRONLY)
	a.Error(err)
}

func TestSendReceivePriority(t *testing.T) {
	prios := [...]int{8, 4, 7, 1, 0, 15, 2, 31}
	a := assert.New(t)
	h := createTestMq(t, int64(len(prios)), 8, os.O_RDWR|O_NONBLOCK)
	for _, prio := range prios {
		message := make([]byte, 8)
		message[0] = byte(prio)
		require.NoError(t, h.Send(message, uint(prio)))
	}
	sort.Ints(prios[:])
	for i := len(prios) - 1; i >= 0; i-- {
		message := make([]byte, 8)
		n, prio, err := h.Receive(message)
		require.NoError(t, err)
		a.Equal(8, n)
		a.Equal(uint(prios[i]), prio)
		a.Equal(byte(prio), message[0])
	}
}

func TestSendTooLarge(t *testing.T) {
	h := createTestMq(t, 1, 8, os.O_RDWR)
	err := h.Send(make([]byte, 9), 0)
	assert.True(t, common.SyscallErrHasCode(err, syscall.EMSGSIZE))
}

func TestReceiveBufferTooSmall(t *testing.T) {
	h := createTestMq(t, 1, 8, os.O_RDWR)
	_, _, err := h.Receive(make([]byte, 7))
	assert.True(t, errors.Is(err, ErrBufferTooSmall))
}

func TestNonBlocking(t *testing.T) {
	a := assert.New(t)
	h := createTestMq(t, 1, 8, os.O_RDWR|O_NONBLOCK)
	_, _, err := h.Receive(make([]byte, 8))
	a.True(common.IsAgainErr(err))
	a.True(IsTemporary(err))
	a.NoError(h.Send([]byte{1}, 0))
	err = h.Send([]byte{2}, 0)
	a.True(common.IsAgainErr(err))

	require.NoError(t, h.SetBlocking(true))
	attrs, err := h.Attrs()
	require.NoError(t, err)
	a.Equal(int64(0), attrs.Flags)
	require.NoError(t, h.SetBlocking(false))
	attrs, err = h.Attrs()
	require.NoError(t, err)
	a.Equal(int64(O_NONBLOCK), attrs.Flags)
}

func TestReceiveBlocks(t *testing.T) {
	h := createTestMq(t, 1, 8, os.O_RDWR)
	buf := make([]byte, 8)
	received := make(chan string, 1)
	go func() {
		n, _, err := h.Receive(buf)
		if err != nil {
			received <- err.Error()
			return
		}
		received <- string(buf[:n])
	}()
	select {
	case <-received:
		t.Fatal("receive returned on an empty queue")
	case <-time.After(50 * time.Millisecond):
	}
	require.NoError(t, h.Send([]byte("late"), 0))
	select {
	case got := <-received:
		assert.Equal(t, "late", got)
	case <-time.After(5 * time.Second):
		t.Fatal("receive did not return")
	}
}

func TestWriteOnlyCannotReceive(t *testing.T) {
	h := createTestMq(t, 1, 8, os.O_RDWR)
	client, err := Connect(h.Name(), os.O_WRONLY|O_NONBLOCK)
	require.NoError(t, err)
	defer client.Close()
	_, _, err = client.Receive(make([]byte, 8))
	assert.True(t, common.SyscallErrHasCode(err, syscall.EBADF))
}

func TestReadLimits(t *testing.T) {
	if _, err := os.Stat(DefaultLimitsDir); err != nil {
		t.Skip("mqueue procfs is not available")
	}
	limits, err := ReadLimits()
	require.NoError(t, err)
	assert.Greater(t, limits.MsgMax, int64(0))
	assert.Greater(t, limits.MsgSizeMax, int64(0))
}

func TestSendPriorityRange(t *testing.T) {
	a := assert.New(t)
	h := createTestMq(t, 2, 8, os.O_RDWR)
	a.NoError(h.Send([]byte("max"), MaxPriority))
	for _, prio := range []uint{MaxPriority + 1, 1<<32 + 3} {
		err := h.Send([]byte("bad"), prio)
		a.True(common.SyscallErrHasCode(err, syscall.EINVAL), "priority %d", prio)
	}
	attrs, err := h.Attrs()
	require.NoError(t, err)
	a.Equal(int64(1), attrs.CurMsgs)
}

func TestCloseWhileReceiving(t *testing.T) {
	h := createTestMq(t, 1, 8, os.O_RDONLY)
	fd := h.Fd()
	buf := make([]byte, 8)
	received := make(chan string, 1)
	go func() {
		n, _, err := h.Receive(buf)
		if err != nil {
			received <- err.Error()
			return
		}
		received <- string(buf[:n])
	}()
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.inUse > 0
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, h.Close())
	assert.True(t, h.Closed())

	// the pinned descriptor stays open, so its number is not handed out again.
	other := createTestMq(t, 1, 8, os.O_RDONLY)
	assert.NotEqual(t, fd, other.Fd())

	writer, err := Connect(h.Name(), os.O_WRONLY)
	require.NoError(t, err)
	defer writer.Close()
	require.NoError(t, writer.Send([]byte("after"), 0))
	select {
	case got := <-received:
		assert.Equal(t, "after", got)
	case <-time.After(5 * time.Second):
		t.Fatal("receive did not return")
	}
	_, _, err = h.Receive(buf)
	assert.Equal(t, ErrClosed, err)
}
