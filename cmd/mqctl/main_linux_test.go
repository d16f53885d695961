// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build linux

package main

import (
	"testing"

	testutil "github.com/nxgtw/typedmq/internal/test"
	"github.com/nxgtw/typedmq/mq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueLifecycle(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	name := testutil.QueueName("mqctl")
	defer mq.Unlink(name)

	out, err := runCommand(t, "create", name, "--max-messages", "4", "--message-size", "128")
	require.NoError(t, err)
	assert.Contains(t, out, name)

	_, err = runCommand(t, "create", name)
	assert.Error(t, err, "create must not attach to an existing queue")

	_, err = runCommand(t, "send", name, "first", "--priority", "1", "--sender", "2")
	require.NoError(t, err)
	_, err = runCommand(t, "send", name, "second", "--priority", "7", "--sender", "3")
	require.NoError(t, err)

	out, err = runCommand(t, "stat", name)
	require.NoError(t, err)
	assert.Contains(t, out, "pending messages")

	out, err = runCommand(t, "listen", name, "--count", "2")
	require.NoError(t, err)
	assert.Equal(t, "sender=3 priority=7 data=\"second\"\nsender=2 priority=1 data=\"first\"\n", out)

	// listen attached to a queue it did not create, so the queue stays.
	handle, err := mq.Connect(name, 0)
	require.NoError(t, err)
	require.NoError(t, handle.Close())

	_, err = runCommand(t, "unlink", name)
	require.NoError(t, err)
	_, err = runCommand(t, "stat", name)
	assert.Error(t, err)
}
