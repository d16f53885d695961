// Copyright 2016 Aleksandr Demakin. All rights reserved.

package typedmq

import (
	"testing"

	"github.com/nxgtw/typedmq/codec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand(t *testing.T) {
	cmd := NewCommand(3, []byte("payload"))
	assert.Equal(t, uint8(3), cmd.Origin())
	assert.Equal(t, []byte("payload"), cmd.Payload())
}

func TestCommandEncoding(t *testing.T) {
	for _, c := range []codec.Codec{codec.CBOR, codec.NewCompressed(codec.CBOR, codec.LZ4)} {
		data, err := c.Marshal(NewCommand(255, []byte{0, 0, 1}))
		require.NoError(t, err)
		var cmd Command
		require.NoError(t, c.Unmarshal(data, &cmd), c.Name())
		assert.Equal(t, uint8(255), cmd.Sender)
		assert.Equal(t, []byte{0, 0, 1}, cmd.Data)
	}
}

func TestCommandEncodingDeterministic(t *testing.T) {
	first, err := codec.CBOR.Marshal(NewCommand(1, []byte("x")))
	require.NoError(t, err)
	second, err := codec.CBOR.Marshal(Command{Data: []byte("x"), Sender: 1})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
