// Copyright 2016 Aleksandr Demakin. All rights reserved.

package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleMessage struct {
	Action string `cbor:"action"`
	Count  int    `cbor:"count"`
	Tags   []string
}

type plainMessage struct {
	ID    uint64
	Value float64
	Flags [4]byte
}

func TestCBORRoundtrip(t *testing.T) {
	original := sampleMessage{Action: "create", Count: 42, Tags: []string{"a", "b"}}
	data, err := CBOR.Marshal(original)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	var decoded sampleMessage
	require.NoError(t, CBOR.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestCBORDeterministic(t *testing.T) {
	value := map[string]int{"z": 1, "a": 2, "m": 3}
	first, err := CBOR.Marshal(value)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		next, err := CBOR.Marshal(value)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(first, next))
	}
}

func TestCBORRejectsGarbage(t *testing.T) {
	data, err := CBOR.Marshal(sampleMessage{Action: "x"})
	require.NoError(t, err)
	var decoded sampleMessage
	assert.Error(t, CBOR.Unmarshal(data[:len(data)-1], &decoded), "truncated")
	assert.Error(t, CBOR.Unmarshal(append(data, 0x01), &decoded), "trailing bytes")
	assert.Error(t, CBOR.Unmarshal(nil, &decoded), "empty")
	var n int
	assert.Error(t, CBOR.Unmarshal(data, &n), "type mismatch")
}

func TestCBORAnyMap(t *testing.T) {
	data, err := CBOR.Marshal(map[string]any{"k": "v"})
	require.NoError(t, err)
	var decoded any
	require.NoError(t, CBOR.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]any{"k": "v"}, decoded)
}

func TestBinaryRoundtrip(t *testing.T) {
	original := plainMessage{ID: 0xDEADBEEFDEADBEEF, Value: 11.22, Flags: [4]byte{1, 2, 3, 4}}
	data, err := Binary.Marshal(original)
	require.NoError(t, err)
	var decoded plainMessage
	require.NoError(t, Binary.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)

	data, err = Binary.Marshal(&original)
	require.NoError(t, err)
	decoded = plainMessage{}
	require.NoError(t, Binary.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestBinarySizeMismatch(t *testing.T) {
	data, err := Binary.Marshal(uint64(7))
	require.NoError(t, err)
	var small uint32
	assert.Error(t, Binary.Unmarshal(data, &small))
	var big plainMessage
	assert.Error(t, Binary.Unmarshal(data, &big))
	var exact uint64
	assert.NoError(t, Binary.Unmarshal(data, &exact))
	assert.Equal(t, uint64(7), exact)
}

func TestBinaryRejectsReferences(t *testing.T) {
	_, err := Binary.Marshal(sampleMessage{})
	assert.Error(t, err)
	_, err = Binary.Marshal("string")
	assert.Error(t, err)
}

func TestCompressedRoundtrip(t *testing.T) {
	original := sampleMessage{Action: strings.Repeat("compressible ", 100), Count: 1}
	for _, algorithm := range []Algorithm{None, LZ4, Zstd} {
		t.Run(algorithm.String(), func(t *testing.T) {
			c := NewCompressed(CBOR, algorithm)
			data, err := c.Marshal(original)
			require.NoError(t, err)
			assert.Equal(t, byte(algorithm), data[0])
			raw, err := CBOR.Marshal(original)
			require.NoError(t, err)
			if algorithm != None {
				assert.Less(t, len(data), len(raw))
			}
			var decoded sampleMessage
			require.NoError(t, c.Unmarshal(data, &decoded))
			assert.Equal(t, original, decoded)
		})
	}
}

func TestCompressedIncompressibleFallsBack(t *testing.T) {
	c := NewCompressed(CBOR, LZ4)
	data, err := c.Marshal(1)
	require.NoError(t, err)
	assert.Equal(t, byte(None), data[0])
	var decoded int
	require.NoError(t, c.Unmarshal(data, &decoded))
	assert.Equal(t, 1, decoded)
}

func TestCompressedRejectsCorruption(t *testing.T) {
	c := NewCompressed(CBOR, Zstd)
	data, err := c.Marshal(sampleMessage{Action: strings.Repeat("x", 500)})
	require.NoError(t, err)
	var decoded sampleMessage
	assert.Error(t, c.Unmarshal(nil, &decoded))
	assert.Error(t, c.Unmarshal([]byte{byte(Zstd)}, &decoded))
	assert.Error(t, c.Unmarshal(data[:len(data)/2], &decoded))
	corrupted := append([]byte{}, data...)
	corrupted[0] = 9
	assert.Error(t, c.Unmarshal(corrupted, &decoded))
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		c, err := ByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
	c, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, Default, c)
	_, err = ByName("gob")
	assert.Error(t, err)
}
