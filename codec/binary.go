// Copyright 2016 Aleksandr Demakin. All rights reserved.

package codec

import (
	"github.com/nxgtw/typedmq/internal/allocator"

	"github.com/pkg/errors"
)

// Binary copies the in-memory representation of values.
// It supports numbers, bools, arrays and structs of them, i.e. types without references.
// A payload is accepted only if its length equals the size of the target type.
// Both sides must run on the same architecture.
var Binary Codec = binaryCodec{}

type binaryCodec struct{}

func (binaryCodec) Marshal(v any) ([]byte, error) {
	data, err := allocator.ObjectData(v)
	if err != nil {
		return nil, errors.Wrapf(err, "binary marshal of %T failed", v)
	}
	return data, nil
}

func (binaryCodec) Unmarshal(data []byte, v any) error {
	if err := allocator.Alloc(data, v); err != nil {
		return errors.Wrapf(err, "binary unmarshal into %T failed", v)
	}
	return nil
}

func (binaryCodec) Name() string {
	return NameBinary
}
