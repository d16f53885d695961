// Copyright 2016 Aleksandr Demakin. All rights reserved.

package codec

import (
	"github.com/pkg/errors"
)

// Codec serializes values to bytes and back.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Marshal returns the encoded form of v.
	Marshal(v any) ([]byte, error)
	// Unmarshal decodes data into v, which must be a non-nil pointer.
	// It must fail, if data is not exactly one encoded value.
	Unmarshal(data []byte, v any) error
	// Name returns the name accepted by ByName.
	Name() string
}

// codec names.
const (
	NameCBOR     = "cbor"
	NameBinary   = "binary"
	NameCBORLZ4  = "cbor+lz4"
	NameCBORZstd = "cbor+zstd"
)

// Default is the codec used when none is configured.
var Default Codec = CBOR

// Names returns all names accepted by ByName.
func Names() []string {
	return []string{NameCBOR, NameBinary, NameCBORLZ4, NameCBORZstd}
}

// ByName returns a codec for its name.
func ByName(name string) (Codec, error) {
	switch name {
	case NameCBOR, "":
		return CBOR, nil
	case NameBinary:
		return Binary, nil
	case NameCBORLZ4:
		return NewCompressed(CBOR, LZ4), nil
	case NameCBORZstd:
		return NewCompressed(CBOR, Zstd), nil
	default:
		return nil, errors.Errorf("unknown codec %q", name)
	}
}
