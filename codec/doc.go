// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package codec converts values to message payloads and back.
//
// The transport never inspects payloads: whatever a Codec produces is sent as is,
// and the length reported by the kernel is what Unmarshal gets.
package codec
