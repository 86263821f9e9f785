// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package codec

import (
	"encoding/binary"
	"math"
)

// VarintSize returns the number of bytes needed to encode the value as a varint
func VarintSize(value uint64) int {
	switch {
	case value < VarintMarker16:
		return 1
	case value <= math.MaxUint16:
		return 3
	case value <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// AppendVarint appends the canonical (shortest) varint encoding of value to dst
func AppendVarint(dst []byte, value uint64) []byte {
	switch {
	case value < VarintMarker16:
		return append(dst, byte(value))
	case value <= math.MaxUint16:
		dst = append(dst, VarintMarker16)
		return binary.LittleEndian.AppendUint16(dst, uint16(value))
	case value <= math.MaxUint32:
		dst = append(dst, VarintMarker32)
		return binary.LittleEndian.AppendUint32(dst, uint32(value))
	default:
		dst = append(dst, VarintMarker64)
		return binary.LittleEndian.AppendUint64(dst, value)
	}
}

// AppendVarBytes appends a varint length prefix followed by data
func AppendVarBytes(dst []byte, data []byte) []byte {
	dst = AppendVarint(dst, uint64(len(data)))
	return append(dst, data...)
}
