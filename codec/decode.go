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
	"errors"
	"fmt"
)

// Varint marker bytes
const (
	VarintMarker16 = 0xfd
	VarintMarker32 = 0xfe
	VarintMarker64 = 0xff
)

// ErrTruncatedInput is returned when a decode step would read past the end of the buffer
var ErrTruncatedInput = errors.New("truncated input")

// ReadVarint decodes a variable-length integer starting at offset and returns the value
// along with the offset immediately following it
func ReadVarint(data []byte, offset int) (uint64, int, error) {
	if offset < 0 || offset >= len(data) {
		return 0, offset, truncatedError("varint", offset, 1, len(data))
	}
	first := data[offset]
	var width int
	switch first {
	case VarintMarker16:
		width = 2
	case VarintMarker32:
		width = 4
	case VarintMarker64:
		width = 8
	default:
		return uint64(first), offset + 1, nil
	}
	start := offset + 1
	if len(data)-start < width {
		return 0, offset, truncatedError("varint", offset, width+1, len(data))
	}
	var value uint64
	switch width {
	case 2:
		value = uint64(binary.LittleEndian.Uint16(data[start:]))
	case 4:
		value = uint64(binary.LittleEndian.Uint32(data[start:]))
	default:
		value = binary.LittleEndian.Uint64(data[start:])
	}
	return value, start + width, nil
}

// ReadBytes returns the length bytes starting at offset. The returned slice shares
// memory with data
func ReadBytes(data []byte, offset int, length uint64) ([]byte, int, error) {
	if offset < 0 || offset > len(data) || length > uint64(len(data)-offset) {
		return nil, offset, truncatedError("bytes", offset, length, len(data))
	}
	end := offset + int(length)
	return data[offset:end], end, nil
}

// Skip advances the cursor by length bytes without returning them
func Skip(data []byte, offset int, length uint64) (int, error) {
	_, newOffset, err := ReadBytes(data, offset, length)
	return newOffset, err
}

// ReadUint32 decodes a little-endian uint32 at offset
func ReadUint32(data []byte, offset int) (uint32, int, error) {
	buf, newOffset, err := ReadBytes(data, offset, 4)
	if err != nil {
		return 0, offset, err
	}
	return binary.LittleEndian.Uint32(buf), newOffset, nil
}

// ReadInt32 decodes a little-endian int32 at offset
func ReadInt32(data []byte, offset int) (int32, int, error) {
	v, newOffset, err := ReadUint32(data, offset)
	// #nosec G115 -- two's complement reinterpretation of the wire value
	return int32(v), newOffset, err
}

// ReadUint64 decodes a little-endian uint64 at offset
func ReadUint64(data []byte, offset int) (uint64, int, error) {
	buf, newOffset, err := ReadBytes(data, offset, 8)
	if err != nil {
		return 0, offset, err
	}
	return binary.LittleEndian.Uint64(buf), newOffset, nil
}

// ReadVarBytes decodes a varint length followed by that many bytes
func ReadVarBytes(data []byte, offset int) ([]byte, int, error) {
	length, newOffset, err := ReadVarint(data, offset)
	if err != nil {
		return nil, offset, err
	}
	return ReadBytes(data, newOffset, length)
}

func truncatedError[T int | uint64](what string, offset int, want T, have int) error {
	return fmt.Errorf(
		"%w: reading %s at offset %d: need %d bytes, have %d",
		ErrTruncatedInput,
		what,
		offset,
		want,
		max(have-offset, 0),
	)
}
