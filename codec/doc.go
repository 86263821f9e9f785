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

// Package codec provides the fixed-width and variable-length integer decoding
// used by the Bitcoin wire format.
//
// All decoders operate on an explicit cursor: they take the full buffer and an
// offset, and return the decoded value together with the offset of the first
// byte after it. Nothing is read from a stream, so a caller can always retry or
// hash an exact byte range after decoding it.
//
// # Varint layout
//
//	value < 0xfd          1 byte
//	0xfd + uint16 (LE)    3 bytes
//	0xfe + uint32 (LE)    5 bytes
//	0xff + uint64 (LE)    9 bytes
//
// A buffer that ends before the width announced by the marker byte fails with
// ErrTruncatedInput.
package codec
