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

package protocol

import "errors"

// Framing errors. Only ErrReadTimeout leaves the stream usable, since an interrupted
// payload is resumed by the next read. Every other read error means the connection
// should be dropped
var (
	ErrReadTimeout       = errors.New("read timeout")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrIncompleteHeader  = errors.New("incomplete message header")
	ErrIncompleteMessage = errors.New("incomplete message")
	ErrBadMagic          = errors.New("bad network magic")
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrInvalidCommand    = errors.New("invalid command")
)

// ErrChecksumMismatch is returned by Message.VerifyChecksum when the checksum from the
// message header does not match the payload
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ErrTooManyInventoryItems is returned when an inventory payload declares more items
// than the protocol allows in a single message
var ErrTooManyInventoryItems = errors.New("too many inventory items")
