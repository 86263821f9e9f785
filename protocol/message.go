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

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/blinklabs-io/btcpeer/utils"
	"github.com/btcsuite/btcd/wire"
)

const (
	// MessageHeaderSize is the size of the fixed message envelope header
	MessageHeaderSize = 24
	// CommandSize is the width of the NUL-padded command field
	CommandSize = 12
	// DefaultMaxPayloadLength caps the payload size accepted from a peer
	DefaultMaxPayloadLength = wire.MaxMessagePayload
)

// Commands used by this client
const (
	CommandVersion = wire.CmdVersion
	CommandVerack  = wire.CmdVerAck
	CommandInv     = wire.CmdInv
	CommandGetData = wire.CmdGetData
	CommandBlock   = wire.CmdBlock
	CommandPing    = wire.CmdPing
	CommandPong    = wire.CmdPong
)

// MessageHeader is the wire form of the message envelope header
type MessageHeader struct {
	Magic    uint32
	Command  [CommandSize]byte
	Length   uint32
	Checksum [utils.ChecksumSize]byte
}

// CommandString returns the command with its NUL padding removed
func (h *MessageHeader) CommandString() string {
	return string(bytes.TrimRight(h.Command[:], "\x00"))
}

// Message is a single protocol message
type Message struct {
	Command  string
	Payload  []byte
	Checksum [utils.ChecksumSize]byte
}

// NewMessage returns a new Message with the checksum computed from the payload
func NewMessage(command string, payload []byte) (*Message, error) {
	if err := validateCommand(command); err != nil {
		return nil, err
	}
	return &Message{
		Command:  command,
		Payload:  payload,
		Checksum: utils.Checksum(payload),
	}, nil
}

// VerifyChecksum recomputes the payload checksum and compares it to the one carried
// by the message
func (m *Message) VerifyChecksum() error {
	computed := utils.Checksum(m.Payload)
	if computed != m.Checksum {
		return fmt.Errorf(
			"%w: %s message has checksum %x, payload hashes to %x",
			ErrChecksumMismatch,
			m.Command,
			m.Checksum,
			computed,
		)
	}
	return nil
}

// Header returns the envelope header for the message. The length and checksum are
// always derived from the payload
func (m *Message) Header(magic uint32) MessageHeader {
	header := MessageHeader{
		Magic: magic,
		// #nosec G115 -- payload length is bounded by the encoder
		Length:   uint32(len(m.Payload)),
		Checksum: utils.Checksum(m.Payload),
	}
	copy(header.Command[:], m.Command)
	return header
}

// Encode returns the full wire form of the message
func (m *Message) Encode(magic uint32) ([]byte, error) {
	if err := validateCommand(m.Command); err != nil {
		return nil, err
	}
	if uint64(len(m.Payload)) > DefaultMaxPayloadLength {
		return nil, fmt.Errorf(
			"%w: %d bytes exceeds maximum of %d",
			ErrPayloadTooLarge,
			len(m.Payload),
			DefaultMaxPayloadLength,
		)
	}
	buf := bytes.NewBuffer(make([]byte, 0, MessageHeaderSize+len(m.Payload)))
	if err := binary.Write(buf, binary.LittleEndian, m.Header(magic)); err != nil {
		return nil, err
	}
	buf.Write(m.Payload)
	return buf.Bytes(), nil
}

// EncodeMessage builds the wire form of a message with the given command and payload
func EncodeMessage(magic uint32, command string, payload []byte) ([]byte, error) {
	msg, err := NewMessage(command, payload)
	if err != nil {
		return nil, err
	}
	return msg.Encode(magic)
}

func validateCommand(command string) error {
	if len(command) == 0 {
		return fmt.Errorf("%w: empty command", ErrInvalidCommand)
	}
	if len(command) > CommandSize {
		return fmt.Errorf(
			"%w: %q is longer than %d bytes",
			ErrInvalidCommand,
			command,
			CommandSize,
		)
	}
	for i := 0; i < len(command); i++ {
		if command[i] <= 0x20 || command[i] >= 0x7f {
			return fmt.Errorf(
				"%w: %q contains a non-printable byte",
				ErrInvalidCommand,
				command,
			)
		}
	}
	return nil
}
