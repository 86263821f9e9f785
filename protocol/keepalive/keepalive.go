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

// Package keepalive answers the ping messages a peer uses to probe an idle connection
package keepalive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/btcpeer/protocol"
)

// ProtocolName is the name of the keep-alive protocol.
const ProtocolName = "keep-alive"

// NonceSize is the size of the ping/pong nonce
const NonceSize = 8

var ErrInvalidPing = errors.New("invalid ping")

// MsgPing is a ping or pong message. Peers older than BIP 31 send pings without a nonce
type MsgPing struct {
	Nonce    uint64
	HasNonce bool
}

func NewMsgPing(nonce uint64) MsgPing {
	return MsgPing{
		Nonce:    nonce,
		HasNonce: true,
	}
}

// NewMsgPingFromBytes decodes a ping or pong payload
func NewMsgPingFromBytes(payload []byte) (MsgPing, error) {
	switch len(payload) {
	case 0:
		return MsgPing{}, nil
	case NonceSize:
		return NewMsgPing(binary.LittleEndian.Uint64(payload)), nil
	default:
		return MsgPing{}, fmt.Errorf(
			"%w: payload is %d bytes, expected %d",
			ErrInvalidPing,
			len(payload),
			NonceSize,
		)
	}
}

func (m MsgPing) Encode() []byte {
	if !m.HasNonce {
		return []byte{}
	}
	return binary.LittleEndian.AppendUint64(nil, m.Nonce)
}

// Respond answers a ping with a pong carrying the same nonce. Pings without a nonce
// expect no answer
func Respond(framer *protocol.Framer, msg *protocol.Message, logger *slog.Logger) error {
	if msg.Command != protocol.CommandPing {
		return fmt.Errorf("%w: unexpected command %s", ErrInvalidPing, msg.Command)
	}
	ping, err := NewMsgPingFromBytes(msg.Payload)
	if err != nil {
		return err
	}
	if logger == nil {
		logger = framer.Logger()
	}
	peer := ""
	if conn := framer.Conn(); conn != nil && conn.RemoteAddr() != nil {
		peer = conn.RemoteAddr().String()
	}
	if !ping.HasNonce {
		logger.Debug("ignoring ping without nonce",
			"component", "network",
			"protocol", ProtocolName,
			"peer", peer,
		)
		return nil
	}
	logger.
		Debug("answering ping",
			"component", "network",
			"protocol", ProtocolName,
			"peer", peer,
			"nonce", ping.Nonce,
		)
	return framer.WriteMessage(protocol.CommandPong, ping.Encode())
}
