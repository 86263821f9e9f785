// Copyright 2023 Blink Labs Software
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

package peer_mock

import (
	"errors"
	"time"

	"github.com/blinklabs-io/btcpeer/protocol"
	"github.com/blinklabs-io/btcpeer/protocol/handshake"
)

const (
	// MockNetworkMagic is the magic of the regression test network
	MockNetworkMagic    uint32 = 0xdab5bffa
	MockProtocolVersion int32  = 70016
	MockUserAgent              = "/peer-mock:0.1.0/"
	MockStartHeight     int32  = 840000
	MockTimestamp       int64  = 1713571767
	MockServices        uint64 = 0x409
)

type EntryType int

const (
	EntryTypeNone   EntryType = 0
	EntryTypeInput  EntryType = 1
	EntryTypeOutput EntryType = 2
	EntryTypeClose  EntryType = 3
	EntryTypeSleep  EntryType = 4
)

type ConversationEntry struct {
	Type EntryType
	// Input entries
	InputCommand string
	InputPayload []byte
	InputFunc    func(*protocol.Message) error
	// Output entries. OutputRaw, when set, is written as-is instead of a framed message
	OutputCommand string
	OutputPayload []byte
	OutputRaw     []byte
	// Sleep entries
	Duration time.Duration
}

// NewInputEntry returns a conversation entry that expects a message with the provided command
func NewInputEntry(command string) ConversationEntry {
	return ConversationEntry{
		Type:         EntryTypeInput,
		InputCommand: command,
	}
}

// NewOutputEntry returns a conversation entry that sends a message
func NewOutputEntry(command string, payload []byte) ConversationEntry {
	return ConversationEntry{
		Type:          EntryTypeOutput,
		OutputCommand: command,
		OutputPayload: payload,
	}
}

// NewRawOutputEntry returns a conversation entry that writes raw bytes to the client
func NewRawOutputEntry(data []byte) ConversationEntry {
	return ConversationEntry{
		Type:      EntryTypeOutput,
		OutputRaw: data,
	}
}

// NewSleepEntry returns a conversation entry that pauses the peer
func NewSleepEntry(duration time.Duration) ConversationEntry {
	return ConversationEntry{
		Type:     EntryTypeSleep,
		Duration: duration,
	}
}

// ConversationEntryClose closes the peer side of the connection
var ConversationEntryClose = ConversationEntry{
	Type: EntryTypeClose,
}

// MockVersion is the version message sent by the mock peer
var MockVersion = handshake.MsgVersion{
	ProtocolVersion: MockProtocolVersion,
	Services:        MockServices,
	Timestamp:       MockTimestamp,
	Nonce:           0x1122334455667788,
	UserAgent:       MockUserAgent,
	StartHeight:     MockStartHeight,
	Relay:           true,
}

// ConversationEntryVersionRequest is a pre-defined conversation entry that matches the
// version message from a client
var ConversationEntryVersionRequest = ConversationEntry{
	Type:         EntryTypeInput,
	InputCommand: protocol.CommandVersion,
	InputFunc: func(msg *protocol.Message) error {
		_, err := handshake.NewMsgVersionFromBytes(msg.Payload)
		return err
	},
}

// ConversationEntryVersionResponse is a pre-defined conversation entry for the peer version message
var ConversationEntryVersionResponse = ConversationEntry{
	Type:          EntryTypeOutput,
	OutputCommand: protocol.CommandVersion,
	OutputPayload: MockVersion.Encode(),
}

// ConversationEntryVerackResponse is a pre-defined conversation entry for the peer verack message
var ConversationEntryVerackResponse = ConversationEntry{
	Type:          EntryTypeOutput,
	OutputCommand: protocol.CommandVerack,
}

// ConversationEntryVerackRequest is a pre-defined conversation entry that matches the
// verack message from a client
var ConversationEntryVerackRequest = ConversationEntry{
	Type:         EntryTypeInput,
	InputCommand: protocol.CommandVerack,
	InputFunc: func(msg *protocol.Message) error {
		if len(msg.Payload) != 0 {
			return errors.New("verack payload is not empty")
		}
		return nil
	},
}

// ConversationHandshake is the complete exchange for a successful handshake
var ConversationHandshake = []ConversationEntry{
	ConversationEntryVersionRequest,
	ConversationEntryVersionResponse,
	ConversationEntryVerackResponse,
	ConversationEntryVerackRequest,
}

// NewConversation returns the successful handshake followed by the provided entries
func NewConversation(entries ...ConversationEntry) []ConversationEntry {
	ret := make([]ConversationEntry, 0, len(ConversationHandshake)+len(entries))
	ret = append(ret, ConversationHandshake...)
	ret = append(ret, entries...)
	return ret
}
