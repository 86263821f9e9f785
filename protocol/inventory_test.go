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

package protocol_test

import (
	"bytes"
	"testing"

	"github.com/blinklabs-io/btcpeer/codec"
	"github.com/blinklabs-io/btcpeer/protocol"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var chainhashOne = chainhash.Hash{0x01}

func TestInvTypeString(t *testing.T) {
	testDefs := []struct {
		invType  protocol.InvType
		expected string
		known    bool
		block    bool
	}{
		{protocol.InvTypeError, "error", true, false},
		{protocol.InvTypeTx, "tx", true, false},
		{protocol.InvTypeBlock, "block", true, true},
		{protocol.InvTypeFilteredBlock, "filtered_block", true, false},
		{protocol.InvTypeCmpctBlock, "cmpct_block", true, false},
		{protocol.InvTypeWitnessTx, "witness_tx", true, false},
		{protocol.InvTypeWitnessBlock, "witness_block", true, false},
		{protocol.InvType(0x1234), "unhandled(0x1234)", false, false},
	}
	for _, testDef := range testDefs {
		assert.Equal(t, testDef.expected, testDef.invType.String())
		assert.Equal(t, testDef.known, testDef.invType.Known(), testDef.expected)
		assert.Equal(t, testDef.block, testDef.invType.IsBlock(), testDef.expected)
	}
}

func TestDecodeInvPayload(t *testing.T) {
	hashA := chainhash.DoubleHashH([]byte("a"))
	hashB := chainhash.DoubleHashH([]byte("b"))
	msg := wire.NewMsgInv()
	require.NoError(t, msg.AddInvVect(wire.NewInvVect(wire.InvTypeTx, &hashA)))
	require.NoError(t, msg.AddInvVect(wire.NewInvVect(wire.InvTypeBlock, &hashB)))
	var buf bytes.Buffer
	require.NoError(t, msg.BtcEncode(&buf, wire.ProtocolVersion, wire.BaseEncoding))

	items, err := protocol.DecodeInvPayload(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, protocol.InvTypeTx, items[0].Type)
	assert.Equal(t, hashA, items[0].Hash)
	assert.Equal(t, protocol.InvTypeBlock, items[1].Type)
	assert.Equal(t, hashB, items[1].Hash)

	// Encoding produces the same bytes as btcd
	assert.Equal(t, buf.Bytes(), protocol.EncodeInvPayload(items))
}

func TestDecodeInvPayloadUnknownType(t *testing.T) {
	payload := protocol.EncodeInvPayload(
		[]protocol.InvVect{protocol.NewInvVect(protocol.InvType(0x40000001), chainhashOne)},
	)
	items, err := protocol.DecodeInvPayload(payload)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].Type.Known())
	assert.Equal(t, chainhashOne, items[0].Hash)
}

func TestDecodeInvPayloadEmpty(t *testing.T) {
	items, err := protocol.DecodeInvPayload([]byte{0x00})
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = protocol.DecodeInvPayload(nil)
	require.ErrorIs(t, err, codec.ErrTruncatedInput)
}

func TestDecodeInvPayloadTruncated(t *testing.T) {
	payload := protocol.EncodeInvPayload(
		[]protocol.InvVect{
			protocol.NewInvVect(protocol.InvTypeTx, chainhashOne),
			protocol.NewInvVect(protocol.InvTypeBlock, chainhashOne),
		},
	)
	// Cut into the middle of the second item hash
	items, err := protocol.DecodeInvPayload(payload[:len(payload)-10])
	require.ErrorIs(t, err, codec.ErrTruncatedInput)
	require.Len(t, items, 1)
	assert.Equal(t, protocol.InvTypeTx, items[0].Type)
}

func TestDecodeInvPayloadTooMany(t *testing.T) {
	payload := codec.AppendVarint(nil, protocol.MaxInvPerMsg+1)
	_, err := protocol.DecodeInvPayload(payload)
	require.ErrorIs(t, err, protocol.ErrTooManyInventoryItems)
}

func TestInvPayloadRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(0, 64).Draw(t, "count")
		items := make([]protocol.InvVect, 0, count)
		for range count {
			var hash chainhash.Hash
			copy(hash[:], rapid.SliceOfN(rapid.Byte(), chainhash.HashSize, chainhash.HashSize).Draw(t, "hash"))
			invType := rapid.Uint32().Draw(t, "type")
			items = append(items, protocol.NewInvVect(protocol.InvType(invType), hash))
		}
		payload := protocol.EncodeInvPayload(items)
		require.Len(t, payload, codec.VarintSize(uint64(count))+count*protocol.InvVectSize)
		decoded, err := protocol.DecodeInvPayload(payload)
		require.NoError(t, err)
		require.Equal(t, items, decoded)
	})
}
