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
	"encoding/binary"
	"fmt"

	"github.com/blinklabs-io/btcpeer/codec"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// InvVectSize is the wire size of a single inventory item
const InvVectSize = 4 + chainhash.HashSize

// MaxInvPerMsg is the maximum number of inventory items in a single message
const MaxInvPerMsg = wire.MaxInvPerMsg

// InvType identifies the kind of object an inventory item refers to. Values that
// this client doesn't know about are kept as-is and reported as unhandled
type InvType uint32

// Inventory types
const (
	InvTypeError                InvType = InvType(wire.InvTypeError)
	InvTypeTx                   InvType = InvType(wire.InvTypeTx)
	InvTypeBlock                InvType = InvType(wire.InvTypeBlock)
	InvTypeFilteredBlock        InvType = InvType(wire.InvTypeFilteredBlock)
	InvTypeCmpctBlock           InvType = 4
	InvTypeWitnessTx            InvType = InvType(wire.InvTypeWitnessTx)
	InvTypeWitnessBlock         InvType = InvType(wire.InvTypeWitnessBlock)
	InvTypeFilteredWitnessBlock InvType = InvType(wire.InvTypeFilteredWitnessBlock)
)

var invTypeNames = map[InvType]string{
	InvTypeError:                "error",
	InvTypeTx:                   "tx",
	InvTypeBlock:                "block",
	InvTypeFilteredBlock:        "filtered_block",
	InvTypeCmpctBlock:           "cmpct_block",
	InvTypeWitnessTx:            "witness_tx",
	InvTypeWitnessBlock:         "witness_block",
	InvTypeFilteredWitnessBlock: "filtered_witness_block",
}

// Known returns whether the inventory type is one defined by the protocol
func (t InvType) Known() bool {
	_, ok := invTypeNames[t]
	return ok
}

// IsBlock returns whether the inventory item announces a block
func (t InvType) IsBlock() bool {
	return t == InvTypeBlock
}

func (t InvType) String() string {
	if name, ok := invTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unhandled(0x%x)", uint32(t))
}

// InvVect is a single inventory item. The hash is stored in wire order, so its String
// method returns the display form
type InvVect struct {
	Type InvType
	Hash chainhash.Hash
}

// NewInvVect returns a new inventory item
func NewInvVect(invType InvType, hash chainhash.Hash) InvVect {
	return InvVect{
		Type: invType,
		Hash: hash,
	}
}

func (v InvVect) String() string {
	return fmt.Sprintf("%s %s", v.Type, v.Hash)
}

// DecodeInvPayload decodes the payload shared by the inv and getdata messages. When the
// payload ends early, the items decoded so far are returned along with the error
func DecodeInvPayload(payload []byte) ([]InvVect, error) {
	count, offset, err := codec.ReadVarint(payload, 0)
	if err != nil {
		return nil, fmt.Errorf("inventory count: %w", err)
	}
	if count > MaxInvPerMsg {
		return nil, fmt.Errorf(
			"%w: %d declared, maximum is %d",
			ErrTooManyInventoryItems,
			count,
			MaxInvPerMsg,
		)
	}
	ret := make([]InvVect, 0, min(count, uint64(len(payload)/InvVectSize)))
	for i := uint64(0); i < count; i++ {
		var item InvVect
		var invType uint32
		invType, offset, err = codec.ReadUint32(payload, offset)
		if err != nil {
			return ret, fmt.Errorf("inventory item %d: %w", i, err)
		}
		var hash []byte
		hash, offset, err = codec.ReadBytes(payload, offset, chainhash.HashSize)
		if err != nil {
			return ret, fmt.Errorf("inventory item %d: %w", i, err)
		}
		item.Type = InvType(invType)
		copy(item.Hash[:], hash)
		ret = append(ret, item)
	}
	return ret, nil
}

// EncodeInvPayload encodes inventory items as an inv or getdata payload
func EncodeInvPayload(items []InvVect) []byte {
	ret := make([]byte, 0, codec.VarintSize(uint64(len(items)))+len(items)*InvVectSize)
	ret = codec.AppendVarint(ret, uint64(len(items)))
	for _, item := range items {
		ret = binary.LittleEndian.AppendUint32(ret, uint32(item.Type))
		ret = append(ret, item.Hash[:]...)
	}
	return ret
}
