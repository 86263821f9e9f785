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

// Package ledger decodes Bitcoin blocks and transactions from their wire form.
//
// Decoding is structural only: transaction identifiers and output totals are
// derived from the raw serialized bytes, and no consensus rules are applied.
package ledger

import (
	"fmt"
	"time"

	"github.com/blinklabs-io/btcpeer/codec"
	"github.com/blinklabs-io/btcpeer/utils"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockHeaderSize is the fixed wire size of a block header
const BlockHeaderSize = 80

// BlockHeader is the fixed 80-byte header that starts every block
type BlockHeader struct {
	Version       int32
	PrevBlockHash chainhash.Hash
	MerkleRoot    chainhash.Hash
	Timestamp     uint32
	Bits          uint32
	Nonce         uint32
	raw           [BlockHeaderSize]byte
}

// ParseBlockHeader decodes a block header from the first 80 bytes of data
func ParseBlockHeader(data []byte) (BlockHeader, error) {
	var h BlockHeader
	if len(data) < BlockHeaderSize {
		return h, fmt.Errorf(
			"%w: got %d bytes, need at least %d",
			ErrBlockTooShort,
			len(data),
			BlockHeaderSize,
		)
	}
	// The length check above covers every fixed-width field, so the cursor
	// helpers cannot fail here
	offset := 0
	h.Version, offset, _ = codec.ReadInt32(data, offset)
	prevHash, offset, _ := codec.ReadBytes(data, offset, chainhash.HashSize)
	copy(h.PrevBlockHash[:], prevHash)
	merkleRoot, offset, _ := codec.ReadBytes(data, offset, chainhash.HashSize)
	copy(h.MerkleRoot[:], merkleRoot)
	h.Timestamp, offset, _ = codec.ReadUint32(data, offset)
	h.Bits, offset, _ = codec.ReadUint32(data, offset)
	h.Nonce, _, _ = codec.ReadUint32(data, offset)
	copy(h.raw[:], data[:BlockHeaderSize])
	return h, nil
}

// Hash returns the block hash, which is the double hash of the raw header bytes
func (h *BlockHeader) Hash() chainhash.Hash {
	return utils.DoubleHashH(h.raw[:])
}

// Raw returns the 80 header bytes the header was decoded from
func (h *BlockHeader) Raw() []byte {
	return h.raw[:]
}

// Time returns the header timestamp
func (h *BlockHeader) Time() time.Time {
	return time.Unix(int64(h.Timestamp), 0).UTC()
}

// Block is a decoded block header along with a summary of each transaction
type Block struct {
	Header       BlockHeader
	Transactions []Transaction
	// TrailingBytes counts bytes left in the payload after the last transaction
	TrailingBytes int
}

// Hash returns the block hash
func (b *Block) Hash() chainhash.Hash {
	return b.Header.Hash()
}

// TransactionCount returns the number of transactions in the block
func (b *Block) TransactionCount() int {
	return len(b.Transactions)
}

// ParseBlock decodes a complete block. Either every declared transaction is decoded
// or an error is returned; partial blocks are never returned. Bytes after the last
// transaction are not an error and are counted in TrailingBytes
func ParseBlock(data []byte) (*Block, error) {
	header, err := ParseBlockHeader(data)
	if err != nil {
		return nil, err
	}
	txCount, offset, err := codec.ReadVarint(data, BlockHeaderSize)
	if err != nil {
		return nil, fmt.Errorf("transaction count: %w", err)
	}
	// Every transaction needs at least its version, two counts and lock time, so a
	// count that cannot fit in the remaining bytes is rejected before allocating
	if remaining := uint64(len(data) - offset); txCount > remaining/minTransactionSize {
		return nil, fmt.Errorf(
			"%w: %d transactions declared with %d bytes remaining",
			ErrTruncatedInput,
			txCount,
			remaining,
		)
	}
	block := &Block{
		Header:       header,
		Transactions: make([]Transaction, 0, txCount),
	}
	for i := uint64(0); i < txCount; i++ {
		var tx Transaction
		tx, offset, err = ParseTransaction(data, offset)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		block.Transactions = append(block.Transactions, tx)
	}
	block.TrailingBytes = len(data) - offset
	return block, nil
}
