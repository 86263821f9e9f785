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

package ledger

import (
	"fmt"
	"math"

	"github.com/blinklabs-io/btcpeer/codec"
	"github.com/blinklabs-io/btcpeer/utils"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// previous output hash + output index
	outPointSize = chainhash.HashSize + 4
	sequenceSize = 4
	// version + input count + output count + lock time
	minTransactionSize = 4 + 1 + 1 + 4
	minInputSize       = outPointSize + 1 + sequenceSize
	// value + script length
	minOutputSize = 8 + 1
)

// Transaction summarizes a transaction decoded from a block
type Transaction struct {
	// Hash is the double hash of the raw transaction bytes. Its String method
	// returns the reversed (display order) transaction ID
	Hash        chainhash.Hash
	Value       btcutil.Amount
	InputCount  uint64
	OutputCount uint64
	Size        int
}

// ValueCoin returns the total output value scaled to the display unit
func (t *Transaction) ValueCoin() float64 {
	return utils.SatoshiToCoin(int64(t.Value))
}

// ParseTransaction decodes the transaction starting at offset and returns it along
// with the offset of the first byte after it
func ParseTransaction(data []byte, offset int) (Transaction, int, error) {
	var tx Transaction
	start := offset
	var err error
	// Version
	if offset, err = codec.Skip(data, offset, 4); err != nil {
		return tx, start, fmt.Errorf("version: %w", err)
	}
	// Inputs
	if tx.InputCount, offset, err = readCount(data, offset, minInputSize); err != nil {
		return tx, start, fmt.Errorf("input count: %w", err)
	}
	for i := uint64(0); i < tx.InputCount; i++ {
		if offset, err = skipInput(data, offset); err != nil {
			return tx, start, fmt.Errorf("input %d: %w", i, err)
		}
	}
	// Outputs
	if tx.OutputCount, offset, err = readCount(data, offset, minOutputSize); err != nil {
		return tx, start, fmt.Errorf("output count: %w", err)
	}
	var total uint64
	for i := uint64(0); i < tx.OutputCount; i++ {
		var value uint64
		if value, offset, err = readOutput(data, offset); err != nil {
			return tx, start, fmt.Errorf("output %d: %w", i, err)
		}
		if value > math.MaxInt64-total {
			return tx, start, fmt.Errorf("output %d: %w", i, ErrValueOverflow)
		}
		total += value
	}
	// Lock time
	if offset, err = codec.Skip(data, offset, 4); err != nil {
		return tx, start, fmt.Errorf("lock time: %w", err)
	}
	tx.Hash = utils.DoubleHashH(data[start:offset])
	// #nosec G115 -- total is bounded by math.MaxInt64 above
	tx.Value = btcutil.Amount(int64(total))
	tx.Size = offset - start
	return tx, offset, nil
}

// readCount decodes a varint item count and rejects counts that cannot fit in the
// remaining data given the minimum size of each item
func readCount(data []byte, offset int, minItemSize uint64) (uint64, int, error) {
	count, newOffset, err := codec.ReadVarint(data, offset)
	if err != nil {
		return 0, offset, err
	}
	remaining := uint64(len(data) - newOffset)
	if count > remaining/minItemSize {
		return 0, offset, fmt.Errorf(
			"%w: %d items declared with %d bytes remaining",
			ErrTruncatedInput,
			count,
			remaining,
		)
	}
	return count, newOffset, nil
}

func skipInput(data []byte, offset int) (int, error) {
	offset, err := codec.Skip(data, offset, outPointSize)
	if err != nil {
		return offset, err
	}
	scriptLen, offset, err := codec.ReadVarint(data, offset)
	if err != nil {
		return offset, err
	}
	// Script and sequence number are skipped together
	if scriptLen > math.MaxUint64-sequenceSize {
		return offset, fmt.Errorf("%w: script length %d", ErrTruncatedInput, scriptLen)
	}
	return codec.Skip(data, offset, scriptLen+sequenceSize)
}

func readOutput(data []byte, offset int) (uint64, int, error) {
	value, offset, err := codec.ReadUint64(data, offset)
	if err != nil {
		return 0, offset, err
	}
	scriptLen, offset, err := codec.ReadVarint(data, offset)
	if err != nil {
		return 0, offset, err
	}
	offset, err = codec.Skip(data, offset, scriptLen)
	return value, offset, err
}
