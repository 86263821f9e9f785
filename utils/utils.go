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

// Package utils provides the hashing and value helpers shared by the wire
// codec, the block parser and the block retrieval flow
package utils

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ChecksumSize is the number of leading double-hash bytes used as a message checksum
const ChecksumSize = 4

// DoubleHash returns SHA-256 applied twice to the provided data
func DoubleHash(data []byte) []byte {
	return chainhash.DoubleHashB(data)
}

// DoubleHashH returns the double hash of the provided data as a chainhash.Hash.
// The hash is kept in wire order; use its String method for display order
func DoubleHashH(data []byte) chainhash.Hash {
	return chainhash.DoubleHashH(data)
}

// Checksum returns the first 4 bytes of the double hash of the provided data
func Checksum(data []byte) [ChecksumSize]byte {
	var ret [ChecksumSize]byte
	copy(ret[:], DoubleHash(data))
	return ret
}

// ReverseBytes returns a reversed copy of the provided data. The input is not modified
func ReverseBytes(data []byte) []byte {
	ret := make([]byte, len(data))
	for i, b := range data {
		ret[len(data)-1-i] = b
	}
	return ret
}

// SatoshiToCoin scales a satoshi amount to the display unit (1e8 satoshis)
func SatoshiToCoin(satoshi int64) float64 {
	return btcutil.Amount(satoshi).ToBTC()
}

// FormatTimestamp formats a block timestamp as a UTC date and time
func FormatTimestamp(timestamp uint32) string {
	return time.Unix(int64(timestamp), 0).UTC().Format(time.DateTime)
}
