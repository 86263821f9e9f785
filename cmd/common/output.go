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

package common

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/blinklabs-io/btcpeer/cbor"
	"github.com/blinklabs-io/btcpeer/protocol/blockfetch"
	"github.com/blinklabs-io/btcpeer/utils"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// BlockReport is the printable summary of a fetched block
type BlockReport struct {
	Network          string              `json:"network"           cbor:"network"`
	Peer             string              `json:"peer"              cbor:"peer"`
	PeerUserAgent    string              `json:"peerUserAgent"     cbor:"peerUserAgent"`
	Hash             string              `json:"hash"              cbor:"hash"`
	AnnouncedHash    string              `json:"announcedHash"     cbor:"announcedHash"`
	Verification     string              `json:"verification"      cbor:"verification"`
	Version          int32               `json:"version"           cbor:"version"`
	PrevBlockHash    string              `json:"prevBlockHash"     cbor:"prevBlockHash"`
	MerkleRoot       string              `json:"merkleRoot"        cbor:"merkleRoot"`
	Timestamp        string              `json:"timestamp"         cbor:"timestamp"`
	Bits             uint32              `json:"bits"              cbor:"bits"`
	Nonce            uint32              `json:"nonce"             cbor:"nonce"`
	TransactionCount int                 `json:"transactionCount"  cbor:"transactionCount"`
	Transactions     []TransactionReport `json:"transactions"      cbor:"transactions"`
	TrailingBytes    int                 `json:"trailingBytes,omitempty" cbor:"trailingBytes,omitempty"`
}

type TransactionReport struct {
	TxID  string `json:"txid"  cbor:"txid"`
	Value int64  `json:"value" cbor:"value"`
}

// NewBlockReport builds a report from a block fetch result, keeping at most maxTx of the
// block's last transactions
func NewBlockReport(result *blockfetch.BlockResult, maxTx int) *BlockReport {
	block := result.Block
	header := block.Header
	hash := block.Hash()
	report := &BlockReport{
		Hash:             hash.String(),
		AnnouncedHash:    result.Announced.String(),
		Verification:     result.Verification.String(),
		Version:          header.Version,
		PrevBlockHash:    header.PrevBlockHash.String(),
		MerkleRoot:       header.MerkleRoot.String(),
		Timestamp:        utils.FormatTimestamp(header.Timestamp),
		Bits:             header.Bits,
		Nonce:            header.Nonce,
		TransactionCount: block.TransactionCount(),
		Transactions:     []TransactionReport{},
		TrailingBytes:    block.TrailingBytes,
	}
	txs := block.Transactions
	if maxTx >= 0 && len(txs) > maxTx {
		txs = txs[len(txs)-maxTx:]
	}
	for _, tx := range txs {
		report.Transactions = append(
			report.Transactions,
			TransactionReport{
				TxID:  tx.Hash.String(),
				Value: int64(tx.Value),
			},
		)
	}
	return report
}

// ValidFormat reports whether format names a supported output format
func ValidFormat(format string) bool {
	switch format {
	case FormatText, FormatJSON, FormatCBOR:
		return true
	}
	return false
}

// WriteReport writes the report to w in the given format
func WriteReport(w io.Writer, format string, report *BlockReport) error {
	switch format {
	case FormatText:
		_, err := io.WriteString(w, report.Text())
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatCBOR:
		return cbor.EncodeTo(w, report)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// Text renders the report for a terminal
func (r *BlockReport) Text() string {
	var sb strings.Builder
	if r.Peer != "" {
		fmt.Fprintf(&sb, "Peer:         %s %s\n", r.Peer, r.PeerUserAgent)
	}
	fmt.Fprintf(&sb, "Block:        %s\n", r.Hash)
	// #nosec G115 -- the version field is displayed as its raw bit pattern
	fmt.Fprintf(&sb, "Version:      0x%08x\n", uint32(r.Version))
	fmt.Fprintf(&sb, "Prev block:   %s\n", r.PrevBlockHash)
	fmt.Fprintf(&sb, "Merkle root:  %s\n", r.MerkleRoot)
	fmt.Fprintf(&sb, "Timestamp:    %s UTC\n", r.Timestamp)
	fmt.Fprintf(&sb, "Bits:         0x%08x\n", r.Bits)
	fmt.Fprintf(&sb, "Nonce:        %d\n", r.Nonce)
	fmt.Fprintf(&sb, "Transactions: %d\n", r.TransactionCount)
	if len(r.Transactions) > 0 {
		fmt.Fprintf(&sb, "Last %d transactions:\n", len(r.Transactions))
		for _, tx := range r.Transactions {
			fmt.Fprintf(&sb, "  %.8f BTC | %s\n", utils.SatoshiToCoin(tx.Value), tx.TxID)
		}
	}
	if r.TrailingBytes > 0 {
		fmt.Fprintf(&sb, "Trailing:     %d bytes after last transaction\n", r.TrailingBytes)
	}
	fmt.Fprintf(&sb, "Verification: %s\n", r.Verification)
	return sb.String()
}
