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

package blockfetch

import (
	"errors"
	"log/slog"
	"time"

	"github.com/blinklabs-io/btcpeer/ledger"
	"github.com/blinklabs-io/btcpeer/protocol"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Protocol identifiers
const (
	ProtocolName = "block-fetch"
)

const (
	DefaultReadTimeout    = 30 * time.Second
	DefaultListenDuration = 900 * time.Second
)

var (
	// ErrUnexpectedResponse is returned when a getdata request is answered with
	// something other than a block
	ErrUnexpectedResponse = errors.New("unexpected response")
	// ErrTimeout is returned when the listen budget runs out before a block is fetched
	ErrTimeout = errors.New("timed out waiting for block")
)

// Verification is the outcome of comparing a fetched block against its announcement
type Verification int

const (
	VerificationNone Verification = iota
	VerificationHashVerified
	VerificationHashMismatch
)

func (v Verification) String() string {
	switch v {
	case VerificationHashVerified:
		return "HashVerified"
	case VerificationHashMismatch:
		return "HashMismatch"
	default:
		return "Unverified"
	}
}

// BlockResult is a fetched block together with its verification outcome. A block whose
// header hash does not match the announced identifier is still returned
type BlockResult struct {
	Block        *ledger.Block
	Announced    chainhash.Hash
	Verification Verification
}

// Verified reports whether the block hash matched the announced identifier
func (r *BlockResult) Verified() bool {
	return r.Verification == VerificationHashVerified
}

// Config is used to configure the BlockFetch protocol instance
type Config struct {
	ReadTimeout    time.Duration
	ListenDuration time.Duration
	KeepAlive      bool
	Logger         *slog.Logger
	InventoryFunc  InventoryFunc
}

// Callback function types
type InventoryFunc func(protocol.InvVect)

// BlockFetchOptionFunc represents a function used to modify the BlockFetch protocol config
type BlockFetchOptionFunc func(*Config)

// NewConfig returns a new BlockFetch config object with the provided options
func NewConfig(options ...BlockFetchOptionFunc) Config {
	c := Config{
		ReadTimeout:    DefaultReadTimeout,
		ListenDuration: DefaultListenDuration,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithReadTimeout specifies the timeout for each read while listening
func WithReadTimeout(timeout time.Duration) BlockFetchOptionFunc {
	return func(c *Config) {
		c.ReadTimeout = timeout
	}
}

// WithListenDuration specifies the default overall listen budget
func WithListenDuration(duration time.Duration) BlockFetchOptionFunc {
	return func(c *Config) {
		c.ListenDuration = duration
	}
}

// WithKeepAlive specifies whether to answer ping messages while listening
func WithKeepAlive(keepAlive bool) BlockFetchOptionFunc {
	return func(c *Config) {
		c.KeepAlive = keepAlive
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) BlockFetchOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithInventoryFunc specifies a callback function that is called for each announced
// inventory item
func WithInventoryFunc(inventoryFunc InventoryFunc) BlockFetchOptionFunc {
	return func(c *Config) {
		c.InventoryFunc = inventoryFunc
	}
}
