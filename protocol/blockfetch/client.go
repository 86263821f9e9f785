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
	"fmt"
	"time"

	"github.com/blinklabs-io/btcpeer/ledger"
	"github.com/blinklabs-io/btcpeer/protocol"
	"github.com/blinklabs-io/btcpeer/protocol/keepalive"
)

// Client implements the BlockFetch client
type Client struct {
	framer *protocol.Framer
	config *Config
}

// NewClient returns a new BlockFetch client object
func NewClient(framer *protocol.Framer, cfg *Config) *Client {
	if cfg == nil {
		tmpCfg := NewConfig()
		cfg = &tmpCfg
	}
	if cfg.Logger == nil {
		cfg.Logger = framer.Logger()
	}
	c := &Client{
		framer: framer,
		config: cfg,
	}
	return c
}

// Listen waits for block announcements for up to duration and returns the first block
// announced by the peer. A duration of zero uses the configured listen duration, and a
// negative duration fails with ErrTimeout without reading. Read timeouts, including a
// message that stalls partway through its payload, are not fatal while budget remains
func (c *Client) Listen(duration time.Duration) (*BlockResult, error) {
	if duration < 0 {
		return nil, fmt.Errorf("%w: listen budget %s already exhausted", ErrTimeout, duration)
	}
	if duration == 0 {
		duration = c.config.ListenDuration
	}
	c.config.Logger.
		Debug("listening for block announcements",
			"component", "network",
			"protocol", ProtocolName,
			"peer", c.peerAddr(),
			"duration", duration.String(),
		)
	deadline := time.Now().Add(duration)
	for {
		timeout, ok := c.nextTimeout(deadline)
		if !ok {
			return nil, fmt.Errorf(
				"%w: no block received within %s",
				ErrTimeout,
				duration,
			)
		}
		msg, err := c.framer.ReadMessageTimeout(timeout)
		if err != nil {
			if errors.Is(err, protocol.ErrReadTimeout) {
				continue
			}
			return nil, err
		}
		switch msg.Command {
		case protocol.CommandInv:
			result, err := c.handleInv(msg, deadline)
			if err != nil {
				return nil, err
			}
			if result != nil {
				return result, nil
			}
		case protocol.CommandPing:
			if err := c.handlePing(msg); err != nil {
				return nil, err
			}
		default:
			c.config.Logger.
				Debug("ignoring message",
					"component", "network",
					"protocol", ProtocolName,
					"peer", c.peerAddr(),
					"command", msg.Command,
				)
		}
	}
}

// FetchBlock requests a single block from the peer and verifies it against the
// requested identifier
func (c *Client) FetchBlock(item protocol.InvVect) (*BlockResult, error) {
	return c.fetchBlock(item, c.config.ReadTimeout)
}

func (c *Client) handleInv(msg *protocol.Message, deadline time.Time) (*BlockResult, error) {
	if err := msg.VerifyChecksum(); err != nil {
		c.config.Logger.
			Warn("ignoring inventory with bad checksum",
				"component", "network",
				"protocol", ProtocolName,
				"peer", c.peerAddr(),
				"error", err,
			)
		return nil, nil
	}
	items, err := protocol.DecodeInvPayload(msg.Payload)
	if err != nil {
		// Items decoded before the error are still acted on
		c.config.Logger.
			Warn("malformed inventory",
				"component", "network",
				"protocol", ProtocolName,
				"peer", c.peerAddr(),
				"decoded", len(items),
				"error", err,
			)
	}
	for _, item := range items {
		c.config.Logger.
			Debug("received inventory",
				"component", "network",
				"protocol", ProtocolName,
				"peer", c.peerAddr(),
				"type", item.Type.String(),
				"hash", item.Hash.String(),
			)
		if c.config.InventoryFunc != nil {
			c.config.InventoryFunc(item)
		}
		if !item.Type.IsBlock() {
			continue
		}
		timeout, ok := c.nextTimeout(deadline)
		if !ok {
			return nil, nil
		}
		result, err := c.fetchBlock(item, timeout)
		if err != nil {
			if errors.Is(err, protocol.ErrReadTimeout) {
				c.config.Logger.
					Warn("timed out waiting for block",
						"component", "network",
						"protocol", ProtocolName,
						"peer", c.peerAddr(),
						"hash", item.Hash.String(),
						"partial", c.framer.PartialPayload(),
					)
				// A response is already arriving, so requesting the remaining
				// items would pair it with the wrong request
				if c.framer.PartialPayload() > 0 {
					return nil, nil
				}
				continue
			}
			return nil, err
		}
		return result, nil
	}
	return nil, nil
}

func (c *Client) handlePing(msg *protocol.Message) error {
	if !c.config.KeepAlive {
		return nil
	}
	return keepalive.Respond(c.framer, msg, c.config.Logger)
}

func (c *Client) fetchBlock(item protocol.InvVect, timeout time.Duration) (*BlockResult, error) {
	c.config.Logger.
		Debug("requesting block",
			"component", "network",
			"protocol", ProtocolName,
			"peer", c.peerAddr(),
			"hash", item.Hash.String(),
		)
	if err := c.framer.WriteMessage(protocol.CommandGetData, NewGetDataPayload(item)); err != nil {
		return nil, err
	}
	msg, err := c.framer.ReadMessageTimeout(timeout)
	if err != nil {
		return nil, err
	}
	if msg.Command != protocol.CommandBlock {
		return nil, fmt.Errorf(
			"%w: requested block %s, got %s message",
			ErrUnexpectedResponse,
			item.Hash,
			msg.Command,
		)
	}
	if err := msg.VerifyChecksum(); err != nil {
		return nil, err
	}
	blk, err := ledger.ParseBlock(msg.Payload)
	if err != nil {
		return nil, fmt.Errorf("%s: parse block %s: %w", ProtocolName, item.Hash, err)
	}
	result := &BlockResult{
		Block:        blk,
		Announced:    item.Hash,
		Verification: VerificationHashVerified,
	}
	if blockHash := blk.Hash(); blockHash != item.Hash {
		result.Verification = VerificationHashMismatch
		c.config.Logger.
			Warn("block hash does not match announcement",
				"component", "network",
				"protocol", ProtocolName,
				"peer", c.peerAddr(),
				"announced", item.Hash.String(),
				"computed", blockHash.String(),
			)
	}
	c.config.Logger.
		Info("fetched block",
			"component", "network",
			"protocol", ProtocolName,
			"peer", c.peerAddr(),
			"hash", item.Hash.String(),
			"transactions", blk.TransactionCount(),
			"verification", result.Verification.String(),
		)
	return result, nil
}

// nextTimeout returns the read timeout for the next read, bounded by the remaining
// listen budget. It returns false once the budget is exhausted
func (c *Client) nextTimeout(deadline time.Time) (time.Duration, bool) {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return 0, false
	}
	if c.config.ReadTimeout > 0 && c.config.ReadTimeout < remaining {
		return c.config.ReadTimeout, true
	}
	return remaining, true
}

func (c *Client) peerAddr() string {
	if addr := c.framer.Conn().RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
