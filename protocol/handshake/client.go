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

package handshake

import (
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/blinklabs-io/btcpeer/protocol"
)

// Client implements the Handshake client
type Client struct {
	framer          *protocol.Framer
	config          *Config
	state           protocol.State
	peerVersion     *MsgVersion
	versionReceived bool
	verackReceived  bool
}

// NewClient returns a new Handshake client object
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
		state:  StateConnected,
	}
	return c
}

// State returns the current handshake state
func (c *Client) State() protocol.State {
	return c.state
}

// PeerVersion returns the version message received from the peer, or nil if none
// has been received yet
func (c *Client) PeerVersion() *MsgVersion {
	return c.peerVersion
}

// VersionReceived reports whether the peer has sent its version message
func (c *Client) VersionReceived() bool {
	return c.versionReceived
}

// VerackReceived reports whether the peer has acknowledged our version message
func (c *Client) VerackReceived() bool {
	return c.verackReceived
}

// Run performs the handshake. It sends our version message, then reads messages until
// the peer has sent both its version and its verack, and finally acknowledges the
// peer's version. It returns nil once the Established state is reached
func (c *Client) Run() error {
	if c.state != StateConnected {
		return fmt.Errorf(
			"%w: handshake cannot start from state %s",
			ErrHandshakeFailed,
			c.state,
		)
	}
	c.config.Logger.
		Debug("starting client protocol",
			"component", "network",
			"protocol", ProtocolName,
			"peer", c.peerAddr(),
		)
	msgVersion := NewMsgVersion(c.config, c.peerAddrPort(), time.Now())
	if err := c.framer.WriteMessage(protocol.CommandVersion, msgVersion.Encode()); err != nil {
		return c.fail(err)
	}
	c.setState(StateVersionSent)
	for !c.versionReceived || !c.verackReceived {
		msg, err := c.framer.ReadMessage()
		if err != nil {
			return c.fail(err)
		}
		if c.state == StateVersionSent {
			c.setState(StateHandshaking)
		}
		if err := c.handleMessage(msg); err != nil {
			return c.fail(err)
		}
	}
	if err := c.framer.WriteMessage(protocol.CommandVerack, nil); err != nil {
		return c.fail(err)
	}
	c.setState(StateEstablished)
	return nil
}

func (c *Client) handleMessage(msg *protocol.Message) error {
	switch msg.Command {
	case protocol.CommandVersion:
		return c.handleVersion(msg)
	case protocol.CommandVerack:
		return c.handleVerack(msg)
	default:
		c.config.Logger.
			Debug("ignoring message during handshake",
				"component", "network",
				"protocol", ProtocolName,
				"peer", c.peerAddr(),
				"command", msg.Command,
			)
	}
	return nil
}

func (c *Client) handleVersion(msg *protocol.Message) error {
	if c.versionReceived {
		return fmt.Errorf("%s: received duplicate version message", ProtocolName)
	}
	if err := msg.VerifyChecksum(); err != nil {
		return err
	}
	peerVersion, err := NewMsgVersionFromBytes(msg.Payload)
	if err != nil {
		return fmt.Errorf("%s: decode version: %w", ProtocolName, err)
	}
	c.config.Logger.
		Debug("received version",
			"component", "network",
			"protocol", ProtocolName,
			"peer", c.peerAddr(),
			"version", peerVersion.ProtocolVersion,
			"user_agent", peerVersion.UserAgent,
			"start_height", peerVersion.StartHeight,
		)
	c.peerVersion = peerVersion
	c.versionReceived = true
	return nil
}

func (c *Client) handleVerack(msg *protocol.Message) error {
	if c.verackReceived {
		return fmt.Errorf("%s: received duplicate verack message", ProtocolName)
	}
	if err := msg.VerifyChecksum(); err != nil {
		return err
	}
	c.verackReceived = true
	return nil
}

func (c *Client) setState(state protocol.State) {
	c.config.Logger.
		Debug("state change",
			"component", "network",
			"protocol", ProtocolName,
			"peer", c.peerAddr(),
			"from", c.state.String(),
			"to", state.String(),
		)
	c.state = state
	if c.config.StateFunc != nil {
		c.config.StateFunc(state)
	}
}

func (c *Client) fail(err error) error {
	c.setState(StateFailed)
	return fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
}

func (c *Client) peerAddr() string {
	if addr := c.framer.Conn().RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// peerAddrPort returns the address of the remote end of the connection, or the zero
// value when the connection is not an IP connection
func (c *Client) peerAddrPort() netip.AddrPort {
	switch addr := c.framer.Conn().RemoteAddr().(type) {
	case *net.TCPAddr:
		return addr.AddrPort()
	case nil:
		return netip.AddrPort{}
	default:
		ret, err := netip.ParseAddrPort(addr.String())
		if err != nil {
			return netip.AddrPort{}
		}
		return ret
	}
}
