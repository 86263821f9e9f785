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

// Package btcpeer implements a minimal client for the Bitcoin peer-to-peer protocol.
//
// A Connection wraps a net.Conn and runs the version/verack handshake over it. Once
// established, the block-fetch client can be used to wait for block announcements and
// retrieve the announced blocks. The ConnectionManager tries candidate peers in order
// and returns the first connection that completes the handshake.
//
// This package is the main entry point into this library. The other packages can
// be used outside of this one, but it's not a primary design goal.
package btcpeer

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/blinklabs-io/btcpeer/protocol"
	"github.com/blinklabs-io/btcpeer/protocol/blockfetch"
	"github.com/blinklabs-io/btcpeer/protocol/handshake"
)

const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 30 * time.Second
)

// The Connection type is a wrapper around a net.Conn object that handles communication using the Bitcoin peer protocol over that connection
type Connection struct {
	conn             net.Conn
	network          Network
	logger           *slog.Logger
	connectTimeout   time.Duration
	readTimeout      time.Duration
	framer           *protocol.Framer
	onceClose        sync.Once
	closeErr         error
	handshake        *handshake.Client
	handshakeConfig  *handshake.Config
	blockFetch       *blockfetch.Client
	blockFetchConfig *blockfetch.Config
}

// NewConnection returns a new Connection object with the specified options. If a connection is provided, the
// handshake will be performed. An error will be returned if the handshake fails
func NewConnection(options ...ConnectionOptionFunc) (*Connection, error) {
	c := &Connection{
		network:        NetworkInvalid,
		connectTimeout: DefaultConnectTimeout,
		readTimeout:    DefaultReadTimeout,
	}
	// Apply provided options functions
	for _, option := range options {
		option(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.conn != nil {
		if err := c.setupConnection(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Dial will establish a connection using the specified protocol and address. These parameters are
// passed to [net.Dialer.Dial] along with the connect timeout. The handshake will be performed when a
// connection is established. An error will be returned if the connection fails, a connection was already
// established, or the handshake fails
func (c *Connection) Dial(proto string, address string) error {
	if c.conn != nil {
		return errors.New("a connection was already established")
	}
	dialer := net.Dialer{
		Timeout: c.connectTimeout,
	}
	conn, err := dialer.Dial(proto, address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	c.conn = conn
	return c.setupConnection()
}

// Close will shutdown the connection. It is safe to call more than once
func (c *Connection) Close() error {
	c.onceClose.Do(func() {
		if c.conn == nil {
			return
		}
		if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.closeErr = err
		}
	})
	return c.closeErr
}

// Network returns the network of the connection
func (c *Connection) Network() Network {
	return c.network
}

// RemoteAddr returns the address of the peer
func (c *Connection) RemoteAddr() net.Addr {
	if c.conn == nil {
		return nil
	}
	return c.conn.RemoteAddr()
}

// Framer returns the message framer for the connection
func (c *Connection) Framer() *protocol.Framer {
	return c.framer
}

// Handshake returns the handshake protocol handler
func (c *Connection) Handshake() *handshake.Client {
	return c.handshake
}

// BlockFetch returns the block-fetch protocol handler
func (c *Connection) BlockFetch() *blockfetch.Client {
	return c.blockFetch
}

// PeerVersion returns the version message sent by the peer during the handshake
func (c *Connection) PeerVersion() *handshake.MsgVersion {
	if c.handshake == nil {
		return nil
	}
	return c.handshake.PeerVersion()
}

// Established reports whether the handshake has completed
func (c *Connection) Established() bool {
	return c.handshake != nil && c.handshake.State() == handshake.StateEstablished
}

// setupConnection creates the framer, performs the handshake, and initializes the block-fetch
// protocol. The underlying connection is closed if the handshake fails
func (c *Connection) setupConnection() error {
	// Check network magic value
	if !c.network.Valid() {
		c.Close()
		return fmt.Errorf("%w: %q", ErrInvalidNetwork, c.network.Name)
	}
	c.framer = protocol.NewFramer(
		c.conn,
		protocol.FramerConfig{
			Magic:        c.network.NetworkMagic(),
			ReadTimeout:  c.readTimeout,
			WriteTimeout: c.readTimeout,
			Logger:       c.logger,
		},
	)
	// Perform handshake
	if c.handshakeConfig == nil {
		handshakeConfig := handshake.NewConfig(
			handshake.WithLogger(c.logger),
		)
		c.handshakeConfig = &handshakeConfig
	}
	c.handshake = handshake.NewClient(c.framer, c.handshakeConfig)
	if err := c.handshake.Run(); err != nil {
		c.Close()
		return err
	}
	c.logger.Info("handshake complete",
		"component", "network",
		"peer", c.RemoteAddr().String(),
		"network", c.network.Name,
		"user_agent", c.PeerVersion().UserAgent,
		"start_height", c.PeerVersion().StartHeight,
	)
	// Initialize block-fetch
	if c.blockFetchConfig == nil {
		blockFetchConfig := blockfetch.NewConfig(
			blockfetch.WithLogger(c.logger),
		)
		c.blockFetchConfig = &blockFetchConfig
	}
	c.blockFetch = blockfetch.NewClient(c.framer, c.blockFetchConfig)
	return nil
}
