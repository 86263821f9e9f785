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

package btcpeer

import (
	"log/slog"
	"net"
	"time"

	"github.com/blinklabs-io/btcpeer/protocol/blockfetch"
	"github.com/blinklabs-io/btcpeer/protocol/handshake"
)

// ConnectionOptionFunc is a type that represents functions that modify the Connection config
type ConnectionOptionFunc func(*Connection)

// WithConnection specifies an existing connection to use. If none is provided, the Dial() function can be
// used to create one later
func WithConnection(conn net.Conn) ConnectionOptionFunc {
	return func(c *Connection) {
		c.conn = conn
	}
}

// WithNetwork specifies the network
func WithNetwork(network Network) ConnectionOptionFunc {
	return func(c *Connection) {
		c.network = network
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) ConnectionOptionFunc {
	return func(c *Connection) {
		c.logger = logger
	}
}

// WithConnectTimeout specifies the timeout used by Dial
func WithConnectTimeout(timeout time.Duration) ConnectionOptionFunc {
	return func(c *Connection) {
		c.connectTimeout = timeout
	}
}

// WithReadTimeout specifies the timeout for each read and write during the handshake
func WithReadTimeout(timeout time.Duration) ConnectionOptionFunc {
	return func(c *Connection) {
		c.readTimeout = timeout
	}
}

// WithHandshakeConfig specifies Handshake protocol config
func WithHandshakeConfig(cfg handshake.Config) ConnectionOptionFunc {
	return func(c *Connection) {
		tmpCfg := cfg
		c.handshakeConfig = &tmpCfg
	}
}

// WithBlockFetchConfig specifies BlockFetch protocol config
func WithBlockFetchConfig(cfg blockfetch.Config) ConnectionOptionFunc {
	return func(c *Connection) {
		tmpCfg := cfg
		c.blockFetchConfig = &tmpCfg
	}
}
