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

// Package handshake implements the version/verack exchange that opens a peer session
package handshake

import (
	"errors"
	"log/slog"

	"github.com/blinklabs-io/btcpeer/protocol"
)

// Protocol identifiers
const (
	ProtocolName = "handshake"
)

var (
	StateConnected   = protocol.NewState(1, "Connected")
	StateVersionSent = protocol.NewState(2, "VersionSent")
	StateHandshaking = protocol.NewState(3, "Handshaking")
	StateEstablished = protocol.NewState(4, "Established")
	StateFailed      = protocol.NewState(5, "Failed")
)

// ErrHandshakeFailed is wrapped by every error returned from a failed handshake
var ErrHandshakeFailed = errors.New("handshake failed")

// DefaultUserAgent is empty, which encodes as a single zero byte
const DefaultUserAgent = ""

// Config is used to configure the Handshake protocol instance
type Config struct {
	ProtocolVersion int32
	Services        uint64
	UserAgent       string
	StartHeight     int32
	Relay           bool
	Logger          *slog.Logger
	StateFunc       StateFunc
}

// Callback function types
type StateFunc func(protocol.State)

// HandshakeOptionFunc represents a function used to modify the Handshake protocol config
type HandshakeOptionFunc func(*Config)

// NewConfig returns a new Handshake config object with the provided options
func NewConfig(options ...HandshakeOptionFunc) Config {
	c := Config{
		ProtocolVersion: protocol.ProtocolVersion,
		Services:        protocol.ServiceFlagNone,
		UserAgent:       DefaultUserAgent,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithProtocolVersion specifies the protocol version advertised to the peer
func WithProtocolVersion(version int32) HandshakeOptionFunc {
	return func(c *Config) {
		c.ProtocolVersion = version
	}
}

// WithServices specifies the service bits advertised to the peer
func WithServices(services uint64) HandshakeOptionFunc {
	return func(c *Config) {
		c.Services = services
	}
}

// WithUserAgent specifies the user agent advertised to the peer
func WithUserAgent(userAgent string) HandshakeOptionFunc {
	return func(c *Config) {
		c.UserAgent = userAgent
	}
}

// WithStartHeight specifies the best block height advertised to the peer
func WithStartHeight(height int32) HandshakeOptionFunc {
	return func(c *Config) {
		c.StartHeight = height
	}
}

// WithRelay specifies whether the peer should relay transactions to us
func WithRelay(relay bool) HandshakeOptionFunc {
	return func(c *Config) {
		c.Relay = relay
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) HandshakeOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithStateFunc specifies a callback function that is called on each state change
func WithStateFunc(stateFunc StateFunc) HandshakeOptionFunc {
	return func(c *Config) {
		c.StateFunc = stateFunc
	}
}
