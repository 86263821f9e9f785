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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"
)

// ConnectionManagerTag represents the various tags that can be associated with a host
type ConnectionManagerTag uint16

const (
	ConnectionManagerTagNone ConnectionManagerTag = iota

	ConnectionManagerTagHostStatic
	ConnectionManagerTagHostTopology
	ConnectionManagerTagHostDNSSeed
)

func (c ConnectionManagerTag) String() string {
	tmp := map[ConnectionManagerTag]string{
		ConnectionManagerTagHostStatic:   "HostStatic",
		ConnectionManagerTagHostTopology: "HostTopology",
		ConnectionManagerTagHostDNSSeed:  "HostDNSSeed",
	}
	ret, ok := tmp[c]
	if !ok {
		return "Unknown"
	}
	return ret
}

// DialFunc opens a connection to address with the provided timeout
type DialFunc func(network string, address string, timeout time.Duration) (net.Conn, error)

// ConnectionManager tries candidate peers one at a time, in order, and returns the
// first connection that completes the handshake
type ConnectionManager struct {
	config ConnectionManagerConfig
	hosts  []ConnectionManagerHost
}

type ConnectionManagerConfig struct {
	Network Network
	// ConnectTimeout bounds each connection attempt. It also bounds handshake reads
	// when ReadTimeout is not set
	ConnectTimeout    time.Duration
	ReadTimeout       time.Duration
	Logger            *slog.Logger
	DialFunc          DialFunc
	ConnectionOptions []ConnectionOptionFunc
}

type ConnectionManagerHost struct {
	Address string
	Port    uint16
	Tags    map[ConnectionManagerTag]bool
}

func (h ConnectionManagerHost) String() string {
	return net.JoinHostPort(h.Address, strconv.FormatUint(uint64(h.Port), 10))
}

func NewConnectionManager(cfg ConnectionManagerConfig) *ConnectionManager {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = cfg.ConnectTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DialFunc == nil {
		cfg.DialFunc = net.DialTimeout
	}
	return &ConnectionManager{
		config: cfg,
	}
}

func (c *ConnectionManager) AddHost(address string, port uint16, tags ...ConnectionManagerTag) {
	if port == 0 {
		port = c.config.Network.DefaultPort
	}
	tmpTags := map[ConnectionManagerTag]bool{}
	for _, tag := range tags {
		tmpTags[tag] = true
	}
	c.hosts = append(
		c.hosts,
		ConnectionManagerHost{
			Address: address,
			Port:    port,
			Tags:    tmpTags,
		},
	)
}

func (c *ConnectionManager) AddHostsFromTopology(topology *TopologyConfig) {
	for _, host := range topology.Peers {
		c.AddHost(host.Address, host.Port, ConnectionManagerTagHostTopology)
	}
}

// Hosts returns the hosts added to the connection manager
func (c *ConnectionManager) Hosts() []ConnectionManagerHost {
	return c.hosts
}

// Connect tries each address in order and returns the first connection that completes
// the handshake. The returned error wraps ErrNoPeerAvailable along with an
// AttemptError for each address
func (c *ConnectionManager) Connect(addresses []Address) (*Connection, error) {
	targets := make([]string, 0, len(addresses))
	for _, address := range addresses {
		targets = append(targets, address.String())
	}
	return c.connect(targets)
}

// ConnectHosts behaves like Connect, using the hosts added to the connection manager
func (c *ConnectionManager) ConnectHosts() (*Connection, error) {
	targets := make([]string, 0, len(c.hosts))
	for _, host := range c.hosts {
		targets = append(targets, host.String())
	}
	return c.connect(targets)
}

func (c *ConnectionManager) connect(targets []string) (*Connection, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no candidate addresses", ErrNoPeerAvailable)
	}
	var attemptErrs []error
	for _, target := range targets {
		conn, err := c.attempt(target)
		if err != nil {
			c.config.Logger.Warn("connection attempt failed",
				"component", "network",
				"peer", target,
				"error", err,
			)
			attemptErrs = append(
				attemptErrs,
				&AttemptError{
					Address: target,
					Err:     err,
				},
			)
			continue
		}
		return conn, nil
	}
	return nil, fmt.Errorf(
		"%w: %w",
		ErrNoPeerAvailable,
		errors.Join(attemptErrs...),
	)
}

func (c *ConnectionManager) attempt(target string) (*Connection, error) {
	c.config.Logger.Debug("connecting",
		"component", "network",
		"peer", target,
		"timeout", c.config.ConnectTimeout.String(),
	)
	netConn, err := c.config.DialFunc("tcp", target, c.config.ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	options := []ConnectionOptionFunc{
		WithNetwork(c.config.Network),
		WithLogger(c.config.Logger),
		WithConnectTimeout(c.config.ConnectTimeout),
		WithReadTimeout(c.config.ReadTimeout),
	}
	options = append(options, c.config.ConnectionOptions...)
	options = append(options, WithConnection(netConn))
	conn, err := NewConnection(options...)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
