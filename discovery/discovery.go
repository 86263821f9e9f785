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

// Package discovery resolves Bitcoin DNS seeds into candidate peer addresses
package discovery

import (
	"errors"
	"log/slog"
	"time"
)

const (
	DefaultTimeout    = 5 * time.Second
	DefaultCacheSize  = 64
	DefaultCacheTTL   = 10 * time.Minute
	DefaultResolvConf = "/etc/resolv.conf"
	DefaultDNSPort    = "53"
)

var ErrDiscoveryFailed = errors.New("discovery failed")

// Config is used to configure the DNS seed resolver
type Config struct {
	// Nameservers are queried in order. When empty, the servers from ResolvConf are used
	Nameservers []string
	ResolvConf  string
	Timeout     time.Duration
	CacheSize   int
	CacheTTL    time.Duration
	Logger      *slog.Logger
}

// ResolverOptionFunc is a type that represents functions that modify the resolver config
type ResolverOptionFunc func(*Config)

// NewConfig returns a new resolver config object with the provided options applied
func NewConfig(options ...ResolverOptionFunc) Config {
	c := Config{
		ResolvConf: DefaultResolvConf,
		Timeout:    DefaultTimeout,
		CacheSize:  DefaultCacheSize,
		CacheTTL:   DefaultCacheTTL,
		Logger:     slog.Default(),
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithNameservers specifies the nameservers to query, as host or host:port
func WithNameservers(nameservers ...string) ResolverOptionFunc {
	return func(c *Config) {
		c.Nameservers = append(c.Nameservers, nameservers...)
	}
}

// WithResolvConf specifies the resolv.conf file used when no nameservers are given
func WithResolvConf(path string) ResolverOptionFunc {
	return func(c *Config) {
		c.ResolvConf = path
	}
}

// WithTimeout specifies the timeout for a single DNS query
func WithTimeout(timeout time.Duration) ResolverOptionFunc {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithCacheSize specifies the number of seeds kept in the lookup cache
func WithCacheSize(size int) ResolverOptionFunc {
	return func(c *Config) {
		c.CacheSize = size
	}
}

// WithCacheTTL specifies how long a successful lookup is cached
func WithCacheTTL(ttl time.Duration) ResolverOptionFunc {
	return func(c *Config) {
		c.CacheTTL = ttl
	}
}

// WithLogger specifies the logger
func WithLogger(logger *slog.Logger) ResolverOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}
