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

package discovery

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"slices"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/miekg/dns"
)

// Resolver looks up the A and AAAA records of DNS seeds. It is safe for concurrent use
type Resolver struct {
	config      Config
	nameservers []string
	udpClient   *dns.Client
	tcpClient   *dns.Client
	cache       *expirable.LRU[string, []netip.Addr]
}

// NewResolver returns a new Resolver with the provided options applied
func NewResolver(options ...ResolverOptionFunc) (*Resolver, error) {
	cfg := NewConfig(options...)
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	nameservers := make([]string, 0, len(cfg.Nameservers))
	for _, ns := range cfg.Nameservers {
		nameservers = append(nameservers, nameserverAddress(ns, DefaultDNSPort))
	}
	if len(nameservers) == 0 {
		clientConfig, err := dns.ClientConfigFromFile(cfg.ResolvConf)
		if err != nil {
			return nil, fmt.Errorf("%w: load nameservers: %w", ErrDiscoveryFailed, err)
		}
		for _, ns := range clientConfig.Servers {
			nameservers = append(nameservers, nameserverAddress(ns, clientConfig.Port))
		}
		if len(nameservers) == 0 {
			return nil, fmt.Errorf(
				"%w: no nameservers in %s",
				ErrDiscoveryFailed,
				cfg.ResolvConf,
			)
		}
	}
	r := &Resolver{
		config:      cfg,
		nameservers: nameservers,
		udpClient:   &dns.Client{Net: "udp", Timeout: cfg.Timeout},
		tcpClient:   &dns.Client{Net: "tcp", Timeout: cfg.Timeout},
		cache: expirable.NewLRU[string, []netip.Addr](
			cfg.CacheSize,
			nil,
			cfg.CacheTTL,
		),
	}
	return r, nil
}

// Nameservers returns the nameserver addresses queried by the resolver
func (r *Resolver) Nameservers() []string {
	return slices.Clone(r.nameservers)
}

// Lookup returns the IPv4 and IPv6 addresses published by a DNS seed. A seed that is
// already an IP literal is returned as is. On failure the returned list is empty and the
// error wraps ErrDiscoveryFailed
func (r *Resolver) Lookup(seed string) ([]netip.Addr, error) {
	if addr, err := netip.ParseAddr(seed); err == nil {
		return []netip.Addr{addr.Unmap()}, nil
	}
	if addrs, ok := r.cache.Get(seed); ok {
		return slices.Clone(addrs), nil
	}
	var ret []netip.Addr
	var errs []error
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		addrs, err := r.query(dns.Fqdn(seed), qtype)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ret = append(ret, addrs...)
	}
	if len(ret) == 0 {
		err := fmt.Errorf("%w: %s: no addresses", ErrDiscoveryFailed, seed)
		if len(errs) > 0 {
			err = fmt.Errorf("%w: %s: %w", ErrDiscoveryFailed, seed, errors.Join(errs...))
		}
		r.config.Logger.Warn(
			"DNS seed lookup failed",
			"component", "discovery",
			"seed", seed,
			"error", err,
		)
		return nil, err
	}
	r.cache.Add(seed, ret)
	r.config.Logger.
		Debug("resolved DNS seed",
			"component", "discovery",
			"seed", seed,
			"count", len(ret),
		)
	return slices.Clone(ret), nil
}

// LookupSeeds resolves each seed in order and pairs the results with the given port.
// Duplicate addresses are dropped. An error is returned only when no seed produced an
// address
func (r *Resolver) LookupSeeds(seeds []string, port uint16) ([]netip.AddrPort, error) {
	var ret []netip.AddrPort
	var errs []error
	seen := make(map[netip.Addr]struct{})
	for _, seed := range seeds {
		addrs, err := r.Lookup(seed)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, addr := range addrs {
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			ret = append(ret, netip.AddrPortFrom(addr, port))
		}
	}
	if len(ret) == 0 {
		if len(errs) == 0 {
			return nil, fmt.Errorf("%w: no seeds", ErrDiscoveryFailed)
		}
		return nil, errors.Join(errs...)
	}
	return ret, nil
}

// query tries each nameserver in turn until one answers
func (r *Resolver) query(name string, qtype uint16) ([]netip.Addr, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(name, qtype)
	var errs []error
	for _, ns := range r.nameservers {
		resp, _, err := r.udpClient.Exchange(msg, ns)
		if err == nil && resp.Truncated {
			resp, _, err = r.tcpClient.Exchange(msg, ns)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ns, err))
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			errs = append(
				errs,
				fmt.Errorf("%s: %s query returned %s",
					ns,
					dns.TypeToString[qtype],
					dns.RcodeToString[resp.Rcode],
				),
			)
			continue
		}
		return answerAddrs(resp), nil
	}
	return nil, errors.Join(errs...)
}

func answerAddrs(resp *dns.Msg) []netip.Addr {
	var ret []netip.Addr
	for _, rr := range resp.Answer {
		var ip net.IP
		switch v := rr.(type) {
		case *dns.A:
			ip = v.A
		case *dns.AAAA:
			ip = v.AAAA
		default:
			// CNAME and other records that accompany the answer
			continue
		}
		if addr, ok := netip.AddrFromSlice(ip); ok {
			ret = append(ret, addr.Unmap())
		}
	}
	return ret
}

func nameserverAddress(ns string, defaultPort string) string {
	if _, _, err := net.SplitHostPort(ns); err == nil {
		return ns
	}
	return net.JoinHostPort(ns, defaultPort)
}
