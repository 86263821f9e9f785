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
	"fmt"
	"net/netip"
	"strings"
)

// Address is a peer address
type Address struct {
	Host netip.Addr
	Port uint16
}

// NewAddress returns an Address for the provided address and port
func NewAddress(addrPort netip.AddrPort) Address {
	return Address{
		Host: addrPort.Addr().Unmap(),
		Port: addrPort.Port(),
	}
}

// ParseAddress parses an IPv4 or IPv6 address with an optional port. The default
// port is used when none is given. Host names are not accepted here, use the
// discovery package to resolve them
func ParseAddress(s string, defaultPort uint16) (Address, error) {
	if addrPort, err := netip.ParseAddrPort(s); err == nil {
		return NewAddress(addrPort), nil
	}
	host := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return NewAddress(netip.AddrPortFrom(addr, defaultPort)), nil
}

// AddrPort returns the address as a netip.AddrPort
func (a Address) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(a.Host, a.Port)
}

func (a Address) String() string {
	return a.AddrPort().String()
}
