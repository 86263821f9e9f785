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

package btcpeer_test

import (
	"net/netip"
	"testing"

	"github.com/blinklabs-io/btcpeer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	testDefs := []struct {
		input    string
		expected string
	}{
		{input: "1.2.3.4", expected: "1.2.3.4:8333"},
		{input: "1.2.3.4:18333", expected: "1.2.3.4:18333"},
		{input: "2001:db8::1", expected: "[2001:db8::1]:8333"},
		{input: "[2001:db8::1]", expected: "[2001:db8::1]:8333"},
		{input: "[2001:db8::1]:8334", expected: "[2001:db8::1]:8334"},
		{input: "[::ffff:10.0.0.1]:8333", expected: "10.0.0.1:8333"},
	}
	for _, testDef := range testDefs {
		addr, err := btcpeer.ParseAddress(testDef.input, 8333)
		require.NoError(t, err, testDef.input)
		assert.Equal(t, testDef.expected, addr.String(), testDef.input)
	}
}

func TestParseAddressInvalid(t *testing.T) {
	for _, input := range []string{"", "seed.bitcoin.sipa.be", "1.2.3.4:port", "300.1.1.1"} {
		_, err := btcpeer.ParseAddress(input, 8333)
		require.ErrorIs(t, err, btcpeer.ErrInvalidAddress, input)
	}
}

func TestNewAddress(t *testing.T) {
	addr := btcpeer.NewAddress(netip.MustParseAddrPort("192.0.2.1:18444"))
	assert.Equal(t, netip.MustParseAddr("192.0.2.1"), addr.Host)
	assert.Equal(t, uint16(18444), addr.Port)
	assert.Equal(t, netip.MustParseAddrPort("192.0.2.1:18444"), addr.AddrPort())
}
