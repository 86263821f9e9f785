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
	"testing"

	"github.com/blinklabs-io/btcpeer"
	"github.com/blinklabs-io/btcpeer/internal/test/peer_mock"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
)

func TestNetworkDefinitions(t *testing.T) {
	testDefs := []struct {
		network btcpeer.Network
		name    string
		magic   uint32
		port    uint16
		seeded  bool
	}{
		{btcpeer.NetworkMainnet, "mainnet", 0xd9b4bef9, 8333, true},
		{btcpeer.NetworkTestnet3, "testnet3", 0x0709110b, 18333, true},
		{btcpeer.NetworkSignet, "signet", 0x40cf030a, 38333, true},
		{btcpeer.NetworkRegtest, "regtest", 0xdab5bffa, 18444, false},
	}
	for _, testDef := range testDefs {
		assert.Equal(t, testDef.name, testDef.network.String())
		assert.Equal(t, testDef.magic, testDef.network.NetworkMagic(), testDef.name)
		assert.Equal(t, testDef.port, testDef.network.DefaultPort, testDef.name)
		assert.Equal(t, testDef.seeded, len(testDef.network.DNSSeeds) > 0, testDef.name)
		assert.True(t, testDef.network.Valid())
	}
	assert.Contains(t, btcpeer.NetworkMainnet.DNSSeeds, "seed.bitcoin.sipa.be")
	assert.Equal(t, wire.MainNet, btcpeer.NetworkMainnet.Magic)
	assert.Equal(t, peer_mock.MockNetworkMagic, btcpeer.NetworkRegtest.NetworkMagic())
}

func TestNetworkLookup(t *testing.T) {
	assert.Equal(t, btcpeer.NetworkSignet, btcpeer.NetworkByName("signet"))
	assert.Equal(t, btcpeer.NetworkTestnet3, btcpeer.NetworkByMagic(0x0709110b))
	assert.Equal(t, btcpeer.NetworkInvalid.Name, btcpeer.NetworkByName("bogus").Name)
	assert.False(t, btcpeer.NetworkByName("bogus").Valid())
	assert.False(t, btcpeer.NetworkByMagic(0x12345678).Valid())
}
