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
	"strconv"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

// Network definitions
var (
	NetworkMainnet  = newNetwork("mainnet", &chaincfg.MainNetParams)
	NetworkTestnet3 = newNetwork("testnet3", &chaincfg.TestNet3Params)
	NetworkSignet   = newNetwork("signet", &chaincfg.SigNetParams)
	NetworkRegtest  = newNetwork("regtest", &chaincfg.RegressionNetParams)

	NetworkInvalid = Network{
		Name: "invalid",
	} // NetworkInvalid is used as a return value for lookup functions when a network isn't found
)

// List of valid networks for use in lookup functions
var networks = []Network{
	NetworkMainnet,
	NetworkTestnet3,
	NetworkSignet,
	NetworkRegtest,
}

// NetworkByName returns a predefined network by name
func NetworkByName(name string) Network {
	for _, network := range networks {
		if network.Name == name {
			return network
		}
	}
	return NetworkInvalid
}

// NetworkByMagic returns a predefined network by network magic
func NetworkByMagic(magic uint32) Network {
	for _, network := range networks {
		if network.Magic == wire.BitcoinNet(magic) {
			return network
		}
	}
	return NetworkInvalid
}

// Network represents a Bitcoin network
type Network struct {
	Name        string
	Magic       wire.BitcoinNet
	DefaultPort uint16
	DNSSeeds    []string
}

func newNetwork(name string, params *chaincfg.Params) Network {
	// Default ports in the chain parameters are always valid port numbers
	port, _ := strconv.ParseUint(params.DefaultPort, 10, 16)
	seeds := make([]string, 0, len(params.DNSSeeds))
	for _, seed := range params.DNSSeeds {
		seeds = append(seeds, seed.Host)
	}
	return Network{
		Name:  name,
		Magic: params.Net,
		// #nosec G115 -- ParseUint limits the value to 16 bits
		DefaultPort: uint16(port),
		DNSSeeds:    seeds,
	}
}

// Valid reports whether the network has a magic value
func (n Network) Valid() bool {
	return n.Magic != 0
}

// NetworkMagic returns the network magic as sent in message headers
func (n Network) NetworkMagic() uint32 {
	return uint32(n.Magic)
}

func (n Network) String() string {
	return n.Name
}
