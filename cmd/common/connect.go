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

package common

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/btcpeer"
	"github.com/blinklabs-io/btcpeer/discovery"
)

// AddCandidates populates the connection manager with the peers given on the command line
// and in the topology file. When neither names a peer, the DNS seeds are queried
func AddCandidates(
	f *GlobalFlags,
	connManager *btcpeer.ConnectionManager,
	logger *slog.Logger,
) error {
	network := f.SelectedNetwork()
	for _, peer := range f.Peers {
		addr, err := btcpeer.ParseAddress(peer, network.DefaultPort)
		if err != nil {
			return err
		}
		connManager.AddHost(
			addr.Host.String(),
			addr.Port,
			btcpeer.ConnectionManagerTagHostStatic,
		)
	}
	seeds := f.Seeds
	if f.Topology != "" {
		topology, err := btcpeer.NewTopologyConfigFromFile(f.Topology)
		if err != nil {
			return fmt.Errorf("failed to load topology: %w", err)
		}
		if topology.Network != "" && topology.Network != network.Name {
			return fmt.Errorf(
				"%w: topology is for %s, not %s",
				btcpeer.ErrInvalidNetwork,
				topology.Network,
				network.Name,
			)
		}
		connManager.AddHostsFromTopology(topology)
		seeds = append(seeds, topology.Seeds...)
	}
	if len(connManager.Hosts()) > 0 && len(seeds) == 0 {
		return nil
	}
	if len(seeds) == 0 {
		seeds = network.DNSSeeds
	}
	resolver, err := discovery.NewResolver(
		discovery.WithNameservers(f.Nameservers...),
		discovery.WithTimeout(f.ConnectTimeout),
		discovery.WithLogger(logger),
	)
	if err != nil {
		return discoveryError(err, logger)
	}
	addrs, err := resolver.LookupSeeds(seeds, network.DefaultPort)
	if err != nil {
		return discoveryError(err, logger)
	}
	for _, addr := range addrs {
		connManager.AddHost(
			addr.Addr().String(),
			addr.Port(),
			btcpeer.ConnectionManagerTagHostDNSSeed,
		)
	}
	logger.Info(
		"discovered peers",
		"component", "discovery",
		"network", network.Name,
		"count", len(addrs),
	)
	return nil
}

// discoveryError leaves the candidate list as it is on a discovery failure. Connecting
// then reports that no peer was available
func discoveryError(err error, logger *slog.Logger) error {
	if !errors.Is(err, discovery.ErrDiscoveryFailed) {
		return err
	}
	logger.Warn(
		"seed discovery failed",
		"component", "discovery",
		"error", err,
	)
	return nil
}
