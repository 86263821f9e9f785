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

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/blinklabs-io/btcpeer"
	"github.com/blinklabs-io/btcpeer/cmd/common"
)

type peerLookupFlags struct {
	common.GlobalFlags
	Probe bool `long:"probe" description:"handshake with each peer and print its user agent"`
}

var hostTags = []btcpeer.ConnectionManagerTag{
	btcpeer.ConnectionManagerTagHostStatic,
	btcpeer.ConnectionManagerTagHostTopology,
	btcpeer.ConnectionManagerTagHostDNSSeed,
}

func main() {
	// Parse commandline
	f := peerLookupFlags{
		GlobalFlags: common.NewGlobalFlags(),
	}
	if err := common.ParseArgs(&f, os.Args[1:]); err != nil {
		if common.IsHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if err := f.Validate(); err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	logger := f.Logger()
	network := f.SelectedNetwork()
	connManager := btcpeer.NewConnectionManager(
		btcpeer.ConnectionManagerConfig{
			Network:        network,
			ConnectTimeout: f.ConnectTimeout,
			ReadTimeout:    f.ReadTimeout,
			Logger:         logger,
		},
	)
	if err := common.AddCandidates(&f.GlobalFlags, connManager, logger); err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	hosts := connManager.Hosts()
	if len(hosts) == 0 {
		fmt.Printf("ERROR: %s\n", btcpeer.ErrNoPeerAvailable)
		os.Exit(1)
	}
	for _, host := range hosts {
		var tags []string
		for _, tag := range hostTags {
			if host.Tags[tag] {
				tags = append(tags, tag.String())
			}
		}
		line := fmt.Sprintf("%s [%s]", host, strings.Join(tags, ","))
		if f.Probe {
			line += " " + probe(connManager, host, network)
		}
		fmt.Println(line)
	}
}

func probe(
	connManager *btcpeer.ConnectionManager,
	host btcpeer.ConnectionManagerHost,
	network btcpeer.Network,
) string {
	addr, err := btcpeer.ParseAddress(host.String(), network.DefaultPort)
	if err != nil {
		return "error: " + err.Error()
	}
	conn, err := connManager.Connect([]btcpeer.Address{addr})
	if err != nil {
		return "error: " + err.Error()
	}
	defer conn.Close()
	version := conn.PeerVersion()
	return fmt.Sprintf(
		"%s protocol=%d height=%d",
		version.UserAgent,
		version.ProtocolVersion,
		version.StartHeight,
	)
}
