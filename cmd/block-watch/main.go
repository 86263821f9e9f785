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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/blinklabs-io/btcpeer"
	"github.com/blinklabs-io/btcpeer/cmd/common"
	"github.com/blinklabs-io/btcpeer/protocol/blockfetch"
)

type blockWatchFlags struct {
	common.GlobalFlags
	Listen    time.Duration `long:"listen" description:"how long to wait for a block announcement"`
	MaxTx     int           `long:"max-tx" description:"number of trailing transactions to print"`
	Format    string        `long:"format" description:"output format" choice:"text" choice:"json" choice:"cbor"`
	KeepAlive bool          `long:"keepalive" description:"answer peer pings while listening"`
}

func main() {
	// Parse commandline
	f := blockWatchFlags{
		GlobalFlags: common.NewGlobalFlags(),
		Listen:      blockfetch.DefaultListenDuration,
		MaxTx:       10,
		Format:      common.FormatText,
		KeepAlive:   true,
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
	if !common.ValidFormat(f.Format) {
		fmt.Printf("ERROR: unknown output format: %s\n", f.Format)
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
			ConnectionOptions: []btcpeer.ConnectionOptionFunc{
				btcpeer.WithBlockFetchConfig(
					blockfetch.NewConfig(
						blockfetch.WithReadTimeout(f.ReadTimeout),
						blockfetch.WithListenDuration(f.Listen),
						blockfetch.WithKeepAlive(f.KeepAlive),
						blockfetch.WithLogger(logger),
					),
				),
			},
		},
	)
	if err := common.AddCandidates(&f.GlobalFlags, connManager, logger); err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	conn, err := connManager.ConnectHosts()
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	result, err := conn.BlockFetch().Listen(f.Listen)
	if err != nil {
		if errors.Is(err, blockfetch.ErrTimeout) {
			fmt.Printf("ERROR: no block announced within %s\n", f.Listen)
		} else {
			fmt.Printf("ERROR: %s\n", err)
		}
		conn.Close()
		os.Exit(1)
	}

	// Display block info
	report := common.NewBlockReport(result, f.MaxTx)
	report.Network = network.Name
	report.Peer = conn.RemoteAddr().String()
	report.PeerUserAgent = conn.PeerVersion().UserAgent
	if err := common.WriteReport(os.Stdout, f.Format, report); err != nil {
		fmt.Printf("ERROR: %s\n", err)
		conn.Close()
		os.Exit(1)
	}
}
