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

package common_test

import (
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blinklabs-io/btcpeer"
	"github.com/blinklabs-io/btcpeer/cmd/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.DiscardHandler)

func newTestFlags(t *testing.T, network string) *common.GlobalFlags {
	t.Helper()
	f := common.NewGlobalFlags()
	f.Network = network
	require.NoError(t, f.Validate())
	return &f
}

func newTestConnectionManager(f *common.GlobalFlags) *btcpeer.ConnectionManager {
	return btcpeer.NewConnectionManager(
		btcpeer.ConnectionManagerConfig{
			Network: f.SelectedNetwork(),
			Logger:  discardLogger,
		},
	)
}

func TestAddCandidatesPeers(t *testing.T) {
	f := newTestFlags(t, "testnet3")
	f.Peers = []string{"192.0.2.1", "[2001:db8::1]:18334"}
	connManager := newTestConnectionManager(f)
	require.NoError(t, common.AddCandidates(f, connManager, discardLogger))
	hosts := connManager.Hosts()
	require.Len(t, hosts, 2)
	assert.Equal(t, "192.0.2.1:18333", hosts[0].String())
	assert.Equal(t, "[2001:db8::1]:18334", hosts[1].String())
	assert.True(t, hosts[0].Tags[btcpeer.ConnectionManagerTagHostStatic])
}

func TestAddCandidatesInvalidPeer(t *testing.T) {
	f := newTestFlags(t, "mainnet")
	f.Peers = []string{"node.example.org"}
	err := common.AddCandidates(f, newTestConnectionManager(f), discardLogger)
	require.ErrorIs(t, err, btcpeer.ErrInvalidAddress)
}

func TestAddCandidatesTopology(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topology.json")
	topologyData := `{"network": "regtest", "peers": [{"address": "10.0.0.5"}, {"address": "10.0.0.6", "port": 18445}]}`
	require.NoError(t, os.WriteFile(path, []byte(topologyData), 0o600))
	f := newTestFlags(t, "regtest")
	f.Topology = path
	connManager := newTestConnectionManager(f)
	require.NoError(t, common.AddCandidates(f, connManager, discardLogger))
	hosts := connManager.Hosts()
	require.Len(t, hosts, 2)
	assert.Equal(t, "10.0.0.5:18444", hosts[0].String())
	assert.Equal(t, "10.0.0.6:18445", hosts[1].String())
	assert.True(t, hosts[1].Tags[btcpeer.ConnectionManagerTagHostTopology])

	f = newTestFlags(t, "mainnet")
	f.Topology = path
	err := common.AddCandidates(f, newTestConnectionManager(f), discardLogger)
	require.ErrorIs(t, err, btcpeer.ErrInvalidNetwork)
}

func TestAddCandidatesDiscoveryFailure(t *testing.T) {
	// Nothing ever answers on this socket
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()
	f := newTestFlags(t, "regtest")
	f.Seeds = []string{"seed.example"}
	f.Nameservers = []string{pc.LocalAddr().String()}
	f.ConnectTimeout = 100 * time.Millisecond
	connManager := newTestConnectionManager(f)
	require.NoError(t, common.AddCandidates(f, connManager, discardLogger))
	assert.Empty(t, connManager.Hosts())
	_, err = connManager.ConnectHosts()
	require.ErrorIs(t, err, btcpeer.ErrNoPeerAvailable)
}
