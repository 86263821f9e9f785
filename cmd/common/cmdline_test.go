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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blinklabs-io/btcpeer"
	"github.com/blinklabs-io/btcpeer/cmd/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testFlags struct {
	common.GlobalFlags
	MaxTx int `long:"max-tx"`
}

func TestParseArgsDefaults(t *testing.T) {
	f := testFlags{GlobalFlags: common.NewGlobalFlags(), MaxTx: 10}
	require.NoError(t, common.ParseArgs(&f, []string{}))
	require.NoError(t, f.Validate())
	assert.Equal(t, btcpeer.NetworkMainnet, f.SelectedNetwork())
	assert.Equal(t, btcpeer.DefaultConnectTimeout, f.ConnectTimeout)
	assert.Equal(t, btcpeer.DefaultReadTimeout, f.ReadTimeout)
	assert.Equal(t, 10, f.MaxTx)
}

func TestParseArgs(t *testing.T) {
	f := testFlags{GlobalFlags: common.NewGlobalFlags()}
	err := common.ParseArgs(
		&f,
		[]string{
			"--network", "signet",
			"--peer", "192.0.2.1",
			"--peer", "[2001:db8::1]:38334",
			"--connect-timeout", "2s",
			"--max-tx", "3",
			"--debug",
		},
	)
	require.NoError(t, err)
	require.NoError(t, f.Validate())
	assert.Equal(t, btcpeer.NetworkSignet, f.SelectedNetwork())
	assert.Equal(t, []string{"192.0.2.1", "[2001:db8::1]:38334"}, f.Peers)
	assert.Equal(t, 2*time.Second, f.ConnectTimeout)
	assert.Equal(t, 3, f.MaxTx)
	assert.True(t, f.Debug)
}

func TestParseArgsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block-watch.conf")
	configData := "[Application Options]\nnetwork = testnet3\nread-timeout = 5s\nmax-tx = 4\n"
	require.NoError(t, os.WriteFile(path, []byte(configData), 0o600))
	f := testFlags{GlobalFlags: common.NewGlobalFlags()}
	// Command line options take precedence over the config file
	require.NoError(t, common.ParseArgs(&f, []string{"-C", path, "--network", "regtest"}))
	require.NoError(t, f.Validate())
	assert.Equal(t, btcpeer.NetworkRegtest, f.SelectedNetwork())
	assert.Equal(t, 5*time.Second, f.ReadTimeout)
	assert.Equal(t, 4, f.MaxTx)
}

func TestParseArgsErrors(t *testing.T) {
	f := testFlags{GlobalFlags: common.NewGlobalFlags()}
	err := common.ParseArgs(&f, []string{"-C", filepath.Join(t.TempDir(), "missing.conf")})
	require.Error(t, err)
	assert.False(t, common.IsHelp(err))

	f = testFlags{GlobalFlags: common.NewGlobalFlags()}
	require.Error(t, common.ParseArgs(&f, []string{"--bogus"}))

	f = testFlags{GlobalFlags: common.NewGlobalFlags()}
	require.NoError(t, common.ParseArgs(&f, []string{"--network", "bogus"}))
	require.ErrorIs(t, f.Validate(), btcpeer.ErrInvalidNetwork)

	f = testFlags{GlobalFlags: common.NewGlobalFlags()}
	require.NoError(t, common.ParseArgs(&f, []string{"--read-timeout", "0s"}))
	require.Error(t, f.Validate())
}

func TestParseArgsHelp(t *testing.T) {
	f := testFlags{GlobalFlags: common.NewGlobalFlags()}
	err := common.ParseArgs(&f, []string{"--help"})
	require.Error(t, err)
	assert.True(t, common.IsHelp(err))
}
