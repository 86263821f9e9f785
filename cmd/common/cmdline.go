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
	"os"
	"time"

	"github.com/blinklabs-io/btcpeer"
	"github.com/jessevdk/go-flags"
)

// GlobalFlags holds the options shared by all commands. Values already set on the
// struct when it is parsed act as defaults
type GlobalFlags struct {
	ConfigFile     string        `short:"C" long:"configfile" description:"path to an ini config file"`
	Network        string        `long:"network" description:"network to join (mainnet, testnet3, signet, regtest)"`
	Seeds          []string      `long:"seed" description:"DNS seed to query, repeatable (defaults to the network seeds)"`
	Nameservers    []string      `long:"nameserver" description:"nameserver used for seed lookups, repeatable (defaults to /etc/resolv.conf)"`
	Peers          []string      `long:"peer" description:"peer to connect to in host[:port] format, repeatable; disables seed lookups"`
	Topology       string        `long:"topology" description:"JSON topology file with static peers"`
	ConnectTimeout time.Duration `long:"connect-timeout" description:"timeout for each connection attempt"`
	ReadTimeout    time.Duration `long:"read-timeout" description:"timeout for each message read"`
	Debug          bool          `long:"debug" description:"enable debug logging"`

	network btcpeer.Network
}

func NewGlobalFlags() GlobalFlags {
	return GlobalFlags{
		Network:        btcpeer.NetworkMainnet.Name,
		ConnectTimeout: btcpeer.DefaultConnectTimeout,
		ReadTimeout:    btcpeer.DefaultReadTimeout,
	}
}

// Validate checks the shared options and resolves the network
func (f *GlobalFlags) Validate() error {
	network := btcpeer.NetworkByName(f.Network)
	if !network.Valid() {
		return fmt.Errorf("%w: %q", btcpeer.ErrInvalidNetwork, f.Network)
	}
	f.network = network
	if f.ConnectTimeout <= 0 {
		return errors.New("connect timeout must be positive")
	}
	if f.ReadTimeout <= 0 {
		return errors.New("read timeout must be positive")
	}
	return nil
}

// SelectedNetwork returns the network resolved by Validate
func (f *GlobalFlags) SelectedNetwork() btcpeer.Network {
	return f.network
}

// Logger returns a text logger on stderr at the level selected by the flags
func (f *GlobalFlags) Logger() *slog.Logger {
	level := slog.LevelInfo
	if f.Debug {
		level = slog.LevelDebug
	}
	return slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	)
}

type preFlags struct {
	ConfigFile string `short:"C" long:"configfile"`
}

// ParseArgs parses args into cfg. An ini config file named with -C is applied first, so
// command line options take precedence over it
func ParseArgs(cfg any, args []string) error {
	var pre preFlags
	// Everything but the config file option is handled by the full parse below
	if _, err := flags.NewParser(&pre, flags.IgnoreUnknown).ParseArgs(args); err != nil {
		return err
	}
	parser := flags.NewParser(cfg, flags.Default)
	if pre.ConfigFile != "" {
		if err := flags.NewIniParser(parser).ParseFile(pre.ConfigFile); err != nil {
			return fmt.Errorf("failed to load config file: %w", err)
		}
	}
	if _, err := parser.ParseArgs(args); err != nil {
		return err
	}
	return nil
}

// IsHelp reports whether err is the result of a help request
func IsHelp(err error) bool {
	var flagsErr *flags.Error
	return errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp
}
