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
	"errors"
	"fmt"

	"github.com/blinklabs-io/btcpeer/protocol/handshake"
)

var (
	// ErrConnectionFailed is returned when a connection to a peer cannot be opened
	ErrConnectionFailed = errors.New("connection failed")
	// ErrHandshakeFailed is returned when a peer does not complete the handshake
	ErrHandshakeFailed = handshake.ErrHandshakeFailed
	// ErrNoPeerAvailable is returned when every candidate address has failed
	ErrNoPeerAvailable = errors.New("no peer available")
	// ErrInvalidNetwork is returned when a connection is set up without a valid network
	ErrInvalidNetwork = errors.New("invalid network")
	// ErrInvalidAddress is returned for unparseable peer addresses
	ErrInvalidAddress = errors.New("invalid address")
)

// AttemptError records why a connection attempt to a single address failed
type AttemptError struct {
	Address string
	Err     error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("%s: %s", e.Address, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}
