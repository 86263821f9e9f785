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

package ledger

import (
	"errors"

	"github.com/blinklabs-io/btcpeer/codec"
)

var (
	// ErrBlockTooShort is returned when a block payload cannot hold a block header
	ErrBlockTooShort = errors.New("block data too short")

	// ErrTruncatedInput is returned when a block or transaction runs past the end of its payload
	ErrTruncatedInput = codec.ErrTruncatedInput

	// ErrValueOverflow is returned when the output values of a transaction overflow
	ErrValueOverflow = errors.New("transaction output value overflow")
)
