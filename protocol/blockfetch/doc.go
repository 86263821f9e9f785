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

// Package blockfetch implements inventory-driven block retrieval.
//
// The client waits for a peer to announce blocks with an inv message, requests the
// first announced block with getdata, and verifies that the hash of the returned
// block header matches the announced identifier.
//
// Flow: inv -> getdata -> block
package blockfetch
