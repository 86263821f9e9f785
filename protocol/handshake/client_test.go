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

package handshake_test

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/blinklabs-io/btcpeer/internal/test/peer_mock"
	"github.com/blinklabs-io/btcpeer/protocol"
	"github.com/blinklabs-io/btcpeer/protocol/handshake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type testInnerFunc func(*testing.T, *handshake.Client, error)

func runTest(
	t *testing.T,
	conversation []peer_mock.ConversationEntry,
	readTimeout time.Duration,
	innerFunc testInnerFunc,
	options ...handshake.HandshakeOptionFunc,
) {
	defer goleak.VerifyNone(t)
	mockConn := peer_mock.NewConnection(peer_mock.MockNetworkMagic, conversation)
	defer mockConn.Close()
	framer := protocol.NewFramer(
		mockConn,
		protocol.FramerConfig{
			Magic:       peer_mock.MockNetworkMagic,
			ReadTimeout: readTimeout,
		},
	)
	cfg := handshake.NewConfig(options...)
	client := handshake.NewClient(framer, &cfg)
	err := client.Run()
	innerFunc(t, client, err)
}

func waitForConversation(t *testing.T, mockConn *peer_mock.Connection) {
	t.Helper()
	select {
	case <-mockConn.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("did not complete within timeout")
	}
	select {
	case err := <-mockConn.ErrorChan():
		t.Fatalf("received unexpected error: %s", err)
	default:
	}
}

func TestHandshakeEstablished(t *testing.T) {
	defer goleak.VerifyNone(t)
	mockConn := peer_mock.NewConnection(
		peer_mock.MockNetworkMagic,
		peer_mock.ConversationHandshake,
	)
	defer mockConn.Close()
	framer := protocol.NewFramer(
		mockConn,
		protocol.FramerConfig{
			Magic:       peer_mock.MockNetworkMagic,
			ReadTimeout: time.Second,
		},
	)
	var states []protocol.State
	cfg := handshake.NewConfig(
		handshake.WithStateFunc(func(state protocol.State) {
			states = append(states, state)
		}),
	)
	client := handshake.NewClient(framer, &cfg)
	require.Equal(t, handshake.StateConnected, client.State())
	require.NoError(t, client.Run())
	waitForConversation(t, mockConn)
	assert.Equal(t, handshake.StateEstablished, client.State())
	assert.True(t, client.VersionReceived())
	assert.True(t, client.VerackReceived())
	assert.Equal(
		t,
		[]protocol.State{
			handshake.StateVersionSent,
			handshake.StateHandshaking,
			handshake.StateEstablished,
		},
		states,
	)
	peerVersion := client.PeerVersion()
	require.NotNil(t, peerVersion)
	assert.Equal(t, peer_mock.MockVersion, *peerVersion)
}

func TestHandshakeVerackBeforeVersion(t *testing.T) {
	conversation := []peer_mock.ConversationEntry{
		peer_mock.ConversationEntryVersionRequest,
		peer_mock.ConversationEntryVerackResponse,
		peer_mock.ConversationEntryVersionResponse,
		peer_mock.ConversationEntryVerackRequest,
	}
	runTest(t, conversation, time.Second, func(t *testing.T, client *handshake.Client, err error) {
		require.NoError(t, err)
		assert.Equal(t, handshake.StateEstablished, client.State())
	})
}

func TestHandshakeIgnoresUnknownCommands(t *testing.T) {
	conversation := []peer_mock.ConversationEntry{
		peer_mock.ConversationEntryVersionRequest,
		peer_mock.NewOutputEntry("sendheaders", nil),
		peer_mock.ConversationEntryVersionResponse,
		peer_mock.NewOutputEntry("wtxidrelay", nil),
		peer_mock.NewOutputEntry("sendaddrv2", nil),
		peer_mock.ConversationEntryVerackResponse,
		peer_mock.ConversationEntryVerackRequest,
	}
	runTest(t, conversation, time.Second, func(t *testing.T, client *handshake.Client, err error) {
		require.NoError(t, err)
		assert.Equal(t, handshake.StateEstablished, client.State())
	})
}

func TestHandshakeSendsVersion(t *testing.T) {
	var sent *handshake.MsgVersion
	versionRequest := peer_mock.ConversationEntry{
		Type:         peer_mock.EntryTypeInput,
		InputCommand: protocol.CommandVersion,
		InputFunc: func(msg *protocol.Message) error {
			var err error
			sent, err = handshake.NewMsgVersionFromBytes(msg.Payload)
			return err
		},
	}
	conversation := []peer_mock.ConversationEntry{
		versionRequest,
		peer_mock.ConversationEntryVersionResponse,
		peer_mock.ConversationEntryVerackResponse,
		peer_mock.ConversationEntryVerackRequest,
	}
	before := time.Now().Unix()
	runTest(
		t,
		conversation,
		time.Second,
		func(t *testing.T, client *handshake.Client, err error) {
			require.NoError(t, err)
			require.NotNil(t, sent)
			assert.Equal(t, int32(70020), sent.ProtocolVersion)
			assert.Equal(t, "/btcpeer-test/", sent.UserAgent)
			assert.Equal(t, uint64(0), sent.Services)
			assert.Equal(t, int32(0), sent.StartHeight)
			assert.False(t, sent.Relay)
			assert.GreaterOrEqual(t, sent.Timestamp, before)
			assert.Equal(t, handshake.NetAddress{}, sent.AddrRecv)
			assert.Equal(t, handshake.NetAddress{}, sent.AddrFrom)
		},
		handshake.WithProtocolVersion(70020),
		handshake.WithUserAgent("/btcpeer-test/"),
	)
}

// tcpAddrConn reports a TCP remote address for a mock connection
type tcpAddrConn struct {
	*peer_mock.Connection
	remote *net.TCPAddr
}

func (c *tcpAddrConn) RemoteAddr() net.Addr {
	return c.remote
}

func TestHandshakeVersionCarriesPeerAddress(t *testing.T) {
	defer goleak.VerifyNone(t)
	var sent *handshake.MsgVersion
	versionRequest := peer_mock.ConversationEntry{
		Type:         peer_mock.EntryTypeInput,
		InputCommand: protocol.CommandVersion,
		InputFunc: func(msg *protocol.Message) error {
			var err error
			sent, err = handshake.NewMsgVersionFromBytes(msg.Payload)
			return err
		},
	}
	mockConn := peer_mock.NewConnection(
		peer_mock.MockNetworkMagic,
		[]peer_mock.ConversationEntry{
			versionRequest,
			peer_mock.ConversationEntryVersionResponse,
			peer_mock.ConversationEntryVerackResponse,
			peer_mock.ConversationEntryVerackRequest,
		},
	)
	defer mockConn.Close()
	peer := netip.MustParseAddrPort("198.51.100.20:8333")
	framer := protocol.NewFramer(
		&tcpAddrConn{
			Connection: mockConn,
			remote:     net.TCPAddrFromAddrPort(peer),
		},
		protocol.FramerConfig{
			Magic:       peer_mock.MockNetworkMagic,
			ReadTimeout: time.Second,
		},
	)
	cfg := handshake.NewConfig()
	client := handshake.NewClient(framer, &cfg)
	require.NoError(t, client.Run())
	waitForConversation(t, mockConn)
	require.NotNil(t, sent)
	assert.Equal(t, peer, sent.AddrRecv.AddrPort())
	assert.Equal(t, handshake.NetAddress{}, sent.AddrFrom)
}

func TestHandshakePeerClosed(t *testing.T) {
	conversation := []peer_mock.ConversationEntry{
		peer_mock.ConversationEntryVersionRequest,
		peer_mock.ConversationEntryVersionResponse,
		peer_mock.ConversationEntryClose,
	}
	runTest(t, conversation, time.Second, func(t *testing.T, client *handshake.Client, err error) {
		require.ErrorIs(t, err, handshake.ErrHandshakeFailed)
		require.ErrorIs(t, err, protocol.ErrConnectionClosed)
		assert.Equal(t, handshake.StateFailed, client.State())
		assert.True(t, client.VersionReceived())
		assert.False(t, client.VerackReceived())
	})
}

func TestHandshakeReadTimeout(t *testing.T) {
	conversation := []peer_mock.ConversationEntry{
		peer_mock.ConversationEntryVersionRequest,
		peer_mock.ConversationEntryVersionResponse,
		peer_mock.NewSleepEntry(time.Second),
	}
	runTest(t, conversation, 100*time.Millisecond, func(t *testing.T, client *handshake.Client, err error) {
		require.ErrorIs(t, err, handshake.ErrHandshakeFailed)
		require.ErrorIs(t, err, protocol.ErrReadTimeout)
		assert.Equal(t, handshake.StateFailed, client.State())
	})
}

func TestHandshakeIncompleteMessage(t *testing.T) {
	header := buildRawHeader(peer_mock.MockNetworkMagic, protocol.CommandVersion, 100)
	conversation := []peer_mock.ConversationEntry{
		peer_mock.ConversationEntryVersionRequest,
		peer_mock.NewRawOutputEntry(append(header, make([]byte, 50)...)),
		peer_mock.ConversationEntryClose,
	}
	runTest(t, conversation, time.Second, func(t *testing.T, client *handshake.Client, err error) {
		require.ErrorIs(t, err, handshake.ErrHandshakeFailed)
		require.ErrorIs(t, err, protocol.ErrIncompleteMessage)
		assert.Equal(t, handshake.StateFailed, client.State())
	})
}

func TestHandshakeBadMagic(t *testing.T) {
	data, err := protocol.EncodeMessage(0xd9b4bef9, protocol.CommandVerack, nil)
	require.NoError(t, err)
	conversation := []peer_mock.ConversationEntry{
		peer_mock.ConversationEntryVersionRequest,
		peer_mock.NewRawOutputEntry(data),
	}
	runTest(t, conversation, time.Second, func(t *testing.T, client *handshake.Client, err error) {
		require.ErrorIs(t, err, handshake.ErrHandshakeFailed)
		require.ErrorIs(t, err, protocol.ErrBadMagic)
	})
}

func TestHandshakeChecksumMismatch(t *testing.T) {
	data, err := protocol.EncodeMessage(
		peer_mock.MockNetworkMagic,
		protocol.CommandVersion,
		peer_mock.MockVersion.Encode(),
	)
	require.NoError(t, err)
	// Corrupt the checksum field
	data[20] ^= 0xff
	conversation := []peer_mock.ConversationEntry{
		peer_mock.ConversationEntryVersionRequest,
		peer_mock.NewRawOutputEntry(data),
	}
	runTest(t, conversation, time.Second, func(t *testing.T, client *handshake.Client, err error) {
		require.ErrorIs(t, err, handshake.ErrHandshakeFailed)
		require.ErrorIs(t, err, protocol.ErrChecksumMismatch)
		assert.False(t, client.VersionReceived())
	})
}

func TestHandshakeMalformedVersion(t *testing.T) {
	conversation := []peer_mock.ConversationEntry{
		peer_mock.ConversationEntryVersionRequest,
		peer_mock.NewOutputEntry(protocol.CommandVersion, []byte{0x7f, 0x11, 0x01, 0x00}),
	}
	runTest(t, conversation, time.Second, func(t *testing.T, client *handshake.Client, err error) {
		require.ErrorIs(t, err, handshake.ErrHandshakeFailed)
		assert.Equal(t, handshake.StateFailed, client.State())
	})
}

func TestHandshakeDuplicateVersion(t *testing.T) {
	conversation := []peer_mock.ConversationEntry{
		peer_mock.ConversationEntryVersionRequest,
		peer_mock.ConversationEntryVersionResponse,
		peer_mock.ConversationEntryVersionResponse,
	}
	runTest(t, conversation, time.Second, func(t *testing.T, client *handshake.Client, err error) {
		require.ErrorIs(t, err, handshake.ErrHandshakeFailed)
		assert.Contains(t, err.Error(), "duplicate version")
	})
}

func TestHandshakeRunTwice(t *testing.T) {
	runTest(t, peer_mock.ConversationHandshake, time.Second, func(t *testing.T, client *handshake.Client, err error) {
		require.NoError(t, err)
		err = client.Run()
		if !errors.Is(err, handshake.ErrHandshakeFailed) {
			t.Fatalf("did not get expected error: got %v", err)
		}
		// A rejected second run does not disturb the session
		assert.Equal(t, handshake.StateEstablished, client.State())
	})
}

func buildRawHeader(magic uint32, command string, length uint32) []byte {
	buf := make([]byte, 0, protocol.MessageHeaderSize)
	buf = binary.LittleEndian.AppendUint32(buf, magic)
	var cmd [protocol.CommandSize]byte
	copy(cmd[:], command)
	buf = append(buf, cmd[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, length)
	buf = append(buf, 0, 0, 0, 0)
	return buf
}

func ExampleNewClient() {
	mockConn := peer_mock.NewConnection(
		peer_mock.MockNetworkMagic,
		peer_mock.ConversationHandshake,
	)
	defer mockConn.Close()
	framer := protocol.NewFramer(
		mockConn,
		protocol.FramerConfig{
			Magic:       peer_mock.MockNetworkMagic,
			ReadTimeout: time.Second,
		},
	)
	client := handshake.NewClient(framer, nil)
	if err := client.Run(); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(client.State(), client.PeerVersion().UserAgent)
	// Output: Established /peer-mock:0.1.0/
}
