// Copyright 2023 Blink Labs Software
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

package peer_mock

import (
	"bytes"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/blinklabs-io/btcpeer/protocol"
)

// Connection mocks a peer connection. The client side is exposed through the net.Conn
// interface while the scripted peer runs the conversation on the other end of a pipe
type Connection struct {
	mockConn     net.Conn
	conn         net.Conn
	conversation []ConversationEntry
	framer       *protocol.Framer
	errorChan    chan error
	doneChan     chan struct{}
	closeChan    chan struct{}
	closeOnce    sync.Once
}

// NewConnection returns a new Connection with the provided conversation entries
func NewConnection(
	magic uint32,
	conversation []ConversationEntry,
) *Connection {
	c := &Connection{
		conversation: conversation,
		errorChan:    make(chan error, 1),
		doneChan:     make(chan struct{}),
		closeChan:    make(chan struct{}),
	}
	c.conn, c.mockConn = net.Pipe()
	c.framer = protocol.NewFramer(
		c.mockConn,
		protocol.FramerConfig{
			Magic:  magic,
			Logger: slog.New(slog.DiscardHandler),
		},
	)
	// Start async conversation handler
	go c.asyncLoop()
	return c
}

// ErrorChan returns a channel that receives the error that stopped the conversation, if any
func (c *Connection) ErrorChan() <-chan error {
	return c.errorChan
}

// Done returns a channel that is closed when the conversation has finished
func (c *Connection) Done() <-chan struct{} {
	return c.doneChan
}

// Read provides a proxy to the client-side connection's Read function. This is needed to satisfy the net.Conn interface
func (c *Connection) Read(b []byte) (n int, err error) {
	return c.conn.Read(b)
}

// Write provides a proxy to the client-side connection's Write function. This is needed to satisfy the net.Conn interface
func (c *Connection) Write(b []byte) (n int, err error) {
	return c.conn.Write(b)
}

// Close closes both sides of the connection. This is needed to satisfy the net.Conn interface
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		close(c.closeChan)
		c.conn.Close()
		c.mockConn.Close()
	})
	return nil
}

// LocalAddr provides a proxy to the client-side connection's LocalAddr function. This is needed to satisfy the net.Conn interface
func (c *Connection) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr provides a proxy to the client-side connection's RemoteAddr function. This is needed to satisfy the net.Conn interface
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SetDeadline provides a proxy to the client-side connection's SetDeadline function. This is needed to satisfy the net.Conn interface
func (c *Connection) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// SetReadDeadline provides a proxy to the client-side connection's SetReadDeadline function. This is needed to satisfy the net.Conn interface
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline provides a proxy to the client-side connection's SetWriteDeadline function. This is needed to satisfy the net.Conn interface
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

func (c *Connection) asyncLoop() {
	defer close(c.doneChan)
	for idx, entry := range c.conversation {
		var err error
		switch entry.Type {
		case EntryTypeInput:
			err = c.processInputEntry(entry)
		case EntryTypeOutput:
			err = c.processOutputEntry(entry)
		case EntryTypeSleep:
			select {
			case <-time.After(entry.Duration):
			case <-c.closeChan:
				return
			}
		case EntryTypeClose:
			// Only the peer side is closed so the client observes a remote close
			c.mockConn.Close()
			return
		default:
			err = fmt.Errorf("unknown conversation entry type: %d: %#v", entry.Type, entry)
		}
		if err != nil {
			c.errorChan <- fmt.Errorf("conversation entry %d: %w", idx, err)
			return
		}
	}
}

func (c *Connection) processInputEntry(entry ConversationEntry) error {
	msg, err := c.framer.ReadMessage()
	if err != nil {
		return fmt.Errorf("input error: %w", err)
	}
	if msg.Command != entry.InputCommand {
		return fmt.Errorf(
			"input message is not of expected type: expected %s, got %s",
			entry.InputCommand,
			msg.Command,
		)
	}
	if err := msg.VerifyChecksum(); err != nil {
		return err
	}
	if entry.InputPayload != nil && !bytes.Equal(msg.Payload, entry.InputPayload) {
		return fmt.Errorf(
			"input message payload does not match expected value: got %x, expected %x",
			msg.Payload,
			entry.InputPayload,
		)
	}
	if entry.InputFunc != nil {
		if err := entry.InputFunc(msg); err != nil {
			return fmt.Errorf("input message validation failed: %w", err)
		}
	}
	return nil
}

func (c *Connection) processOutputEntry(entry ConversationEntry) error {
	if entry.OutputRaw != nil {
		if _, err := c.mockConn.Write(entry.OutputRaw); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		return nil
	}
	if err := c.framer.WriteMessage(entry.OutputCommand, entry.OutputPayload); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}
