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

// Package protocol implements the Bitcoin P2P message envelope and the framing of
// messages over a connection.
//
// A single Framer is shared by every protocol flow on a connection. The framer
// never retries on its own. A timeout before any header byte arrives, or partway
// through a payload, is reported as ErrReadTimeout and leaves the stream usable: a
// partially received payload is kept and the next read resumes it. Any other
// failure means the stream can no longer be trusted to be on a message boundary.
package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"
)

// FramerConfig is used to configure a Framer
type FramerConfig struct {
	Magic            uint32
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	MaxPayloadLength uint32
	Logger           *slog.Logger
}

// Framer reads and writes protocol messages on a connection
type Framer struct {
	conn    net.Conn
	config  FramerConfig
	partial *partialFrame
}

// partialFrame holds a message whose payload read was interrupted by a timeout
type partialFrame struct {
	header  MessageHeader
	payload []byte
	read    int
}

// NewFramer returns a new Framer for the provided connection
func NewFramer(conn net.Conn, cfg FramerConfig) *Framer {
	if cfg.MaxPayloadLength == 0 {
		cfg.MaxPayloadLength = DefaultMaxPayloadLength
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Framer{
		conn:   conn,
		config: cfg,
	}
}

// Conn returns the underlying connection
func (f *Framer) Conn() net.Conn {
	return f.conn
}

// Magic returns the network magic value used for framing
func (f *Framer) Magic() uint32 {
	return f.config.Magic
}

// Logger returns the logger used by the framer
func (f *Framer) Logger() *slog.Logger {
	return f.config.Logger
}

// ReadTimeout returns the default per-message read timeout
func (f *Framer) ReadTimeout() time.Duration {
	return f.config.ReadTimeout
}

// PartialPayload returns the number of payload bytes held for a message whose read
// timed out before completing. The next read resumes that message
func (f *Framer) PartialPayload() int {
	if f.partial == nil {
		return 0
	}
	return f.partial.read
}

// SetReadTimeout changes the default per-message read timeout
func (f *Framer) SetReadTimeout(timeout time.Duration) {
	f.config.ReadTimeout = timeout
}

// WriteMessage encodes and sends a message
func (f *Framer) WriteMessage(command string, payload []byte) error {
	data, err := EncodeMessage(f.config.Magic, command, payload)
	if err != nil {
		return err
	}
	if f.config.WriteTimeout > 0 {
		if err := f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout)); err != nil {
			return err
		}
	}
	if _, err := f.conn.Write(data); err != nil {
		return fmt.Errorf("write %s message: %w", command, err)
	}
	f.config.Logger.Debug(
		"sent message",
		"component", "network",
		"command", command,
		"length", len(payload),
	)
	return nil
}

// ReadMessage reads a single message using the configured read timeout
func (f *Framer) ReadMessage() (*Message, error) {
	return f.ReadMessageTimeout(f.config.ReadTimeout)
}

// ReadMessageTimeout reads a single message. The timeout covers the whole message,
// and a zero timeout blocks until a message arrives or the connection fails. When the
// timeout expires partway through a payload, the bytes received so far are kept and
// the next call continues the same message
func (f *Framer) ReadMessageTimeout(timeout time.Duration) (*Message, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := f.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	if f.partial == nil {
		header, err := f.readHeader()
		if err != nil {
			return nil, err
		}
		f.partial = &partialFrame{
			header:  header,
			payload: make([]byte, header.Length),
		}
	}
	frame := f.partial
	n, err := io.ReadFull(f.conn, frame.payload[frame.read:])
	frame.read += n
	if err != nil {
		if IsTimeout(err) {
			return nil, fmt.Errorf(
				"%w: got %d of %d payload bytes",
				ErrReadTimeout,
				frame.read,
				frame.header.Length,
			)
		}
		f.partial = nil
		return nil, fmt.Errorf(
			"%w: got %d of %d payload bytes: %w",
			ErrIncompleteMessage,
			frame.read,
			frame.header.Length,
			err,
		)
	}
	f.partial = nil
	header := frame.header
	payload := frame.payload
	msg := &Message{
		Command:  header.CommandString(),
		Payload:  payload,
		Checksum: header.Checksum,
	}
	if err := validateCommand(msg.Command); err != nil {
		return nil, err
	}
	f.config.Logger.Debug(
		"received message",
		"component", "network",
		"command", msg.Command,
		"length", len(payload),
	)
	return msg, nil
}

func (f *Framer) readHeader() (MessageHeader, error) {
	var header MessageHeader
	headerBuf := make([]byte, MessageHeaderSize)
	// We use ReadFull because it guarantees to read the expected number of bytes or
	// return an error
	if n, err := io.ReadFull(f.conn, headerBuf); err != nil {
		return header, headerReadError(n, err)
	}
	if err := binary.Read(bytes.NewReader(headerBuf), binary.LittleEndian, &header); err != nil {
		return header, err
	}
	if header.Magic != f.config.Magic {
		return header, fmt.Errorf(
			"%w: got %08x, expected %08x",
			ErrBadMagic,
			header.Magic,
			f.config.Magic,
		)
	}
	if header.Length > f.config.MaxPayloadLength {
		return header, fmt.Errorf(
			"%w: header declares %d bytes, maximum is %d",
			ErrPayloadTooLarge,
			header.Length,
			f.config.MaxPayloadLength,
		)
	}
	return header, nil
}

func headerReadError(n int, err error) error {
	if n > 0 {
		return fmt.Errorf(
			"%w: got %d of %d bytes: %w",
			ErrIncompleteHeader,
			n,
			MessageHeaderSize,
			err,
		)
	}
	if IsTimeout(err) {
		return ErrReadTimeout
	}
	if errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	}
	return err
}

// IsTimeout returns whether the error was caused by an expired deadline
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
