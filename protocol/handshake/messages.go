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

package handshake

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"time"

	"github.com/blinklabs-io/btcpeer/codec"
)

const (
	// NetAddressSize is the size of an address record inside a version message
	NetAddressSize = 8 + 16 + 2

	// The receiving address record is the last field every peer sends
	minVersionPayloadSize = 4 + 8 + 8 + NetAddressSize
)

// NetAddress is an address record as carried in a version message. The services and
// port fields are big-endian on the wire
type NetAddress struct {
	Services uint64
	IP       [16]byte
	Port     uint16
}

// NewNetAddress returns an address record for the provided address, with IPv4 addresses
// stored in their IPv4-mapped IPv6 form
func NewNetAddress(services uint64, addr netip.AddrPort) NetAddress {
	return NetAddress{
		Services: services,
		IP:       addr.Addr().As16(),
		Port:     addr.Port(),
	}
}

// AddrPort returns the address and port of the record
func (a NetAddress) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(netip.AddrFrom16(a.IP).Unmap(), a.Port)
}

func (a NetAddress) appendTo(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint64(dst, a.Services)
	dst = append(dst, a.IP[:]...)
	dst = binary.BigEndian.AppendUint16(dst, a.Port)
	return dst
}

func decodeNetAddress(data []byte, offset int) (NetAddress, int, error) {
	var ret NetAddress
	raw, offset, err := codec.ReadBytes(data, offset, NetAddressSize)
	if err != nil {
		return ret, offset, err
	}
	ret.Services = binary.BigEndian.Uint64(raw[0:8])
	copy(ret.IP[:], raw[8:24])
	ret.Port = binary.BigEndian.Uint16(raw[24:26])
	return ret, offset, nil
}

// MsgVersion is the payload of a version message
type MsgVersion struct {
	ProtocolVersion int32
	Services        uint64
	Timestamp       int64
	AddrRecv        NetAddress
	AddrFrom        NetAddress
	Nonce           uint64
	UserAgent       string
	StartHeight     int32
	Relay           bool
}

// NewMsgVersion returns the version message we send, built from the handshake config.
// The receiving address record carries the dialed peer address when it is valid and
// is zero-filled otherwise. The sending address record is always zero-filled
func NewMsgVersion(cfg *Config, peer netip.AddrPort, now time.Time) *MsgVersion {
	msg := &MsgVersion{
		ProtocolVersion: cfg.ProtocolVersion,
		Services:        cfg.Services,
		Timestamp:       now.Unix(),
		UserAgent:       cfg.UserAgent,
		StartHeight:     cfg.StartHeight,
		Relay:           cfg.Relay,
	}
	if peer.IsValid() {
		msg.AddrRecv = NewNetAddress(0, peer)
	}
	return msg
}

// Time returns the timestamp of the message
func (m *MsgVersion) Time() time.Time {
	return time.Unix(m.Timestamp, 0).UTC()
}

// Encode returns the wire encoding of the message payload
func (m *MsgVersion) Encode() []byte {
	ret := make([]byte, 0, minVersionPayloadSize+NetAddressSize+8+len(m.UserAgent)+9+4+1)
	// #nosec G115 -- protocol version is sent as its two's complement bit pattern
	ret = binary.LittleEndian.AppendUint32(ret, uint32(m.ProtocolVersion))
	ret = binary.LittleEndian.AppendUint64(ret, m.Services)
	// #nosec G115 -- timestamp is sent as its two's complement bit pattern
	ret = binary.LittleEndian.AppendUint64(ret, uint64(m.Timestamp))
	ret = m.AddrRecv.appendTo(ret)
	ret = m.AddrFrom.appendTo(ret)
	ret = binary.LittleEndian.AppendUint64(ret, m.Nonce)
	ret = codec.AppendVarBytes(ret, []byte(m.UserAgent))
	// #nosec G115 -- start height is sent as its two's complement bit pattern
	ret = binary.LittleEndian.AppendUint32(ret, uint32(m.StartHeight))
	if m.Relay {
		ret = append(ret, 1)
	} else {
		ret = append(ret, 0)
	}
	return ret
}

// NewMsgVersionFromBytes decodes a version message payload. Older peers omit the
// fields following the receiving address record, so the payload may end after any
// complete field from that point on. A payload that ends inside a field is an error
func NewMsgVersionFromBytes(data []byte) (*MsgVersion, error) {
	if len(data) < minVersionPayloadSize {
		return nil, fmt.Errorf(
			"%w: version payload is %d bytes, need at least %d",
			codec.ErrTruncatedInput,
			len(data),
			minVersionPayloadSize,
		)
	}
	m := &MsgVersion{}
	var err error
	var timestamp uint64
	offset := 0
	m.ProtocolVersion, offset, err = codec.ReadInt32(data, offset)
	if err != nil {
		return nil, err
	}
	m.Services, offset, err = codec.ReadUint64(data, offset)
	if err != nil {
		return nil, err
	}
	timestamp, offset, err = codec.ReadUint64(data, offset)
	if err != nil {
		return nil, err
	}
	// #nosec G115 -- timestamp is received as its two's complement bit pattern
	m.Timestamp = int64(timestamp)
	m.AddrRecv, offset, err = decodeNetAddress(data, offset)
	if err != nil {
		return nil, err
	}
	if offset == len(data) {
		return m, nil
	}
	m.AddrFrom, offset, err = decodeNetAddress(data, offset)
	if err != nil {
		return nil, fmt.Errorf("sender address: %w", err)
	}
	if offset == len(data) {
		return m, nil
	}
	m.Nonce, offset, err = codec.ReadUint64(data, offset)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	if offset == len(data) {
		return m, nil
	}
	var userAgent []byte
	userAgent, offset, err = codec.ReadVarBytes(data, offset)
	if err != nil {
		return nil, fmt.Errorf("user agent: %w", err)
	}
	m.UserAgent = string(userAgent)
	if offset == len(data) {
		return m, nil
	}
	m.StartHeight, offset, err = codec.ReadInt32(data, offset)
	if err != nil {
		return nil, fmt.Errorf("start height: %w", err)
	}
	if offset == len(data) {
		return m, nil
	}
	m.Relay = data[offset] != 0
	return m, nil
}
