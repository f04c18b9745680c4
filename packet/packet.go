// Copyright (c) 2020, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package packet implements the wire format of fieldmesh frames: a three byte header followed by
// little-endian 16-bit payload words, and the bit layouts of the Data, Config and Thresholds payloads.
package packet

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"

	. "github.com/fieldmesh/fieldmesh/types"
)

const (
	HeaderSize = 3
	// MinFrameSize is a bare header; SendFail frames have no payload.
	MinFrameSize = HeaderSize
	// MaxFrameSize is the LoRa modem FIFO limit.
	MaxFrameSize = 255

	DataWords       = 2
	ConfigWords     = 5
	ThresholdsWords = 6
)

var (
	ErrFrameTooShort     = errors.New("frame too short")
	ErrFrameTooLong      = errors.New("frame too long")
	ErrUnknownType       = errors.New("unknown message type")
	ErrNotAddressed      = errors.New("frame not addressed to this node")
	ErrEmptyPayload      = errors.New("payload missing")
	ErrOddPayload        = errors.New("payload not a whole number of words")
	ErrPayloadLength     = errors.New("payload word count does not match message type")
	ErrUnexpectedPayload = errors.New("payload not allowed for message type")
)

// Packet is one frame, either built for a send or framed from received bytes.
type Packet struct {
	Type    MessageType
	Dst     NodeAddr
	Src     NodeAddr
	Payload []uint16
}

func (p *Packet) String() string {
	return fmt.Sprintf("Pkt{%v,dst=%v,src=%v,words=%d}", p.Type, p.Dst, p.Src, len(p.Payload))
}

// Len returns the encoded frame length in bytes.
func (p *Packet) Len() int {
	return HeaderSize + 2*len(p.Payload)
}

// payloadWords returns the fixed word count of a message type, or 0 for header-only types.
func payloadWords(t MessageType) int {
	switch t {
	case MessageData:
		return DataWords
	case MessageConfig:
		return ConfigWords
	case MessageThresholds:
		return ThresholdsWords
	default:
		return 0
	}
}

// EncodeFrame serializes the packet into its wire bytes.
func EncodeFrame(p *Packet) []byte {
	buf := make([]byte, p.Len())
	buf[0] = byte(p.Type)
	buf[1] = byte(p.Dst)
	buf[2] = byte(p.Src)
	for i, w := range p.Payload {
		binary.LittleEndian.PutUint16(buf[HeaderSize+2*i:], w)
	}
	return buf
}

// ParseFrame frames and validates buf as received by node local. The payload words are copied out
// of buf into a slice owned by the returned Packet.
func ParseFrame(buf []byte, local NodeAddr) (*Packet, error) {
	if len(buf) < MinFrameSize {
		return nil, errors.Wrapf(ErrFrameTooShort, "%d bytes", len(buf))
	}
	if len(buf) > MaxFrameSize {
		return nil, errors.Wrapf(ErrFrameTooLong, "%d bytes", len(buf))
	}
	p := &Packet{
		Type: MessageType(buf[0]),
		Dst:  NodeAddr(buf[1]),
		Src:  NodeAddr(buf[2]),
	}
	if !p.Type.IsWireType() {
		return nil, errors.Wrapf(ErrUnknownType, "type byte %d", buf[0])
	}
	if p.Dst != local && p.Dst != BroadcastAddr {
		return nil, errors.Wrapf(ErrNotAddressed, "dst %v", p.Dst)
	}

	payload := buf[HeaderSize:]
	want := payloadWords(p.Type)
	if want == 0 {
		if len(payload) != 0 {
			return nil, errors.Wrapf(ErrUnexpectedPayload, "%v with %d bytes", p.Type, len(payload))
		}
		return p, nil
	}
	if len(payload) == 0 {
		return nil, errors.Wrapf(ErrEmptyPayload, "%v", p.Type)
	}
	if len(payload)%2 != 0 {
		return nil, errors.Wrapf(ErrOddPayload, "%d bytes", len(payload))
	}
	if len(payload)/2 != want {
		return nil, errors.Wrapf(ErrPayloadLength, "%v with %d words", p.Type, len(payload)/2)
	}

	p.Payload = make([]uint16, want)
	for i := range p.Payload {
		p.Payload[i] = binary.LittleEndian.Uint16(payload[2*i:])
	}
	return p, nil
}

// Decode frames buf and decodes its payload. A nil Message means MessageNone: the frame was
// rejected and must be dropped without any further action.
func Decode(buf []byte, local NodeAddr) Message {
	msg, _ := DecodeWithReason(buf, local)
	return msg
}

// DecodeWithReason is Decode, also returning why a frame was rejected.
func DecodeWithReason(buf []byte, local NodeAddr) (Message, error) {
	p, err := ParseFrame(buf, local)
	if err != nil {
		return nil, err
	}
	return p.Message(), nil
}

// Message decodes the payload of a validated packet into its message record.
func (p *Packet) Message() Message {
	hdr := Header{Dst: p.Dst, Src: p.Src}
	switch p.Type {
	case MessageData:
		return &DataMessage{Header: hdr, Reading: DecodeReading(p.Payload)}
	case MessageConfig:
		return &ConfigMessage{Header: hdr, Params: DecodeParams(p.Payload)}
	case MessageThresholds:
		return &ThresholdsMessage{Header: hdr, Thresholds: DecodeThresholds(p.Payload)}
	case MessageSendFail:
		return &SendFailMessage{Header: hdr}
	default:
		return nil
	}
}

// HexDump formats a frame for logs.
func HexDump(frame []byte) string {
	return hex.EncodeToString(frame)
}
