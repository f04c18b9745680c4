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

package packet

import (
	"fmt"

	. "github.com/fieldmesh/fieldmesh/types"
)

// Header holds the addresses of a decoded message.
type Header struct {
	Dst NodeAddr
	Src NodeAddr
}

// Message is a decoded frame. The set of implementations is closed: *DataMessage, *ConfigMessage,
// *ThresholdsMessage and *SendFailMessage.
type Message interface {
	Type() MessageType
	Addr() Header
	// Packet builds the wire packet carrying this message.
	Packet() *Packet
	fmt.Stringer

	isMessage()
}

// TypeOf returns the message type of msg, MessageNone for a nil message.
func TypeOf(msg Message) MessageType {
	if msg == nil {
		return MessageNone
	}
	return msg.Type()
}

type DataMessage struct {
	Header
	Reading SensorReading
}

type ConfigMessage struct {
	Header
	Params RadioParams
}

type ThresholdsMessage struct {
	Header
	Thresholds Thresholds
}

type SendFailMessage struct {
	Header
}

func (h Header) Addr() Header { return h }

func (*DataMessage) Type() MessageType       { return MessageData }
func (*ConfigMessage) Type() MessageType     { return MessageConfig }
func (*ThresholdsMessage) Type() MessageType { return MessageThresholds }
func (*SendFailMessage) Type() MessageType   { return MessageSendFail }

func (*DataMessage) isMessage()       {}
func (*ConfigMessage) isMessage()     {}
func (*ThresholdsMessage) isMessage() {}
func (*SendFailMessage) isMessage()   {}

func (m *DataMessage) Packet() *Packet {
	return &Packet{Type: MessageData, Dst: m.Dst, Src: m.Src, Payload: EncodeReading(m.Reading)}
}

func (m *ConfigMessage) Packet() *Packet {
	return &Packet{Type: MessageConfig, Dst: m.Dst, Src: m.Src, Payload: EncodeParams(m.Params)}
}

func (m *ThresholdsMessage) Packet() *Packet {
	return &Packet{Type: MessageThresholds, Dst: m.Dst, Src: m.Src, Payload: EncodeThresholds(m.Thresholds)}
}

func (m *SendFailMessage) Packet() *Packet {
	return &Packet{Type: MessageSendFail, Dst: m.Dst, Src: m.Src}
}

func (m *DataMessage) String() string {
	return fmt.Sprintf("Data{%v->%v %v}", m.Src, m.Dst, m.Reading)
}

func (m *ConfigMessage) String() string {
	return fmt.Sprintf("Config{%v->%v %v}", m.Src, m.Dst, m.Params)
}

func (m *ThresholdsMessage) String() string {
	return fmt.Sprintf("Thresholds{%v->%v %v}", m.Src, m.Dst, m.Thresholds)
}

func (m *SendFailMessage) String() string {
	return fmt.Sprintf("SendFail{%v->%v}", m.Src, m.Dst)
}
