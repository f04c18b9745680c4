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

package types

import (
	"fmt"

	"github.com/simonlingoogle/go-simplelogger"
)

// NodeAddr is the one-byte link address carried in every frame header.
type NodeAddr uint8

const (
	InvalidAddr   NodeAddr = 0x00
	BroadcastAddr NodeAddr = 0xFF
)

func (a NodeAddr) String() string {
	return fmt.Sprintf("0x%02x", uint8(a))
}

// MessageType is the first byte of a frame. MessageNone never appears on the wire, it marks a frame
// that could not be decoded.
type MessageType uint8

const (
	MessageNone       MessageType = 0
	MessageData       MessageType = 1
	MessageConfig     MessageType = 2
	MessageThresholds MessageType = 3
	MessageSendFail   MessageType = 4
)

// IsWireType returns true for the message types that are valid in a frame's type byte.
func (t MessageType) IsWireType() bool {
	return t >= MessageData && t <= MessageSendFail
}

func (t MessageType) String() string {
	switch t {
	case MessageNone:
		return "none"
	case MessageData:
		return "data"
	case MessageConfig:
		return "config"
	case MessageThresholds:
		return "thresholds"
	case MessageSendFail:
		return "sendfail"
	default:
		simplelogger.Panicf("invalid message type: %d", uint8(t))
		return "invalid"
	}
}

type RadioStates byte

const (
	RadioDisabled RadioStates = 0
	RadioSleep    RadioStates = 1
	RadioRx       RadioStates = 2
	RadioTx       RadioStates = 3
)

func (s RadioStates) String() string {
	switch s {
	case RadioDisabled:
		return "Off"
	case RadioSleep:
		return "Slp"
	case RadioRx:
		return "Rx_"
	case RadioTx:
		return "Tx_"
	default:
		simplelogger.Panicf("invalid RadioState: %v", byte(s))
		return "invalid"
	}
}

// DbValue is a value in dB or dBm.
type DbValue = float64

// Ever is the 'infinite' timestamp, in us.
const Ever uint64 = 1<<63 - 1
