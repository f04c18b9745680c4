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

package dispatcher

import (
	. "github.com/fieldmesh/fieldmesh/types"
)

// CallbackHandler is notified by the dispatcher goroutine of events that concern the node protocol.
type CallbackHandler interface {
	// OnAlarm notifies that the periodic send alarm of a node fired.
	OnAlarm(addr NodeAddr)

	// OnFrameReceived notifies that a frame was queued at the port of a node.
	OnFrameReceived(addr NodeAddr)

	OnNodeFail(addr NodeAddr)
	OnNodeRecover(addr NodeAddr)
}

// PhyStats counts the radio activity of one node.
type PhyStats struct {
	TxFrames      uint64 `yaml:"tx"`
	TxBytes       uint64 `yaml:"tx-bytes"`
	TxAirtimeUs   uint64 `yaml:"tx-airtime-us"`
	RxFrames      uint64 `yaml:"rx"`
	RxWeak        uint64 `yaml:"rx-weak"`
	RxCollisions  uint64 `yaml:"rx-collisions"`
	RxHalfDuplex  uint64 `yaml:"rx-half-duplex"`
	RxLost        uint64 `yaml:"rx-lost"`
	RxOverflow    uint64 `yaml:"rx-overflow"`
	SendFailsRcvd uint64 `yaml:"sendfails"`
}

func (s PhyStats) Minus(other PhyStats) PhyStats {
	return PhyStats{
		TxFrames:      s.TxFrames - other.TxFrames,
		TxBytes:       s.TxBytes - other.TxBytes,
		TxAirtimeUs:   s.TxAirtimeUs - other.TxAirtimeUs,
		RxFrames:      s.RxFrames - other.RxFrames,
		RxWeak:        s.RxWeak - other.RxWeak,
		RxCollisions:  s.RxCollisions - other.RxCollisions,
		RxHalfDuplex:  s.RxHalfDuplex - other.RxHalfDuplex,
		RxLost:        s.RxLost - other.RxLost,
		RxOverflow:    s.RxOverflow - other.RxOverflow,
		SendFailsRcvd: s.SendFailsRcvd - other.SendFailsRcvd,
	}
}

// NodeStats summarizes the nodes of the network.
type NodeStats struct {
	NumNodes        int `yaml:"nodes"`
	NumGateways     int `yaml:"gateways"`
	NumFailed       int `yaml:"failed"`
	NumTransmitting int `yaml:"transmitting"`
}

func min(t1 uint64, t2 uint64) uint64 {
	if t1 <= t2 {
		return t1
	}
	return t2
}
