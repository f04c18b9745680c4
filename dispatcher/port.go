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
	"github.com/pkg/errors"

	"github.com/fieldmesh/fieldmesh/packet"
	. "github.com/fieldmesh/fieldmesh/types"
)

var (
	ErrNodeFailed     = errors.New("node radio is disabled")
	ErrRadioBusy      = errors.New("radio is transmitting")
	ErrNoFrameOpen    = errors.New("no frame begun")
	ErrNoFramePending = errors.New("no frame pending")
)

type rxFrame struct {
	data     []byte
	rssi     DbValue
	haveRssi bool
}

// Port is the byte-level radio of a simulated node. It implements node.Transport and
// node.RssiReporter on top of the dispatcher.
type Port struct {
	node     *Node
	maxRx    int
	tx       []byte
	txOpen   bool
	rx       []rxFrame
	rxPos    int
	lastRssi DbValue
	haveRssi bool
}

func newPort(node *Node, maxRx int) *Port {
	if maxRx <= 0 {
		maxRx = DefaultMaxRxQueue
	}
	return &Port{node: node, maxRx: maxRx}
}

// Configure retunes the radio. Changing the modulation in the middle of a transmission is refused.
func (p *Port) Configure(params RadioParams) error {
	if p.node.isFailed {
		return ErrNodeFailed
	}
	if p.node.IsTransmitting() {
		return ErrRadioBusy
	}
	p.node.radioNode.SetRadioParams(params)
	return nil
}

func (p *Port) BeginFrame() error {
	if p.node.isFailed {
		return ErrNodeFailed
	}
	if p.node.IsTransmitting() {
		return ErrRadioBusy
	}
	p.tx = p.tx[:0]
	p.txOpen = true
	return nil
}

func (p *Port) WriteByte(b byte) error {
	if !p.txOpen {
		return ErrNoFrameOpen
	}
	if len(p.tx) >= packet.MaxFrameSize {
		return errors.Wrapf(packet.ErrFrameTooLong, "port %v", p.node.Addr)
	}
	p.tx = append(p.tx, b)
	return nil
}

// EndFrame puts the written frame on the air.
func (p *Port) EndFrame() error {
	if !p.txOpen {
		return ErrNoFrameOpen
	}
	p.txOpen = false
	if p.node.isFailed {
		return ErrNodeFailed
	}
	data := make([]byte, len(p.tx))
	copy(data, p.tx)
	p.node.D.startTx(p.node, data)
	return nil
}

// PendingFrameSize returns the unread length of the oldest received frame.
func (p *Port) PendingFrameSize() int {
	if len(p.rx) == 0 {
		return 0
	}
	return len(p.rx[0].data) - p.rxPos
}

func (p *Port) ReadByte() (byte, error) {
	if len(p.rx) == 0 {
		return 0, ErrNoFramePending
	}
	f := &p.rx[0]
	if p.rxPos == 0 {
		p.lastRssi, p.haveRssi = f.rssi, f.haveRssi
	}
	b := f.data[p.rxPos]
	p.rxPos++
	if p.rxPos == len(f.data) {
		p.rx = p.rx[1:]
		p.rxPos = 0
	}
	return b, nil
}

// LastRssi returns the signal strength of the frame being read or last read.
func (p *Port) LastRssi() (DbValue, bool) {
	return p.lastRssi, p.haveRssi
}

// PendingFrames returns the number of received frames not completely read.
func (p *Port) PendingFrames() int {
	return len(p.rx)
}

// deliver queues a received frame. When the queue is full the oldest unread frame is dropped.
func (p *Port) deliver(data []byte, rssi DbValue, haveRssi bool) {
	if len(p.rx) >= p.maxRx {
		p.rx = p.rx[1:]
		p.rxPos = 0
		p.node.PhyStats.RxOverflow++
	}
	p.rx = append(p.rx, rxFrame{data: data, rssi: rssi, haveRssi: haveRssi})
}

func (p *Port) flush() {
	p.rx = nil
	p.rxPos = 0
	p.tx = p.tx[:0]
	p.txOpen = false
}
