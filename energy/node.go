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

package energy

import (
	"github.com/fieldmesh/fieldmesh/logger"
	. "github.com/fieldmesh/fieldmesh/types"
)

type NodeEnergy struct {
	addr  NodeAddr
	radio RadioStatus
}

func (node *NodeEnergy) ComputeRadioState(timestamp uint64) {
	delta := timestamp - node.radio.Timestamp
	switch node.radio.State {
	case RadioDisabled:
		node.radio.SpentDisabled += delta
	case RadioSleep:
		node.radio.SpentSleep += delta
	case RadioTx:
		node.radio.SpentTx += delta
		node.radio.TxEnergyMj += float64(delta) * currentToKw(TxCurrentMa(node.radio.TxPowerDbm))
	case RadioRx:
		node.radio.SpentRx += delta
	default:
		logger.Panicf("unknown radio state: %v", node.radio.State)
	}
	node.radio.Timestamp = timestamp
}

// SetRadioState accounts the time spent in the previous state and enters state. txPowerDbm is only
// used for RadioTx.
func (node *NodeEnergy) SetRadioState(state RadioStates, txPowerDbm int, timestamp uint64) {
	node.ComputeRadioState(timestamp)
	node.radio.State = state
	node.radio.TxPowerDbm = txPowerDbm
}

func (node *NodeEnergy) State() RadioStates {
	return node.radio.State
}

// Report returns the energy spent up to the last accounted timestamp.
func (node *NodeEnergy) Report() NodeEnergyReport {
	return NodeEnergyReport{
		Addr:     node.addr,
		Disabled: float64(node.radio.SpentDisabled) * currentToKw(DisabledCurrentMa),
		Sleep:    float64(node.radio.SpentSleep) * currentToKw(SleepCurrentMa),
		Tx:       node.radio.TxEnergyMj,
		Rx:       float64(node.radio.SpentRx) * currentToKw(RxCurrentMa),
	}
}

func newNode(addr NodeAddr, timestamp uint64) *NodeEnergy {
	return &NodeEnergy{
		addr: addr,
		radio: RadioStatus{
			State:     RadioRx,
			Timestamp: timestamp,
		},
	}
}
