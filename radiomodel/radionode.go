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

package radiomodel

import (
	"math"

	"github.com/fieldmesh/fieldmesh/linkbudget"
	. "github.com/fieldmesh/fieldmesh/types"
)

// RadioNode is the status of a single radio node of the radio model, used by all radio models.
type RadioNode struct {
	Addr NodeAddr

	// TxPower contains the Tx power of the active radio parameters.
	TxPower DbValue

	// RxSensitivity contains the Rx sensitivity in dBm for the active radio parameters.
	RxSensitivity DbValue

	// RadioRange is the operating range of the node, used by disc-limited models.
	RadioRange float64

	// RadioState is the current radio's state; RadioTx only when physically transmitting.
	RadioState RadioStates

	// Params are the active modem parameters (channel, SF, bandwidth, sync word).
	Params RadioParams

	// Node position in units.
	X, Y float64

	HeightM     float64
	ChipAntenna bool

	// MultiSF receivers (gateways) demodulate every spreading factor and bandwidth of their frequency.
	MultiSF bool
}

type RadioNodeConfig struct {
	X, Y        float64
	HeightM     float64
	ChipAntenna bool
	MultiSF     bool
	RadioRange  float64
	Params      RadioParams
}

func NewRadioNode(addr NodeAddr, cfg *RadioNodeConfig) *RadioNode {
	rn := &RadioNode{
		Addr:        addr,
		X:           cfg.X,
		Y:           cfg.Y,
		HeightM:     cfg.HeightM,
		ChipAntenna: cfg.ChipAntenna,
		MultiSF:     cfg.MultiSF,
		RadioRange:  cfg.RadioRange,
		RadioState:  RadioRx,
	}
	rn.SetRadioParams(cfg.Params)
	return rn
}

// SetRadioParams applies modem parameters, deriving Tx power and sensitivity.
func (rn *RadioNode) SetRadioParams(p RadioParams) {
	rn.Params = p
	rn.TxPower = DbValue(p.TxPowerDbm)
	rn.RxSensitivity = linkbudget.Sensitivity(p.SpreadingFactor, p.BandwidthHz)
}

// CanHear returns true if rn is tuned to the modulation src transmits with.
func (rn *RadioNode) CanHear(src *RadioNode) bool {
	if rn.MultiSF {
		return rn.Params.FrequencyHz == src.Params.FrequencyHz && rn.Params.SyncWord == src.Params.SyncWord &&
			rn.Params.InvertIQ == src.Params.InvertIQ
	}
	return rn.Params.SameChannel(src.Params)
}

// SensitivityFor returns the sensitivity of rn for frames modulated like those of src.
func (rn *RadioNode) SensitivityFor(src *RadioNode) DbValue {
	if rn.MultiSF {
		return linkbudget.Sensitivity(src.Params.SpreadingFactor, src.Params.BandwidthHz)
	}
	return rn.RxSensitivity
}

func (rn *RadioNode) SetRadioState(state RadioStates) {
	rn.RadioState = state
}

func (rn *RadioNode) SetNodePos(x, y float64) {
	rn.X, rn.Y = x, y
}

// GetDistanceTo gets the distance to another RadioNode (in units).
func (rn *RadioNode) GetDistanceTo(other *RadioNode) (dist float64) {
	dx := other.X - rn.X
	dy := other.Y - rn.Y
	dist = math.Sqrt(dx*dx + dy*dy)
	return
}
