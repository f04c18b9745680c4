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
	. "github.com/fieldmesh/fieldmesh/types"
)

// RadioModelIdeal delivers every frame to the receivers on the same channel within the operating range
// of the sender. There is no fading.
type RadioModelIdeal struct {
	Name string

	// FixedRssi is the RSSI reported for every delivered frame unless UseVariableRssi is set.
	FixedRssi DbValue

	// UseVariableRssi computes the RSSI with free space path loss instead.
	UseVariableRssi bool

	params *RadioModelParams
}

func (rm *RadioModelIdeal) GetName() string {
	return rm.Name
}

func (rm *RadioModelIdeal) GetParameters() *RadioModelParams {
	return rm.params
}

func (rm *RadioModelIdeal) CheckRadioReachable(src *RadioNode, dst *RadioNode, rssi DbValue) bool {
	if src == dst || dst.RadioState != RadioRx || !dst.CanHear(src) {
		return false
	}
	return src.GetDistanceTo(dst)*rm.params.MeterPerUnit <= src.RadioRange
}

func (rm *RadioModelIdeal) GetTxRssi(src *RadioNode, dst *RadioNode) DbValue {
	if !rm.UseVariableRssi {
		return rm.FixedRssi
	}
	p := *rm.params
	p.ExponentDb = 20.0
	p.ExtraLossDb = 0.0
	return computeLogDistanceRssi(src.GetDistanceTo(dst), src.Params.FrequencyHz, src.TxPower, &p)
}

func (rm *RadioModelIdeal) OnAdvanceTime(ts uint64) {
}
