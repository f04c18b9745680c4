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

// fsplAt1mDb returns the free space path loss at 1 m distance for a carrier frequency.
func fsplAt1mDb(freqHz float64) DbValue {
	return 20.0*math.Log10(freqHz/1e6) - 27.55
}

// computeLogDistanceRssi computes the RSSI for a receiver at distance dist (units), using a log-distance
// model anchored at the free space loss at 1 m.
func computeLogDistanceRssi(dist float64, freqHz float64, txPower DbValue, modelParams *RadioModelParams) DbValue {
	distMeters := math.Max(dist*modelParams.MeterPerUnit, 1.0)
	pathloss := fsplAt1mDb(freqHz) + modelParams.ExponentDb*math.Log10(distMeters) + modelParams.ExtraLossDb
	return txPower - pathloss
}

// antennaLossDb is the loss a node's mounting adds to every link it is an end of.
func antennaLossDb(node *RadioNode) DbValue {
	loss := linkbudget.GroundLossDb(node.HeightM)
	if node.ChipAntenna {
		loss += linkbudget.ChipAntennaLossDb
	}
	return loss
}
