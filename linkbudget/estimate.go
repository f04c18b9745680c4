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

package linkbudget

import (
	"math"

	. "github.com/fieldmesh/fieldmesh/types"
)

// Sensitivity returns the receiver sensitivity in dBm for a spreading factor and bandwidth. Narrower
// bandwidths lower the noise floor and thereby improve sensitivity. Unknown spreading factors use the
// SF12 value.
func Sensitivity(sf int, bwHz float64) DbValue {
	base, ok := baseSensitivityDbm[sf]
	if !ok {
		base = baseSensitivityDbm[MaxSpreadingFactor]
	}
	return base - 10*math.Log10(ReferenceBandwidthHz/bwHz)
}

// LinkBudgetDb is the margin left between transmit power and sensitivity after the fixed margin.
func LinkBudgetDb(p RadioParams) DbValue {
	return DbValue(p.TxPowerDbm) - Sensitivity(p.SpreadingFactor, p.BandwidthHz) - FixedMarginDb
}

// CalculateRange estimates the range in meters that p can bridge, relative to a 1 km reference. Each
// coding rate step above 4/5 discounts the range by 5 %, for the longer airtime it costs.
func CalculateRange(p RadioParams) float64 {
	r := ReferenceRangeM * math.Pow(10, LinkBudgetDb(p)/40.0)
	return r * (1.0 - float64(p.CodingRate-MinCodingRate)*CodingRatePenalty)
}

// GroundLossDb is the extra propagation loss of an antenna mounted heightM above the ground.
func GroundLossDb(heightM float64) DbValue {
	switch {
	case heightM < 0.5:
		return 6.0
	case heightM < 1.0:
		return 3.0
	default:
		return 0.0
	}
}

// CalculateGroundRange is CalculateRange for an antenna heightM above ground, optionally a chip antenna.
func CalculateGroundRange(p RadioParams, heightM float64, chipAntenna bool) float64 {
	groundFactor := 1.0
	switch GroundLossDb(heightM) {
	case 6.0:
		groundFactor = 0.25
	case 3.0:
		groundFactor = 0.5
	}
	antennaFactor := 1.0
	if chipAntenna {
		antennaFactor = 0.4
	}
	return CalculateRange(p) * groundFactor * antennaFactor
}
