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

// Link model constants
const (
	ReferenceBandwidthHz         = 125e3
	ReferenceRangeM              = 1000.0
	FixedMarginDb        DbValue = 20.0
	CodingRatePenalty            = 0.05 // range fraction lost per coding rate step above 4/5
	ChipAntennaLossDb    DbValue = 4.0
	nominalGroundLossDb  DbValue = 3.0 // ground loss assumed by the ground-level table
)

// SupportedFrequenciesHz are the carrier frequencies accepted by validation: the 433 MHz ISM band
// channels and the 865-867 MHz India band channels.
var SupportedFrequenciesHz = []float64{433e6, 434e6, 435e6, 865e6, 866e6, 867e6}

// baseSensitivityDbm is the receiver sensitivity at 125 kHz per spreading factor (SX127x datasheet).
var baseSensitivityDbm = map[int]DbValue{
	6:  -118.0,
	7:  -124.0,
	8:  -127.0,
	9:  -130.0,
	10: -133.0,
	11: -135.5,
	12: -137.0,
}

// rangeBand fixes a modem setting for all requested ranges up to maxRangeM.
type rangeBand struct {
	maxRangeM  float64
	sf         int
	bwHz       float64
	txPowerDbm int
	cr         int
	preamble   int
}

func (b rangeBand) apply(p RadioParams) RadioParams {
	p.SpreadingFactor = b.sf
	p.BandwidthHz = b.bwHz
	p.TxPowerDbm = b.txPowerDbm
	p.CodingRate = b.cr
	p.PreambleLength = b.preamble
	return p
}

// optimalBands trades data rate for range. Each band's CalculateRange estimate is at least the
// estimate of the band before it.
var optimalBands = []rangeBand{
	{50, 6, 250e3, 2, 5, 6},
	{100, 7, 250e3, 2, 5, 6},
	{120, 7, 125e3, 2, 5, 6},
	{200, 7, 125e3, 10, 5, 8},
	{400, 8, 125e3, 14, 5, 8},
	{600, 9, 125e3, 17, 5, 8},
	{1000, 10, 125e3, 17, 6, 12},
	{2000, 11, 62.5e3, 20, 6, 16},
	{math.Inf(1), 12, 62.5e3, 20, 7, 20},
}

// groundBands cover short ranges of nodes close to the ground with a chip antenna. Longer ranges use
// optimalBands.
var groundBands = []rangeBand{
	{50, 7, 125e3, 5, 5, 8},
	{100, 8, 125e3, 8, 5, 8},
	{120, 8, 125e3, 10, 5, 12},
}

func findBand(bands []rangeBand, rangeM float64) (rangeBand, bool) {
	for _, b := range bands {
		if rangeM <= b.maxRangeM {
			return b, true
		}
	}
	return rangeBand{}, false
}
