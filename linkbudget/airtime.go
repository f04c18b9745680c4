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
	"time"

	. "github.com/fieldmesh/fieldmesh/types"
)

// ldroSymbolTime is the symbol duration from which low data rate optimisation is mandatory.
const ldroSymbolTime = 16 * time.Millisecond

// SymbolTime returns the LoRa symbol duration 2^SF / BW.
func SymbolTime(p RadioParams) time.Duration {
	if p.BandwidthHz <= 0 {
		return 0
	}
	return time.Duration(float64(int64(1)<<uint(p.SpreadingFactor)) / p.BandwidthHz * float64(time.Second))
}

// NeedsLowDataRateOptimize returns true if p is slow enough to require LDRO.
func NeedsLowDataRateOptimize(p RadioParams) bool {
	return SymbolTime(p) >= ldroSymbolTime
}

// TimeOnAir returns the airtime of a frame of payloadLen bytes sent with p, explicit header mode
// (SX1276 datasheet, section 4.1.1.7).
func TimeOnAir(p RadioParams, payloadLen int) time.Duration {
	ts := SymbolTime(p)
	if ts == 0 {
		return 0
	}
	sf := float64(p.SpreadingFactor)
	crc := 0.0
	if p.CRC {
		crc = 1
	}
	de := 0.0
	if p.LowDataRateOptimize || NeedsLowDataRateOptimize(p) {
		de = 1
	}
	num := 8*float64(payloadLen) - 4*sf + 28 + 16*crc
	nPayload := 8.0
	if div := 4 * (sf - 2*de); num > 0 && div > 0 {
		nPayload += math.Ceil(num/div) * float64(p.CodingRate)
	}
	nSymbols := float64(p.PreambleLength) + 4.25 + nPayload
	return time.Duration(nSymbols * float64(ts))
}
