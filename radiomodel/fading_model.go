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
	"math/rand"

	"github.com/fieldmesh/fieldmesh/logger"
	. "github.com/fieldmesh/fieldmesh/types"
)

const (
	initialCacheSize = 10000
	maxCacheSize     = 5000000
)

type fadingModel struct {
	rndSeed          int64
	rnd              *rand.Rand
	ts               uint64
	shFadeMap        map[int64]DbValue
	tvFadeMap        map[int64]DbValue
	tvFadeSigmaMap   map[int64]DbValue
	changeTvfTimeMap map[int64]uint64
}

func newFadingModel(seed int64) *fadingModel {
	sf := &fadingModel{
		rndSeed:          seed,
		rnd:              rand.New(rand.NewSource(seed)),
		ts:               0,
		shFadeMap:        make(map[int64]DbValue, initialCacheSize),
		tvFadeSigmaMap:   make(map[int64]DbValue, initialCacheSize),
		tvFadeMap:        make(map[int64]DbValue, initialCacheSize),
		changeTvfTimeMap: make(map[int64]uint64, initialCacheSize),
	}
	return sf
}

// computeFading calculates shadow fading (SF) and time-variant fading (TVF) in dB for a radio link.
//
// SF is a fixed, position-dependent attenuation (SF>0) or gain (SF<0) from terrain, crops and other
// static obstacles, normally distributed in the dB domain (mu=0, sigma). The link is symmetric.
// TVF is redrawn at exponentially distributed intervals, with a per-link sigma.
func (sf *fadingModel) computeFading(src *RadioNode, dst *RadioNode, params *RadioModelParams) DbValue {
	// each unique (src,dst) link gets a unique random seed
	seed := sf.rndSeed + calcLinkUID(src, dst, params.MeterPerUnit)

	var vSF, vTVF float64
	if v, ok := sf.shFadeMap[seed]; ok { // look up if that seed (radio link) was already precomputed.
		vSF = v
		vTVF = sf.tvFadeMap[seed]
		if sf.ts > sf.changeTvfTimeMap[seed] { // TVF dB may require occassional regeneration (randomly)
			sigmaTVF := sf.tvFadeSigmaMap[seed]
			vTVF = sf.rnd.NormFloat64() * sigmaTVF
			sf.tvFadeMap[seed] = vTVF
			nextChangeDeltaSec := sf.rnd.ExpFloat64() * params.MeanTimeFadingChange
			sf.changeTvfTimeMap[seed] = sf.ts + uint64(nextChangeDeltaSec*1e6) // pick next change time.
		}
	} else { // if not, compute the values
		rndSource := rand.NewSource(seed)
		rnd := rand.New(rndSource)

		// draw a single (reproducible) random number based on the link's unique seed, and store it.
		vSF = rnd.NormFloat64() * params.ShadowFadingSigmaDb
		sf.shFadeMap[seed] = vSF

		// draw a second number (reproducible) for sigma and store it.
		sigmaTVF := rnd.Float64() * params.TimeFadingSigmaMaxDb
		sf.tvFadeSigmaMap[seed] = sigmaTVF

		vTVF = sf.rnd.NormFloat64() * sigmaTVF
		sf.tvFadeMap[seed] = vTVF
		nextChangeDeltaSec := sf.rnd.ExpFloat64() * params.MeanTimeFadingChange
		sf.changeTvfTimeMap[seed] = sf.ts + uint64(nextChangeDeltaSec*1e6) // pick next change time.
	}

	return vSF + vTVF
}

func (sf *fadingModel) onAdvanceTime(ts uint64) {
	// if storage gets too big, purge it - items will be recomputed (and thus slow down the simulation a bit)
	// this normally would only happen with long simulations with moving nodes.
	if len(sf.shFadeMap) > maxCacheSize {
		sf.clearCaches()
	}
	sf.ts = ts
}

func (sf *fadingModel) clearCaches() {
	logger.Debugf("radio fading model: purging caches")
	sf.shFadeMap = make(map[int64]DbValue, initialCacheSize)
	sf.tvFadeSigmaMap = make(map[int64]DbValue, initialCacheSize)
	sf.tvFadeMap = make(map[int64]DbValue, initialCacheSize)
	sf.changeTvfTimeMap = make(map[int64]uint64, initialCacheSize)
}

func calcLinkUID(src *RadioNode, dst *RadioNode, meterPerUnit float64) int64 {
	// node positions in grid cells of 5 m, offset to the uint16 range
	x1 := uint16(math.Round(src.X*meterPerUnit*0.2) + 32768)
	y1 := uint16(math.Round(src.Y*meterPerUnit*0.2) + 32768)
	x2 := uint16(math.Round(dst.X*meterPerUnit*0.2) + 32768)
	y2 := uint16(math.Round(dst.Y*meterPerUnit*0.2) + 32768)
	xL, yL, xR, yR := x2, y2, x1, y1

	// order the ends so that reversing the link gives the same uid
	if x1 < x2 || (x1 == x2 && y1 < y2) {
		xL, yL, xR, yR = x1, y1, x2, y2
	}
	return int64(xL) + int64(yL)<<16 + int64(xR)<<32 + int64(yR)<<48
}
