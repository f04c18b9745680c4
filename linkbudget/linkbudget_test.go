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
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	. "github.com/fieldmesh/fieldmesh/types"
)

func TestDefaults(t *testing.T) {
	pl := NewPlanner()
	p := pl.Params()
	assert.Equal(t, 433e6, p.FrequencyHz)
	assert.Equal(t, 7, p.SpreadingFactor)
	assert.Equal(t, 125e3, p.BandwidthHz)
	assert.Equal(t, 5, p.CodingRate)
	assert.Equal(t, 17, p.TxPowerDbm)
	assert.Equal(t, uint8(0x34), p.SyncWord)
	assert.Equal(t, 8, p.PreambleLength)
	assert.True(t, p.CRC)
	assert.NoError(t, ValidateParams(p))
	assert.NoError(t, ValidateThresholds(pl.Thresholds()))
}

func TestSetParamsRejectsInvalid(t *testing.T) {
	pl := NewPlanner()
	before := pl.Params()

	bad := []func(p *RadioParams){
		func(p *RadioParams) { p.FrequencyHz = 915e6 },
		func(p *RadioParams) { p.SpreadingFactor = 5 },
		func(p *RadioParams) { p.SpreadingFactor = 13 },
		func(p *RadioParams) { p.BandwidthHz = 100e3 },
		func(p *RadioParams) { p.CodingRate = 4 },
		func(p *RadioParams) { p.CodingRate = 9 },
		func(p *RadioParams) { p.TxPowerDbm = 1 },
		func(p *RadioParams) { p.TxPowerDbm = 21 },
		func(p *RadioParams) { p.PreambleLength = 5 },
	}
	for i, mutate := range bad {
		p := DefaultParams()
		mutate(&p)
		assert.False(t, pl.SetParams(p), "case %d", i)
		assert.Equal(t, before, pl.Params(), "case %d", i)
		assert.True(t, errors.Is(pl.TrySetParams(p), ErrInvalidParams), "case %d", i)
	}
}

func TestSetParamsAccepts(t *testing.T) {
	pl := NewPlanner()
	p := DefaultParams()
	p.FrequencyHz = 866e6
	p.SpreadingFactor = 12
	p.BandwidthHz = 62.5e3
	p.CodingRate = 8
	p.TxPowerDbm = 20
	assert.True(t, pl.SetParams(p))
	assert.Equal(t, p, pl.Params())

	pl.ResetToDefaults()
	assert.Equal(t, DefaultParams(), pl.Params())
}

func TestSetThresholds(t *testing.T) {
	pl := NewPlanner()
	good := Thresholds{LowTempC: -10, HighTempC: 50, LowHumidityPct: 0, HighHumidityPct: 100, LowSoil: 0, HighSoil: 1023}
	assert.True(t, pl.SetThresholds(good))
	assert.Equal(t, good, pl.Thresholds())

	bad := []Thresholds{
		{LowTempC: 35, HighTempC: 5, LowHumidityPct: 30, HighHumidityPct: 80, LowSoil: 200, HighSoil: 800},
		{LowTempC: 5, HighTempC: 5, LowHumidityPct: 30, HighHumidityPct: 80, LowSoil: 200, HighSoil: 800},
		{LowTempC: 5, HighTempC: 35, LowHumidityPct: 80, HighHumidityPct: 30, LowSoil: 200, HighSoil: 800},
		{LowTempC: 5, HighTempC: 35, LowHumidityPct: -1, HighHumidityPct: 80, LowSoil: 200, HighSoil: 800},
		{LowTempC: 5, HighTempC: 35, LowHumidityPct: 30, HighHumidityPct: 101, LowSoil: 200, HighSoil: 800},
		{LowTempC: 5, HighTempC: 35, LowHumidityPct: 30, HighHumidityPct: 80, LowSoil: 800, HighSoil: 200},
		{LowTempC: 5, HighTempC: 35, LowHumidityPct: 30, HighHumidityPct: 80, LowSoil: 200, HighSoil: 1024},
		{LowTempC: math.NaN(), HighTempC: 35, LowHumidityPct: 30, HighHumidityPct: 80, LowSoil: 200, HighSoil: 800},
		{LowTempC: 5, HighTempC: math.NaN(), LowHumidityPct: 30, HighHumidityPct: 80, LowSoil: 200, HighSoil: 800},
		{LowTempC: 5, HighTempC: 35, LowHumidityPct: math.NaN(), HighHumidityPct: 80, LowSoil: 200, HighSoil: 800},
		{LowTempC: 5, HighTempC: 35, LowHumidityPct: 30, HighHumidityPct: math.NaN(), LowSoil: 200, HighSoil: 800},
		{LowTempC: 5, HighTempC: 35, LowHumidityPct: 30, HighHumidityPct: 80, LowSoil: math.NaN(), HighSoil: 800},
		{LowTempC: 5, HighTempC: 35, LowHumidityPct: 30, HighHumidityPct: 80, LowSoil: 200, HighSoil: math.NaN()},
		{LowTempC: -40.1, HighTempC: 35, LowHumidityPct: 30, HighHumidityPct: 80, LowSoil: 200, HighSoil: 800},
		{LowTempC: 5, HighTempC: 164.8, LowHumidityPct: 30, HighHumidityPct: 80, LowSoil: 200, HighSoil: 800},
	}
	edge := Thresholds{LowTempC: MinThresholdTempC, HighTempC: MaxThresholdTempC, LowHumidityPct: 0,
		HighHumidityPct: 100, LowSoil: 0, HighSoil: 1023}
	assert.NoError(t, ValidateThresholds(edge))

	for i, th := range bad {
		assert.False(t, pl.SetThresholds(th), "case %d", i)
		assert.Equal(t, good, pl.Thresholds(), "case %d", i)
		assert.True(t, errors.Is(ValidateThresholds(th), ErrInvalidThresholds), "case %d", i)
	}
}

func TestCalculateRangeDefaults(t *testing.T) {
	assert.InDelta(t, 1059253.7, CalculateRange(DefaultParams()), 1.0)
}

func TestSensitivityBandwidth(t *testing.T) {
	assert.InDelta(t, -124.0, Sensitivity(7, 125e3), 1e-9)
	// halving the bandwidth gains about 3 dB
	assert.InDelta(t, -127.01, Sensitivity(7, 62.5e3), 0.01)
	assert.InDelta(t, -120.99, Sensitivity(7, 250e3), 0.01)
	assert.Equal(t, Sensitivity(12, 125e3), Sensitivity(42, 125e3))
}

func TestCodingRateShortensRange(t *testing.T) {
	p := DefaultParams()
	r5 := CalculateRange(p)
	p.CodingRate = 8
	assert.InDelta(t, r5*0.85, CalculateRange(p), 1e-6)
}

func TestOptimalParamsMonotone(t *testing.T) {
	pl := NewPlanner()
	prev := 0.0
	for r := 0.0; r <= 5000; r += 5 {
		p := pl.OptimalParamsForRange(r)
		assert.NoError(t, ValidateParams(p), "range %v", r)
		est := CalculateRange(p)
		assert.GreaterOrEqual(t, est, prev, "range %v", r)
		prev = est
	}
}

func TestOptimalParamsKeepsChannelFields(t *testing.T) {
	pl := NewPlanner()
	p := DefaultParams()
	p.FrequencyHz = 867e6
	p.SyncWord = 0x12
	p.CRC = false
	assert.True(t, pl.SetParams(p))

	o := pl.OptimalParamsForRange(500)
	assert.Equal(t, 867e6, o.FrequencyHz)
	assert.Equal(t, uint8(0x12), o.SyncWord)
	assert.False(t, o.CRC)
	assert.Equal(t, 9, o.SpreadingFactor)

	far := pl.OptimalParamsForRange(math.MaxFloat64)
	assert.Equal(t, 12, far.SpreadingFactor)
	assert.Equal(t, 62.5e3, far.BandwidthHz)
	assert.Equal(t, 20, far.TxPowerDbm)
}

func TestSendFailRangeGrowth(t *testing.T) {
	pl := NewPlanner()
	rng := DefaultRange * 1.1
	assert.InDelta(t, 33.0, rng, 1e-9)
	assert.True(t, pl.SetParams(pl.OptimalParamsForRange(rng)))

	p := pl.Params()
	assert.Equal(t, 6, p.SpreadingFactor)
	assert.Equal(t, 250e3, p.BandwidthHz)
	assert.Equal(t, 2, p.TxPowerDbm)
	assert.Equal(t, 6, p.PreambleLength)
}

func TestGroundLevelConfig(t *testing.T) {
	pl := NewPlanner()

	p := pl.GroundLevelConfig(40, 0.7)
	assert.Equal(t, 7, p.SpreadingFactor)
	assert.Equal(t, 5, p.TxPowerDbm)

	p = pl.GroundLevelConfig(40, 0.2)
	assert.Equal(t, 8, p.TxPowerDbm)

	p = pl.GroundLevelConfig(40, 1.5)
	assert.Equal(t, 2, p.TxPowerDbm)

	p = pl.GroundLevelConfig(110, 0.7)
	assert.Equal(t, 8, p.SpreadingFactor)
	assert.Equal(t, 12, p.PreambleLength)

	assert.Equal(t, pl.OptimalParamsForRange(500), pl.GroundLevelConfig(500, 0.7))
}

func TestCalculateGroundRange(t *testing.T) {
	p := DefaultParams()
	base := CalculateRange(p)
	assert.InDelta(t, base, CalculateGroundRange(p, 2.0, false), 1e-6)
	assert.InDelta(t, base*0.5, CalculateGroundRange(p, 0.7, false), 1e-6)
	assert.InDelta(t, base*0.25*0.4, CalculateGroundRange(p, 0.3, true), 1e-6)
	assert.Equal(t, DbValue(6), GroundLossDb(0.1))
}

func TestTimeOnAir(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 1024*time.Microsecond, SymbolTime(p))
	assert.Equal(t, 36096*time.Microsecond, TimeOnAir(p, 7))
	assert.False(t, NeedsLowDataRateOptimize(p))

	p.SpreadingFactor = 12
	assert.True(t, NeedsLowDataRateOptimize(p))
	assert.InDelta(t, 0.991232, TimeOnAir(p, 7).Seconds(), 1e-6)

	assert.Greater(t, int64(TimeOnAir(p, 13)), int64(TimeOnAir(p, 7)))
}

func TestPlannerConcurrentAccess(t *testing.T) {
	pl := NewPlanner()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				pl.SetParams(pl.OptimalParamsForRange(float64(i*100 + j)))
				assert.NoError(t, ValidateParams(pl.Params()))
			}
		}(i)
	}
	wg.Wait()
}
