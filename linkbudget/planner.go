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

// Package linkbudget owns the active radio parameters and alert thresholds of a node, derives radio
// parameters from a requested range and estimates the range achievable with a parameter set.
package linkbudget

import (
	"sync"

	. "github.com/fieldmesh/fieldmesh/types"
)

// DefaultParams returns the power-on radio parameters.
func DefaultParams() RadioParams {
	return RadioParams{
		TxPowerDbm:      17,
		SpreadingFactor: 7,
		BandwidthHz:     125e3,
		CodingRate:      5,
		SyncWord:        0x34,
		PreambleLength:  8,
		FrequencyHz:     433e6,
		CRC:             true,
	}
}

// DefaultThresholds returns the power-on alert thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowTempC:        5,
		HighTempC:       35,
		LowHumidityPct:  30,
		HighHumidityPct: 80,
		LowSoil:         200,
		HighSoil:        800,
	}
}

// Planner holds the active radio parameters and thresholds of one node. Each set is replaced as a
// whole, so that a concurrent reader never observes a partly updated set.
type Planner struct {
	mu         sync.RWMutex
	params     RadioParams
	thresholds Thresholds
}

func NewPlanner() *Planner {
	return &Planner{
		params:     DefaultParams(),
		thresholds: DefaultThresholds(),
	}
}

// NewPlannerWithParams creates a planner with initial params instead of the defaults. It returns an
// error if params are invalid.
func NewPlannerWithParams(params RadioParams) (*Planner, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	pl := NewPlanner()
	pl.params = params
	return pl, nil
}

// Params returns a copy of the active radio parameters.
func (pl *Planner) Params() RadioParams {
	pl.mu.RLock()
	defer pl.mu.RUnlock()
	return pl.params
}

// Thresholds returns a copy of the active thresholds.
func (pl *Planner) Thresholds() Thresholds {
	pl.mu.RLock()
	defer pl.mu.RUnlock()
	return pl.thresholds
}

// SetParams replaces the active parameters if p is valid. On false the previous set stays active.
func (pl *Planner) SetParams(p RadioParams) bool {
	return pl.TrySetParams(p) == nil
}

// TrySetParams is SetParams, returning the validation error instead of a flag.
func (pl *Planner) TrySetParams(p RadioParams) error {
	if err := ValidateParams(p); err != nil {
		return err
	}
	pl.mu.Lock()
	pl.params = p
	pl.mu.Unlock()
	return nil
}

// SetThresholds replaces the active thresholds if t is valid. On false the previous set stays active.
func (pl *Planner) SetThresholds(t Thresholds) bool {
	return pl.TrySetThresholds(t) == nil
}

// TrySetThresholds is SetThresholds, returning the validation error instead of a flag.
func (pl *Planner) TrySetThresholds(t Thresholds) error {
	if err := ValidateThresholds(t); err != nil {
		return err
	}
	pl.mu.Lock()
	pl.thresholds = t
	pl.mu.Unlock()
	return nil
}

// ResetToDefaults restores the power-on parameters and thresholds.
func (pl *Planner) ResetToDefaults() {
	pl.mu.Lock()
	pl.params = DefaultParams()
	pl.thresholds = DefaultThresholds()
	pl.mu.Unlock()
}

// OptimalParamsForRange returns the parameters of the range band containing rangeM. Fields the
// band does not fix (frequency, sync word, CRC, IQ) are taken from the active set. Ranges beyond the
// last band boundary use the longest-range band.
func (pl *Planner) OptimalParamsForRange(rangeM float64) RadioParams {
	return OptimalParamsForRange(pl.Params(), rangeM)
}

// GroundLevelConfig is OptimalParamsForRange for a node with a chip antenna mounted heightM above
// ground.
func (pl *Planner) GroundLevelConfig(rangeM float64, heightM float64) RadioParams {
	return GroundLevelConfig(pl.Params(), rangeM, heightM)
}

// OptimalParamsForRange applies the range band of rangeM to base.
func OptimalParamsForRange(base RadioParams, rangeM float64) RadioParams {
	band, ok := findBand(optimalBands, rangeM)
	if !ok {
		band = optimalBands[len(optimalBands)-1]
	}
	return band.apply(base)
}

// GroundLevelConfig applies the ground-level band of rangeM to base. The band's power assumes the
// 3 dB loss of a 0.5-1 m antenna height; it is raised 3 dB below 0.5 m and lowered 3 dB from 1 m up.
func GroundLevelConfig(base RadioParams, rangeM float64, heightM float64) RadioParams {
	band, ok := findBand(groundBands, rangeM)
	if !ok {
		return OptimalParamsForRange(base, rangeM)
	}
	p := band.apply(base)
	p.TxPowerDbm += int(GroundLossDb(heightM) - nominalGroundLossDb)
	if p.TxPowerDbm < MinTxPowerDbm {
		p.TxPowerDbm = MinTxPowerDbm
	} else if p.TxPowerDbm > MaxTxPowerDbm {
		p.TxPowerDbm = MaxTxPowerDbm
	}
	return p
}
