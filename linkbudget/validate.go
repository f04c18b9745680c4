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
	"github.com/pkg/errors"

	. "github.com/fieldmesh/fieldmesh/types"
)

// Radio capability envelope
const (
	MinSpreadingFactor = 6
	MaxSpreadingFactor = 12
	MinCodingRate      = 5
	MaxCodingRate      = 8
	MinTxPowerDbm      = 2
	MaxTxPowerDbm      = 20
	MinPreambleLength  = 6
	MaxPreambleLength  = 65535
)

// Temperature bounds that the Thresholds payload can carry, in 0.1 C steps.
const (
	MinThresholdTempC = -40.0
	MaxThresholdTempC = 164.7
)

var (
	ErrInvalidParams     = errors.New("invalid radio parameters")
	ErrInvalidThresholds = errors.New("invalid thresholds")
)

func isOneOf(v float64, list []float64) bool {
	for _, x := range list {
		if v == x {
			return true
		}
	}
	return false
}

// ValidateParams checks p against the capability envelope of the radio.
func ValidateParams(p RadioParams) error {
	switch {
	case !isOneOf(p.FrequencyHz, SupportedFrequenciesHz):
		return errors.Wrapf(ErrInvalidParams, "unsupported frequency %.0f Hz", p.FrequencyHz)
	case p.SpreadingFactor < MinSpreadingFactor || p.SpreadingFactor > MaxSpreadingFactor:
		return errors.Wrapf(ErrInvalidParams, "spreading factor %d not in [%d,%d]", p.SpreadingFactor,
			MinSpreadingFactor, MaxSpreadingFactor)
	case !isOneOf(p.BandwidthHz, LoRaBandwidthsHz):
		return errors.Wrapf(ErrInvalidParams, "unsupported bandwidth %.0f Hz", p.BandwidthHz)
	case p.CodingRate < MinCodingRate || p.CodingRate > MaxCodingRate:
		return errors.Wrapf(ErrInvalidParams, "coding rate 4/%d not in [4/%d,4/%d]", p.CodingRate,
			MinCodingRate, MaxCodingRate)
	case p.TxPowerDbm < MinTxPowerDbm || p.TxPowerDbm > MaxTxPowerDbm:
		return errors.Wrapf(ErrInvalidParams, "tx power %d dBm not in [%d,%d]", p.TxPowerDbm,
			MinTxPowerDbm, MaxTxPowerDbm)
	case p.PreambleLength < MinPreambleLength || p.PreambleLength > MaxPreambleLength:
		return errors.Wrapf(ErrInvalidParams, "preamble length %d not in [%d,%d]", p.PreambleLength,
			MinPreambleLength, MaxPreambleLength)
	}
	return nil
}

// ValidateThresholds checks that every low bound is below its high bound and that all bounds are
// within their sensor and wire ranges. NaN bounds are rejected.
func ValidateThresholds(t Thresholds) error {
	switch {
	case !(t.LowTempC < t.HighTempC):
		return errors.Wrapf(ErrInvalidThresholds, "temperature low %.1f not below high %.1f", t.LowTempC,
			t.HighTempC)
	case !(t.LowTempC >= MinThresholdTempC && t.HighTempC <= MaxThresholdTempC):
		return errors.Wrapf(ErrInvalidThresholds, "temperature bounds outside [%.1f,%.1f]",
			MinThresholdTempC, MaxThresholdTempC)
	case !(t.LowHumidityPct < t.HighHumidityPct):
		return errors.Wrapf(ErrInvalidThresholds, "humidity low %.1f not below high %.1f", t.LowHumidityPct,
			t.HighHumidityPct)
	case !(t.LowHumidityPct >= 0 && t.HighHumidityPct <= 100):
		return errors.Wrapf(ErrInvalidThresholds, "humidity bounds outside [0,100]")
	case !(t.LowSoil < t.HighSoil):
		return errors.Wrapf(ErrInvalidThresholds, "soil moisture low %.1f not below high %.1f", t.LowSoil,
			t.HighSoil)
	case !(t.LowSoil >= 0 && t.HighSoil <= MaxSoilMoisture):
		return errors.Wrapf(ErrInvalidThresholds, "soil moisture bounds outside [0,%d]", MaxSoilMoisture)
	}
	return nil
}
