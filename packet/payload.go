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

package packet

import (
	"math"

	. "github.com/fieldmesh/fieldmesh/types"
)

const (
	tempOffset = 400 // 0.1 C units, so field 0 is -40.0 C
	tempBits   = 11
	humBits    = 10
	soilBits   = 11

	tempMask = 1<<tempBits - 1
	humMask  = 1<<humBits - 1
	soilMask = 1<<soilBits - 1
)

// scaled returns round(v*10)+offset clamped to [0, max].
func scaled(v float64, offset int, max int) uint32 {
	s := int(math.Round(v*10)) + offset
	if s < 0 {
		return 0
	}
	if s > max {
		return uint32(max)
	}
	return uint32(s)
}

// EncodeReading packs a reading into the 2-word Data payload: bits 0..10 temperature,
// 11..20 humidity, 21..31 raw soil moisture. Values outside a field's range saturate.
func EncodeReading(r SensorReading) []uint16 {
	soil := uint32(r.SoilMoisture)
	if soil > soilMask {
		soil = soilMask
	}
	v := scaled(r.TemperatureC, tempOffset, tempMask) |
		scaled(r.HumidityPct, 0, humMask)<<tempBits |
		soil<<(tempBits+humBits)
	return []uint16{uint16(v), uint16(v >> 16)}
}

// DecodeReading unpacks a Data payload. words must hold DataWords entries.
func DecodeReading(words []uint16) SensorReading {
	v := uint32(words[0]) | uint32(words[1])<<16
	return SensorReading{
		TemperatureC: float64(int(v&tempMask)-tempOffset) / 10,
		HumidityPct:  float64((v>>tempBits)&humMask) / 10,
		SoilMoisture: uint16((v >> (tempBits + humBits)) & soilMask),
	}
}

// EncodeParams packs a radio parameter set into the 5-word Config payload. Frequency and bandwidth
// are truncated to whole MHz and kHz.
func EncodeParams(p RadioParams) []uint16 {
	return []uint16{
		uint16(uint8(p.TxPowerDbm)) | uint16(uint8(p.SpreadingFactor))<<8,
		uint16(uint8(p.CodingRate)) | uint16(p.SyncWord)<<8,
		uint16(p.PreambleLength),
		uint16(p.FrequencyHz / 1e6),
		uint16(p.BandwidthHz / 1e3),
	}
}

// DecodeParams unpacks a Config payload. words must hold ConfigWords entries. A bandwidth whose kHz
// value is the truncation of a LoRa channel width decodes to that exact width; CRC is enabled, as
// it is not carried on the wire.
func DecodeParams(words []uint16) RadioParams {
	return RadioParams{
		TxPowerDbm:      int(words[0] & 0xFF),
		SpreadingFactor: int(words[0] >> 8),
		CodingRate:      int(words[1] & 0xFF),
		SyncWord:        uint8(words[1] >> 8),
		PreambleLength:  int(words[2]),
		FrequencyHz:     float64(words[3]) * 1e6,
		BandwidthHz:     bandwidthFromKHz(words[4]),
		CRC:             true,
	}
}

func bandwidthFromKHz(khz uint16) float64 {
	for _, bw := range LoRaBandwidthsHz {
		if uint16(bw/1e3) == khz {
			return bw
		}
	}
	return float64(khz) * 1e3
}

// EncodeThresholds packs a threshold set into the 6-word Thresholds payload.
func EncodeThresholds(t Thresholds) []uint16 {
	return []uint16{
		uint16(scaled(t.LowTempC, tempOffset, tempMask)),
		uint16(scaled(t.HighTempC, tempOffset, tempMask)),
		uint16(scaled(t.LowHumidityPct, 0, humMask)),
		uint16(scaled(t.HighHumidityPct, 0, humMask)),
		uint16(scaled(t.LowSoil, 0, math.MaxUint16)),
		uint16(scaled(t.HighSoil, 0, math.MaxUint16)),
	}
}

// DecodeThresholds unpacks a Thresholds payload. words must hold ThresholdsWords entries.
// Soil bounds use the full word, since 1023 raw units scaled by 10 exceed 10 bits.
func DecodeThresholds(words []uint16) Thresholds {
	return Thresholds{
		LowTempC:        float64(int(words[0]&tempMask)-tempOffset) / 10,
		HighTempC:       float64(int(words[1]&tempMask)-tempOffset) / 10,
		LowHumidityPct:  float64(words[2]&humMask) / 10,
		HighHumidityPct: float64(words[3]&humMask) / 10,
		LowSoil:         float64(words[4]) / 10,
		HighSoil:        float64(words[5]) / 10,
	}
}
