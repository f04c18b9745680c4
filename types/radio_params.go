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

package types

import "fmt"

// RadioParams is a complete LoRa modem configuration.
type RadioParams struct {
	TxPowerDbm          int     `yaml:"tx-power"`
	SpreadingFactor     int     `yaml:"sf"`
	BandwidthHz         float64 `yaml:"bw"`
	CodingRate          int     `yaml:"cr"` // denominator of 4/CR
	SyncWord            uint8   `yaml:"sync"`
	PreambleLength      int     `yaml:"preamble"`
	FrequencyHz         float64 `yaml:"freq"`
	CRC                 bool    `yaml:"crc"`
	InvertIQ            bool    `yaml:"invert-iq,omitempty"`
	LowDataRateOptimize bool    `yaml:"ldro,omitempty"`
}

func (p RadioParams) String() string {
	return fmt.Sprintf("SF%d BW%.1fk CR4/%d %ddBm pl=%d sync=0x%02x %.3fMHz", p.SpreadingFactor,
		p.BandwidthHz/1e3, p.CodingRate, p.TxPowerDbm, p.PreambleLength, p.SyncWord, p.FrequencyHz/1e6)
}

// SameChannel returns true if a receiver using p can demodulate a frame sent with other.
func (p RadioParams) SameChannel(other RadioParams) bool {
	return p.FrequencyHz == other.FrequencyHz &&
		p.SpreadingFactor == other.SpreadingFactor &&
		p.BandwidthHz == other.BandwidthHz &&
		p.SyncWord == other.SyncWord &&
		p.InvertIQ == other.InvertIQ
}

// LoRaBandwidthsHz are the channel widths supported by the LoRa modem, narrowest first.
var LoRaBandwidthsHz = []float64{7.8e3, 10.4e3, 15.6e3, 20.8e3, 31.25e3, 41.7e3, 62.5e3, 125e3, 250e3}
