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

const (
	// MaxSoilMoisture is the full scale of the 10-bit soil moisture ADC.
	MaxSoilMoisture = 1023
)

// SensorReading is one sample of the node's environment sensors. Soil moisture is kept in raw ADC
// units end to end; SoilMoisturePercent converts it for display.
type SensorReading struct {
	TemperatureC float64 `yaml:"temp"`
	HumidityPct  float64 `yaml:"hum"`
	SoilMoisture uint16  `yaml:"soil"`
}

func (r SensorReading) String() string {
	return fmt.Sprintf("T=%.1fC H=%.1f%% soil=%d", r.TemperatureC, r.HumidityPct, r.SoilMoisture)
}

// SoilMoisturePercent converts raw soil moisture units to percent of full scale.
func SoilMoisturePercent(raw uint16) float64 {
	return float64(raw) * 100.0 / MaxSoilMoisture
}

// Thresholds are the alert bounds of a node. Soil moisture bounds are raw units.
type Thresholds struct {
	LowTempC        float64 `yaml:"temp-low"`
	HighTempC       float64 `yaml:"temp-high"`
	LowHumidityPct  float64 `yaml:"hum-low"`
	HighHumidityPct float64 `yaml:"hum-high"`
	LowSoil         float64 `yaml:"soil-low"`
	HighSoil        float64 `yaml:"soil-high"`
}

func (t Thresholds) String() string {
	return fmt.Sprintf("T[%.1f,%.1f] H[%.1f,%.1f] soil[%.1f,%.1f]", t.LowTempC, t.HighTempC,
		t.LowHumidityPct, t.HighHumidityPct, t.LowSoil, t.HighSoil)
}
