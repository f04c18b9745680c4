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

// Package alert evaluates sensor readings against thresholds into an alert bitmask.
package alert

import (
	"math/bits"
	"strings"

	. "github.com/fieldmesh/fieldmesh/types"
)

// Code is a set of alert conditions, one bit per condition. Bits 12..15 are reserved.
type Code uint16

const (
	None       Code = 0x0000
	LowTemp    Code = 0x0001
	HighTemp   Code = 0x0002
	LowHum     Code = 0x0004
	HighHum    Code = 0x0008
	LowSoil    Code = 0x0010
	HighSoil   Code = 0x0020
	LowBatt    Code = 0x0040
	SensorFail Code = 0x0080
	CommFail   Code = 0x0100
	ConfigErr  Code = 0x0200
	LowSignal  Code = 0x0400
	Multiple   Code = 0x0800

	allBits Code = 0x0fff
)

var names = []struct {
	code Code
	name string
}{
	{LowTemp, "LOW_TEMP"},
	{HighTemp, "HIGH_TEMP"},
	{LowHum, "LOW_HUM"},
	{HighHum, "HIGH_HUM"},
	{LowSoil, "LOW_SOIL"},
	{HighSoil, "HIGH_SOIL"},
	{LowBatt, "LOW_BATT"},
	{SensorFail, "SENSOR_FAIL"},
	{CommFail, "COMM_FAIL"},
	{ConfigErr, "CONFIG_ERR"},
	{LowSignal, "LOW_SIGNAL"},
	{Multiple, "MULTIPLE"},
}

// LowSignalMarginDb is the RSSI margin above sensitivity below which a link is flagged LowSignal.
const LowSignalMarginDb DbValue = 3.0

// Evaluate checks r against t. Soil moisture is compared in raw units. If more than one condition
// holds, Multiple is set as well.
func Evaluate(r SensorReading, t Thresholds) Code {
	c := None
	switch {
	case r.TemperatureC < t.LowTempC:
		c |= LowTemp
	case r.TemperatureC > t.HighTempC:
		c |= HighTemp
	}
	switch {
	case r.HumidityPct < t.LowHumidityPct:
		c |= LowHum
	case r.HumidityPct > t.HighHumidityPct:
		c |= HighHum
	}
	soil := float64(r.SoilMoisture)
	switch {
	case soil < t.LowSoil:
		c |= LowSoil
	case soil > t.HighSoil:
		c |= HighSoil
	}
	return c.normalize()
}

// EvaluateSignal returns LowSignal if rssi is less than LowSignalMarginDb above sensitivity.
func EvaluateSignal(rssi, sensitivity DbValue) Code {
	if rssi-sensitivity < LowSignalMarginDb {
		return LowSignal
	}
	return None
}

func (c Code) normalize() Code {
	c &= allBits &^ Multiple
	if bits.OnesCount16(uint16(c)) > 1 {
		c |= Multiple
	}
	return c
}

// Add returns c with the conditions of other set. Multiple is recomputed.
func (c Code) Add(other Code) Code {
	return (c | other).normalize()
}

// Remove returns c with the conditions of other cleared. Multiple is recomputed.
func (c Code) Remove(other Code) Code {
	return (c &^ other).normalize()
}

// Has returns true if any condition of other is set in c.
func (c Code) Has(other Code) bool {
	return c&other != 0
}

// Count returns the number of set conditions, not counting Multiple.
func (c Code) Count() int {
	return bits.OnesCount16(uint16(c & allBits &^ Multiple))
}

func (c Code) String() string {
	if c == None {
		return "NONE"
	}
	var parts []string
	for _, n := range names {
		if c&n.code != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "+")
}
