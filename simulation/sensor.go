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

package simulation

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	. "github.com/fieldmesh/fieldmesh/types"
)

var ErrSensorFault = errors.New("sensor read failed")

// SimSensor produces readings that drift as a bounded random walk.
type SimSensor struct {
	rnd     *rand.Rand
	current SensorReading
	pinned  *SensorReading
	fault   bool
}

// NewSimSensor creates a sensor whose readings are fully determined by seed.
func NewSimSensor(seed int64) *SimSensor {
	rnd := rand.New(rand.NewSource(seed))
	return &SimSensor{
		rnd: rnd,
		current: SensorReading{
			TemperatureC: round1(15 + 15*rnd.Float64()),
			HumidityPct:  round1(40 + 40*rnd.Float64()),
			SoilMoisture: uint16(300 + rnd.Intn(400)),
		},
	}
}

func (s *SimSensor) CaptureReading() (SensorReading, error) {
	if s.fault {
		return SensorReading{}, ErrSensorFault
	}
	if s.pinned != nil {
		return *s.pinned, nil
	}
	s.current.TemperatureC = round1(clamp(s.current.TemperatureC+0.3*s.rnd.NormFloat64(), -20, 50))
	s.current.HumidityPct = round1(clamp(s.current.HumidityPct+s.rnd.NormFloat64(), 0, 100))
	soil := clamp(float64(s.current.SoilMoisture)+8*s.rnd.NormFloat64(), 0, MaxSoilMoisture)
	s.current.SoilMoisture = uint16(math.Round(soil))
	return s.current, nil
}

// Pin makes the sensor return r until Unpin is called.
func (s *SimSensor) Pin(r SensorReading) {
	s.pinned = &r
}

func (s *SimSensor) Unpin() {
	s.pinned = nil
}

// SetFault makes every capture fail while on.
func (s *SimSensor) SetFault(on bool) {
	s.fault = on
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
