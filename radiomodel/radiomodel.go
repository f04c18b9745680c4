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

// Package radiomodel computes the received signal strength of frames between simulated nodes.
package radiomodel

import (
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/fieldmesh/fieldmesh/prng"
	. "github.com/fieldmesh/fieldmesh/types"
)

// RadioModel decides which nodes receive a frame and at which RSSI.
type RadioModel interface {
	GetName() string
	GetParameters() *RadioModelParams

	// GetTxRssi returns the RSSI at dst of a frame sent by src.
	GetTxRssi(src *RadioNode, dst *RadioNode) DbValue

	// CheckRadioReachable returns true if dst can demodulate a frame from src received with rssi.
	CheckRadioReachable(src *RadioNode, dst *RadioNode, rssi DbValue) bool

	// OnAdvanceTime informs the model of the simulation time (us).
	OnAdvanceTime(ts uint64)
}

var modelNames = []string{"Ideal", "Rural", "Obstructed"}

// RadioModelNames returns the names accepted by NewRadioModel.
func RadioModelNames() []string {
	return append([]string(nil), modelNames...)
}

// NewRadioModel creates a new RadioModel with given name, or returns an error if the name is unknown.
// Names are case-insensitive.
func NewRadioModel(modelName string) (RadioModel, error) {
	switch strings.ToLower(modelName) {
	case "ideal", "i", "1":
		return &RadioModelIdeal{
			Name:      "Ideal",
			FixedRssi: defaultIdealRssiDbm,
			params:    newRadioModelParams(),
		}, nil
	case "rural", "r", "2":
		p := newRadioModelParams()
		setRuralModelParams(p)
		return newRadioModelLogDistance("Rural", p), nil
	case "obstructed", "o", "3":
		p := newRadioModelParams()
		setObstructedModelParams(p)
		return newRadioModelLogDistance("Obstructed", p), nil
	default:
		return nil, errors.Errorf("unknown radio model: %s", modelName)
	}
}

// RadioModelLogDistance is a log-distance path loss model with shadow and time-variant fading.
type RadioModelLogDistance struct {
	Name   string
	params *RadioModelParams
	fading *fadingModel
}

func newRadioModelLogDistance(name string, params *RadioModelParams) *RadioModelLogDistance {
	return &RadioModelLogDistance{
		Name:   name,
		params: params,
		fading: newFadingModel(int64(prng.NewRadioModelRandomSeed())),
	}
}

func (rm *RadioModelLogDistance) GetName() string {
	return rm.Name
}

func (rm *RadioModelLogDistance) GetParameters() *RadioModelParams {
	return rm.params
}

func (rm *RadioModelLogDistance) GetTxRssi(src *RadioNode, dst *RadioNode) DbValue {
	rssi := computeLogDistanceRssi(src.GetDistanceTo(dst), src.Params.FrequencyHz, src.TxPower, rm.params)
	if rm.params.GroundLoss {
		rssi -= antennaLossDb(src) + antennaLossDb(dst)
	}
	if rm.params.ShadowFadingSigmaDb > 0 || rm.params.TimeFadingSigmaMaxDb > 0 {
		rssi -= rm.fading.computeFading(src, dst, rm.params)
	}
	return math.Min(math.Max(rssi, rm.params.RssiMinDbm), rm.params.RssiMaxDbm)
}

func (rm *RadioModelLogDistance) CheckRadioReachable(src *RadioNode, dst *RadioNode, rssi DbValue) bool {
	if src == dst || dst.RadioState != RadioRx || !dst.CanHear(src) {
		return false
	}
	if rm.params.IsDiscLimit && src.GetDistanceTo(dst)*rm.params.MeterPerUnit > src.RadioRange {
		return false
	}
	return rssi >= dst.SensitivityFor(src)
}

func (rm *RadioModelLogDistance) OnAdvanceTime(ts uint64) {
	rm.fading.onAdvanceTime(ts)
}
