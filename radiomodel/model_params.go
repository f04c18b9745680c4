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

	. "github.com/fieldmesh/fieldmesh/types"
)

const (
	RssiMinusInfinity DbValue = -1000.0
	RssiMin           DbValue = -150.0
	RssiMax           DbValue = 30.0
	UndefinedDbValue  DbValue = math.MaxFloat64
)

// default radio & simulation parameters
const (
	defaultMeterPerUnit       float64 = 1.0
	defaultCaptureThresholdDb DbValue = 6.0 // co-channel rejection of LoRa at equal SF
	defaultIdealRssiDbm       DbValue = -60.0
)

// RadioModelParams stores model parameters for the radio model.
type RadioModelParams struct {
	MeterPerUnit         float64 // the distance in meters, equivalent to a single distance unit
	IsDiscLimit          bool    // If true, RF signal Tx range is limited to the RadioRange set for each node
	RssiMinDbm           DbValue // Lowest RSSI value (dBm) that can be returned, overriding other calculations
	RssiMaxDbm           DbValue // Highest RSSI value (dBm) that can be returned, overriding other calculations
	ExponentDb           DbValue // the exponent (dB) in the log-distance model
	ExtraLossDb          DbValue // loss (dB) on top of free space loss at 1 m: vegetation, terrain, body
	GroundLoss           bool    // apply the antenna height and chip antenna losses
	CaptureThresholdDb   DbValue // minimal SIR for a frame to survive an overlapping frame
	ShadowFadingSigmaDb  DbValue // sigma (stddev) parameter for Shadow Fading (SF), in dB
	TimeFadingSigmaMaxDb DbValue // max sigma (stddev) parameter for time-variant fading, in dB
	MeanTimeFadingChange float64 // mean time in sec, when TV fading value changes (mean of exponential distrib times).
}

// newRadioModelParams gets a new set of parameters with default values, as a basis to configure further.
func newRadioModelParams() *RadioModelParams {
	return &RadioModelParams{
		MeterPerUnit:         defaultMeterPerUnit,
		IsDiscLimit:          false,
		RssiMinDbm:           RssiMin,
		RssiMaxDbm:           RssiMax,
		ExponentDb:           UndefinedDbValue,
		ExtraLossDb:          UndefinedDbValue,
		GroundLoss:           true,
		CaptureThresholdDb:   defaultCaptureThresholdDb,
		ShadowFadingSigmaDb:  0.0,
		TimeFadingSigmaMaxDb: 0.0,
		MeanTimeFadingChange: 0.0,
	}
}

// open field, line of sight over crops
func setRuralModelParams(params *RadioModelParams) {
	params.ExponentDb = 35.0
	params.ExtraLossDb = 10.0
	params.ShadowFadingSigmaDb = 4.0
	params.TimeFadingSigmaMaxDb = 2.0
	params.MeanTimeFadingChange = 60
}

// greenhouses, sheds and trees between nodes
func setObstructedModelParams(params *RadioModelParams) {
	params.ExponentDb = 40.0
	params.ExtraLossDb = 20.0
	params.ShadowFadingSigmaDb = 6.0
	params.TimeFadingSigmaMaxDb = 3.0
	params.MeanTimeFadingChange = 60
}
