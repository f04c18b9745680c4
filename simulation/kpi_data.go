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

import . "github.com/fieldmesh/fieldmesh/types"

type KpiTimeUs struct {
	StartTimeUs uint64 `json:"start"`
	EndTimeUs   uint64 `json:"end"`
	PeriodUs    uint64 `json:"duration"`
}

type KpiTimeSec struct {
	StartTimeSec float64 `json:"start"`
	EndTimeSec   float64 `json:"end"`
	PeriodSec    float64 `json:"duration"`
}

type KpiNode struct {
	Role          string  `json:"role"`
	Sent          uint64  `json:"sent"`
	SendErrors    uint64  `json:"send_errors"`
	Received      uint64  `json:"received"`
	Dropped       uint64  `json:"dropped"`
	SendFails     uint64  `json:"sendfails"`
	ConfigApplied uint64  `json:"config_applied"`
	RangeM        float64 `json:"range_m"`
	TxFrames      uint64  `json:"tx_frames"`
	TxAirtimeUs   uint64  `json:"tx_airtime_us"`
	DutyCyclePct  float64 `json:"duty_cycle_percent"`
	RxFrames      uint64  `json:"rx_frames"`
	RxWeak        uint64  `json:"rx_weak"`
	RxCollisions  uint64  `json:"rx_collisions"`
	Failures      int     `json:"failures"`
}

type KpiNetwork struct {
	DataSent         uint64  `json:"data_sent"`
	ReadingsReceived uint64  `json:"readings_received"`
	DeliveryPct      float64 `json:"delivery_percent"`
	TxAirtimeUs      uint64  `json:"tx_airtime_us"`
	AirUsePct        float64 `json:"air_use_percent"`
}

type Kpi struct {
	FileTime string               `json:"created"`
	Status   string               `json:"status"`
	TimeUs   KpiTimeUs            `json:"time_us"`
	TimeSec  KpiTimeSec           `json:"time_sec"`
	Network  KpiNetwork           `json:"network"`
	Nodes    map[NodeAddr]KpiNode `json:"nodes"`
	Alerts   map[string]int       `json:"alerts"`
}
