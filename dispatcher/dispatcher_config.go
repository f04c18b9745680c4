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

package dispatcher

import (
	"github.com/fieldmesh/fieldmesh/pcap"
)

const (
	DefaultPcapFile   = "current.pcap"
	DefaultRadioModel = "Rural"
	DefaultMaxRxQueue = 16
)

type Config struct {
	Speed         float64
	DumpPackets   bool
	PcapEnabled   bool
	PcapFrameType pcap.FrameType
	OutputDir     string
	RadioModel    string

	// ReportSendFail makes the destination of a missed unicast Data frame report a SendFail frame back
	// to the sender.
	ReportSendFail bool

	// PacketLossRatio is the probability that a frame which reached a receiver is dropped anyway.
	PacketLossRatio float64

	// MaxRxQueue is the number of frames a port holds before it drops the oldest.
	MaxRxQueue int
}

func DefaultConfig() *Config {
	return &Config{
		Speed:          MaxSimulateSpeed,
		DumpPackets:    false,
		PcapEnabled:    true,
		PcapFrameType:  pcap.FrameTypeLoRaTap,
		OutputDir:      ".",
		RadioModel:     DefaultRadioModel,
		ReportSendFail: true,
		MaxRxQueue:     DefaultMaxRxQueue,
	}
}
