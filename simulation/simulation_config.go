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
	"github.com/fieldmesh/fieldmesh/dispatcher"
	"github.com/fieldmesh/fieldmesh/pcap"
)

const (
	DefaultSendIntervalUs = 60 * 1000000 // one reading per minute
	DefaultOutputDir      = "tmp"
)

type Config struct {
	Id             int
	Speed          float64
	RadioModel     string
	OutputDir      string
	SendIntervalUs uint64
	DumpPackets    bool
	PcapFrameType  pcap.FrameType
	ReportSendFail bool
	AutoReceive    bool // nodes handle frames as soon as they arrive, instead of on 'recv'
	ReadingsCsv    bool
	KpiEnabled     bool
	LogLevel       string
}

func DefaultConfig() *Config {
	return &Config{
		Id:             0,
		Speed:          dispatcher.MaxSimulateSpeed,
		RadioModel:     dispatcher.DefaultRadioModel,
		OutputDir:      DefaultOutputDir,
		SendIntervalUs: DefaultSendIntervalUs,
		DumpPackets:    false,
		PcapFrameType:  pcap.FrameTypeLoRaTap,
		ReportSendFail: true,
		AutoReceive:    true,
		ReadingsCsv:    true,
		KpiEnabled:     true,
		LogLevel:       "info",
	}
}

// dispatcherConfig derives the air medium config from the simulation config.
func (cfg *Config) dispatcherConfig() *dispatcher.Config {
	dcfg := dispatcher.DefaultConfig()
	dcfg.Speed = cfg.Speed
	dcfg.RadioModel = cfg.RadioModel
	dcfg.OutputDir = cfg.OutputDir
	dcfg.DumpPackets = cfg.DumpPackets
	dcfg.PcapEnabled = cfg.PcapFrameType != pcap.FrameTypeOff
	dcfg.PcapFrameType = cfg.PcapFrameType
	dcfg.ReportSendFail = cfg.ReportSendFail
	return dcfg
}
