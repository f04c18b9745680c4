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

package fieldmesh_main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldmesh/fieldmesh/dispatcher"
	"github.com/fieldmesh/fieldmesh/logger"
	"github.com/fieldmesh/fieldmesh/pcap"
)

func TestParseSpeed(t *testing.T) {
	s, err := parseSpeed("MAX")
	assert.Nil(t, err)
	assert.Equal(t, float64(dispatcher.MaxSimulateSpeed), s)

	s, err = parseSpeed("2.5")
	assert.Nil(t, err)
	assert.Equal(t, 2.5, s)

	_, err = parseSpeed("0")
	assert.NotNil(t, err)
	_, err = parseSpeed("fast")
	assert.NotNil(t, err)
}

func TestSimConfig(t *testing.T) {
	a := MainArgs{
		Speed:      "10",
		LogLevel:   "debug",
		RadioModel: "ideal",
		OutputDir:  "out/",
		Interval:   30,
		Pcap:       "off",
		ManualRecv: true,
		NoKpi:      true,
		Id:         3,
	}
	cfg, err := simConfig(&a)
	assert.Nil(t, err)
	assert.Equal(t, 10.0, cfg.Speed)
	assert.Equal(t, uint64(30e6), cfg.SendIntervalUs)
	assert.Equal(t, pcap.FrameTypeOff, cfg.PcapFrameType)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.False(t, cfg.AutoReceive)
	assert.False(t, cfg.KpiEnabled)
	assert.True(t, cfg.ReadingsCsv)
	assert.Equal(t, 3, cfg.Id)

	bad := a
	bad.RadioModel = "underwater"
	_, err = simConfig(&bad)
	assert.NotNil(t, err)

	bad = a
	bad.Pcap = "wireshark"
	_, err = simConfig(&bad)
	assert.NotNil(t, err)

	bad = a
	bad.Interval = -1
	_, err = simConfig(&bad)
	assert.NotNil(t, err)
}

func TestSimpleLevelName(t *testing.T) {
	assert.Equal(t, "debug", simpleLevelName(logger.TraceLevel))
	assert.Equal(t, "info", simpleLevelName(logger.InfoLevel))
	assert.Equal(t, "warn", simpleLevelName(logger.NoteLevel))
	assert.Equal(t, "error", simpleLevelName(logger.OffLevel))
}
