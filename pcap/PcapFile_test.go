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

package pcap

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/fieldmesh/fieldmesh/types"
)

var testParams = RadioParams{
	TxPowerDbm: 17, SpreadingFactor: 9, BandwidthHz: 250e3, CodingRate: 5,
	SyncWord: 0x34, PreambleLength: 8, FrequencyHz: 866e6, CRC: true,
}

func TestPcapFile(t *testing.T) {
	pcapFilename := filepath.Join(t.TempDir(), "test.pcap")
	pcap, err := NewFile(pcapFilename, FrameTypeRaw, false)
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		_ = pcap.Close()
	}()

	err = pcap.Sync()
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, pcapFileHeaderSize, getFileSize(t, pcapFilename))

	for i := 0; i < 10; i++ {
		frame := Frame{
			Timestamp: uint64(i) * 1000,
			Data:      []byte{0x01, 0x01, 0x03, 0x8d, 0xea, 0x12, 0x40},
			Params:    testParams,
			Rssi:      -60.0,
		}
		err = pcap.AppendFrame(frame)
		if err != nil {
			t.Fatal(err)
		}

		err = pcap.Sync()
		if err != nil {
			t.Fatal(err)
		}
		assert.Equal(t, pcapFileHeaderSize+(pcapFrameHeaderSize+7)*(i+1), getFileSize(t, pcapFilename))
	}
}

func TestPcapLoRaTapFile(t *testing.T) {
	pcapFilename := filepath.Join(t.TempDir(), "test_tap.pcap")
	pcap, err := NewFile(pcapFilename, FrameTypeLoRaTap, false)
	if err != nil {
		t.Fatal(err)
	}

	frame := Frame{
		Timestamp: 1500000,
		Data:      []byte{0x04, 0x03, 0x02},
		Params:    testParams,
		Rssi:      -100.4,
		Snr:       -2.5,
	}
	assert.NoError(t, pcap.AppendFrame(frame))
	assert.NoError(t, pcap.Close())

	data, err := os.ReadFile(pcapFilename)
	assert.NoError(t, err)
	assert.Equal(t, pcapFileHeaderSize+pcapFrameHeaderSize+loraTapHeaderSize+3, len(data))
	assert.Equal(t, uint32(dltLoRaTap), binary.LittleEndian.Uint32(data[20:24]))

	rec := data[pcapFileHeaderSize:]
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(rec[0:4]))
	assert.Equal(t, uint32(500000), binary.LittleEndian.Uint32(rec[4:8]))
	assert.Equal(t, uint32(loraTapHeaderSize+3), binary.LittleEndian.Uint32(rec[8:12]))

	tap := rec[pcapFrameHeaderSize:]
	assert.Equal(t, uint16(loraTapHeaderSize), binary.BigEndian.Uint16(tap[2:4]))
	assert.Equal(t, uint32(866000000), binary.BigEndian.Uint32(tap[4:8]))
	assert.Equal(t, byte(2), tap[8])
	assert.Equal(t, byte(9), tap[9])
	assert.Equal(t, byte(39), tap[10])
	assert.Equal(t, byte(0xf6), tap[13])
	assert.Equal(t, byte(0x34), tap[14])
	assert.Equal(t, []byte{0x04, 0x03, 0x02}, tap[loraTapHeaderSize:])
}

func TestPcapFileWithTimeRefFrame(t *testing.T) {
	pcapFilename := filepath.Join(t.TempDir(), "test_timerefframe.pcap")
	pcap, err := NewFile(pcapFilename, FrameTypeRaw, true)
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		_ = pcap.Close()
	}()

	assert.Equal(t, pcapFileHeaderSize+pcapFrameHeaderSize+len(timeReferenceFrameData), getFileSize(t, pcapFilename))
}

func TestParseFrameType(t *testing.T) {
	for _, ft := range []FrameType{FrameTypeOff, FrameTypeRaw, FrameTypeLoRaTap} {
		assert.Equal(t, ft, ParseFrameTypeStr(ft.String()))
	}
	assert.Equal(t, FrameTypeUnknown, ParseFrameTypeStr("wpan"))
	_, err := NewFile(filepath.Join(t.TempDir(), "x.pcap"), FrameTypeOff, false)
	assert.Error(t, err)
}

func getFileSize(t *testing.T, fp string) int {
	info, err := os.Stat(fp)
	if err != nil {
		t.Fatal(err)
	}

	return int(info.Size())
}
