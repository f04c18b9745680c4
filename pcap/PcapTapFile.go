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
	"math"
	"os"
)

// LoRaTap version 0 is specified at https://github.com/eriknl/LoRaTap
const (
	dltLoRaTap          = 270
	loraTapHeaderSize   = 15
	loraTapBandwidthRes = 125e3
	loraTapRssiOffset   = 139
)

type loraTapFile struct {
	fd *os.File
}

func newLoRaTapFile(filename string) (File, error) {
	fd, err := createWithHeader(filename, dltLoRaTap)
	if err != nil {
		return nil, err
	}
	return &loraTapFile{fd: fd}, nil
}

// rssiByte encodes dBm as LoRaTap's unsigned offset from -139 dBm.
func rssiByte(rssi float32) byte {
	v := math.Round(float64(rssi)) + loraTapRssiOffset
	return byte(math.Max(0, math.Min(255, v)))
}

// snrByte encodes the SNR in quarter dB, two's complement.
func snrByte(snr float32) byte {
	v := math.Round(float64(snr) * 4)
	return byte(int8(math.Max(-128, math.Min(127, v))))
}

func (pf *loraTapFile) AppendFrame(frame Frame) error {
	var header [pcapFrameHeaderSize + loraTapHeaderSize]byte
	putRecordHeader(header[:], frame.Timestamp, len(frame.Data)+loraTapHeaderSize)

	n := pcapFrameHeaderSize
	header[n] = 0 // version
	header[n+1] = 0
	binary.BigEndian.PutUint16(header[n+2:n+4], loraTapHeaderSize)
	binary.BigEndian.PutUint32(header[n+4:n+8], uint32(frame.Params.FrequencyHz))
	header[n+8] = byte(frame.Params.BandwidthHz / loraTapBandwidthRes)
	header[n+9] = byte(frame.Params.SpreadingFactor)
	header[n+10] = rssiByte(frame.Rssi) // packet rssi
	header[n+11] = rssiByte(frame.Rssi) // max rssi
	header[n+12] = rssiByte(frame.Rssi) // current rssi
	header[n+13] = snrByte(frame.Snr)
	header[n+14] = frame.Params.SyncWord

	if _, err := pf.fd.Write(header[:]); err != nil {
		return err
	}
	_, err := pf.fd.Write(frame.Data)
	return err
}

func (pf *loraTapFile) Sync() error {
	return pf.fd.Sync()
}

func (pf *loraTapFile) Close() error {
	return pf.fd.Close()
}
