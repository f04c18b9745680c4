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
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldmesh/fieldmesh/alert"
	"github.com/fieldmesh/fieldmesh/node"
	. "github.com/fieldmesh/fieldmesh/types"
)

func TestReadingsWriter(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "readings.csv")
	rw, err := NewReadingsWriter(fn)
	assert.NoError(t, err)

	assert.NoError(t, rw.Write(node.Record{
		TimeUs:   1500000,
		Src:      0x03,
		Dst:      0x01,
		Reading:  SensorReading{TemperatureC: 21.5, HumidityPct: 55, SoilMoisture: 512},
		SoilPct:  50.0,
		Alerts:   alert.None,
		RssiDbm:  -97.25,
		HaveRssi: true,
	}))
	assert.NoError(t, rw.Write(node.Record{
		TimeUs:  2500000,
		Src:     0x04,
		Dst:     0x01,
		Reading: SensorReading{TemperatureC: -3, HumidityPct: 90, SoilMoisture: 100},
		Alerts:  alert.LowTemp | alert.HighHum | alert.LowSoil | alert.Multiple,
	}))
	assert.Equal(t, 2, rw.Rows())
	assert.NoError(t, rw.Close())
	assert.NoError(t, rw.Close())
	assert.Error(t, rw.Write(node.Record{}))

	f, err := os.Open(fn)
	assert.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	assert.NoError(t, err)
	assert.Equal(t, 3, len(rows))
	assert.Equal(t, readingsCsvHeader, rows[0])
	assert.Equal(t, []string{"1500000", "3", "1", "21.5", "55.0", "512", "50.0", "NONE", "-97.2"}, rows[1])
	assert.Equal(t, "", rows[2][8])
	assert.Equal(t, "-3.0", rows[2][3])
}
