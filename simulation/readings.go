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
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/fieldmesh/fieldmesh/node"
)

var readingsCsvHeader = []string{"time_us", "src", "dst", "temp_c", "hum_pct", "soil_raw", "soil_pct",
	"alerts", "rssi_dbm"}

// ReadingsWriter appends the readings collected by the gateways to a CSV file.
type ReadingsWriter struct {
	mu   sync.Mutex
	f    *os.File
	w    *csv.Writer
	rows int
}

func NewReadingsWriter(filename string) (*ReadingsWriter, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "create readings file %s", filename)
	}
	rw := &ReadingsWriter{f: f, w: csv.NewWriter(f)}
	if err := rw.w.Write(readingsCsvHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	return rw, nil
}

func (rw *ReadingsWriter) Write(rec node.Record) error {
	rssi := ""
	if rec.HaveRssi {
		rssi = strconv.FormatFloat(rec.RssiDbm, 'f', 1, 64)
	}
	row := []string{
		strconv.FormatUint(rec.TimeUs, 10),
		strconv.Itoa(int(rec.Src)),
		strconv.Itoa(int(rec.Dst)),
		strconv.FormatFloat(rec.Reading.TemperatureC, 'f', 1, 64),
		strconv.FormatFloat(rec.Reading.HumidityPct, 'f', 1, 64),
		strconv.Itoa(int(rec.Reading.SoilMoisture)),
		strconv.FormatFloat(rec.SoilPct, 'f', 1, 64),
		rec.Alerts.String(),
		rssi,
	}

	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.f == nil {
		return os.ErrClosed
	}
	if err := rw.w.Write(row); err != nil {
		return err
	}
	rw.rows++
	rw.w.Flush()
	return rw.w.Error()
}

// Rows returns the number of readings written.
func (rw *ReadingsWriter) Rows() int {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.rows
}

func (rw *ReadingsWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.f == nil {
		return nil
	}
	rw.w.Flush()
	err := rw.w.Error()
	if cerr := rw.f.Close(); err == nil {
		err = cerr
	}
	rw.f = nil
	return err
}
