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

package node

import (
	"sort"
	"sync"

	"github.com/fieldmesh/fieldmesh/alert"
	"github.com/fieldmesh/fieldmesh/packet"
	. "github.com/fieldmesh/fieldmesh/types"
)

// DefaultMaxRecords bounds the reading history kept by a Collector.
const DefaultMaxRecords = 10000

// Record is one reading received by the gateway.
type Record struct {
	TimeUs   uint64        `yaml:"time-us"`
	Src      NodeAddr      `yaml:"src"`
	Dst      NodeAddr      `yaml:"dst"`
	Reading  SensorReading `yaml:"reading"`
	SoilPct  float64       `yaml:"soil-pct"`
	Alerts   alert.Code    `yaml:"alerts"`
	RssiDbm  DbValue       `yaml:"rssi,omitempty"`
	HaveRssi bool          `yaml:"-"`
}

// Collector is the DataSink of a gateway. It converts soil moisture to percent, evaluates alerts and
// keeps the reading history.
type Collector struct {
	mu         sync.Mutex
	clock      func() uint64
	maxRecords int
	records    []Record
	latest     map[NodeAddr]Record
	alertCount map[alert.Code]int
	listeners  []func(Record)
}

// NewCollector creates a collector stamping records with clock, which returns microseconds.
func NewCollector(clock func() uint64) *Collector {
	if clock == nil {
		clock = func() uint64 { return 0 }
	}
	return &Collector{
		clock:      clock,
		maxRecords: DefaultMaxRecords,
		latest:     make(map[NodeAddr]Record),
		alertCount: make(map[alert.Code]int),
	}
}

// OnRecord registers fn to be called with every new record.
func (c *Collector) OnRecord(fn func(Record)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Collector) HandleData(msg *packet.DataMessage, thresholds Thresholds, link LinkInfo) {
	code := alert.Evaluate(msg.Reading, thresholds)
	if link.Valid {
		code = code.Add(alert.EvaluateSignal(link.RssiDbm, link.Sensitivity))
	}
	c.Add(Record{
		Src:      msg.Src,
		Dst:      msg.Dst,
		Reading:  msg.Reading,
		Alerts:   code,
		RssiDbm:  link.RssiDbm,
		HaveRssi: link.Valid,
	})
}

// Add stores rec, filling in time and soil percent.
func (c *Collector) Add(rec Record) {
	c.mu.Lock()
	rec.TimeUs = c.clock()
	rec.SoilPct = SoilMoisturePercent(rec.Reading.SoilMoisture)
	if len(c.records) >= c.maxRecords {
		c.records = append(c.records[:0], c.records[1:]...)
	}
	c.records = append(c.records, rec)
	c.latest[rec.Src] = rec
	for _, bit := range singleAlerts {
		if rec.Alerts.Has(bit) {
			c.alertCount[bit]++
		}
	}
	listeners := c.listeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(rec)
	}
}

var singleAlerts = []alert.Code{
	alert.LowTemp, alert.HighTemp, alert.LowHum, alert.HighHum, alert.LowSoil, alert.HighSoil,
	alert.LowBatt, alert.SensorFail, alert.CommFail, alert.ConfigErr, alert.LowSignal, alert.Multiple,
}

// Records returns a copy of the reading history, oldest first.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Record(nil), c.records...)
}

// Latest returns the most recent record of every node that reported, ordered by address.
func (c *Collector) Latest() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]Record, 0, len(c.latest))
	for _, r := range c.latest {
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Src < res[j].Src })
	return res
}

// AlertCounts returns how many records raised each alert condition.
func (c *Collector) AlertCounts() map[alert.Code]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make(map[alert.Code]int, len(c.alertCount))
	for k, v := range c.alertCount {
		res[k] = v
	}
	return res
}

// Reset drops all records.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
	c.latest = make(map[NodeAddr]Record)
	c.alertCount = make(map[alert.Code]int)
}
