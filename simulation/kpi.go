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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/fieldmesh/fieldmesh/alert"
	"github.com/fieldmesh/fieldmesh/dispatcher"
	"github.com/fieldmesh/fieldmesh/logger"
	"github.com/fieldmesh/fieldmesh/node"
	. "github.com/fieldmesh/fieldmesh/types"
)

type KpiManager struct {
	sim          *Simulation
	data         *Kpi
	startPhy     map[NodeAddr]dispatcher.PhyStats
	startSession map[NodeAddr]node.Stats
	startAlerts  map[alert.Code]int
	curPhy       map[NodeAddr]dispatcher.PhyStats
	curSession   map[NodeAddr]node.Stats
	curAlerts    map[alert.Code]int
	failures     map[NodeAddr]int
	isRunning    bool
}

// NewKpiManager creates a new KPI manager/bookkeeper for a particular simulation.
func NewKpiManager() *KpiManager {
	km := &KpiManager{}
	return km
}

// Init inits the KPI manager for the given simulation.
func (km *KpiManager) Init(sim *Simulation) {
	logger.AssertNil(km.sim)
	logger.AssertFalse(km.isRunning)
	km.sim = sim
	km.data = &Kpi{Status: "ok"}
	km.startPhy = map[NodeAddr]dispatcher.PhyStats{}
	km.startSession = map[NodeAddr]node.Stats{}
	km.failures = map[NodeAddr]int{}
}

// Start begins a KPI period at the current simulation time.
func (km *KpiManager) Start() {
	logger.AssertNotNil(km.sim)
	km.startPhy = km.sim.Dispatcher().GetPhyStats()
	km.startSession = km.retrieveSessionStats()
	km.startAlerts = km.sim.Collector().AlertCounts()
	km.failures = map[NodeAddr]int{}
	km.data = &Kpi{Status: "ok"}
	km.data.TimeUs.StartTimeUs = km.sim.Dispatcher().CurTime
	km.isRunning = true
	km.SaveDefaultFile()
}

// Stop ends the KPI period and saves the final KPIs.
func (km *KpiManager) Stop() {
	if km.isRunning {
		km.retrieveCurrent()
		km.isRunning = false
		km.calculateKpis()
		km.SaveDefaultFile()
	}
}

func (km *KpiManager) IsRunning() bool {
	return km.isRunning
}

// Data returns the KPIs, recalculated first if the period is running.
func (km *KpiManager) Data() *Kpi {
	if km.isRunning {
		km.retrieveCurrent()
		km.calculateKpis()
	}
	return km.data
}

func (km *KpiManager) SaveDefaultFile() {
	if err := km.SaveFile(km.getDefaultSaveFileName()); err != nil {
		logger.Errorf("%v", err)
	}
}

func (km *KpiManager) SaveFile(fn string) error {
	logger.AssertNotNil(km.sim)
	data := km.Data()
	data.FileTime = time.Now().Format(time.RFC3339)
	js, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		logger.Fatalf("Could not marshal KPI JSON data: %v", err)
		return err
	}

	if err = os.WriteFile(fn, js, 0644); err != nil {
		return errors.Wrapf(err, "could not write KPI JSON file %s", fn)
	}
	return nil
}

func (km *KpiManager) onNodeFail(addr NodeAddr) {
	if km.isRunning {
		km.failures[addr]++
	}
}

func (km *KpiManager) stopNode(addr NodeAddr) {
	// deleted nodes during a KPI period are left out of the node-specific KPIs.
	delete(km.startPhy, addr)
	delete(km.startSession, addr)
	delete(km.curPhy, addr)
	delete(km.curSession, addr)
	delete(km.failures, addr)
}

func (km *KpiManager) retrieveCurrent() {
	km.curPhy = km.sim.Dispatcher().GetPhyStats()
	km.curSession = km.retrieveSessionStats()
	km.curAlerts = km.sim.Collector().AlertCounts()
}

func (km *KpiManager) retrieveSessionStats() map[NodeAddr]node.Stats {
	res := make(map[NodeAddr]node.Stats, len(km.sim.nodes))
	for addr, n := range km.sim.nodes {
		res[addr] = n.session.Stats()
	}
	return res
}

func sessionStatsDiff(cur node.Stats, start node.Stats) node.Stats {
	return node.Stats{
		Sent:               cur.Sent - start.Sent,
		SendErrors:         cur.SendErrors - start.SendErrors,
		Received:           cur.Received - start.Received,
		Dropped:            cur.Dropped - start.Dropped,
		DataIgnored:        cur.DataIgnored - start.DataIgnored,
		ConfigApplied:      cur.ConfigApplied - start.ConfigApplied,
		ConfigRejected:     cur.ConfigRejected - start.ConfigRejected,
		ThresholdsApplied:  cur.ThresholdsApplied - start.ThresholdsApplied,
		ThresholdsRejected: cur.ThresholdsRejected - start.ThresholdsRejected,
		SendFails:          cur.SendFails - start.SendFails,
	}
}

func percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return 100.0 * part / total
}

func (km *KpiManager) calculateKpis() {
	// time
	km.data.TimeUs.EndTimeUs = km.sim.Dispatcher().CurTime
	km.data.TimeUs.PeriodUs = km.data.TimeUs.EndTimeUs - km.data.TimeUs.StartTimeUs
	km.data.TimeSec.StartTimeSec = float64(km.data.TimeUs.StartTimeUs) / 1e6
	km.data.TimeSec.EndTimeSec = float64(km.data.TimeUs.EndTimeUs) / 1e6
	km.data.TimeSec.PeriodSec = float64(km.data.TimeUs.PeriodUs) / 1e6
	period := float64(km.data.TimeUs.PeriodUs)

	// nodes
	phy := dispatcher.PhyStatsSince(km.startPhy, km.curPhy)
	km.data.Nodes = make(map[NodeAddr]KpiNode)
	km.data.Network = KpiNetwork{}
	for addr, cur := range km.curSession {
		n := km.sim.nodes[addr]
		if n == nil {
			continue
		}
		st := sessionStatsDiff(cur, km.startSession[addr])
		ph := phy[addr]
		km.data.Nodes[addr] = KpiNode{
			Role:          n.cfg.Role,
			Sent:          st.Sent,
			SendErrors:    st.SendErrors,
			Received:      st.Received,
			Dropped:       st.Dropped,
			SendFails:     st.SendFails,
			ConfigApplied: st.ConfigApplied,
			RangeM:        n.session.Range(),
			TxFrames:      ph.TxFrames,
			TxAirtimeUs:   ph.TxAirtimeUs,
			DutyCyclePct:  percent(float64(ph.TxAirtimeUs), period),
			RxFrames:      ph.RxFrames,
			RxWeak:        ph.RxWeak,
			RxCollisions:  ph.RxCollisions,
			Failures:      km.failures[addr],
		}
		if !n.IsGateway() {
			km.data.Network.DataSent += st.Sent
		}
		km.data.Network.TxAirtimeUs += ph.TxAirtimeUs
	}

	// readings and alerts
	for _, rec := range km.sim.Collector().Records() {
		if rec.TimeUs >= km.data.TimeUs.StartTimeUs {
			km.data.Network.ReadingsReceived++
		}
	}
	km.data.Network.DeliveryPct = percent(float64(km.data.Network.ReadingsReceived),
		float64(km.data.Network.DataSent))
	km.data.Network.AirUsePct = percent(float64(km.data.Network.TxAirtimeUs), period)

	km.data.Alerts = make(map[string]int)
	for code, cnt := range km.curAlerts {
		if diff := cnt - km.startAlerts[code]; diff > 0 {
			km.data.Alerts[code.String()] = diff
		}
	}
}

func (km *KpiManager) getDefaultSaveFileName() string {
	return filepath.Join(km.sim.cfg.OutputDir, fmt.Sprintf("%d_kpi.json", km.sim.cfg.Id))
}
