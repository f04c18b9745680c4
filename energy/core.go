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

// Package energy accounts the time each node's radio spends per state and converts it to energy.
package energy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/fieldmesh/fieldmesh/logger"
	. "github.com/fieldmesh/fieldmesh/types"
)

type EnergyAnalyser struct {
	nodes          map[NodeAddr]*NodeEnergy
	networkHistory []NetworkConsumption
	title          string
	lastStoreTs    uint64
}

func NewEnergyAnalyser() *EnergyAnalyser {
	return &EnergyAnalyser{
		nodes: make(map[NodeAddr]*NodeEnergy),
		// one sample every 30s for 1 hour
		networkHistory: make([]NetworkConsumption, 0, 120),
	}
}

func (e *EnergyAnalyser) AddNode(addr NodeAddr, timestamp uint64) {
	if _, ok := e.nodes[addr]; ok {
		return
	}
	e.nodes[addr] = newNode(addr, timestamp)
}

func (e *EnergyAnalyser) DeleteNode(addr NodeAddr) {
	delete(e.nodes, addr)

	if len(e.nodes) == 0 {
		e.ClearEnergyData()
	}
}

func (e *EnergyAnalyser) GetNode(addr NodeAddr) *NodeEnergy {
	return e.nodes[addr]
}

func (e *EnergyAnalyser) GetNetworkEnergyHistory() []NetworkConsumption {
	return e.networkHistory
}

// OnTimeAdvanced stores a network snapshot for every ComputePeriod passed.
func (e *EnergyAnalyser) OnTimeAdvanced(timestamp uint64) {
	for timestamp >= e.lastStoreTs+ComputePeriod {
		e.lastStoreTs += ComputePeriod
		e.StoreNetworkEnergy(e.lastStoreTs)
	}
}

func (e *EnergyAnalyser) StoreNetworkEnergy(timestamp uint64) {
	snapshot := NetworkConsumption{
		Timestamp: timestamp,
	}
	if len(e.nodes) == 0 {
		e.networkHistory = append(e.networkHistory, snapshot)
		return
	}

	netSize := float64(len(e.nodes))
	for _, r := range e.Report(timestamp) {
		snapshot.EnergyConsDisabled += r.Disabled / netSize
		snapshot.EnergyConsSleep += r.Sleep / netSize
		snapshot.EnergyConsTx += r.Tx / netSize
		snapshot.EnergyConsRx += r.Rx / netSize
	}
	e.networkHistory = append(e.networkHistory, snapshot)
}

// Report accounts all nodes up to timestamp and returns their energy, ordered by address.
func (e *EnergyAnalyser) Report(timestamp uint64) []NodeEnergyReport {
	addrs := make([]NodeAddr, 0, len(e.nodes))
	for addr := range e.nodes {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	res := make([]NodeEnergyReport, 0, len(addrs))
	for _, addr := range addrs {
		node := e.nodes[addr]
		node.ComputeRadioState(timestamp)
		res = append(res, node.Report())
	}
	return res
}

// SaveEnergyDataToFile writes the per-node and the network energy to <dir>/<name>_nodes.txt and
// <dir>/<name>.txt.
func (e *EnergyAnalyser) SaveEnergyDataToFile(dir string, name string, timestamp uint64) error {
	if name == "" {
		if e.title == "" {
			name = "energy"
		} else {
			name = e.title
		}
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	path := filepath.Join(dir, name)
	fileNodes, err := os.Create(path + "_nodes.txt")
	if err != nil {
		return err
	}
	defer fileNodes.Close()

	fileNetwork, err := os.Create(path + ".txt")
	if err != nil {
		return err
	}
	defer fileNetwork.Close()

	e.WriteEnergyByNodes(fileNodes, timestamp)
	e.writeNetworkEnergy(fileNetwork, timestamp)
	logger.Infof("energy data saved to %s", path)
	return nil
}

func (e *EnergyAnalyser) WriteEnergyByNodes(w io.Writer, timestamp uint64) {
	fmt.Fprintf(w, "Duration of the simulated network (in milliseconds): %d\n", timestamp/1000)
	fmt.Fprintf(w, "Addr\tDisabled (mJ)\tSleep (mJ)\tTransmitting (mJ)\tReceiving (mJ)\n")
	for _, r := range e.Report(timestamp) {
		fmt.Fprintf(w, "%v\t%f\t%f\t%f\t%f\n", r.Addr, r.Disabled, r.Sleep, r.Tx, r.Rx)
	}
}

func (e *EnergyAnalyser) writeNetworkEnergy(w io.Writer, timestamp uint64) {
	fmt.Fprintf(w, "Duration of the simulated network (in milliseconds): %d\n", timestamp/1000)
	fmt.Fprintf(w, "Time (ms)\tDisabled (mJ)\tSleep (mJ)\tTransmitting (mJ)\tReceiving (mJ)\n")
	for _, snapshot := range e.networkHistory {
		fmt.Fprintf(w, "%d\t%f\t%f\t%f\t%f\n",
			snapshot.Timestamp/1000,
			snapshot.EnergyConsDisabled,
			snapshot.EnergyConsSleep,
			snapshot.EnergyConsTx,
			snapshot.EnergyConsRx,
		)
	}
}

func (e *EnergyAnalyser) ClearEnergyData() {
	logger.Debugf("node energy data cleared")
	e.networkHistory = make([]NetworkConsumption, 0, 120)
}

func (e *EnergyAnalyser) SetTitle(title string) {
	e.title = title
}
