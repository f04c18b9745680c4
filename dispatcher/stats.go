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
	"github.com/fieldmesh/fieldmesh/logger"
	. "github.com/fieldmesh/fieldmesh/types"
)

// Stats returns a summary of the nodes at the current time.
func (d *Dispatcher) Stats() NodeStats {
	return d.calcStats()
}

func (d *Dispatcher) calcStats() NodeStats {
	s := NodeStats{
		NumNodes:        len(d.nodes),
		NumGateways:     countGateways(d.nodes),
		NumFailed:       countFailed(d.nodes),
		NumTransmitting: countTransmitting(d.nodes),
	}
	return s
}

// GetPhyStats returns a copy of the radio counters of every node.
func (d *Dispatcher) GetPhyStats() map[NodeAddr]PhyStats {
	res := make(map[NodeAddr]PhyStats, len(d.nodes))
	for addr, node := range d.nodes {
		res[addr] = node.PhyStats
	}
	return res
}

// logStatsChange logs the node summary when it differs from the last one logged.
func (d *Dispatcher) logStatsChange() {
	s := d.calcStats()
	if s != d.oldStats {
		d.oldStats = s
		logger.Debugf("node stats at %d us: %+v", d.CurTime, s)
	}
}

// PhyStatsSince returns the radio activity after the snapshot statsStart taken with GetPhyStats.
func PhyStatsSince(statsStart, statsEnd map[NodeAddr]PhyStats) map[NodeAddr]PhyStats {
	return calcPhyStatsDiff(statsStart, statsEnd)
}

func calcPhyStatsDiff(statsStart, statsEnd map[NodeAddr]PhyStats) map[NodeAddr]PhyStats {
	res := make(map[NodeAddr]PhyStats)
	for addr, st2 := range statsEnd {
		if st1, ok := statsStart[addr]; ok {
			res[addr] = st2.Minus(st1)
		} else {
			res[addr] = st2
		}
	}
	return res
}

func countGateways(nodes map[NodeAddr]*Node) int {
	c := 0
	for _, n := range nodes {
		if n.Gateway {
			c++
		}
	}
	return c
}

func countFailed(nodes map[NodeAddr]*Node) int {
	c := 0
	for _, n := range nodes {
		if n.isFailed {
			c++
		}
	}
	return c
}

func countTransmitting(nodes map[NodeAddr]*Node) int {
	c := 0
	for _, n := range nodes {
		if n.IsTransmitting() {
			c++
		}
	}
	return c
}
