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
	"fmt"

	"github.com/fieldmesh/fieldmesh/dispatcher"
	"github.com/fieldmesh/fieldmesh/linkbudget"
	"github.com/fieldmesh/fieldmesh/logger"
	"github.com/fieldmesh/fieldmesh/node"
	. "github.com/fieldmesh/fieldmesh/types"
)

// Node is a simulated fieldmesh node: a protocol session attached to a port of the air medium.
type Node struct {
	S       *Simulation
	Addr    NodeAddr
	cfg     *NodeConfig
	session *node.Session
	sensor  *SimSensor
	dnode   *dispatcher.Node
	Logger  *logger.NodeLogger
}

func newNode(s *Simulation, cfg *NodeConfig, planner *linkbudget.Planner, dnode *dispatcher.Node) *Node {
	var sensor node.Sensor
	var simSensor *SimSensor
	if !cfg.IsGateway() {
		simSensor = NewSimSensor(cfg.SensorSeed)
		sensor = simSensor
	}

	n := &Node{
		S:      s,
		Addr:   cfg.Addr,
		cfg:    cfg,
		sensor: simSensor,
		dnode:  dnode,
		Logger: dnode.Logger(),
	}
	n.session = node.NewSession(cfg, planner, dnode.Port(), sensor, n.Logger)
	if cfg.IsGateway() {
		n.session.SetDataSink(s.collector)
	}
	return n
}

func (n *Node) String() string {
	return fmt.Sprintf("Node<%v>", n.Addr)
}

func (n *Node) Config() NodeConfig {
	return *n.cfg
}

func (n *Node) IsGateway() bool {
	return n.cfg.IsGateway()
}

func (n *Node) Session() *node.Session {
	return n.session
}

// Sensor returns the simulated sensor, nil for a gateway.
func (n *Node) Sensor() *SimSensor {
	return n.sensor
}

func (n *Node) DNode() *dispatcher.Node {
	return n.dnode
}

// receivePending handles every frame queued at the port and returns how many were accepted.
func (n *Node) receivePending() int {
	handled := 0
	for n.dnode.Port().PendingFrameSize() > 0 {
		if n.session.Receive() {
			handled++
		}
	}
	return handled
}

// syncRadio makes the air medium follow the session's current range and listening parameters.
func (n *Node) syncRadio() {
	if err := n.S.d.SetRadioRange(n.Addr, n.session.Range()); err != nil {
		n.Logger.Debugf("radio range not updated: %v", err)
	}
	if err := n.dnode.Port().Configure(n.session.Planner().Params()); err != nil {
		n.Logger.Debugf("radio not retuned: %v", err)
	}
}
