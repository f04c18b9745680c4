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
	"fmt"

	"github.com/fieldmesh/fieldmesh/logger"
	"github.com/fieldmesh/fieldmesh/radiomodel"
	. "github.com/fieldmesh/fieldmesh/types"
)

// Node is the dispatcher's view of one node: its position and radio on the simulated air medium.
type Node struct {
	D           *Dispatcher
	Addr        NodeAddr
	X, Y        float64
	CreateTime  uint64
	CurTime     uint64
	Gateway     bool
	PhyStats    PhyStats
	failureCtrl *FailureCtrl
	isFailed    bool
	radioNode   *radiomodel.RadioNode
	port        *Port
	sendIntvUs  uint64
	logger      *logger.NodeLogger
}

func newNode(d *Dispatcher, cfg *NodeConfig, params RadioParams) *Node {
	logger.AssertTrue(cfg.Range >= 0)

	radioCfg := &radiomodel.RadioNodeConfig{
		X:           cfg.X,
		Y:           cfg.Y,
		HeightM:     cfg.HeightM,
		ChipAntenna: cfg.ChipAntenna,
		MultiSF:     cfg.IsGateway(),
		RadioRange:  cfg.Range,
		Params:      params,
	}

	node := &Node{
		D:          d,
		Addr:       cfg.Addr,
		X:          cfg.X,
		Y:          cfg.Y,
		CreateTime: d.CurTime,
		CurTime:    d.CurTime,
		Gateway:    cfg.IsGateway(),
		radioNode:  radiomodel.NewRadioNode(cfg.Addr, radioCfg),
		logger:     logger.GetNodeLogger(d.cfg.OutputDir, cfg),
	}
	node.port = newPort(node, d.cfg.MaxRxQueue)
	node.failureCtrl = newFailureCtrl(node, NonFailTime)
	return node
}

func (node *Node) String() string {
	return fmt.Sprintf("Node<%v>", node.Addr)
}

// Port returns the transport the node protocol of this node uses.
func (node *Node) Port() *Port {
	return node.port
}

func (node *Node) Logger() *logger.NodeLogger {
	return node.logger
}

func (node *Node) RadioParams() RadioParams {
	return node.radioNode.Params
}

func (node *Node) RadioState() RadioStates {
	return node.radioNode.RadioState
}

func (node *Node) RadioRange() float64 {
	return node.radioNode.RadioRange
}

func (node *Node) GetDistanceTo(other *Node) float64 {
	return node.radioNode.GetDistanceTo(other.radioNode)
}

func (node *Node) IsFailed() bool {
	return node.isFailed
}

func (node *Node) IsTransmitting() bool {
	return node.radioNode.RadioState == RadioTx
}

func (node *Node) Fail() {
	if node.isFailed {
		return
	}
	node.isFailed = true
	node.port.flush()
	node.setRadioState(RadioDisabled)
	node.logger.Infof("node failed")
	node.D.cbHandler.OnNodeFail(node.Addr)
}

func (node *Node) Recover() {
	if !node.isFailed {
		return
	}
	node.isFailed = false
	node.setRadioState(RadioRx)
	node.logger.Infof("node recovered")
	node.D.cbHandler.OnNodeRecover(node.Addr)
}

func (node *Node) FailTime() FailTime {
	return node.failureCtrl.FailTime()
}

func (node *Node) SetFailTime(failTime FailTime) {
	node.failureCtrl.SetFailTime(failTime)
}

func (node *Node) DumpStat() string {
	return fmt.Sprintf("CurTime=%v, Failed=%-5v, RecoverTS=%v", node.CurTime, node.isFailed,
		node.failureCtrl.recoverTs)
}

// setRadioState moves the radio to state, accounting the energy of the previous state.
func (node *Node) setRadioState(state RadioStates) {
	node.radioNode.SetRadioState(state)
	if e := node.D.energyAnalyser; e != nil {
		if ne := e.GetNode(node.Addr); ne != nil {
			ne.SetRadioState(state, node.radioNode.Params.TxPowerDbm, node.D.CurTime)
		}
	}
}
