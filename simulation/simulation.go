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

// Package simulation runs a network of fieldmesh nodes over the simulated air medium of the
// dispatcher: every node owns a protocol session and a planner, sensors send periodic readings and
// gateways collect them.
package simulation

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/fieldmesh/fieldmesh/dispatcher"
	"github.com/fieldmesh/fieldmesh/energy"
	"github.com/fieldmesh/fieldmesh/linkbudget"
	"github.com/fieldmesh/fieldmesh/logger"
	"github.com/fieldmesh/fieldmesh/node"
	"github.com/fieldmesh/fieldmesh/progctx"
	. "github.com/fieldmesh/fieldmesh/types"
)

type Simulation struct {
	Started   chan struct{}
	ctx       *progctx.ProgCtx
	stopped   bool
	cfg       *Config
	nodes     map[NodeAddr]*Node
	d         *dispatcher.Dispatcher
	collector *node.Collector
	kpiMgr    *KpiManager
	readings  *ReadingsWriter
	cmdRunner CmdRunner
	logLevel  logger.Level
}

func NewSimulation(ctx *progctx.ProgCtx, cfg *Config) (*Simulation, error) {
	s := &Simulation{
		Started: make(chan struct{}),
		ctx:     ctx,
		cfg:     cfg,
		nodes:   map[NodeAddr]*Node{},
	}

	lvl, err := logger.ParseLevelString(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	s.logLevel = lvl

	if err := createOutputDir(cfg.OutputDir); err != nil {
		return nil, errors.Wrapf(err, "creating output directory %s", cfg.OutputDir)
	}
	if err := s.cleanOutputDir(cfg.Id); err != nil {
		return nil, errors.Wrapf(err, "cleaning output directory %s", cfg.OutputDir)
	}

	s.collector = node.NewCollector(func() uint64 {
		return s.d.CurTime
	})

	d, err := dispatcher.NewDispatcher(ctx, cfg.dispatcherConfig(), s)
	if err != nil {
		return nil, err
	}
	s.d = d
	s.d.GetEnergyAnalyser().SetTitle(fmt.Sprintf("%d_energy", cfg.Id))

	if cfg.ReadingsCsv {
		rw, err := NewReadingsWriter(s.readingsFileName())
		if err != nil {
			s.d.Stop()
			return nil, err
		}
		s.readings = rw
		s.collector.OnRecord(func(rec node.Record) {
			if err := rw.Write(rec); err != nil {
				logger.Errorf("writing reading failed: %v", err)
			}
		})
	}

	s.kpiMgr = NewKpiManager()
	s.kpiMgr.Init(s)
	if cfg.KpiEnabled {
		s.kpiMgr.Start()
	}
	return s, nil
}

// AddNode creates a node with config cfg. An InvalidAddr address is replaced by the lowest free one.
func (s *Simulation) AddNode(cfg *NodeConfig) (*Node, error) {
	if s.stopped {
		return nil, ErrSimulationStopped
	}
	if cfg.Addr == InvalidAddr {
		addr, err := s.genNodeAddr()
		if err != nil {
			return nil, err
		}
		cfg.Addr = addr
	}
	if s.nodes[cfg.Addr] != nil {
		return nil, errors.Wrapf(ErrNodeExists, "%v", cfg.Addr)
	}
	s.NodeConfigFinalize(cfg)
	if err := validateNodeConfig(cfg); err != nil {
		return nil, err
	}

	planner, err := linkbudget.NewPlannerWithParams(initialParams(cfg))
	if err != nil {
		return nil, errors.Wrapf(err, "initial params of %v", cfg.Addr)
	}

	logger.Debugf("simulation:AddNode: %+v", *cfg)
	dnode, err := s.d.AddNode(cfg, planner.Params())
	if err != nil {
		return nil, err
	}
	n := newNode(s, cfg, planner, dnode)
	n.Logger.SetDisplayLevel(s.logLevel)
	s.nodes[cfg.Addr] = n

	if !n.IsGateway() {
		if err := s.d.SetSendInterval(cfg.Addr, s.cfg.SendIntervalUs); err != nil {
			logger.Panicf("send interval of new node: %v", err)
		}
	}
	n.Logger.Infof("added %s at (%.1f, %.1f) range %.1fm params %v", cfg.Role, cfg.X, cfg.Y, cfg.Range,
		planner.Params())
	n.Logger.DisplayPendingLogEntries(s.d.CurTime)
	return n, nil
}

func (s *Simulation) genNodeAddr() (NodeAddr, error) {
	for addr := NodeAddr(1); addr < BroadcastAddr; addr++ {
		if s.nodes[addr] == nil {
			return addr, nil
		}
	}
	return InvalidAddr, ErrNoFreeAddr
}

// Run runs the dispatcher in the current goroutine until the program context is done.
func (s *Simulation) Run() {
	defer logger.Debugf("simulation exit.")
	defer s.d.Stop()
	defer s.shutdown()

	close(s.Started)
	s.d.Run()
}

// Stop ends the simulation; Run returns once the dispatcher has exited.
func (s *Simulation) Stop() {
	s.ctx.Cancel("simulation-stop")
}

func (s *Simulation) shutdown() {
	if s.stopped {
		return
	}
	logger.Infof("stopping simulation ...")
	s.stopped = true

	s.kpiMgr.Stop()
	if s.readings != nil {
		if err := s.readings.Close(); err != nil {
			logger.Errorf("closing readings file failed: %v", err)
		}
	}
	for addr := range s.nodes {
		logger.RemoveNodeLogger(addr)
	}
}

// SetLogLevel sets the level of the program log and of the log display of every node.
func (s *Simulation) SetLogLevel(level logger.Level) {
	s.logLevel = level
	logger.SetLevel(level)
	for _, n := range s.nodes {
		n.Logger.SetDisplayLevel(level)
	}
}

func (s *Simulation) GetLogLevel() logger.Level {
	return s.logLevel
}

func (s *Simulation) IsStopping() bool {
	return s.stopped || s.ctx.Err() != nil
}

func (s *Simulation) Nodes() map[NodeAddr]*Node {
	return s.nodes
}

// GetNodes returns the node addresses in increasing order.
func (s *Simulation) GetNodes() []NodeAddr {
	addrs := make([]NodeAddr, 0, len(s.nodes))
	for addr := range s.nodes {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

func (s *Simulation) GetNode(addr NodeAddr) (*Node, error) {
	n := s.nodes[addr]
	if n == nil {
		return nil, errors.Wrapf(ErrNodeNotFound, "%v", addr)
	}
	return n, nil
}

// checkDestination returns ErrNodeNotFound unless dst is the broadcast address or an existing node.
func (s *Simulation) checkDestination(dst NodeAddr) error {
	if dst == BroadcastAddr {
		return nil
	}
	_, err := s.GetNode(dst)
	return err
}

func (s *Simulation) getGateway(addr NodeAddr) (*Node, error) {
	n, err := s.GetNode(addr)
	if err != nil {
		return nil, err
	}
	if !n.IsGateway() {
		return nil, errors.Wrapf(ErrNotGateway, "%v", addr)
	}
	return n, nil
}

// OnAlarm is called by the dispatcher when the send interval of a node has passed.
func (s *Simulation) OnAlarm(addr NodeAddr) {
	n := s.nodes[addr]
	if n == nil {
		return
	}
	n.session.Send()
}

// OnFrameReceived is called by the dispatcher when frames are queued at the port of a node.
func (s *Simulation) OnFrameReceived(addr NodeAddr) {
	n := s.nodes[addr]
	if n == nil || !s.cfg.AutoReceive {
		return
	}
	n.receivePending()
	n.syncRadio()
}

func (s *Simulation) OnNodeFail(addr NodeAddr) {
	n := s.nodes[addr]
	logger.AssertNotNil(n)
	s.kpiMgr.onNodeFail(addr)
}

func (s *Simulation) OnNodeRecover(addr NodeAddr) {
	n := s.nodes[addr]
	logger.AssertNotNil(n)
	n.syncRadio()
}

func (s *Simulation) PostAsync(trivial bool, f func()) {
	s.d.PostAsync(trivial, f)
}

// PostAsyncWait runs f in the dispatcher goroutine and waits until it is done.
func (s *Simulation) PostAsyncWait(f func()) error {
	done := make(chan struct{})
	s.d.PostAsync(false, func() {
		defer close(done)
		f()
	})
	select {
	case <-done:
		return nil
	case <-s.ctx.Done():
		return ErrSimulationStopped
	}
}

func (s *Simulation) Dispatcher() *dispatcher.Dispatcher {
	return s.d
}

func (s *Simulation) VisitNodesInOrder(cb func(n *Node)) {
	for _, addr := range s.GetNodes() {
		cb(s.nodes[addr])
	}
}

func (s *Simulation) MoveNodeTo(addr NodeAddr, x, y float64) error {
	n, err := s.GetNode(addr)
	if err != nil {
		return err
	}
	n.cfg.X, n.cfg.Y = x, y
	return s.d.SetNodePos(addr, x, y)
}

func (s *Simulation) DeleteNode(addr NodeAddr) error {
	if _, err := s.GetNode(addr); err != nil {
		return err
	}
	s.kpiMgr.stopNode(addr)
	if err := s.d.DeleteNode(addr); err != nil {
		return err
	}
	delete(s.nodes, addr)
	return nil
}

func (s *Simulation) SetNodeFailed(addr NodeAddr, failed bool) error {
	return s.d.SetNodeFailed(addr, failed)
}

func (s *Simulation) SetFailTime(addr NodeAddr, failTime dispatcher.FailTime) error {
	return s.d.SetFailTime(addr, failTime)
}

// SetSendInterval changes the reading interval of the sensor at addr, or of all sensors and of
// sensors added later if addr is InvalidAddr.
func (s *Simulation) SetSendInterval(addr NodeAddr, intervalUs uint64) error {
	if addr != InvalidAddr {
		n, err := s.GetNode(addr)
		if err != nil {
			return err
		}
		if n.IsGateway() {
			return errors.Errorf("gateway %v does not send readings", addr)
		}
		return s.d.SetSendInterval(addr, intervalUs)
	}
	s.cfg.SendIntervalUs = intervalUs
	var err error
	s.VisitNodesInOrder(func(n *Node) {
		if !n.IsGateway() && err == nil {
			err = s.d.SetSendInterval(n.Addr, intervalUs)
		}
	})
	return err
}

// Send makes the sensor at addr send a reading now.
func (s *Simulation) Send(addr NodeAddr) error {
	n, err := s.GetNode(addr)
	if err != nil {
		return err
	}
	if !n.session.Send() {
		return errors.Errorf("node %v could not send", addr)
	}
	return nil
}

// Receive handles the frames queued at the port of addr and returns how many were accepted.
func (s *Simulation) Receive(addr NodeAddr) (int, error) {
	n, err := s.GetNode(addr)
	if err != nil {
		return 0, err
	}
	handled := n.receivePending()
	n.syncRadio()
	return handled, nil
}

// SetRange sets the operating range of addr and replans its radio parameters.
func (s *Simulation) SetRange(addr NodeAddr, rangeM float64) error {
	n, err := s.GetNode(addr)
	if err != nil {
		return err
	}
	if !n.session.SetRange(rangeM) {
		return errors.Errorf("range %.1fm rejected", rangeM)
	}
	n.syncRadio()
	return nil
}

// ResetNode restores the default radio parameters and thresholds of addr.
func (s *Simulation) ResetNode(addr NodeAddr) error {
	n, err := s.GetNode(addr)
	if err != nil {
		return err
	}
	n.session.Planner().ResetToDefaults()
	n.syncRadio()
	n.Logger.Infof("reset to default params %v", n.session.Planner().Params())
	return nil
}

// SendConfig makes gateway gw send radio parameters p to dst.
func (s *Simulation) SendConfig(gw NodeAddr, dst NodeAddr, p RadioParams) error {
	n, err := s.getGateway(gw)
	if err != nil {
		return err
	}
	if err := s.checkDestination(dst); err != nil {
		return err
	}
	if err := linkbudget.ValidateParams(p); err != nil {
		return err
	}
	if !n.session.SendConfig(dst, p) {
		return errors.Errorf("gateway %v could not send config", gw)
	}
	return nil
}

// SendThresholds makes gateway gw send alert thresholds t to dst.
func (s *Simulation) SendThresholds(gw NodeAddr, dst NodeAddr, t Thresholds) error {
	n, err := s.getGateway(gw)
	if err != nil {
		return err
	}
	if err := s.checkDestination(dst); err != nil {
		return err
	}
	if err := linkbudget.ValidateThresholds(t); err != nil {
		return err
	}
	if !n.session.SendThresholds(dst, t) {
		return errors.Errorf("gateway %v could not send thresholds", gw)
	}
	return nil
}

// SendFail makes node src report a missed frame to dst.
func (s *Simulation) SendFail(src NodeAddr, dst NodeAddr) error {
	n, err := s.GetNode(src)
	if err != nil {
		return err
	}
	if err := s.checkDestination(dst); err != nil {
		return err
	}
	if !n.session.SendFail(dst) {
		return errors.Errorf("node %v could not send sendfail", src)
	}
	return nil
}

func (s *Simulation) SetSpeed(speed float64) {
	s.d.SetSpeed(speed)
}

func (s *Simulation) GetSpeed() float64 {
	return s.d.GetSpeed()
}

// Go runs the simulation for duration at the dispatcher's speed.
func (s *Simulation) Go(duration time.Duration) <-chan struct{} {
	return s.d.Go(duration)
}

func (s *Simulation) Collector() *node.Collector {
	return s.collector
}

func (s *Simulation) GetEnergyAnalyser() *energy.EnergyAnalyser {
	return s.d.GetEnergyAnalyser()
}

// SaveEnergy writes the energy reports into the output directory.
func (s *Simulation) SaveEnergy(name string) error {
	return s.d.GetEnergyAnalyser().SaveEnergyDataToFile(s.cfg.OutputDir, name, s.d.CurTime)
}

func (s *Simulation) KpiManager() *KpiManager {
	return s.kpiMgr
}

func (s *Simulation) SetCmdRunner(cmdRunner CmdRunner) {
	logger.AssertTrue(s.cmdRunner == nil)
	s.cmdRunner = cmdRunner
}

func (s *Simulation) GetConfig() *Config {
	return s.cfg
}

func (s *Simulation) readingsFileName() string {
	return filepath.Join(s.cfg.OutputDir, fmt.Sprintf("%d_readings.csv", s.cfg.Id))
}

func (s *Simulation) cleanOutputDir(simulationId int) error {
	for _, pattern := range []string{"node_*.log", fmt.Sprintf("%d_*.*", simulationId)} {
		if err := removeAllFiles(filepath.Join(s.cfg.OutputDir, pattern)); err != nil {
			return err
		}
	}
	return nil
}
