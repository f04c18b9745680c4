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

// Package dispatcher simulates the air medium between fieldmesh nodes. It owns the simulated time,
// the periodic send alarms of the nodes and the frames in flight, and decides per receiver whether a
// frame arrives: channel match, path loss against sensitivity, half duplex, collisions and random loss.
package dispatcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/fieldmesh/fieldmesh/energy"
	"github.com/fieldmesh/fieldmesh/linkbudget"
	"github.com/fieldmesh/fieldmesh/logger"
	"github.com/fieldmesh/fieldmesh/packet"
	"github.com/fieldmesh/fieldmesh/pcap"
	"github.com/fieldmesh/fieldmesh/prng"
	"github.com/fieldmesh/fieldmesh/progctx"
	"github.com/fieldmesh/fieldmesh/radiomodel"
	. "github.com/fieldmesh/fieldmesh/types"
)

const (
	MaxSimulateSpeed = 1000000

	// periodic sends are spread by a random delay of up to a tenth of the interval
	sendJitterDivisor = 10
)

var (
	ErrNodeExists   = errors.New("node already exists")
	ErrNodeNotFound = errors.New("node not found")
	ErrInvalidAddr  = errors.New("invalid node address")
)

type goDuration struct {
	duration time.Duration
	done     chan struct{}
}

type Dispatcher struct {
	ctx                   *progctx.ProgCtx
	cfg                   Config
	cbHandler             CallbackHandler
	waitGroup             sync.WaitGroup
	CurTime               uint64
	pauseTime             uint64
	failureTime           uint64
	alarmMgr              *alarmMgr
	evtQueue              *sendQueue
	airFrames             []*radioFrame
	nodes                 map[NodeAddr]*Node
	deletedNodes          map[NodeAddr]struct{}
	pcap                  pcap.File
	pcapFrameChan         chan pcap.Frame
	taskChan              chan func()
	speed                 float64
	speedStartRealTime    time.Time
	speedStartTime        uint64
	goDurationChan        chan goDuration
	globalPacketLossRatio float64
	radioModel            radiomodel.RadioModel
	energyAnalyser        *energy.EnergyAnalyser
	oldStats              NodeStats
	stopped               bool

	Counters struct {
		AlarmEvents       uint64
		TxFrames          uint64
		DeliveredFrames   uint64
		WeakFrames        uint64
		Collisions        uint64
		HalfDuplexMisses  uint64
		LostFrames        uint64
		SendFailsReported uint64
	}
}

func NewDispatcher(ctx *progctx.ProgCtx, cfg *Config, cbHandler CallbackHandler) (*Dispatcher, error) {
	logger.AssertNotNil(cbHandler)

	rm, err := radiomodel.NewRadioModel(cfg.RadioModel)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		ctx:                ctx,
		cfg:                *cfg,
		cbHandler:          cbHandler,
		failureTime:        Ever,
		alarmMgr:           newAlarmMgr(),
		evtQueue:           newSendQueue(),
		nodes:              make(map[NodeAddr]*Node),
		deletedNodes:       map[NodeAddr]struct{}{},
		speedStartRealTime: time.Now(),
		taskChan:           make(chan func(), 100),
		goDurationChan:     make(chan goDuration, 10),
		radioModel:         rm,
		energyAnalyser:     energy.NewEnergyAnalyser(),
	}
	d.speed = d.normalizeSpeed(cfg.Speed)
	d.SetGlobalPacketLossRatio(cfg.PacketLossRatio)

	if cfg.PcapEnabled && cfg.PcapFrameType != pcap.FrameTypeOff {
		fn := filepath.Join(cfg.OutputDir, DefaultPcapFile)
		if d.pcap, err = pcap.NewFile(fn, cfg.PcapFrameType, true); err != nil {
			return nil, errors.Wrapf(err, "create pcap %s", fn)
		}
		d.pcapFrameChan = make(chan pcap.Frame, 10000)
		d.waitGroup.Add(1)
		go d.pcapFrameWriter()
	}

	logger.Infof("dispatcher started: cfg=%+v", *cfg)
	return d, nil
}

func (d *Dispatcher) Stop() {
	if d.stopped {
		return
	}
	d.stopped = true
	if d.pcapFrameChan != nil {
		close(d.pcapFrameChan)
	}
	d.waitGroup.Wait()
	for _, node := range d.nodes {
		node.logger.Close()
	}
}

// Nodes returns the nodes by address. The map must only be used from the dispatcher goroutine.
func (d *Dispatcher) Nodes() map[NodeAddr]*Node {
	return d.nodes
}

// SortedAddrs returns the addresses of all nodes in increasing order.
func (d *Dispatcher) SortedAddrs() []NodeAddr {
	addrs := make([]NodeAddr, 0, len(d.nodes))
	for addr := range d.nodes {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// Go advances the simulation by duration. The returned channel is closed when the time has passed.
func (d *Dispatcher) Go(duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	d.goDurationChan <- goDuration{
		duration: duration,
		done:     done,
	}
	return done
}

func (d *Dispatcher) Run() {
	d.ctx.WaitAdd("dispatcher", 1)
	defer d.ctx.WaitDone("dispatcher")
	defer logger.Debugf("dispatcher exit.")

	defer d.Stop()

	done := d.ctx.Done()
loop:
	for {
		select {
		case f := <-d.taskChan:
			f()
		case duration := <-d.goDurationChan:
			d.speedStartRealTime = time.Now()
			d.speedStartTime = d.CurTime

			logger.AssertTrue(d.CurTime == d.pauseTime)
			oldPauseTime := d.pauseTime
			d.pauseTime += uint64(duration.duration / time.Microsecond)
			if d.pauseTime > Ever || d.pauseTime < oldPauseTime {
				d.pauseTime = Ever
			}

			d.goUntilPauseTime()

			if d.ctx.Err() != nil {
				close(duration.done)
				break loop
			}

			logger.AssertTrue(d.CurTime == d.pauseTime)
			if d.pcap != nil {
				d.pcapFrameChan <- pcap.Frame{Timestamp: Ever}
			}
			close(duration.done)
		case <-done:
			break loop
		}
	}
}

func (d *Dispatcher) goUntilPauseTime() {
	for d.CurTime < d.pauseTime {
		d.handleTasks()

		if d.ctx.Err() != nil {
			break
		}

		if !d.processNextEvent() {
			d.advanceTime(d.pauseTime)
		}
	}
}

// processNextEvent handles the earliest alarm, end of transmission or failure instant up to the pause
// time. It returns false if there is none.
func (d *Dispatcher) processNextEvent() bool {
	logger.AssertTrue(d.CurTime <= d.pauseTime)

	nextAlarmTime := d.alarmMgr.NextTimestamp()
	nextSendTime := d.evtQueue.NextTimestamp()
	nextEventTime := min(min(nextAlarmTime, nextSendTime), d.failureTime)

	// pace simulated time against real time
	if d.speed < MaxSimulateSpeed {
		sleepUntilTime := min(nextEventTime, d.pauseTime)

		var needSleepDuration time.Duration
		if d.speed <= 0 {
			needSleepDuration = time.Hour
		} else {
			needSleepDuration = time.Duration(float64(sleepUntilTime-d.speedStartTime)/d.speed) * time.Microsecond
		}
		sleepTime := time.Until(d.speedStartRealTime.Add(needSleepDuration))
		if sleepTime > 0 {
			if sleepTime > time.Millisecond*10 {
				sleepTime = time.Millisecond * 10
			}
			time.Sleep(sleepTime)
			return true
		}
	}

	if nextEventTime > d.pauseTime {
		return false
	}

	d.advanceTime(nextEventTime)
	switch {
	case nextSendTime == nextEventTime:
		d.handleTxDone(d.evtQueue.PopNext())
	case nextAlarmTime == nextEventTime:
		d.handleAlarm(d.alarmMgr.NextAlarm().Addr)
	}
	return true
}

func (d *Dispatcher) advanceTime(ts uint64) {
	logger.AssertTrue(d.CurTime <= ts, "%v > %v", d.CurTime, ts)
	if d.CurTime < ts {
		oldTime := d.CurTime
		d.CurTime = ts
		d.radioModel.OnAdvanceTime(ts)
		d.energyAnalyser.OnTimeAdvanced(ts)
		if ts/1000000 != oldTime/1000000 {
			d.logStatsChange()
		}
	}
	for _, node := range d.nodes {
		node.CurTime = ts
		node.logger.DisplayPendingLogEntries(ts)
	}
	d.updateFailures()
}

// updateFailures runs the failure controls of all nodes and records the earliest next fail or recover
// instant.
func (d *Dispatcher) updateFailures() {
	d.failureTime = Ever
	for _, addr := range d.SortedAddrs() {
		node := d.nodes[addr]
		if node == nil {
			continue
		}
		node.CurTime = d.CurTime
		d.failureTime = min(d.failureTime, node.failureCtrl.OnTimeAdvanced())
	}
}

func (d *Dispatcher) handleAlarm(addr NodeAddr) {
	d.Counters.AlarmEvents++
	node := d.nodes[addr]
	logger.AssertNotNil(node)

	next := Ever
	if node.sendIntvUs > 0 {
		next = d.CurTime + node.sendIntvUs + prng.NewJitter(node.sendIntvUs/sendJitterDivisor)
	}
	d.alarmMgr.SetTimestamp(addr, next)

	if node.isFailed {
		return
	}
	d.cbHandler.OnAlarm(addr)
}

// startTx puts data sent by node on the air for its time on air.
func (d *Dispatcher) startTx(node *Node, data []byte) {
	params := node.radioNode.Params
	airtime := uint64(linkbudget.TimeOnAir(params, len(data)) / time.Microsecond)
	if airtime == 0 {
		airtime = 1
	}

	node.setRadioState(RadioTx)
	f := &radioFrame{
		StartTime: d.CurTime,
		Timestamp: d.CurTime + airtime,
		Src:       node.Addr,
		Data:      data,
		srcRadio:  *node.radioNode,
	}
	d.evtQueue.Add(f)
	d.airFrames = append(d.airFrames, f)

	node.PhyStats.TxFrames++
	node.PhyStats.TxBytes += uint64(len(data))
	node.PhyStats.TxAirtimeUs += airtime
	d.Counters.TxFrames++
	node.logger.Debugf("tx %s (%d us, %v)", packet.HexDump(data), airtime, params)
}

// handleTxDone ends the airtime of f and delivers it to every node that receives it.
func (d *Dispatcher) handleTxDone(f *radioFrame) {
	f.done = true
	defer d.pruneAirFrames()

	src := d.nodes[f.Src]
	if src == nil {
		if _, ok := d.deletedNodes[f.Src]; !ok {
			logger.Errorf("%v: sender of frame not found", f.Src)
		}
		return
	}
	if src.isFailed {
		// the outage cut the frame off
		return
	}
	src.setRadioState(RadioRx)

	dst := InvalidAddr
	typ := MessageNone
	if len(f.Data) >= packet.HeaderSize {
		typ = MessageType(f.Data[0])
		dst = NodeAddr(f.Data[1])
	}

	var receivers []NodeAddr
	delivered := false
	captureRssi := f.srcRadio.TxPower
	for _, addr := range d.SortedAddrs() {
		rx := d.nodes[addr]
		if addr == f.Src || rx.isFailed {
			continue
		}
		ok, rssi := d.receiveFrame(f, rx)
		if ok {
			receivers = append(receivers, addr)
		}
		if addr == dst {
			delivered = ok
			captureRssi = rssi
		}
	}

	if d.cfg.ReportSendFail && typ == MessageData && dst != BroadcastAddr && !delivered {
		if dn := d.nodes[dst]; dn != nil && !dn.isFailed && dst != f.Src {
			d.reportSendFail(src, dn)
			receivers = append(receivers, src.Addr)
		}
	}

	if d.pcap != nil {
		d.pcapFrameChan <- pcap.Frame{
			Timestamp: f.Timestamp,
			Data:      f.Data,
			Params:    f.srcRadio.Params,
			Rssi:      float32(captureRssi),
		}
	}
	if d.cfg.DumpPackets {
		d.dumpPacket(f)
	}

	for _, addr := range receivers {
		if node := d.nodes[addr]; node != nil && !node.isFailed {
			d.cbHandler.OnFrameReceived(addr)
		}
	}
}

// receiveFrame decides whether rx receives f and queues it at its port if so. It returns the RSSI of f
// at rx.
func (d *Dispatcher) receiveFrame(f *radioFrame, rx *Node) (bool, DbValue) {
	srcRadio := &f.srcRadio
	if !rx.radioNode.CanHear(srcRadio) {
		return false, radiomodel.RssiMinusInfinity
	}
	rssi := d.radioModel.GetTxRssi(srcRadio, rx.radioNode)

	for _, other := range d.airFrames {
		if other.Src == rx.Addr && other.overlaps(f) {
			rx.PhyStats.RxHalfDuplex++
			d.Counters.HalfDuplexMisses++
			return false, rssi
		}
	}

	if !d.radioModel.CheckRadioReachable(srcRadio, rx.radioNode, rssi) {
		rx.PhyStats.RxWeak++
		d.Counters.WeakFrames++
		return false, rssi
	}

	var interferers []DbValue
	for _, other := range d.airFrames {
		if other == f || other.Src == rx.Addr || !other.overlaps(f) ||
			!other.srcRadio.Params.SameChannel(srcRadio.Params) {
			continue
		}
		interferers = append(interferers, d.radioModel.GetTxRssi(&other.srcRadio, rx.radioNode))
	}
	if len(interferers) > 0 &&
		radiomodel.ComputeSirDb(rssi, interferers) < d.radioModel.GetParameters().CaptureThresholdDb {
		rx.PhyStats.RxCollisions++
		d.Counters.Collisions++
		rx.logger.Debugf("collision on frame from %v, %d interferers", f.Src, len(interferers))
		return false, rssi
	}

	if d.globalPacketLossRatio > 0 && prng.NewUnitRandom() < d.globalPacketLossRatio {
		rx.PhyStats.RxLost++
		d.Counters.LostFrames++
		return false, rssi
	}

	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	rx.port.deliver(data, rssi, true)
	rx.PhyStats.RxFrames++
	d.Counters.DeliveredFrames++
	rx.logger.Debugf("rx %s from %v rssi %.1f dBm", packet.HexDump(data), f.Src, rssi)
	return true, rssi
}

// reportSendFail queues a SendFail frame from dst at the port of src, out of band.
func (d *Dispatcher) reportSendFail(src *Node, dst *Node) {
	frame := packet.EncodeFrame(&packet.Packet{Type: MessageSendFail, Dst: src.Addr, Src: dst.Addr})
	src.port.deliver(frame, 0, false)
	src.PhyStats.SendFailsRcvd++
	d.Counters.SendFailsReported++
	src.logger.Debugf("frame to %v missed, SendFail reported", dst.Addr)
}

// pruneAirFrames forgets finished frames that no active frame overlaps anymore.
func (d *Dispatcher) pruneAirFrames() {
	minStart := Ever
	for _, f := range d.airFrames {
		if !f.done {
			minStart = min(minStart, f.StartTime)
		}
	}
	kept := d.airFrames[:0]
	for _, f := range d.airFrames {
		if !f.done || f.Timestamp > minStart {
			kept = append(kept, f)
		}
	}
	for i := len(kept); i < len(d.airFrames); i++ {
		d.airFrames[i] = nil
	}
	d.airFrames = kept
}

func (d *Dispatcher) pcapFrameWriter() {
	defer d.waitGroup.Done()

	defer func() {
		err := d.pcap.Close()
		if err != nil {
			logger.Errorf("failed to close pcap: %v", err)
		}
	}()
	for frame := range d.pcapFrameChan {
		if frame.Timestamp == Ever {
			_ = d.pcap.Sync()
			continue
		}
		if err := d.pcap.AppendFrame(frame); err != nil {
			logger.Errorf("write pcap failed:%+v", err)
		}
	}
}

// AddNode attaches a node to the medium, listening with params.
func (d *Dispatcher) AddNode(cfg *NodeConfig, params RadioParams) (*Node, error) {
	if cfg.Addr == InvalidAddr || cfg.Addr == BroadcastAddr {
		return nil, errors.Wrapf(ErrInvalidAddr, "%v", cfg.Addr)
	}
	if d.nodes[cfg.Addr] != nil {
		return nil, errors.Wrapf(ErrNodeExists, "%v", cfg.Addr)
	}
	logger.Infof("dispatcher add node %v", cfg.Addr)

	node := newNode(d, cfg, params)
	d.nodes[cfg.Addr] = node
	delete(d.deletedNodes, cfg.Addr)
	d.alarmMgr.AddNode(cfg.Addr)
	d.energyAnalyser.AddNode(cfg.Addr, d.CurTime)
	return node, nil
}

func (d *Dispatcher) DeleteNode(addr NodeAddr) error {
	node := d.nodes[addr]
	if node == nil {
		return errors.Wrapf(ErrNodeNotFound, "%v", addr)
	}

	delete(d.nodes, addr)
	d.alarmMgr.DeleteNode(addr)
	d.energyAnalyser.DeleteNode(addr)
	d.deletedNodes[addr] = struct{}{}
	logger.RemoveNodeLogger(addr)
	d.updateFailures()
	return nil
}

func (d *Dispatcher) GetNode(addr NodeAddr) *Node {
	return d.nodes[addr]
}

func (d *Dispatcher) getNode(addr NodeAddr) (*Node, error) {
	node := d.nodes[addr]
	if node == nil {
		return nil, errors.Wrapf(ErrNodeNotFound, "%v", addr)
	}
	return node, nil
}

// SetSendInterval makes the alarm of a node fire every intervalUs, starting at a random instant within
// the first interval. Zero stops the alarm.
func (d *Dispatcher) SetSendInterval(addr NodeAddr, intervalUs uint64) error {
	node, err := d.getNode(addr)
	if err != nil {
		return err
	}
	node.sendIntvUs = intervalUs
	ts := Ever
	if intervalUs > 0 {
		ts = d.CurTime + prng.NewJitter(intervalUs)
	}
	d.alarmMgr.SetTimestamp(addr, ts)
	return nil
}

func (d *Dispatcher) SendInterval(addr NodeAddr) uint64 {
	if node := d.nodes[addr]; node != nil {
		return node.sendIntvUs
	}
	return 0
}

func (d *Dispatcher) SetNodePos(addr NodeAddr, x, y float64) error {
	node, err := d.getNode(addr)
	if err != nil {
		return err
	}
	node.X, node.Y = x, y
	node.radioNode.SetNodePos(x, y)
	return nil
}

// SetRadioRange sets the operating range used by disc-limited radio models.
func (d *Dispatcher) SetRadioRange(addr NodeAddr, rangeM float64) error {
	node, err := d.getNode(addr)
	if err != nil {
		return err
	}
	node.radioNode.RadioRange = rangeM
	return nil
}

// SetNodeFailed fails or recovers a node explicitly; its random failure schedule is cleared.
func (d *Dispatcher) SetNodeFailed(addr NodeAddr, fail bool) error {
	node, err := d.getNode(addr)
	if err != nil {
		return err
	}
	node.SetFailTime(NonFailTime)
	if fail {
		node.Fail()
	} else {
		node.Recover()
	}
	d.updateFailures()
	return nil
}

func (d *Dispatcher) SetFailTime(addr NodeAddr, failTime FailTime) error {
	node, err := d.getNode(addr)
	if err != nil {
		return err
	}
	if failTime.CanFail() && failTime.FailInterval <= failTime.FailDuration {
		return errors.Errorf("fail interval %d us must exceed fail duration %d us", failTime.FailInterval,
			failTime.FailDuration)
	}
	node.SetFailTime(failTime)
	d.updateFailures()
	return nil
}

func (d *Dispatcher) GetFailedCount() int {
	return countFailed(d.nodes)
}

func (d *Dispatcher) PostAsync(trivial bool, task func()) {
	if trivial {
		select {
		case d.taskChan <- task:
		default:
		}
	} else {
		d.taskChan <- task
	}
}

func (d *Dispatcher) handleTasks() {
	defer func() {
		err := recover()
		if err != nil {
			logger.Errorf("dispatcher handle task failed: %+v", err)
		}
	}()

loop:
	for {
		select {
		case t := <-d.taskChan:
			t()
		default:
			break loop
		}
	}
}

func (d *Dispatcher) SetSpeed(f float64) {
	ns := d.normalizeSpeed(f)
	if ns == d.speed {
		return
	}

	d.speedStartRealTime = time.Now()
	d.speedStartTime = d.CurTime
	d.speed = ns
}

func (d *Dispatcher) normalizeSpeed(f float64) float64 {
	if f <= 0 {
		f = 0
	} else if f >= MaxSimulateSpeed {
		f = MaxSimulateSpeed
	}
	return f
}

func (d *Dispatcher) GetSpeed() float64 {
	return d.speed
}

func (d *Dispatcher) GetGlobalPacketLossRatio() float64 {
	return d.globalPacketLossRatio
}

func (d *Dispatcher) SetGlobalPacketLossRatio(plr float64) {
	if plr > 1 {
		plr = 1
	} else if plr < 0 {
		plr = 0
	}
	d.globalPacketLossRatio = plr
}

func (d *Dispatcher) GetRadioModel() radiomodel.RadioModel {
	return d.radioModel
}

func (d *Dispatcher) SetRadioModel(name string) error {
	rm, err := radiomodel.NewRadioModel(name)
	if err != nil {
		return err
	}
	d.radioModel = rm
	return nil
}

func (d *Dispatcher) GetEnergyAnalyser() *energy.EnergyAnalyser {
	return d.energyAnalyser
}

// SetReportSendFail enables the SendFail report for missed unicast Data frames.
func (d *Dispatcher) SetReportSendFail(on bool) {
	d.cfg.ReportSendFail = on
}

func (d *Dispatcher) ReportSendFail() bool {
	return d.cfg.ReportSendFail
}

func (d *Dispatcher) dumpPacket(f *radioFrame) {
	sb := strings.Builder{}
	_, _ = fmt.Fprintf(&sb, "DUMP:PACKET:%d:%v:", f.Timestamp, f.Src)
	for _, b := range f.Data {
		_, _ = fmt.Fprintf(&sb, "%02X", b)
	}

	_, _ = fmt.Fprintf(os.Stdout, "%s\n", sb.String())
}
