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

// Package node implements the protocol side of a fieldmesh node: periodic sending of sensor readings
// to a rotating set of peers, and handling of received Config, Thresholds and SendFail frames.
package node

import (
	"github.com/pkg/errors"

	"github.com/fieldmesh/fieldmesh/linkbudget"
	"github.com/fieldmesh/fieldmesh/logger"
	"github.com/fieldmesh/fieldmesh/packet"
	. "github.com/fieldmesh/fieldmesh/types"
)

// RangeGrowth is the factor applied to the operating range for each SendFail received.
const RangeGrowth = 1.1

// LinkInfo describes the reception of a frame, if the transport reports it.
type LinkInfo struct {
	Valid       bool
	RssiDbm     DbValue
	Sensitivity DbValue
}

// DataSink consumes Data frames received by a gateway node.
type DataSink interface {
	HandleData(msg *packet.DataMessage, thresholds Thresholds, link LinkInfo)
}

type Stats struct {
	Sent               uint64 `yaml:"sent"`
	SendErrors         uint64 `yaml:"send-errors"`
	Received           uint64 `yaml:"received"`
	Dropped            uint64 `yaml:"dropped"`
	DataIgnored        uint64 `yaml:"data-ignored"`
	ConfigApplied      uint64 `yaml:"config-applied"`
	ConfigRejected     uint64 `yaml:"config-rejected"`
	ThresholdsApplied  uint64 `yaml:"thresholds-applied"`
	ThresholdsRejected uint64 `yaml:"thresholds-rejected"`
	SendFails          uint64 `yaml:"sendfails"`
}

// Session is the protocol state of one node. It owns its planner; sessions share no state. Send and
// Receive are not safe for concurrent use with each other, the planner may be read concurrently.
type Session struct {
	addr         NodeAddr
	destinations []NodeAddr
	currentRange float64
	groundLevel  bool
	heightM      float64
	nextDst      int

	planner   *linkbudget.Planner
	transport Transport
	sensor    Sensor
	sink      DataSink
	log       *logger.NodeLogger

	lastDst NodeAddr
	rxBuf   []byte
	stats   Stats
}

// NewSession creates the session of the node with config cfg. The sensor may be nil for a node that
// does not send readings.
func NewSession(cfg *NodeConfig, planner *linkbudget.Planner, transport Transport, sensor Sensor,
	log *logger.NodeLogger) *Session {
	logger.AssertNotNil(planner)
	logger.AssertNotNil(transport)
	logger.AssertNotNil(log)

	s := &Session{
		addr:         cfg.Addr,
		destinations: append([]NodeAddr(nil), cfg.Destinations...),
		currentRange: cfg.Range,
		groundLevel:  cfg.GroundLevel,
		heightM:      cfg.HeightM,
		planner:      planner,
		transport:    transport,
		sensor:       sensor,
		log:          log,
		rxBuf:        make([]byte, 0, packet.MaxFrameSize),
	}
	return s
}

// SetDataSink makes the session consume received Data frames. Without a sink they are ignored.
func (s *Session) SetDataSink(sink DataSink) {
	s.sink = sink
}

func (s *Session) Addr() NodeAddr {
	return s.addr
}

func (s *Session) Planner() *linkbudget.Planner {
	return s.planner
}

// Range returns the current operating range in meters.
func (s *Session) Range() float64 {
	return s.currentRange
}

// SetRange sets the operating range and applies the parameters planned for it.
func (s *Session) SetRange(r float64) bool {
	if r <= 0 {
		return false
	}
	s.currentRange = r
	return s.applyRange()
}

func (s *Session) Destinations() []NodeAddr {
	return append([]NodeAddr(nil), s.destinations...)
}

// LastDestination returns the destination of the last Data frame sent, InvalidAddr if none.
func (s *Session) LastDestination() NodeAddr {
	return s.lastDst
}

func (s *Session) Stats() Stats {
	return s.stats
}

// peekDestination returns the next destination in turn. The rotation only advances with
// advanceDestination, once a frame went out.
func (s *Session) peekDestination() (NodeAddr, error) {
	if len(s.destinations) == 0 {
		return InvalidAddr, ErrNoDestination
	}
	return s.destinations[s.nextDst%len(s.destinations)], nil
}

func (s *Session) advanceDestination() {
	s.nextDst = (s.nextDst + 1) % len(s.destinations)
}

// Send captures a reading and sends it as a Data frame to the next destination in turn. It returns
// false if the sensor or the transport failed, including by panicking.
func (s *Session) Send() (ok bool) {
	defer s.recoverSend(&ok)

	if s.sensor == nil {
		return s.result(ErrNoSensor)
	}
	r, err := s.sensor.CaptureReading()
	if err != nil {
		return s.result(errors.Wrap(err, "sensor"))
	}
	dst, err := s.peekDestination()
	if err != nil {
		return s.result(err)
	}
	if err = s.transmit(&packet.DataMessage{
		Header:  packet.Header{Dst: dst, Src: s.addr},
		Reading: r,
	}); err == nil {
		s.lastDst = dst
		s.advanceDestination()
	}
	return s.result(err)
}

// SendConfig sends radio parameters p to dst.
func (s *Session) SendConfig(dst NodeAddr, p RadioParams) bool {
	return s.sendMessage(&packet.ConfigMessage{
		Header: packet.Header{Dst: dst, Src: s.addr},
		Params: p,
	})
}

// SendThresholds sends alert thresholds t to dst.
func (s *Session) SendThresholds(dst NodeAddr, t Thresholds) bool {
	return s.sendMessage(&packet.ThresholdsMessage{
		Header:     packet.Header{Dst: dst, Src: s.addr},
		Thresholds: t,
	})
}

// SendFail reports to dst that a frame from it was not received.
func (s *Session) SendFail(dst NodeAddr) bool {
	return s.sendMessage(&packet.SendFailMessage{
		Header: packet.Header{Dst: dst, Src: s.addr},
	})
}

func (s *Session) sendMessage(msg packet.Message) (ok bool) {
	defer s.recoverSend(&ok)
	return s.result(s.transmit(msg))
}

// recoverSend turns a panic of the sensor or the transport into a failed send.
func (s *Session) recoverSend(ok *bool) {
	if r := recover(); r != nil {
		*ok = s.result(errors.Errorf("panic: %v", r))
	}
}

func (s *Session) result(err error) bool {
	if err != nil {
		s.stats.SendErrors++
		s.log.Warnf("send failed: %v", err)
		return false
	}
	s.stats.Sent++
	return true
}

func (s *Session) transmit(msg packet.Message) error {
	if err := s.transport.Configure(s.planner.Params()); err != nil {
		return errors.Wrap(err, "configure radio")
	}
	frame := packet.EncodeFrame(msg.Packet())
	if err := s.transport.BeginFrame(); err != nil {
		return errors.Wrap(err, "begin frame")
	}
	for _, b := range frame {
		if err := s.transport.WriteByte(b); err != nil {
			return errors.Wrap(err, "write frame")
		}
	}
	if err := s.transport.EndFrame(); err != nil {
		return errors.Wrap(err, "end frame")
	}
	s.log.Debugf("sent %v: %s", msg, packet.HexDump(frame))
	return nil
}

// Receive polls the transport for one frame and handles it. It returns false at once if no frame is
// pending, and false if the pending frame was rejected.
func (s *Session) Receive() bool {
	n := s.transport.PendingFrameSize()
	if n <= 0 {
		return false
	}
	buf := s.rxBuf[:0]
	for i := 0; i < n; i++ {
		b, err := s.transport.ReadByte()
		if err != nil {
			s.stats.Dropped++
			s.log.Warnf("read frame: %v", err)
			return false
		}
		buf = append(buf, b)
	}
	s.rxBuf = buf[:0]

	msg, err := packet.DecodeWithReason(buf, s.addr)
	if err != nil {
		s.stats.Dropped++
		s.log.Debugf("dropped frame %s: %v", packet.HexDump(buf), err)
		return false
	}
	s.stats.Received++
	s.log.Debugf("received %v", msg)
	s.handle(msg)
	return true
}

func (s *Session) handle(msg packet.Message) {
	switch m := msg.(type) {
	case *packet.DataMessage:
		if s.sink == nil {
			s.stats.DataIgnored++
			return
		}
		s.sink.HandleData(m, s.planner.Thresholds(), s.linkInfo())
	case *packet.ConfigMessage:
		if err := s.planner.TrySetParams(m.Params); err != nil {
			s.stats.ConfigRejected++
			s.log.Warnf("config from %v rejected: %v", m.Src, err)
			return
		}
		s.stats.ConfigApplied++
		s.log.Infof("config from %v applied: %v", m.Src, m.Params)
	case *packet.ThresholdsMessage:
		if err := s.planner.TrySetThresholds(m.Thresholds); err != nil {
			s.stats.ThresholdsRejected++
			s.log.Warnf("thresholds from %v rejected: %v", m.Src, err)
			return
		}
		s.stats.ThresholdsApplied++
		s.log.Infof("thresholds from %v applied: %v", m.Src, m.Thresholds)
	case *packet.SendFailMessage:
		s.stats.SendFails++
		s.currentRange *= RangeGrowth
		s.log.Infof("sendfail from %v, range now %.1fm", m.Src, s.currentRange)
		s.applyRange()
	default:
		logger.Panicf("unhandled message %T", msg)
	}
}

func (s *Session) applyRange() bool {
	var p RadioParams
	if s.groundLevel {
		p = s.planner.GroundLevelConfig(s.currentRange, s.heightM)
	} else {
		p = s.planner.OptimalParamsForRange(s.currentRange)
	}
	if err := s.planner.TrySetParams(p); err != nil {
		s.log.Errorf("params for range %.1fm rejected: %v", s.currentRange, err)
		return false
	}
	s.log.Debugf("params for range %.1fm: %v", s.currentRange, p)
	return true
}

func (s *Session) linkInfo() LinkInfo {
	rr, ok := s.transport.(RssiReporter)
	if !ok {
		return LinkInfo{}
	}
	rssi, ok := rr.LastRssi()
	if !ok {
		return LinkInfo{}
	}
	p := s.planner.Params()
	return LinkInfo{
		Valid:       true,
		RssiDbm:     rssi,
		Sensitivity: linkbudget.Sensitivity(p.SpreadingFactor, p.BandwidthHz),
	}
}
