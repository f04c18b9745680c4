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
	"encoding/hex"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/fieldmesh/fieldmesh/alert"
	"github.com/fieldmesh/fieldmesh/linkbudget"
	"github.com/fieldmesh/fieldmesh/logger"
	"github.com/fieldmesh/fieldmesh/packet"
	. "github.com/fieldmesh/fieldmesh/types"
)

type fakeTransport struct {
	sent       [][]byte
	cur        []byte
	rx         [][]byte
	configured []RadioParams
	failWrite  bool
	failRead   bool
	rssi       DbValue
	haveRssi   bool
}

func (f *fakeTransport) BeginFrame() error {
	f.cur = []byte{}
	return nil
}

func (f *fakeTransport) WriteByte(b byte) error {
	if f.failWrite {
		return errors.New("radio busy")
	}
	f.cur = append(f.cur, b)
	return nil
}

func (f *fakeTransport) EndFrame() error {
	f.sent = append(f.sent, f.cur)
	f.cur = nil
	return nil
}

func (f *fakeTransport) PendingFrameSize() int {
	if len(f.rx) == 0 {
		return 0
	}
	return len(f.rx[0])
}

func (f *fakeTransport) ReadByte() (byte, error) {
	if f.failRead || len(f.rx) == 0 {
		return 0, errors.New("nothing to read")
	}
	b := f.rx[0][0]
	f.rx[0] = f.rx[0][1:]
	if len(f.rx[0]) == 0 {
		f.rx = f.rx[1:]
	}
	return b, nil
}

func (f *fakeTransport) Configure(p RadioParams) error {
	f.configured = append(f.configured, p)
	return nil
}

func (f *fakeTransport) LastRssi() (DbValue, bool) {
	return f.rssi, f.haveRssi
}

func (f *fakeTransport) push(t *testing.T, hexFrame string) {
	b, err := hex.DecodeString(hexFrame)
	assert.NoError(t, err)
	f.rx = append(f.rx, b)
}

type fixedSensor struct {
	r   SensorReading
	err error
}

func (s *fixedSensor) CaptureReading() (SensorReading, error) {
	return s.r, s.err
}

func newTestSession(t *testing.T) (*Session, *fakeTransport, *fixedSensor) {
	cfg := DefaultNodeConfig()
	cfg.Addr = DefaultLocalAddr
	tr := &fakeTransport{}
	sn := &fixedSensor{r: SensorReading{TemperatureC: 25.3, HumidityPct: 60.5, SoilMoisture: 512}}
	s := NewSession(&cfg, linkbudget.NewPlanner(), tr, sn, logger.GetNodeLogger("", &cfg))
	return s, tr, sn
}

func TestSendRotatesDestinations(t *testing.T) {
	s, tr, _ := newTestSession(t)
	for i := 0; i < 7; i++ {
		assert.True(t, s.Send())
	}
	assert.Len(t, tr.sent, 7)
	want := []NodeAddr{1, 2, 3, 4, 5, 1, 2}
	for i, frame := range tr.sent {
		assert.Equal(t, byte(MessageData), frame[0])
		assert.Equal(t, byte(want[i]), frame[1])
		assert.Equal(t, byte(DefaultLocalAddr), frame[2])
	}
	assert.Equal(t, "0101038dea1240", hex.EncodeToString(tr.sent[0]))
	assert.Equal(t, NodeAddr(2), s.LastDestination())
	assert.Equal(t, uint64(7), s.Stats().Sent)
}

func TestSendConfiguresRadio(t *testing.T) {
	s, tr, _ := newTestSession(t)
	assert.True(t, s.Send())
	assert.Equal(t, []RadioParams{linkbudget.DefaultParams()}, tr.configured)
}

func TestSendSensorFailure(t *testing.T) {
	s, tr, sn := newTestSession(t)
	sn.err = errors.New("i2c timeout")
	assert.False(t, s.Send())
	assert.Empty(t, tr.sent)
	assert.Equal(t, uint64(1), s.Stats().SendErrors)

	sn.err = nil
	assert.True(t, s.Send())
	// rotation only advances once a reading was taken
	assert.Equal(t, byte(1), tr.sent[0][1])
}

func TestSendTransportFailure(t *testing.T) {
	s, tr, _ := newTestSession(t)
	tr.failWrite = true
	assert.False(t, s.Send())
	assert.Empty(t, tr.sent)
	assert.Equal(t, InvalidAddr, s.LastDestination())

	tr.failWrite = false
	assert.True(t, s.Send())
	// a rejected frame does not use up its destination
	assert.Equal(t, byte(1), tr.sent[0][1])
	assert.True(t, s.Send())
	assert.Equal(t, byte(2), tr.sent[1][1])
}

type panickingSensor struct{}

func (panickingSensor) CaptureReading() (SensorReading, error) {
	panic("adc bus fault")
}

type panickingTransport struct {
	fakeTransport
}

func (*panickingTransport) EndFrame() error {
	panic("spi timeout")
}

func TestSendRecoversSensorPanic(t *testing.T) {
	s, tr, _ := newTestSession(t)
	s.sensor = panickingSensor{}
	assert.NotPanics(t, func() {
		assert.False(t, s.Send())
	})
	assert.Empty(t, tr.sent)
	assert.Equal(t, uint64(1), s.Stats().SendErrors)
	assert.Equal(t, uint64(0), s.Stats().Sent)
}

func TestSendRecoversTransportPanic(t *testing.T) {
	cfg := DefaultNodeConfig()
	cfg.Addr = DefaultLocalAddr
	tr := &panickingTransport{}
	sn := &fixedSensor{r: SensorReading{TemperatureC: 20}}
	s := NewSession(&cfg, linkbudget.NewPlanner(), tr, sn, logger.GetNodeLogger("", &cfg))

	assert.NotPanics(t, func() {
		assert.False(t, s.Send())
		assert.False(t, s.SendConfig(2, linkbudget.DefaultParams()))
		assert.False(t, s.SendThresholds(2, linkbudget.DefaultThresholds()))
		assert.False(t, s.SendFail(2))
	})
	assert.Equal(t, uint64(4), s.Stats().SendErrors)
	assert.Equal(t, uint64(0), s.Stats().Sent)
	assert.Equal(t, InvalidAddr, s.LastDestination())
}

func TestSendWithoutSensor(t *testing.T) {
	cfg := DefaultNodeConfig()
	cfg.Addr = 0x01
	cfg.Role = GATEWAY
	s := NewSession(&cfg, linkbudget.NewPlanner(), &fakeTransport{}, nil, logger.GetNodeLogger("", &cfg))
	assert.False(t, s.Send())
}

func TestReceiveNothingPending(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.False(t, s.Receive())
	assert.Equal(t, Stats{}, s.Stats())
}

func TestReceiveConfig(t *testing.T) {
	s, tr, _ := newTestSession(t)
	tr.push(t, "02030112070534080061037d00")
	assert.True(t, s.Receive())

	p := s.Planner().Params()
	assert.Equal(t, 0x12, p.TxPowerDbm)
	assert.Equal(t, 865e6, p.FrequencyHz)
	assert.Equal(t, uint64(1), s.Stats().ConfigApplied)
}

func TestReceiveInvalidConfigKeepsParams(t *testing.T) {
	s, tr, _ := newTestSession(t)
	// SF 13
	tr.push(t, "020301120d0534080061037d00")
	assert.True(t, s.Receive())
	assert.Equal(t, linkbudget.DefaultParams(), s.Planner().Params())
	assert.Equal(t, uint64(1), s.Stats().ConfigRejected)
}

func TestReceiveThresholds(t *testing.T) {
	s, tr, _ := newTestSession(t)
	th := Thresholds{LowTempC: 0, HighTempC: 40, LowHumidityPct: 20, HighHumidityPct: 90, LowSoil: 100, HighSoil: 900}
	tr.rx = append(tr.rx, packet.EncodeFrame((&packet.ThresholdsMessage{
		Header:     packet.Header{Dst: BroadcastAddr, Src: 0x01},
		Thresholds: th,
	}).Packet()))
	assert.True(t, s.Receive())
	assert.Equal(t, th, s.Planner().Thresholds())
}

func TestReceiveSendFailWidensRange(t *testing.T) {
	s, tr, _ := newTestSession(t)
	assert.Equal(t, 30.0, s.Range())
	tr.push(t, "040302")
	assert.True(t, s.Receive())

	assert.InDelta(t, 33.0, s.Range(), 1e-9)
	assert.Equal(t, s.Planner().OptimalParamsForRange(33.0), s.Planner().Params())
	assert.Equal(t, uint64(1), s.Stats().SendFails)
	// no resend
	assert.Empty(t, tr.sent)
}

func TestReceiveRejectedFrames(t *testing.T) {
	s, tr, _ := newTestSession(t)
	for _, f := range []string{
		"0403",           // short
		"090302",         // type
		"040702",         // address
		"01030112",       // data payload too short
		"04030201",       // sendfail with payload
		"0103018dea1240", // valid data, ignored below
	} {
		tr.push(t, f)
	}
	for i := 0; i < 5; i++ {
		assert.False(t, s.Receive(), "frame %d", i)
	}
	assert.True(t, s.Receive())
	assert.Equal(t, uint64(5), s.Stats().Dropped)
	assert.Equal(t, uint64(1), s.Stats().DataIgnored)
	assert.Equal(t, linkbudget.DefaultParams(), s.Planner().Params())
}

func TestReceiveReadError(t *testing.T) {
	s, tr, _ := newTestSession(t)
	tr.push(t, "040302")
	tr.failRead = true
	assert.False(t, s.Receive())
	assert.Equal(t, 30.0, s.Range())
}

func TestGatewayCollects(t *testing.T) {
	cfg := DefaultNodeConfig()
	cfg.Addr = 0x01
	cfg.Role = GATEWAY
	tr := &fakeTransport{rssi: -60, haveRssi: true}
	gw := NewSession(&cfg, linkbudget.NewPlanner(), tr, nil, logger.GetNodeLogger("", &cfg))
	var now uint64 = 1000
	col := NewCollector(func() uint64 { return now })
	gw.SetDataSink(col)

	var seen []Record
	col.OnRecord(func(r Record) { seen = append(seen, r) })

	tr.push(t, "0101038dea1240")
	assert.True(t, gw.Receive())

	recs := col.Records()
	assert.Len(t, recs, 1)
	assert.Equal(t, NodeAddr(0x03), recs[0].Src)
	assert.Equal(t, uint64(1000), recs[0].TimeUs)
	assert.InDelta(t, 50.05, recs[0].SoilPct, 0.01)
	assert.Equal(t, alert.None, recs[0].Alerts)
	assert.True(t, recs[0].HaveRssi)
	assert.Equal(t, recs, seen)

	// 45C reading is over the default high temperature bound
	tr.rx = append(tr.rx, packet.EncodeFrame((&packet.DataMessage{
		Header:  packet.Header{Dst: 0x01, Src: 0x04},
		Reading: SensorReading{TemperatureC: 45, HumidityPct: 50, SoilMoisture: 100},
	}).Packet()))
	now = 2000
	assert.True(t, gw.Receive())
	latest := col.Latest()
	assert.Len(t, latest, 2)
	assert.Equal(t, NodeAddr(0x04), latest[1].Src)
	assert.Equal(t, alert.HighTemp|alert.LowSoil|alert.Multiple, latest[1].Alerts)
	assert.Equal(t, 1, col.AlertCounts()[alert.HighTemp])

	col.Reset()
	assert.Empty(t, col.Records())
}

func TestGatewaySenders(t *testing.T) {
	cfg := DefaultNodeConfig()
	cfg.Addr = 0x01
	tr := &fakeTransport{}
	gw := NewSession(&cfg, linkbudget.NewPlanner(), tr, nil, logger.GetNodeLogger("", &cfg))

	p := linkbudget.DefaultParams()
	p.FrequencyHz = 865e6
	p.TxPowerDbm = 0x12
	assert.True(t, gw.SendConfig(0x03, p))
	assert.True(t, gw.SendThresholds(BroadcastAddr, linkbudget.DefaultThresholds()))
	assert.True(t, gw.SendFail(0x03))

	assert.Equal(t, "02030112070534080061037d00", hex.EncodeToString(tr.sent[0]))
	assert.Equal(t, "03ff01c201ee022c012003d007401f", hex.EncodeToString(tr.sent[1]))
	assert.Equal(t, "040301", hex.EncodeToString(tr.sent[2]))
}

func TestSetRange(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.False(t, s.SetRange(0))
	assert.True(t, s.SetRange(500))
	assert.Equal(t, 9, s.Planner().Params().SpreadingFactor)
}
