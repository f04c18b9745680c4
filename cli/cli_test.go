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

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fieldmesh/fieldmesh/linkbudget"
	"github.com/fieldmesh/fieldmesh/pcap"
	"github.com/fieldmesh/fieldmesh/prng"
	"github.com/fieldmesh/fieldmesh/progctx"
	"github.com/fieldmesh/fieldmesh/simulation"
)

func TestParseBytes(t *testing.T) {
	var cmd Command
	assert.NotNil(t, parseBytes([]byte("wrongcmd"), &cmd))

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("add sensor"), &cmd))
	assert.True(t, cmd.Add != nil && cmd.Add.Role.Val == "sensor")
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("add gw"), &cmd))
	assert.True(t, cmd.Add != nil && cmd.Add.Role.Val == "gw")
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("add sensor x 100 y -20.5"), &cmd))
	assert.Equal(t, 100.0, cmd.Add.X.Value())
	assert.Equal(t, -20.5, cmd.Add.Y.Value())
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("add sensor id 7 range 1500 height 0.3 dst 1 2 chip ground"), &cmd))
	assert.Equal(t, 7, cmd.Add.Id.Val)
	assert.Equal(t, 1500.0, cmd.Add.Range.Val)
	assert.Equal(t, 0.3, cmd.Add.Height.Val)
	assert.Equal(t, []int{1, 2}, cmd.Add.Dst.Addrs)
	assert.NotNil(t, cmd.Add.Chip)
	assert.NotNil(t, cmd.Add.Ground)
	assert.NotNil(t, parseBytes([]byte("add router"), &cmd))

	assert.True(t, parseBytes([]byte("airtime 7"), &cmd) == nil && cmd.Airtime != nil)
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("airtime 7 sf 12 bw 250 cr 8"), &cmd))
	assert.Equal(t, 12, *cmd.Airtime.Opts.Sf)
	assert.Equal(t, 250.0, *cmd.Airtime.Opts.Bw)
	assert.Equal(t, 8, *cmd.Airtime.Opts.Cr)

	assert.True(t, parseBytes([]byte("alerts"), &cmd) == nil && cmd.Alerts != nil)

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("config 1 3 sf 9 tx 14 freq 866"), &cmd))
	assert.Equal(t, 1, cmd.Config.Gateway.Id)
	assert.Equal(t, 3, cmd.Config.Dst.Id)
	assert.Equal(t, 9, *cmd.Config.Opts.Sf)
	assert.Equal(t, 14, *cmd.Config.Opts.Tx)
	assert.Equal(t, 866.0, *cmd.Config.Opts.Freq)
	assert.NotNil(t, parseBytes([]byte("config 1"), &cmd))

	assert.True(t, parseBytes([]byte("counters"), &cmd) == nil && cmd.Counters != nil)

	assert.True(t, parseBytes([]byte("del 1"), &cmd) == nil && cmd.Del != nil)
	assert.True(t, parseBytes([]byte("del 1 2 3"), &cmd) == nil && cmd.Del != nil)
	assert.True(t, parseBytes([]byte("del"), &cmd) != nil)

	assert.True(t, parseBytes([]byte("energy"), &cmd) == nil && cmd.Energy != nil)
	assert.True(t, parseBytes([]byte("energy save \"run1\""), &cmd) == nil && cmd.Energy.Save != nil)

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("estimate"), &cmd))
	assert.NotNil(t, cmd.Estimate)
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("estimate 3 sf 10 height 0.4 chip"), &cmd))
	assert.Equal(t, 3, cmd.Estimate.Node.Id)
	assert.Equal(t, 0.4, *cmd.Estimate.Height)
	assert.NotNil(t, cmd.Estimate.Chip)

	assert.True(t, parseBytes([]byte("exit"), &cmd) == nil && cmd.Exit != nil)

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("fail 2 3"), &cmd))
	assert.Equal(t, 2, len(cmd.Fail.Nodes))
	assert.Nil(t, cmd.Fail.Recover)
	assert.True(t, parseBytes([]byte("fail 2 recover"), &cmd) == nil && cmd.Fail.Recover != nil)
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("fail 2 ft 10 60.5"), &cmd))
	assert.Equal(t, 60.5, cmd.Fail.FailTime.FailInterval)

	assert.Nil(t, parseBytes([]byte("go 1"), &cmd))
	assert.Nil(t, parseBytes([]byte("go 1.1"), &cmd))
	assert.Nil(t, parseBytes([]byte("go 64us"), &cmd))
	assert.Nil(t, parseBytes([]byte("go 5h"), &cmd))
	assert.Nil(t, parseBytes([]byte("go ever"), &cmd))
	assert.Nil(t, parseBytes([]byte("go 100 speed 0.5"), &cmd))
	assert.NotNil(t, cmd.Go)

	assert.True(t, parseBytes([]byte("help"), &cmd) == nil && cmd.Help != nil)
	assert.True(t, parseBytes([]byte("help config"), &cmd) == nil && cmd.Help.HelpTopic == "config")

	assert.True(t, parseBytes([]byte("interval all"), &cmd) == nil && cmd.Interval != nil)
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("interval 3 30"), &cmd))
	assert.Equal(t, 3, cmd.Interval.Node.Id)
	assert.Equal(t, 30.0, *cmd.Interval.Seconds)

	assert.True(t, parseBytes([]byte("kpi"), &cmd) == nil && cmd.Kpi != nil)
	assert.True(t, parseBytes([]byte("kpi start"), &cmd) == nil && cmd.Kpi.Operation == "start")
	assert.True(t, parseBytes([]byte("kpi save \"k.json\""), &cmd) == nil && cmd.Kpi.Filename == "k.json")

	assert.True(t, parseBytes([]byte("load \"net.yaml\""), &cmd) == nil && cmd.Load != nil)
	assert.True(t, parseBytes([]byte("save \"net.yaml\""), &cmd) == nil && cmd.Save != nil)

	assert.True(t, parseBytes([]byte("log"), &cmd) == nil && cmd.LogLevel != nil)
	assert.True(t, parseBytes([]byte("log debug"), &cmd) == nil && cmd.LogLevel != nil)
	assert.True(t, parseBytes([]byte("log fatal"), &cmd) != nil)

	assert.True(t, parseBytes([]byte("move 1 200 -300"), &cmd) == nil && cmd.Move.Y.Value() == -300)
	assert.True(t, parseBytes([]byte("nodes"), &cmd) == nil && cmd.Nodes != nil)

	assert.True(t, parseBytes([]byte("params 2"), &cmd) == nil && cmd.Params != nil)
	assert.True(t, parseBytes([]byte("params 2 reset"), &cmd) == nil && cmd.Params.Reset != nil)

	assert.True(t, parseBytes([]byte("plan 3000"), &cmd) == nil && cmd.Plan.Range == 3000)
	assert.True(t, parseBytes([]byte("plan 300 height 0.3"), &cmd) == nil && *cmd.Plan.Height == 0.3)

	assert.True(t, parseBytes([]byte("plr"), &cmd) == nil && cmd.Plr != nil)
	assert.True(t, parseBytes([]byte("plr 0.1"), &cmd) == nil && *cmd.Plr.Val == 0.1)

	assert.True(t, parseBytes([]byte("radiomodel"), &cmd) == nil && cmd.RadioModel != nil)
	assert.True(t, parseBytes([]byte("radiomodel Rural"), &cmd) == nil && cmd.RadioModel.Model == "Rural")

	assert.True(t, parseBytes([]byte("range 2"), &cmd) == nil && cmd.Range.Val == nil)
	assert.True(t, parseBytes([]byte("range 2 750"), &cmd) == nil && *cmd.Range.Val == 750)

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("readings latest 3 last 5"), &cmd))
	assert.NotNil(t, cmd.Readings.Latest)
	assert.Equal(t, 3, cmd.Readings.Src.Id)
	assert.Equal(t, 5, *cmd.Readings.Last)

	assert.True(t, parseBytes([]byte("recv 1"), &cmd) == nil && cmd.Recv != nil)
	assert.True(t, parseBytes([]byte("send 2 3"), &cmd) == nil && len(cmd.Send.Nodes) == 2)
	assert.True(t, parseBytes([]byte("sendfail 1 2"), &cmd) == nil && cmd.SendFail.Dst.Id == 2)

	assert.True(t, parseBytes([]byte("speed"), &cmd) == nil && cmd.Speed != nil)
	assert.True(t, parseBytes([]byte("speed max"), &cmd) == nil && cmd.Speed.Max != nil)
	assert.True(t, parseBytes([]byte("speed 2.5"), &cmd) == nil && *cmd.Speed.Speed == 2.5)

	assert.True(t, parseBytes([]byte("stats"), &cmd) == nil && cmd.Stats != nil)

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("thresholds 1 2 temp -5 30 soil 100 900"), &cmd))
	assert.Equal(t, -5.0, cmd.Thresholds.Opts.Temp.Low.Value())
	assert.Equal(t, 900.0, cmd.Thresholds.Opts.Soil.High.Value())
	assert.Nil(t, cmd.Thresholds.Opts.Hum)

	assert.True(t, parseBytes([]byte("time"), &cmd) == nil && cmd.Time != nil)
}

func TestGetUniqueAndSorted(t *testing.T) {
	res := getUniqueAndSorted([]NodeSelector{{Id: 3}, {Id: 1}, {Id: 3}, {Id: 2}})
	assert.Equal(t, []NodeSelector{{Id: 1}, {Id: 2}, {Id: 3}}, res)
}

func TestApplyParamOpts(t *testing.T) {
	var cmd Command
	assert.Nil(t, parseBytes([]byte("airtime 7 bw 7.8 freq 866 sync 18"), &cmd))
	p := applyParamOpts(linkbudget.DefaultParams(), cmd.Airtime.Opts)
	assert.Equal(t, 7.8e3, p.BandwidthHz)
	assert.Equal(t, 866e6, p.FrequencyHz)
	assert.Equal(t, uint8(18), p.SyncWord)
}

func TestHelpCoversCommands(t *testing.T) {
	help := newHelp()
	for _, name := range []string{"add", "del", "nodes", "go", "send", "recv", "range", "params", "config",
		"thresholds", "sendfail", "fail", "plan", "estimate", "airtime", "readings", "alerts", "energy",
		"kpi", "save", "load", "log", "help", "exit"} {
		assert.Contains(t, help.commands, name)
		assert.NotEmpty(t, help.commands[name].summary, name)
		assert.NotEmpty(t, help.commands[name].usage, name)
	}
	assert.Contains(t, help.outputGeneralHelp(), "sendfail")
	assert.Contains(t, help.outputCommandHelp("config"), "config <gateway> <dst>")
	assert.Contains(t, help.outputCommandHelp("nosuchcmd"), "no such command")
}

type testRunner struct {
	t   *testing.T
	cr  *CmdRunner
	sim *simulation.Simulation
}

func newTestRunner(t *testing.T) *testRunner {
	prng.Init(1)
	cfg := simulation.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.RadioModel = "Ideal"
	cfg.PcapFrameType = pcap.FrameTypeOff
	cfg.SendIntervalUs = 10 * 1000000

	ctx := progctx.New(context.Background())
	sim, err := simulation.NewSimulation(ctx, cfg)
	assert.NoError(t, err)
	if err != nil {
		t.FailNow()
	}
	ctx.Go("simulation", sim.Run)
	<-sim.Started
	t.Cleanup(func() {
		sim.Stop()
		ctx.Wait()
	})
	return &testRunner{t: t, cr: NewCmdRunner(ctx, sim), sim: sim}
}

// run executes cmd and returns its output without the final status line.
func (tr *testRunner) run(cmd string) string {
	var out bytes.Buffer
	assert.NoError(tr.t, tr.cr.RunCommand(cmd, &out))
	s := out.String()
	assert.True(tr.t, strings.HasSuffix(s, "Done\n"), "%s: %s", cmd, s)
	return strings.TrimSuffix(s, "Done\n")
}

func (tr *testRunner) runErr(cmd string) string {
	var out bytes.Buffer
	assert.NoError(tr.t, tr.cr.RunCommand(cmd, &out))
	s := out.String()
	assert.Contains(tr.t, s, "Error: ", cmd)
	return s
}

func TestRunnerNetwork(t *testing.T) {
	tr := newTestRunner(t)

	assert.Equal(t, "1\n", tr.run("add gateway x 0 y 0"))
	assert.Equal(t, "2\n", tr.run("add sensor x 10 y 0 dst 1"))
	assert.Equal(t, "5\n", tr.run("add sensor id 5 x -10 y 0"))
	tr.runErr("add sensor id 5")
	tr.runErr("add sensor id 255")

	nodes := tr.run("nodes")
	assert.Equal(t, 3, strings.Count(nodes, "\n"))
	assert.Contains(t, nodes, "role=gateway")

	tr.run("go 60")
	assert.NotEmpty(t, tr.run("readings"))
	assert.Equal(t, 2, strings.Count(tr.run("readings latest"), "\n"))
	assert.Equal(t, 1, strings.Count(tr.run("readings 2 last 1"), "\n"))
	assert.Contains(t, tr.run("stats 2"), "sent:")
	tr.runErr("stats 9")
	assert.Contains(t, tr.run("counters"), "TxFrames")
	assert.Contains(t, tr.run("time"), "60000000")

	tr.run("move 5 0 10")
	tr.run("del 5")
	tr.runErr("del 5")
	assert.Equal(t, 2, strings.Count(tr.run("nodes"), "\n"))
}

func TestRunnerConfigAndThresholds(t *testing.T) {
	tr := newTestRunner(t)
	tr.run("add gateway")
	tr.run("add sensor x 10")
	tr.run("interval 2 0")

	assert.Contains(t, tr.run("thresholds 1 2 temp -5 25"), "temp-low: -5")
	tr.run("go 2")
	assert.Contains(t, tr.run("thresholds 2"), "temp-high: 25")
	tr.runErr("thresholds 2 1 temp 0 20")
	tr.runErr("thresholds 1 2 hum 90 10")

	assert.Contains(t, tr.run("config 1 2 sf 9"), "sf: 9")
	tr.run("go 2")
	assert.Contains(t, tr.run("params 2"), "sf: 9")
	tr.runErr("config 1 2 sf 13")
	tr.runErr("config 1 9 sf 9")
	tr.runErr("thresholds 1 9 temp 0 20")
	assert.Contains(t, tr.run("params 2 reset"), "sf: 7")

	assert.Equal(t, "750.0\n", tr.run("range 2 750"))
	assert.Equal(t, "750.0\n", tr.run("range 2"))
	tr.runErr("range 2 0")
}

func TestRunnerManualSendAndFail(t *testing.T) {
	tr := newTestRunner(t)
	tr.run("add gateway")
	tr.run("add sensor x 10")
	tr.run("interval all 0")
	assert.Equal(t, "0\n", tr.run("interval all"))
	tr.runErr("interval 1 10")

	tr.run("send 2")
	tr.run("go 1")
	assert.Equal(t, 1, strings.Count(tr.run("readings"), "\n"))

	tr.run("fail 1")
	tr.run("send 2")
	tr.run("go 1")
	assert.Equal(t, 1, strings.Count(tr.run("readings"), "\n"))
	tr.run("fail 1 recover")
	tr.runErr("fail 1 ft 10 5")
	tr.run("fail 1 ft 0 0")
	tr.runErr("fail 9")
	assert.Equal(t, "node=1\treceived=0\n", tr.run("recv 1"))

	before := tr.run("range 2")
	tr.run("sendfail 1 2")
	tr.run("go 1")
	assert.NotEqual(t, before, tr.run("range 2"))
	tr.runErr("sendfail 1 9")
}

func TestRunnerPlanning(t *testing.T) {
	tr := newTestRunner(t)

	assert.Contains(t, tr.run("plan 150"), "sf: 7")
	assert.Contains(t, tr.run("plan 500"), "sf: 9")
	assert.Contains(t, tr.run("plan 300 height 0.3"), "ground-range:")
	tr.runErr("plan 0")

	est := tr.run("estimate sf 12")
	assert.Contains(t, est, "sensitivity:")
	assert.NotContains(t, est, "ground-range")
	assert.Contains(t, tr.run("estimate height 0.4 chip"), "ground-range:")
	tr.runErr("estimate sf 13")
	tr.runErr("estimate 4")

	assert.Contains(t, tr.run("airtime 7 sf 12"), "ldro: true")
	assert.Contains(t, tr.run("airtime 7"), "ldro: false")
	tr.runErr("airtime 0")
}

func TestRunnerSettings(t *testing.T) {
	tr := newTestRunner(t)

	assert.Equal(t, "Ideal\n", tr.run("radiomodel"))
	assert.Equal(t, "Rural\n", tr.run("radiomodel rural"))
	tr.runErr("radiomodel nosuchmodel")

	assert.Equal(t, "0.25\n", tr.run("plr 0.25"))
	assert.Equal(t, "0.25\n", tr.run("plr"))

	tr.run("speed 2")
	assert.Equal(t, "2\n", tr.run("speed"))
	tr.run("go 10ms speed 100")
	assert.Equal(t, "2\n", tr.run("speed"))
	tr.run("speed max")

	assert.Equal(t, "info\n", tr.run("log"))
	tr.run("log debug")
	assert.Equal(t, "debug\n", tr.run("log"))
	tr.run("log info")

	assert.Contains(t, tr.run("help"), "thresholds")
	assert.Contains(t, tr.run("help go"), "ever")

	var out bytes.Buffer
	assert.NoError(t, tr.cr.RunCommand("nosuchcmd", &out))
	assert.Contains(t, out.String(), "Error: ")
}

func TestRunnerFiles(t *testing.T) {
	tr := newTestRunner(t)
	dir := tr.sim.GetConfig().OutputDir
	tr.run("add gateway")
	tr.run("add sensor x 10 height 0.5")
	tr.run("go 30")

	fn := filepath.Join(dir, "net.yaml")
	tr.run("save \"" + fn + "\"")
	assert.FileExists(t, fn)
	tr.run("del 1 2")
	tr.run("load \"" + fn + "\"")
	assert.Equal(t, 2, strings.Count(tr.run("nodes"), "\n"))
	tr.runErr("load \"" + filepath.Join(dir, "missing.yaml") + "\"")

	assert.Contains(t, tr.run("energy"), "\n")
	tr.run("energy save \"e\"")
	assert.FileExists(t, filepath.Join(dir, "e.txt"))

	assert.Contains(t, tr.run("kpi"), "\"network\"")
	tr.run("kpi stop")
	tr.runErr("kpi stop")
	tr.run("kpi start")
	kfn := filepath.Join(dir, "k.json")
	tr.run("kpi save \"" + kfn + "\"")
	data, err := os.ReadFile(kfn)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "\"status\"")
	tr.run("alerts")
}

func TestRunnerExit(t *testing.T) {
	tr := newTestRunner(t)
	var out bytes.Buffer
	err := tr.cr.RunCommand("exit", &out)
	assert.Error(t, err)
	select {
	case <-tr.cr.ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("exit did not stop the program context")
	}
}
