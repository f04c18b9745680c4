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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fieldmesh/fieldmesh/alert"
	"github.com/fieldmesh/fieldmesh/dispatcher"
	"github.com/fieldmesh/fieldmesh/linkbudget"
	"github.com/fieldmesh/fieldmesh/logger"
	"github.com/fieldmesh/fieldmesh/node"
	"github.com/fieldmesh/fieldmesh/progctx"
	"github.com/fieldmesh/fieldmesh/radiomodel"
	"github.com/fieldmesh/fieldmesh/simulation"
	. "github.com/fieldmesh/fieldmesh/types"
)

const (
	Prompt = "> "
)

type CommandContext struct {
	context.Context
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputStr(msg string) {
	_, _ = fmt.Fprint(cc.output, msg)
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	logger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

type CmdRunner struct {
	sim  *simulation.Simulation
	ctx  *progctx.ProgCtx
	help Help
}

func NewCmdRunner(ctx *progctx.ProgCtx, sim *simulation.Simulation) *CmdRunner {
	cr := &CmdRunner{
		ctx:  ctx,
		sim:  sim,
		help: newHelp(),
	}
	sim.SetCmdRunner(cr)
	return cr
}

// RunCommand parses and executes one command line, writing the result to output.
func (rt *CmdRunner) RunCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd := Command{}

		if err := parseBytes([]byte(cmdline), &cmd); err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(&cmd, output)
		}
	}
	return rt.ctx.Err()
}

func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	return rt.RunCommand(cmdline, output)
}

func (rt *CmdRunner) GetPrompt() string {
	return Prompt
}

// CommandNames returns the documented command names in sorted order.
func (rt *CmdRunner) CommandNames() []string {
	return rt.help.sortedCommands()
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Context: rt.ctx,
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	if cmd.Add != nil {
		rt.executeAddNode(cc, cmd.Add)
	} else if cmd.Airtime != nil {
		rt.executeAirtime(cc, cmd.Airtime)
	} else if cmd.Alerts != nil {
		rt.executeAlerts(cc, cmd.Alerts)
	} else if cmd.Config != nil {
		rt.executeConfig(cc, cmd.Config)
	} else if cmd.Counters != nil {
		rt.executeCounters(cc, cmd.Counters)
	} else if cmd.Del != nil {
		rt.executeDelNode(cc, cmd.Del)
	} else if cmd.Energy != nil {
		rt.executeEnergy(cc, cmd.Energy)
	} else if cmd.Estimate != nil {
		rt.executeEstimate(cc, cmd.Estimate)
	} else if cmd.Exit != nil {
		rt.executeExit(cc, cmd.Exit)
	} else if cmd.Fail != nil {
		rt.executeFail(cc, cmd.Fail)
	} else if cmd.Go != nil {
		rt.executeGo(cc, cmd.Go)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else if cmd.Interval != nil {
		rt.executeInterval(cc, cmd.Interval)
	} else if cmd.Kpi != nil {
		rt.executeKpi(cc, cmd.Kpi)
	} else if cmd.Load != nil {
		rt.executeLoad(cc, cmd.Load)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cmd.LogLevel)
	} else if cmd.Move != nil {
		rt.executeMoveNode(cc, cmd.Move)
	} else if cmd.Nodes != nil {
		rt.executeLsNodes(cc, cmd.Nodes)
	} else if cmd.Params != nil {
		rt.executeParams(cc, cmd.Params)
	} else if cmd.Plan != nil {
		rt.executePlan(cc, cmd.Plan)
	} else if cmd.Plr != nil {
		rt.executePlr(cc, cmd.Plr)
	} else if cmd.RadioModel != nil {
		rt.executeRadioModel(cc, cmd.RadioModel)
	} else if cmd.Range != nil {
		rt.executeRange(cc, cmd.Range)
	} else if cmd.Readings != nil {
		rt.executeReadings(cc, cmd.Readings)
	} else if cmd.Recv != nil {
		rt.executeRecv(cc, cmd.Recv)
	} else if cmd.Save != nil {
		rt.executeSave(cc, cmd.Save)
	} else if cmd.Send != nil {
		rt.executeSend(cc, cmd.Send)
	} else if cmd.SendFail != nil {
		rt.executeSendFail(cc, cmd.SendFail)
	} else if cmd.Speed != nil {
		rt.executeSpeed(cc, cmd.Speed)
	} else if cmd.Stats != nil {
		rt.executeStats(cc, cmd.Stats)
	} else if cmd.Thresholds != nil {
		rt.executeThresholds(cc, cmd.Thresholds)
	} else if cmd.Time != nil {
		rt.executeTime(cc, cmd.Time)
	} else {
		logger.Panicf("unimplemented command: %#v", cmd)
	}
}

func (rt *CmdRunner) postAsyncWait(cc *CommandContext, f func(sim *simulation.Simulation)) {
	cc.error(rt.sim.PostAsyncWait(func() {
		f(rt.sim)
	}))
}

// waitDone blocks until done is closed or the program exits.
func (rt *CmdRunner) waitDone(cc *CommandContext, done <-chan struct{}) {
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-rt.ctx.Done():
		cc.error(simulation.ErrSimulationStopped)
	}
}

func (rt *CmdRunner) executeGo(cc *CommandContext, cmd *GoCmd) {
	var timeDurToGo time.Duration
	if cmd.Ever == nil {
		var err error
		timeDurToGo, err = time.ParseDuration(cmd.Time)
		if err != nil {
			timeDurToGo, err = time.ParseDuration(cmd.Time + "s") // try parsing as seconds
			if err != nil {
				cc.errorf("could not parse time duration: %s", cmd.Time)
				return
			}
		}
	}

	var oldSpeed float64
	if cmd.Speed != nil {
		if *cmd.Speed <= 0 {
			cc.errorf("speed must be > 0")
			return
		}
		rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
			oldSpeed = sim.GetSpeed()
			sim.SetSpeed(*cmd.Speed)
		})
		defer rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
			sim.SetSpeed(oldSpeed)
		})
	}

	var done <-chan struct{}
	if cmd.Ever == nil {
		rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
			done = sim.Go(timeDurToGo)
		})
		rt.waitDone(cc, done)
		return
	}
	for { // run forever but stop if rt.ctx.Err indicates "done"
		rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
			done = sim.Go(time.Hour)
		})
		rt.waitDone(cc, done)

		if rt.ctx.Err() != nil || cc.err != nil {
			break
		}
	}
}

func (rt *CmdRunner) executeSpeed(cc *CommandContext, cmd *SpeedCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if cmd.Speed == nil && cmd.Max == nil {
			cc.outputf("%v\n", sim.GetSpeed())
		} else if cmd.Max != nil {
			sim.SetSpeed(dispatcher.MaxSimulateSpeed)
		} else {
			sim.SetSpeed(*cmd.Speed)
		}
	})
}

func (rt *CmdRunner) executeAddNode(cc *CommandContext, cmd *AddCmd) {
	cfg := DefaultNodeConfig()
	role, err := simulation.ParseRole(cmd.Role.Val)
	if err != nil {
		cc.error(err)
		return
	}
	cfg.Role = role
	if cmd.X != nil {
		cfg.X = cmd.X.Value()
	}
	if cmd.Y != nil {
		cfg.Y = cmd.Y.Value()
	}
	if cmd.Id != nil {
		if cmd.Id.Val <= int(InvalidAddr) || cmd.Id.Val >= int(BroadcastAddr) {
			cc.errorf("id %d out of range", cmd.Id.Val)
			return
		}
		cfg.Addr = NodeAddr(cmd.Id.Val)
	}
	if cmd.Range != nil {
		cfg.Range = cmd.Range.Val
	}
	if cmd.Height != nil {
		cfg.HeightM = cmd.Height.Val
	}
	if cmd.Dst != nil {
		cfg.Destinations = nil
		for _, dst := range cmd.Dst.Addrs {
			if dst <= int(InvalidAddr) || dst > int(BroadcastAddr) {
				cc.errorf("destination %d out of range", dst)
				return
			}
			cfg.Destinations = append(cfg.Destinations, NodeAddr(dst))
		}
	}
	cfg.ChipAntenna = cmd.Chip != nil
	cfg.GroundLevel = cmd.Ground != nil

	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		n, err := sim.AddNode(&cfg)
		if err != nil {
			cc.error(err)
			return
		}
		cc.outputf("%d\n", n.Addr)
	})
}

func (rt *CmdRunner) executeDelNode(cc *CommandContext, cmd *DelCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		for _, sel := range getUniqueAndSorted(cmd.Nodes) {
			cc.error(sim.DeleteNode(NodeAddr(sel.Id)))
		}
	})
}

func (rt *CmdRunner) executeExit(cc *CommandContext, cmd *ExitCmd) {
	rt.sim.Stop()
}

func (rt *CmdRunner) executeMoveNode(cc *CommandContext, cmd *MoveCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		cc.error(sim.MoveNodeTo(NodeAddr(cmd.Target.Id), cmd.X.Value(), cmd.Y.Value()))
	})
}

func (rt *CmdRunner) executeLsNodes(cc *CommandContext, cmd *NodesCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		for _, addr := range sim.GetNodes() {
			n := sim.Nodes()[addr]
			dnode := n.DNode()
			cc.outputf("addr=%d\trole=%s\tx=%.1f\ty=%.1f\trange=%.1f\tfailed=%v\tparams=%v", addr,
				n.Config().Role, dnode.X, dnode.Y, n.Session().Range(), dnode.IsFailed(), n.Session().Planner().Params())
			if !n.IsGateway() {
				cc.outputf("\tdst=%v", n.Session().Destinations())
			}
			cc.outputf("\n")
		}
	})
}

func (rt *CmdRunner) executeSend(cc *CommandContext, cmd *SendCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		for _, sel := range cmd.Nodes {
			cc.error(sim.Send(NodeAddr(sel.Id)))
		}
	})
}

func (rt *CmdRunner) executeRecv(cc *CommandContext, cmd *RecvCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		for _, sel := range cmd.Nodes {
			handled, err := sim.Receive(NodeAddr(sel.Id))
			if err != nil {
				cc.error(err)
				continue
			}
			cc.outputf("node=%d\treceived=%d\n", sel.Id, handled)
		}
	})
}

func (rt *CmdRunner) executeRange(cc *CommandContext, cmd *RangeCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		addr := NodeAddr(cmd.Node.Id)
		if cmd.Val != nil {
			if err := sim.SetRange(addr, *cmd.Val); err != nil {
				cc.error(err)
				return
			}
		}
		n, err := sim.GetNode(addr)
		if err != nil {
			cc.error(err)
			return
		}
		cc.outputf("%.1f\n", n.Session().Range())
	})
}

func (rt *CmdRunner) executeParams(cc *CommandContext, cmd *ParamsCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		addr := NodeAddr(cmd.Node.Id)
		if cmd.Reset != nil {
			if err := sim.ResetNode(addr); err != nil {
				cc.error(err)
				return
			}
		}
		n, err := sim.GetNode(addr)
		if err != nil {
			cc.error(err)
			return
		}
		cc.outputItemsAsYaml(n.Session().Planner().Params())
	})
}

// applyParamOpts returns base with the parameters selected in opts replaced.
func applyParamOpts(base RadioParams, opts *ParamOpts) RadioParams {
	if opts == nil {
		return base
	}
	p := base
	if opts.Sf != nil {
		p.SpreadingFactor = *opts.Sf
	}
	if opts.Bw != nil {
		p.BandwidthHz = snapTo(*opts.Bw*1e3, LoRaBandwidthsHz, 1)
	}
	if opts.Cr != nil {
		p.CodingRate = *opts.Cr
	}
	if opts.Tx != nil {
		p.TxPowerDbm = *opts.Tx
	}
	if opts.Sync != nil {
		p.SyncWord = uint8(*opts.Sync)
	}
	if opts.Preamble != nil {
		p.PreambleLength = *opts.Preamble
	}
	if opts.Freq != nil {
		p.FrequencyHz = snapTo(*opts.Freq*1e6, linkbudget.SupportedFrequenciesHz, 1e3)
	}
	return p
}

// snapTo returns the entry of list within tol of v, or v itself.
func snapTo(v float64, list []float64, tol float64) float64 {
	for _, x := range list {
		if math.Abs(v-x) <= tol {
			return x
		}
	}
	return v
}

func applyThresholdOpts(base Thresholds, opts *ThresholdOpts) Thresholds {
	if opts == nil {
		return base
	}
	t := base
	if opts.Temp != nil {
		t.LowTempC, t.HighTempC = opts.Temp.Low.Value(), opts.Temp.High.Value()
	}
	if opts.Hum != nil {
		t.LowHumidityPct, t.HighHumidityPct = opts.Hum.Low.Value(), opts.Hum.High.Value()
	}
	if opts.Soil != nil {
		t.LowSoil, t.HighSoil = opts.Soil.Low.Value(), opts.Soil.High.Value()
	}
	return t
}

func (rt *CmdRunner) executeConfig(cc *CommandContext, cmd *ConfigCmd) {
	if cmd.Opts != nil && cmd.Opts.Sync != nil && (*cmd.Opts.Sync < 0 || *cmd.Opts.Sync > 0xff) {
		cc.errorf("sync word %d out of range", *cmd.Opts.Sync)
		return
	}
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		gw, err := sim.GetNode(NodeAddr(cmd.Gateway.Id))
		if err != nil {
			cc.error(err)
			return
		}
		// start from the current set of the destination when it is a known node
		base := gw.Session().Planner().Params()
		if dst, err := sim.GetNode(NodeAddr(cmd.Dst.Id)); err == nil {
			base = dst.Session().Planner().Params()
		}
		p := applyParamOpts(base, cmd.Opts)
		if err := sim.SendConfig(gw.Addr, NodeAddr(cmd.Dst.Id), p); err != nil {
			cc.error(err)
			return
		}
		cc.outputItemsAsYaml(p)
	})
}

func (rt *CmdRunner) executeThresholds(cc *CommandContext, cmd *ThresholdsCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		n, err := sim.GetNode(NodeAddr(cmd.Node.Id))
		if err != nil {
			cc.error(err)
			return
		}
		if cmd.Dst == nil {
			if cmd.Opts != nil {
				cc.errorf("thresholds are sent by a gateway: thresholds <gateway> <dst> ...")
				return
			}
			cc.outputItemsAsYaml(n.Session().Planner().Thresholds())
			return
		}

		base := n.Session().Planner().Thresholds()
		if dst, err := sim.GetNode(NodeAddr(cmd.Dst.Id)); err == nil {
			base = dst.Session().Planner().Thresholds()
		}
		t := applyThresholdOpts(base, cmd.Opts)
		if err := sim.SendThresholds(n.Addr, NodeAddr(cmd.Dst.Id), t); err != nil {
			cc.error(err)
			return
		}
		cc.outputItemsAsYaml(t)
	})
}

func (rt *CmdRunner) executeSendFail(cc *CommandContext, cmd *SendFailCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		cc.error(sim.SendFail(NodeAddr(cmd.Src.Id), NodeAddr(cmd.Dst.Id)))
	})
}

func (rt *CmdRunner) executeFail(cc *CommandContext, cmd *FailCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		for _, sel := range getUniqueAndSorted(cmd.Nodes) {
			addr := NodeAddr(sel.Id)
			if cmd.Recover != nil {
				cc.error(sim.SetNodeFailed(addr, false))
			} else if cmd.FailTime != nil {
				ft := cmd.FailTime
				if ft.FailDuration > 0 && ft.FailInterval > ft.FailDuration {
					cc.error(sim.SetFailTime(addr, dispatcher.FailTime{
						FailDuration: uint64(ft.FailDuration * 1000000),
						FailInterval: uint64(ft.FailInterval * 1000000),
					}))
				} else if ft.FailDuration == 0 {
					cc.error(sim.SetFailTime(addr, dispatcher.NonFailTime))
				} else {
					cc.errorf("ft parameter: fail-duration must be < fail-interval")
					return
				}
			} else {
				cc.error(sim.SetNodeFailed(addr, true))
			}
		}
	})
}

type planResult struct {
	Params      RadioParams `yaml:"params"`
	RangeM      float64     `yaml:"range"`
	GroundRange *float64    `yaml:"ground-range,omitempty"`
}

func (rt *CmdRunner) executePlan(cc *CommandContext, cmd *PlanCmd) {
	if cmd.Range <= 0 {
		cc.errorf("range must be > 0")
		return
	}
	base := linkbudget.DefaultParams()
	res := planResult{}
	if cmd.Height != nil {
		res.Params = linkbudget.GroundLevelConfig(base, cmd.Range, *cmd.Height)
		gr := linkbudget.CalculateGroundRange(res.Params, *cmd.Height, false)
		res.GroundRange = &gr
	} else {
		res.Params = linkbudget.OptimalParamsForRange(base, cmd.Range)
	}
	res.RangeM = linkbudget.CalculateRange(res.Params)
	cc.outputItemsAsYaml(res)
}

type estimateResult struct {
	Params        RadioParams `yaml:"params"`
	SensitivityDb DbValue     `yaml:"sensitivity"`
	LinkBudgetDb  DbValue     `yaml:"link-budget"`
	RangeM        float64     `yaml:"range"`
	GroundRange   *float64    `yaml:"ground-range,omitempty"`
}

func (rt *CmdRunner) executeEstimate(cc *CommandContext, cmd *EstimateCmd) {
	base := linkbudget.DefaultParams()
	var height *float64
	chip := cmd.Chip != nil
	if cmd.Node != nil {
		rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
			n, err := sim.GetNode(NodeAddr(cmd.Node.Id))
			if err != nil {
				cc.error(err)
				return
			}
			base = n.Session().Planner().Params()
			h := n.Config().HeightM
			height = &h
			chip = chip || n.Config().ChipAntenna
		})
		if cc.Err() != nil {
			return
		}
	}
	if cmd.Height != nil {
		height = cmd.Height
	}

	p := applyParamOpts(base, cmd.Opts)
	if err := linkbudget.ValidateParams(p); err != nil {
		cc.error(err)
		return
	}
	res := estimateResult{
		Params:        p,
		SensitivityDb: linkbudget.Sensitivity(p.SpreadingFactor, p.BandwidthHz),
		LinkBudgetDb:  linkbudget.LinkBudgetDb(p),
		RangeM:        linkbudget.CalculateRange(p),
	}
	if height != nil || chip {
		h := DefaultHeight
		if height != nil {
			h = *height
		}
		gr := linkbudget.CalculateGroundRange(p, h, chip)
		res.GroundRange = &gr
	}
	cc.outputItemsAsYaml(res)
}

type airtimeResult struct {
	PayloadLen   int     `yaml:"len"`
	SymbolTimeMs float64 `yaml:"symbol-ms"`
	AirtimeMs    float64 `yaml:"airtime-ms"`
	LowDataRate  bool    `yaml:"ldro"`
}

func (rt *CmdRunner) executeAirtime(cc *CommandContext, cmd *AirtimeCmd) {
	if cmd.Len <= 0 || cmd.Len > 255 {
		cc.errorf("frame length %d out of range", cmd.Len)
		return
	}
	p := applyParamOpts(linkbudget.DefaultParams(), cmd.Opts)
	if err := linkbudget.ValidateParams(p); err != nil {
		cc.error(err)
		return
	}
	cc.outputItemsAsYaml(airtimeResult{
		PayloadLen:   cmd.Len,
		SymbolTimeMs: float64(linkbudget.SymbolTime(p)) / float64(time.Millisecond),
		AirtimeMs:    float64(linkbudget.TimeOnAir(p, cmd.Len)) / float64(time.Millisecond),
		LowDataRate:  linkbudget.NeedsLowDataRateOptimize(p),
	})
}

func (rt *CmdRunner) executeReadings(cc *CommandContext, cmd *ReadingsCmd) {
	var records []node.Record
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if cmd.Latest != nil {
			records = sim.Collector().Latest()
		} else {
			records = sim.Collector().Records()
		}
	})

	if cmd.Src != nil {
		filtered := records[:0:0]
		for _, rec := range records {
			if int(rec.Src) == cmd.Src.Id {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	if cmd.Last != nil && *cmd.Last >= 0 && len(records) > *cmd.Last {
		records = records[len(records)-*cmd.Last:]
	}
	for _, rec := range records {
		cc.outputf("%-12d src=%-3d dst=%-3d %v soil=%.1f%% alerts=%v", rec.TimeUs, rec.Src, rec.Dst,
			rec.Reading, rec.SoilPct, rec.Alerts)
		if rec.HaveRssi {
			cc.outputf(" rssi=%.1f", rec.RssiDbm)
		}
		cc.outputf("\n")
	}
}

func (rt *CmdRunner) executeAlerts(cc *CommandContext, cmd *AlertsCmd) {
	var counts map[alert.Code]int
	var latest []node.Record
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		counts = sim.Collector().AlertCounts()
		latest = sim.Collector().Latest()
	})

	codes := make([]alert.Code, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return codes[i] < codes[j]
	})
	for _, code := range codes {
		cc.outputf("%-16s %d\n", code, counts[code])
	}
	for _, rec := range latest {
		if rec.Alerts != alert.None {
			cc.outputf("node=%d\talerts=%v\n", rec.Src, rec.Alerts)
		}
	}
}

func (rt *CmdRunner) executeStats(cc *CommandContext, cmd *StatsCmd) {
	type nodeStats struct {
		Addr    NodeAddr            `yaml:"addr"`
		Session node.Stats          `yaml:"session"`
		Phy     dispatcher.PhyStats `yaml:"phy"`
	}
	var items []nodeStats
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		phy := sim.Dispatcher().GetPhyStats()
		for _, addr := range sim.GetNodes() {
			if cmd.Node != nil && int(addr) != cmd.Node.Id {
				continue
			}
			items = append(items, nodeStats{
				Addr:    addr,
				Session: sim.Nodes()[addr].Session().Stats(),
				Phy:     phy[addr],
			})
		}
	})
	if cmd.Node != nil && len(items) == 0 && cc.Err() == nil {
		cc.error(errors.Wrapf(simulation.ErrNodeNotFound, "%d", cmd.Node.Id))
		return
	}
	cc.outputItemsAsYaml(items)
}

func (rt *CmdRunner) executeInterval(cc *CommandContext, cmd *IntervalCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		addr := InvalidAddr
		if cmd.Node != nil {
			addr = NodeAddr(cmd.Node.Id)
		}
		if cmd.Seconds == nil {
			if addr != InvalidAddr {
				cc.errorf("missing interval for node %d", cmd.Node.Id)
				return
			}
			cc.outputf("%v\n", float64(sim.GetConfig().SendIntervalUs)/1e6)
			return
		}
		if *cmd.Seconds < 0 {
			cc.errorf("interval must be >= 0")
			return
		}
		cc.error(sim.SetSendInterval(addr, uint64(*cmd.Seconds*1e6)))
	})
}

func (rt *CmdRunner) executeCounters(cc *CommandContext, counters *CountersCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		d := sim.Dispatcher()
		countersVal := reflect.ValueOf(d.Counters)
		countersTyp := reflect.TypeOf(d.Counters)
		for i := 0; i < countersVal.NumField(); i++ {
			fname := countersTyp.Field(i).Name
			fval := countersVal.Field(i)
			cc.outputf("%-40s %v\n", fname, fval.Uint())
		}
	})
}

func (rt *CmdRunner) executeRadioModel(cc *CommandContext, cmd *RadioModelCmd) {
	if len(cmd.Model) == 0 {
		var name string
		rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
			name = sim.Dispatcher().GetRadioModel().GetName()
		})
		cc.outputf("%v\n", name)
		return
	}

	var err error
	var name string
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if err = sim.Dispatcher().SetRadioModel(cmd.Model); err == nil {
			name = sim.Dispatcher().GetRadioModel().GetName()
		}
	})
	if err != nil {
		cc.errorf("radiomodel '%v' is not defined, use one of %v", cmd.Model, radiomodel.RadioModelNames())
		return
	}
	cc.outputf("%v\n", name)
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%v\n", logger.GetLevelString(rt.sim.GetLogLevel()))
		return
	}
	level, err := logger.ParseLevelString(cmd.Level)
	if err != nil {
		cc.error(err)
		return
	}
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		sim.SetLogLevel(level)
	})
}

func (rt *CmdRunner) executePlr(cc *CommandContext, cmd *PlrCmd) {
	var plr float64
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if cmd.Val != nil {
			sim.Dispatcher().SetGlobalPacketLossRatio(*cmd.Val)
		}
		plr = sim.Dispatcher().GetGlobalPacketLossRatio()
	})
	cc.outputf("%v\n", plr)
}

func (rt *CmdRunner) executeTime(cc *CommandContext, cmd *TimeCmd) {
	var dispTime uint64
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		dispTime = sim.Dispatcher().CurTime
	})
	cc.outputf("%d\n", dispTime)
}

func (rt *CmdRunner) executeEnergy(cc *CommandContext, energy *EnergyCmd) {
	if energy.Save != nil {
		name := energy.Name
		rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
			if name == "" {
				name = fmt.Sprintf("%d_energy", sim.GetConfig().Id)
			}
			cc.error(sim.SaveEnergy(name))
		})
		return
	}
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		sim.GetEnergyAnalyser().WriteEnergyByNodes(cc.output, sim.Dispatcher().CurTime)
	})
}

func (rt *CmdRunner) executeKpi(cc *CommandContext, cmd *KpiCmd) {
	var data []byte
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		km := sim.KpiManager()
		switch cmd.Operation {
		case "start":
			km.Stop()
			km.Start()
		case "stop":
			if !km.IsRunning() {
				cc.errorf("KPI collection not running")
				return
			}
			km.Stop()
		case "save":
			if cmd.Filename == "" {
				km.SaveDefaultFile()
			} else {
				cc.error(km.SaveFile(cmd.Filename))
			}
		default:
			var err error
			data, err = json.MarshalIndent(km.Data(), "", "    ")
			cc.error(err)
		}
	})
	if data != nil {
		cc.outputf("%s\n", data)
	}
}

func (rt *CmdRunner) executeSave(cc *CommandContext, cmd *SaveCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		cc.error(sim.SaveYamlFile(cmd.Filename))
	})
}

func (rt *CmdRunner) executeLoad(cc *CommandContext, cmd *LoadCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		cc.error(sim.LoadYamlFile(cmd.Filename))
	})
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if len(cmd.HelpTopic) > 0 {
		cc.outputStr(rt.help.outputCommandHelp(cmd.HelpTopic))
	} else {
		cc.outputStr(rt.help.outputGeneralHelp())
	}
}
