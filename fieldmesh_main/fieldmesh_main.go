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

// Package fieldmesh_main parses the command line and runs a simulation with its CLI console.
package fieldmesh_main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/simonlingoogle/go-simplelogger"

	"github.com/fieldmesh/fieldmesh/cli"
	"github.com/fieldmesh/fieldmesh/dispatcher"
	"github.com/fieldmesh/fieldmesh/logger"
	"github.com/fieldmesh/fieldmesh/pcap"
	"github.com/fieldmesh/fieldmesh/prng"
	"github.com/fieldmesh/fieldmesh/progctx"
	"github.com/fieldmesh/fieldmesh/radiomodel"
	"github.com/fieldmesh/fieldmesh/simulation"
)

type MainArgs struct {
	Speed       string
	AutoGo      bool
	LogLevel    string
	RadioModel  string
	OutputDir   string
	Interval    float64
	Seed        int64
	Pcap        string
	DumpPackets bool
	ManualRecv  bool
	NoSendFail  bool
	NoReadings  bool
	NoKpi       bool
	LoadFile    string
	HistoryFile string
	Id          int
}

var (
	args MainArgs
)

func parseArgs() {
	flag.StringVar(&args.Speed, "speed", "1", "set simulating speed, or 'max'")
	flag.BoolVar(&args.AutoGo, "autogo", true, "auto go (runs the simulation at given speed, without issuing 'go' commands.)")
	flag.StringVar(&args.LogLevel, "log", "info", "set logging level: trace, debug, info, note, warn, error, off.")
	flag.StringVar(&args.RadioModel, "radiomodel", dispatcher.DefaultRadioModel,
		"set radio model: "+strings.Join(radiomodel.RadioModelNames(), ", "))
	flag.StringVar(&args.OutputDir, "out", simulation.DefaultOutputDir, "directory for pcap, readings, energy and kpi files")
	flag.Float64Var(&args.Interval, "interval", float64(simulation.DefaultSendIntervalUs)/1e6, "reading interval of sensors in seconds")
	flag.Int64Var(&args.Seed, "seed", 0, "random seed; 0 picks one from the clock")
	flag.StringVar(&args.Pcap, "pcap", pcap.FrameTypeLoRaTapStr, "pcap frame type: off, raw, loratap")
	flag.BoolVar(&args.DumpPackets, "dump-packets", false, "dump packets")
	flag.BoolVar(&args.ManualRecv, "manual-recv", false, "nodes handle received frames only on 'recv'")
	flag.BoolVar(&args.NoSendFail, "no-sendfail", false, "nodes do not report missed frames")
	flag.BoolVar(&args.NoReadings, "no-readings", false, "do not write the readings CSV file")
	flag.BoolVar(&args.NoKpi, "no-kpi", false, "do not collect KPIs from the start")
	flag.StringVar(&args.LoadFile, "load", "", "load a network YAML file at start")
	flag.StringVar(&args.HistoryFile, "history", "", "CLI history file")
	flag.IntVar(&args.Id, "id", 0, "simulation id, used in output file names")

	flag.Parse()
}

func Main(ctx *progctx.ProgCtx, cliOptions *cli.CliOptions) {
	parseArgs()

	level, err := logger.ParseLevelString(args.LogLevel)
	simplelogger.FatalIfError(err)
	logger.SetLevel(level)
	simplelogger.SetLevel(simplelogger.ParseLevel(simpleLevelName(level)))

	seed := args.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	prng.Init(seed)
	logger.Debugf("random seed %d", seed)

	ctx.Defer(func() {
		_ = os.Stdin.Close()
	})

	handleSignals(ctx)

	sim, err := createSimulation(ctx)
	if err != nil {
		logger.Errorf("%v", err)
		ctx.Cancel(err)
		ctx.Wait()
		return
	}

	if args.LoadFile != "" {
		if err = sim.LoadYamlFile(args.LoadFile); err != nil {
			logger.Errorf("load %s: %v", args.LoadFile, err)
		}
	}

	if cliOptions == nil {
		cliOptions = cli.DefaultCliOptions()
	}
	if cliOptions.HistoryFile == "" && args.HistoryFile != "" {
		cliOptions.HistoryFile = args.HistoryFile
	}
	logger.SetStdoutCallback(cli.Cli)

	go sim.Run()
	go cli.Run(ctx, sim, cliOptions)

	if args.AutoGo {
		go autoGo(ctx, sim)
	}

	<-ctx.Done()
	logger.Debugf("waiting for fieldmesh to stop gracefully ...")
	ctx.Wait()
}

// simpleLevelName maps a log level to the nearest level name known to simplelogger.
func simpleLevelName(level logger.Level) string {
	switch {
	case level >= logger.DebugLevel:
		return "debug"
	case level >= logger.InfoLevel:
		return "info"
	case level >= logger.WarnLevel:
		return "warn"
	default:
		return "error"
	}
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	signal.Ignore(syscall.SIGALRM)

	ctx.WaitAdd("handleSignals", 1)
	go func() {
		defer logger.Debugf("handleSignals exit.")
		defer ctx.WaitDone("handleSignals")

		for {
			select {
			case sig := <-c:
				logger.Infof("signal received: %v", sig)
				ctx.Cancel(nil)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func autoGo(ctx *progctx.ProgCtx, sim *simulation.Simulation) {
	<-sim.Started
	for {
		select {
		case <-sim.Go(time.Second):
		case <-ctx.Done():
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func parseSpeed(s string) (float64, error) {
	s = strings.ToLower(s)
	if s == "max" {
		return dispatcher.MaxSimulateSpeed, nil
	}
	speed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid speed %q", s)
	}
	if speed <= 0 {
		return 0, errors.Errorf("speed must be > 0, got %v", speed)
	}
	return speed, nil
}

func createSimulation(ctx *progctx.ProgCtx) (*simulation.Simulation, error) {
	simcfg, err := simConfig(&args)
	if err != nil {
		return nil, err
	}
	return simulation.NewSimulation(ctx, simcfg)
}

// simConfig maps the command line onto a simulation config.
func simConfig(a *MainArgs) (*simulation.Config, error) {
	var err error
	simcfg := simulation.DefaultConfig()
	simcfg.Id = a.Id
	simcfg.LogLevel = a.LogLevel
	simcfg.DumpPackets = a.DumpPackets
	simcfg.AutoReceive = !a.ManualRecv
	simcfg.ReportSendFail = !a.NoSendFail
	simcfg.ReadingsCsv = !a.NoReadings
	simcfg.KpiEnabled = !a.NoKpi
	simcfg.OutputDir = filepath.Clean(a.OutputDir)

	if simcfg.Speed, err = parseSpeed(a.Speed); err != nil {
		return nil, err
	}
	if _, err = radiomodel.NewRadioModel(a.RadioModel); err != nil {
		return nil, err
	}
	simcfg.RadioModel = a.RadioModel

	if a.Interval < 0 {
		return nil, errors.Errorf("interval must be >= 0, got %v", a.Interval)
	}
	simcfg.SendIntervalUs = uint64(a.Interval * 1e6)

	simcfg.PcapFrameType = pcap.ParseFrameTypeStr(a.Pcap)
	if simcfg.PcapFrameType == pcap.FrameTypeUnknown {
		return nil, errors.Errorf("unknown pcap frame type %q", a.Pcap)
	}
	return simcfg, nil
}
