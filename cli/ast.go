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
	"github.com/alecthomas/participle"
)

// noinspection GoStructTag
type Command struct {
	Add        *AddCmd        `  @@` //nolint
	Airtime    *AirtimeCmd    `| @@` //nolint
	Alerts     *AlertsCmd     `| @@` //nolint
	Config     *ConfigCmd     `| @@` //nolint
	Counters   *CountersCmd   `| @@` //nolint
	Del        *DelCmd        `| @@` //nolint
	Energy     *EnergyCmd     `| @@` //nolint
	Estimate   *EstimateCmd   `| @@` //nolint
	Exit       *ExitCmd       `| @@` //nolint
	Fail       *FailCmd       `| @@` //nolint
	Go         *GoCmd         `| @@` //nolint
	Help       *HelpCmd       `| @@` //nolint
	Interval   *IntervalCmd   `| @@` //nolint
	Kpi        *KpiCmd        `| @@` //nolint
	Load       *LoadCmd       `| @@` //nolint
	LogLevel   *LogLevelCmd   `| @@` //nolint
	Move       *MoveCmd       `| @@` //nolint
	Nodes      *NodesCmd      `| @@` //nolint
	Params     *ParamsCmd     `| @@` //nolint
	Plan       *PlanCmd       `| @@` //nolint
	Plr        *PlrCmd        `| @@` //nolint
	RadioModel *RadioModelCmd `| @@` //nolint
	Range      *RangeCmd      `| @@` //nolint
	Readings   *ReadingsCmd   `| @@` //nolint
	Recv       *RecvCmd       `| @@` //nolint
	Save       *SaveCmd       `| @@` //nolint
	Send       *SendCmd       `| @@` //nolint
	SendFail   *SendFailCmd   `| @@` //nolint
	Speed      *SpeedCmd      `| @@` //nolint
	Stats      *StatsCmd      `| @@` //nolint
	Thresholds *ThresholdsCmd `| @@` //nolint
	Time       *TimeCmd       `| @@` //nolint
}

// noinspection GoStructTag
type NodeSelector struct {
	Id int `@Int` //nolint
}

// noinspection GoStructTag
type SignedNumber struct {
	Neg bool    `[ @"-" ]`      //nolint
	Val float64 `(@Int|@Float)` //nolint
}

func (n SignedNumber) Value() float64 {
	if n.Neg {
		return -n.Val
	}
	return n.Val
}

// noinspection GoStructTag
type AddCmd struct {
	Cmd    struct{}      `"add"`    //nolint
	Role   RoleFlag      `@@`       //nolint
	X      *SignedNumber `( "x" @@` //nolint
	Y      *SignedNumber `| "y" @@` //nolint
	Id     *AddNodeId    `| @@`     //nolint
	Range  *RangeFlag    `| @@`     //nolint
	Height *HeightFlag   `| @@`     //nolint
	Dst    *DstFlag      `| @@`     //nolint
	Chip   *ChipFlag     `| @@`     //nolint
	Ground *GroundFlag   `| @@ )*`  //nolint
}

// noinspection GoStructTag
type RoleFlag struct {
	Val string `@("sensor"|"gateway"|"gw"|"s"|"g")` //nolint
}

// noinspection GoStructTag
type AddNodeId struct {
	Val int `"id" @Int` //nolint
}

// noinspection GoStructTag
type RangeFlag struct {
	Val float64 `"range" (@Int|@Float)` //nolint
}

// noinspection GoStructTag
type HeightFlag struct {
	Val float64 `"height" (@Int|@Float)` //nolint
}

// noinspection GoStructTag
type DstFlag struct {
	Addrs []int `"dst" ( @Int )+` //nolint
}

// noinspection GoStructTag
type ChipFlag struct {
	Dummy struct{} `"chip"` //nolint
}

// noinspection GoStructTag
type GroundFlag struct {
	Dummy struct{} `"ground"` //nolint
}

// ParamOpts selects radio parameters; bandwidth is in kHz and frequency in MHz.
// noinspection GoStructTag
type ParamOpts struct {
	Sf       *int     `( "sf" @Int`               //nolint
	Bw       *float64 `| "bw" (@Int|@Float)`      //nolint
	Cr       *int     `| "cr" @Int`               //nolint
	Tx       *int     `| "tx" @Int`               //nolint
	Sync     *int     `| "sync" @Int`             //nolint
	Preamble *int     `| "preamble" @Int`         //nolint
	Freq     *float64 `| "freq" (@Int|@Float) )+` //nolint
}

// noinspection GoStructTag
type ThresholdOpts struct {
	Temp *Bounds `( "temp" @@`    //nolint
	Hum  *Bounds `| "hum" @@`     //nolint
	Soil *Bounds `| "soil" @@ )+` //nolint
}

// noinspection GoStructTag
type Bounds struct {
	Low  SignedNumber `@@` //nolint
	High SignedNumber `@@` //nolint
}

// noinspection GoStructTag
type AirtimeCmd struct {
	Cmd  struct{}   `"airtime"` //nolint
	Len  int        `@Int`      //nolint
	Opts *ParamOpts `[ @@ ]`    //nolint
}

// noinspection GoStructTag
type AlertsCmd struct {
	Cmd struct{} `"alerts"` //nolint
}

// noinspection GoStructTag
type ConfigCmd struct {
	Cmd     struct{}     `"config"` //nolint
	Gateway NodeSelector `@@`       //nolint
	Dst     NodeSelector `@@`       //nolint
	Opts    *ParamOpts   `[ @@ ]`   //nolint
}

// noinspection GoStructTag
type CountersCmd struct {
	Cmd struct{} `"counters"` //nolint
}

// noinspection GoStructTag
type DelCmd struct {
	Cmd   struct{}       `"del"`   //nolint
	Nodes []NodeSelector `( @@ )+` //nolint
}

// noinspection GoStructTag
type EnergyCmd struct {
	Cmd  struct{}  `"energy"` //nolint
	Save *SaveFlag `( @@ )?`  //nolint
	Name string    `@String?` //nolint
}

// noinspection GoStructTag
type SaveFlag struct {
	Dummy struct{} `"save"` //nolint
}

// noinspection GoStructTag
type EstimateCmd struct {
	Cmd    struct{}      `"estimate"`                 //nolint
	Node   *NodeSelector `[ @@ ]`                     //nolint
	Opts   *ParamOpts    `[ @@ ]`                     //nolint
	Height *float64      `[ "height" (@Int|@Float) ]` //nolint
	Chip   *ChipFlag     `[ @@ ]`                     //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

// noinspection GoStructTag
type FailCmd struct {
	Cmd      struct{}        `"fail"`  //nolint
	Nodes    []NodeSelector  `( @@ )+` //nolint
	Recover  *RecoverFlag    `[ @@`    //nolint
	FailTime *FailTimeParams `| @@ ]`  //nolint
}

// noinspection GoStructTag
type RecoverFlag struct {
	Dummy struct{} `"recover"` //nolint
}

// noinspection GoStructTag
type FailTimeParams struct {
	Dummy        struct{} `"ft"`          //nolint
	FailDuration float64  `(@Int|@Float)` //nolint
	FailInterval float64  `(@Int|@Float)` //nolint
}

// noinspection GoStructTag
type GoCmd struct {
	Cmd   struct{}  `"go"`                                     //nolint
	Time  string    `( @((Int|Float)["h"|"us"|"m"|"ms"|"s"]) ` //nolint
	Ever  *EverFlag `| @@ )`                                   //nolint
	Speed *float64  `[ "speed" (@Int|@Float) ]`                //nolint
}

// noinspection GoStructTag
type EverFlag struct {
	Dummy struct{} `"ever"` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd       struct{} `"help"`       //nolint
	HelpTopic string   `[ (@Ident) ]` //nolint
}

// noinspection GoStructTag
type IntervalCmd struct {
	Cmd     struct{}      `"interval"`        //nolint
	Node    *NodeSelector `( "all" | @@ )`    //nolint
	Seconds *float64      `[ (@Int|@Float) ]` //nolint
}

// noinspection GoStructTag
type KpiCmd struct {
	Cmd       struct{} `"kpi"`                              //nolint
	Operation string   `[ @( "start" | "stop" | "save" ) ]` //nolint
	Filename  string   `[ @String ]`                        //nolint
}

// noinspection GoStructTag
type LoadCmd struct {
	Cmd      struct{} `"load"`  //nolint
	Filename string   `@String` //nolint
}

type LogLevelCmd struct {
	Cmd   struct{} `"log"`                                                                             //nolint
	Level string   `[@( "trace"|"debug"|"info"|"note"|"warn"|"error"|"off"|"T"|"D"|"I"|"N"|"W"|"E" )]` //nolint
}

// noinspection GoStructTag
type MoveCmd struct {
	Cmd    struct{}     `"move"` //nolint
	Target NodeSelector `@@`     //nolint
	X      SignedNumber `@@`     //nolint
	Y      SignedNumber `@@`     //nolint
}

// noinspection GoStructTag
type NodesCmd struct {
	Cmd struct{} `"nodes"` //nolint
}

// noinspection GoStructTag
type ParamsCmd struct {
	Cmd   struct{}     `"params"` //nolint
	Node  NodeSelector `@@`       //nolint
	Reset *ResetFlag   `[ @@ ]`   //nolint
}

// noinspection GoStructTag
type ResetFlag struct {
	Dummy struct{} `"reset"` //nolint
}

// noinspection GoStructTag
type PlanCmd struct {
	Cmd    struct{} `"plan"`                     //nolint
	Range  float64  `(@Int|@Float)`              //nolint
	Height *float64 `[ "height" (@Int|@Float) ]` //nolint
}

// noinspection GoStructTag
type PlrCmd struct {
	Cmd struct{} `"plr"`             //nolint
	Val *float64 `[ (@Int|@Float) ]` //nolint
}

// noinspection GoStructTag
type RadioModelCmd struct {
	Cmd   struct{} `"radiomodel"`    //nolint
	Model string   `[(@Ident|@Int)]` //nolint
}

// noinspection GoStructTag
type RangeCmd struct {
	Cmd  struct{}     `"range"`           //nolint
	Node NodeSelector `@@`                //nolint
	Val  *float64     `[ (@Int|@Float) ]` //nolint
}

// noinspection GoStructTag
type ReadingsCmd struct {
	Cmd    struct{}      `"readings"`      //nolint
	Latest *LatestFlag   `[ @@ ]`          //nolint
	Src    *NodeSelector `[ @@ ]`          //nolint
	Last   *int          `[ "last" @Int ]` //nolint
}

// noinspection GoStructTag
type LatestFlag struct {
	Dummy struct{} `"latest"` //nolint
}

// noinspection GoStructTag
type RecvCmd struct {
	Cmd   struct{}       `"recv"`  //nolint
	Nodes []NodeSelector `( @@ )+` //nolint
}

// noinspection GoStructTag
type SaveCmd struct {
	Cmd      struct{} `"save"`  //nolint
	Filename string   `@String` //nolint
}

// noinspection GoStructTag
type SendCmd struct {
	Cmd   struct{}       `"send"`  //nolint
	Nodes []NodeSelector `( @@ )+` //nolint
}

// noinspection GoStructTag
type SendFailCmd struct {
	Cmd struct{}     `"sendfail"` //nolint
	Src NodeSelector `@@`         //nolint
	Dst NodeSelector `@@`         //nolint
}

// noinspection GoStructTag
type SpeedCmd struct {
	Cmd   struct{}      `"speed"`               //nolint
	Max   *MaxSpeedFlag `( @@`                  //nolint
	Speed *float64      `| [ (@Int|@Float) ] )` //nolint
}

// noinspection MaxSpeedFlag
type MaxSpeedFlag struct {
	Dummy struct{} `( "max" | "inf")` //nolint
}

// noinspection GoStructTag
type StatsCmd struct {
	Cmd  struct{}      `"stats"` //nolint
	Node *NodeSelector `[ @@ ]`  //nolint
}

// noinspection GoStructTag
type ThresholdsCmd struct {
	Cmd  struct{}       `"thresholds"` //nolint
	Node NodeSelector   `@@`           //nolint
	Dst  *NodeSelector  `[ @@ ]`       //nolint
	Opts *ThresholdOpts `[ @@ ]`       //nolint
}

// noinspection GoStructTag
type TimeCmd struct {
	Cmd struct{} `"time"` //nolint
}

var (
	commandParser = participle.MustBuild(&Command{})
)

func parseBytes(b []byte, cmd *Command) error {
	err := commandParser.ParseBytes(b, cmd)
	return err
}
