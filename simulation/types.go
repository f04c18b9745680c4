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
	"io"

	"github.com/pkg/errors"

	. "github.com/fieldmesh/fieldmesh/types"
)

var (
	ErrNodeNotFound      = errors.New("node not found")
	ErrNodeExists        = errors.New("node already exists")
	ErrNoFreeAddr        = errors.New("no free node address")
	ErrNotGateway        = errors.New("node is not a gateway")
	ErrSimulationStopped = errors.New("operation aborted due to simulation exit")
)

type CmdRunner interface {
	RunCommand(cmd string, output io.Writer) error
}

// YamlConfigFile is the layout of a saved network.
type YamlConfigFile struct {
	NetworkConfig YamlNetworkConfig  `yaml:"network"`
	GatewayConfig *YamlGatewayConfig `yaml:"gateway,omitempty"`
	NodesList     []YamlNodeConfig   `yaml:"nodes"`
}

// YamlNetworkConfig holds defaults applied to every node of the file.
type YamlNetworkConfig struct {
	Position       [2]float64 `yaml:"pos-shift,flow"`
	BaseAddr       *int       `yaml:"base-addr,omitempty"`
	Range          *float64   `yaml:"range,omitempty"`
	SendIntervalMs *uint64    `yaml:"send-interval-ms,omitempty"`
}

// YamlGatewayConfig holds the thresholds and radio parameters a gateway starts with.
type YamlGatewayConfig struct {
	Thresholds *Thresholds  `yaml:"thresholds,omitempty"`
	Params     *RadioParams `yaml:"params,omitempty"`
}

type YamlNodeConfig struct {
	Addr         int        `yaml:"addr"`
	Role         string     `yaml:"role"`
	Position     [2]float64 `yaml:"pos,flow"`
	HeightM      *float64   `yaml:"height,omitempty"`
	Destinations []int      `yaml:"dst,flow,omitempty"`
	Range        *float64   `yaml:"range,omitempty"`
	ChipAntenna  bool       `yaml:"chip-antenna,omitempty"`
	GroundLevel  bool       `yaml:"ground-level,omitempty"`
}
