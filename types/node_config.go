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

package types

const (
	SENSOR  = "sensor"
	GATEWAY = "gateway"
)

const (
	DefaultLocalAddr NodeAddr = 0x03
	DefaultRange              = 30.0 // meters
	DefaultHeight             = 1.5  // meters
)

// DefaultDestinations returns the static peer address list of a sensor node.
func DefaultDestinations() []NodeAddr {
	return []NodeAddr{0x01, 0x02, 0x03, 0x04, 0x05}
}

// NodeConfig is the config of a new simulated node (used in dispatcher, simulation, node ... packages).
type NodeConfig struct {
	Addr         NodeAddr // InvalidAddr for the next free address
	Role         string
	X, Y         float64 // meters
	HeightM      float64
	Destinations []NodeAddr
	Range        float64 // initial operating range in meters
	ChipAntenna  bool
	GroundLevel  bool // use the near-ground parameter table for the initial range
	NodeLogFile  bool
	SensorSeed   int64 // 0 for a seed from the prng package
}

func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		Addr:         InvalidAddr,
		Role:         SENSOR,
		X:            0,
		Y:            0,
		HeightM:      DefaultHeight,
		Destinations: DefaultDestinations(),
		Range:        DefaultRange,
		ChipAntenna:  false,
		GroundLevel:  false,
		NodeLogFile:  false,
	}
}

// IsGateway returns true if the node consumes Data frames instead of producing them.
func (cfg *NodeConfig) IsGateway() bool {
	return cfg.Role == GATEWAY
}
