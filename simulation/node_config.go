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
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/fieldmesh/fieldmesh/linkbudget"
	"github.com/fieldmesh/fieldmesh/prng"
	. "github.com/fieldmesh/fieldmesh/types"
)

// ParseRole returns the node role named by s, accepting the short forms used on the command line.
func ParseRole(s string) (string, error) {
	switch strings.ToLower(s) {
	case SENSOR, "s":
		return SENSOR, nil
	case GATEWAY, "gw", "g":
		return GATEWAY, nil
	default:
		return "", errors.Errorf("unknown node role '%s'", s)
	}
}

// NodeConfigFinalize fills in the fields of cfg that the user left open.
func (s *Simulation) NodeConfigFinalize(cfg *NodeConfig) {
	if cfg.Role == "" {
		cfg.Role = SENSOR
	}
	if cfg.Range <= 0 {
		cfg.Range = DefaultRange
	}
	if cfg.SensorSeed == 0 {
		cfg.SensorSeed = int64(prng.NewSensorRandomSeed())
	}
	if cfg.IsGateway() {
		cfg.Destinations = nil
	}
}

func validateNodeConfig(cfg *NodeConfig) error {
	if _, err := ParseRole(cfg.Role); err != nil {
		return err
	}
	if cfg.Addr == BroadcastAddr {
		return errors.Errorf("address %v is reserved for broadcast", cfg.Addr)
	}
	if math.IsNaN(cfg.X) || math.IsNaN(cfg.Y) || math.IsInf(cfg.X, 0) || math.IsInf(cfg.Y, 0) {
		return errors.Errorf("invalid position (%v, %v)", cfg.X, cfg.Y)
	}
	if cfg.HeightM < 0 {
		return errors.Errorf("invalid height %.2fm", cfg.HeightM)
	}
	if cfg.Range <= 0 {
		return errors.Errorf("invalid range %.1fm", cfg.Range)
	}
	for _, dst := range cfg.Destinations {
		if dst == InvalidAddr {
			return errors.Errorf("invalid destination %v", dst)
		}
	}
	return nil
}

// initialParams returns the radio parameters a node starts with, planned for its configured range.
func initialParams(cfg *NodeConfig) RadioParams {
	if cfg.GroundLevel {
		return linkbudget.GroundLevelConfig(linkbudget.DefaultParams(), cfg.Range, cfg.HeightM)
	}
	return linkbudget.OptimalParamsForRange(linkbudget.DefaultParams(), cfg.Range)
}
