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
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fieldmesh/fieldmesh/logger"
	. "github.com/fieldmesh/fieldmesh/types"
)

// ExportNetwork exports config info of network to a YAML-friendly object.
func (s *Simulation) ExportNetwork() YamlNetworkConfig {
	intvMs := s.cfg.SendIntervalUs / 1000
	return YamlNetworkConfig{
		Position:       [2]float64{0, 0}, // when exporting, always a 0-offset is used.
		SendIntervalMs: &intvMs,
	}
}

// ExportGateway exports the thresholds and parameters of the first gateway, if any.
func (s *Simulation) ExportGateway() *YamlGatewayConfig {
	for _, addr := range s.GetNodes() {
		n := s.nodes[addr]
		if n.IsGateway() {
			t := n.session.Planner().Thresholds()
			p := n.session.Planner().Params()
			return &YamlGatewayConfig{Thresholds: &t, Params: &p}
		}
	}
	return nil
}

// ExportNodes exports config/position info of all nodes to a YAML-friendly object.
func (s *Simulation) ExportNodes(nwConfig *YamlNetworkConfig) []YamlNodeConfig {
	res := make([]YamlNodeConfig, 0, len(s.nodes))
	for _, addr := range s.GetNodes() {
		n := s.nodes[addr]
		cfg := n.cfg
		var rr, height *float64

		// include range and height if non-default
		r := n.session.Range()
		if (nwConfig.Range != nil && r != *nwConfig.Range) || (nwConfig.Range == nil && r != DefaultRange) {
			rr = &r
		}
		if cfg.HeightM != DefaultHeight {
			h := cfg.HeightM
			height = &h
		}

		var dsts []int
		for _, dst := range cfg.Destinations {
			dsts = append(dsts, int(dst))
		}

		res = append(res, YamlNodeConfig{
			Addr:         int(addr),
			Role:         cfg.Role,
			Position:     [2]float64{n.dnode.X, n.dnode.Y},
			HeightM:      height,
			Destinations: dsts,
			Range:        rr,
			ChipAntenna:  cfg.ChipAntenna,
			GroundLevel:  cfg.GroundLevel,
		})
	}
	return res
}

// ImportNodes adds the nodes of a YAML file, shifted by the network position and base address.
func (s *Simulation) ImportNodes(nwConfig YamlNetworkConfig, nodes []YamlNodeConfig) error {
	allOk := true
	rr := DefaultRange
	if nwConfig.Range != nil {
		rr = *nwConfig.Range
	}
	posOffset := nwConfig.Position
	addrOffset := 0
	if nwConfig.BaseAddr != nil {
		addrOffset = *nwConfig.BaseAddr
	}
	if nwConfig.SendIntervalMs != nil {
		s.cfg.SendIntervalUs = *nwConfig.SendIntervalMs * 1000
	}

	for _, yn := range nodes {
		cfg, err := yamlNodeToConfig(yn, addrOffset, posOffset, rr)
		if err == nil {
			_, err = s.AddNode(cfg)
		}
		if err != nil {
			logger.Warnf("Warn: node %d: %s", yn.Addr, err)
			allOk = false // continue trying to import remaining nodes
		}
	}

	if !allOk {
		return errors.Errorf("not all nodes could be imported - see error log above")
	}
	return nil
}

func yamlNodeToConfig(yn YamlNodeConfig, addrOffset int, posOffset [2]float64, rr float64) (*NodeConfig, error) {
	cfg := DefaultNodeConfig()

	addr := yn.Addr + addrOffset
	if addr <= int(InvalidAddr) || addr >= int(BroadcastAddr) {
		return nil, errors.Errorf("address %d out of range", addr)
	}
	role, err := ParseRole(yn.Role)
	if err != nil {
		return nil, err
	}
	cfg.Addr = NodeAddr(addr)
	cfg.Role = role
	cfg.X = yn.Position[0] + posOffset[0]
	cfg.Y = yn.Position[1] + posOffset[1]
	cfg.Range = rr
	if yn.Range != nil {
		cfg.Range = *yn.Range
	}
	if yn.HeightM != nil {
		cfg.HeightM = *yn.HeightM
	}
	if yn.Destinations != nil {
		cfg.Destinations = nil
		for _, dst := range yn.Destinations {
			if dst <= int(InvalidAddr) || dst > int(BroadcastAddr) {
				return nil, errors.Errorf("destination %d out of range", dst)
			}
			cfg.Destinations = append(cfg.Destinations, NodeAddr(dst))
		}
	}
	cfg.ChipAntenna = yn.ChipAntenna
	cfg.GroundLevel = yn.GroundLevel
	return &cfg, nil
}

// ImportGateway applies the thresholds and parameters of a YAML gateway section to all gateways.
func (s *Simulation) ImportGateway(gwConfig *YamlGatewayConfig) error {
	if gwConfig == nil {
		return nil
	}
	var err error
	s.VisitNodesInOrder(func(n *Node) {
		if !n.IsGateway() || err != nil {
			return
		}
		planner := n.session.Planner()
		if gwConfig.Thresholds != nil {
			err = planner.TrySetThresholds(*gwConfig.Thresholds)
		}
		if gwConfig.Params != nil && err == nil {
			err = planner.TrySetParams(*gwConfig.Params)
			n.syncRadio()
		}
	})
	return errors.Wrap(err, "gateway")
}

// Export returns the whole network as a YAML file object.
func (s *Simulation) Export() YamlConfigFile {
	nw := s.ExportNetwork()
	return YamlConfigFile{
		NetworkConfig: nw,
		GatewayConfig: s.ExportGateway(),
		NodesList:     s.ExportNodes(&nw),
	}
}

// Import adds the nodes of a YAML file object and applies its gateway section.
func (s *Simulation) Import(cfgFile *YamlConfigFile) error {
	err := s.ImportNodes(cfgFile.NetworkConfig, cfgFile.NodesList)
	if gwErr := s.ImportGateway(cfgFile.GatewayConfig); err == nil {
		err = gwErr
	}
	return err
}

// SaveYamlFile writes the network to the YAML file fn.
func (s *Simulation) SaveYamlFile(fn string) error {
	cfgFile := s.Export()
	data, err := yaml.Marshal(&cfgFile)
	if err != nil {
		return err
	}
	header := fmt.Sprintf("# fieldmesh network, %d nodes\n", len(cfgFile.NodesList))
	return errors.Wrapf(os.WriteFile(fn, append([]byte(header), data...), 0644), "save %s", fn)
}

// LoadYamlFile adds the network of the YAML file fn to the simulation.
func (s *Simulation) LoadYamlFile(fn string) error {
	data, err := os.ReadFile(fn)
	if err != nil {
		return errors.Wrapf(err, "load %s", fn)
	}
	cfgFile := YamlConfigFile{}
	if err := yaml.Unmarshal(data, &cfgFile); err != nil {
		return errors.Wrapf(err, "parse %s", fn)
	}
	return s.Import(&cfgFile)
}
