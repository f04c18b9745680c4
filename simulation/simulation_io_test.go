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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	. "github.com/fieldmesh/fieldmesh/types"
)

var testYamlFile = `
network:
    pos-shift: [100, 0]
    range: 50
    send-interval-ms: 30000
gateway:
    thresholds:
        temp-low: 0
        temp-high: 30
        hum-low: 20
        hum-high: 90
        soil-low: 100
        soil-high: 900
nodes:
    - addr: 1
      role: gateway
      pos: [0, 0]
    - addr: 3
      role: sensor
      pos: [20, 10]
      dst: [1]
    - addr: 4
      role: s
      pos: [-20, 10]
      height: 0.4
      range: 80
      ground-level: true
      chip-antenna: true
`

func TestYamlConfigUnmarshall(t *testing.T) {
	cfgFile := YamlConfigFile{}
	err := yaml.Unmarshal([]byte(testYamlFile), &cfgFile)
	assert.Nil(t, err)
	assert.Equal(t, 100.0, cfgFile.NetworkConfig.Position[0])
	assert.Equal(t, 3, len(cfgFile.NodesList))
	assert.Equal(t, 80.0, *cfgFile.NodesList[2].Range)
	assert.Nil(t, cfgFile.NodesList[1].Range)
	assert.Equal(t, 30.0, cfgFile.GatewayConfig.Thresholds.HighTempC)
	assert.Nil(t, cfgFile.GatewayConfig.Params)
}

func TestImportExportNetwork(t *testing.T) {
	sim := newTestSimulation(t, "Rural")
	cfgFile := YamlConfigFile{}
	assert.NoError(t, yaml.Unmarshal([]byte(testYamlFile), &cfgFile))

	do(t, sim, func() {
		assert.NoError(t, sim.Import(&cfgFile))
		assert.Equal(t, []NodeAddr{1, 3, 4}, sim.GetNodes())
		assert.Equal(t, uint64(30000000), sim.cfg.SendIntervalUs)

		gw := sim.nodes[1]
		assert.Equal(t, 100.0, gw.DNode().X)
		assert.Equal(t, 30.0, gw.Session().Planner().Thresholds().HighTempC)

		n3 := sim.nodes[3]
		assert.Equal(t, []NodeAddr{1}, n3.Session().Destinations())
		assert.Equal(t, 50.0, n3.Session().Range())

		n4 := sim.nodes[4]
		assert.Equal(t, 80.0, n4.Session().Range())
		assert.Equal(t, 0.4, n4.Config().HeightM)
		assert.True(t, n4.Config().GroundLevel)
		assert.Equal(t, DefaultDestinations(), n4.Session().Destinations())

		// importing the same addresses again fails per node
		assert.Error(t, sim.ImportNodes(cfgFile.NetworkConfig, cfgFile.NodesList))
	})

	fn := filepath.Join(t.TempDir(), "net.yaml")
	do(t, sim, func() {
		assert.NoError(t, sim.SaveYamlFile(fn))
	})

	sim2 := newTestSimulation(t, "Rural")
	do(t, sim2, func() {
		assert.NoError(t, sim2.LoadYamlFile(fn))
		assert.Equal(t, sim.GetNodes(), sim2.GetNodes())
		for _, addr := range sim.GetNodes() {
			n1, n2 := sim.nodes[addr], sim2.nodes[addr]
			assert.Equal(t, n1.Config().Role, n2.Config().Role)
			assert.Equal(t, n1.DNode().X, n2.DNode().X)
			assert.Equal(t, n1.DNode().Y, n2.DNode().Y)
			assert.Equal(t, n1.Session().Range(), n2.Session().Range())
			assert.Equal(t, n1.Session().Destinations(), n2.Session().Destinations())
		}
		assert.Equal(t, 30.0, sim2.nodes[1].Session().Planner().Thresholds().HighTempC)
	})
}

func TestImportRejectsBadNodes(t *testing.T) {
	sim := newTestSimulation(t, "Rural")
	nodes := []YamlNodeConfig{
		{Addr: 1, Role: "gateway"},
		{Addr: 300, Role: "sensor"},
		{Addr: 5, Role: "router"},
		{Addr: 6, Role: "sensor", Destinations: []int{0}},
	}
	do(t, sim, func() {
		assert.Error(t, sim.ImportNodes(YamlNetworkConfig{}, nodes))
		assert.Equal(t, []NodeAddr{1}, sim.GetNodes())
	})
}
