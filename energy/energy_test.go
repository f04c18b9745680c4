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

package energy

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/fieldmesh/fieldmesh/types"
)

func TestTxCurrent(t *testing.T) {
	assert.Equal(t, 20.0, TxCurrentMa(2))
	assert.Equal(t, 87.0, TxCurrentMa(17))
	assert.Equal(t, 120.0, TxCurrentMa(20))
	assert.Equal(t, 120.0, TxCurrentMa(25))
}

func TestNodeEnergyAccounting(t *testing.T) {
	ea := NewEnergyAnalyser()
	ea.AddNode(0x03, 0)
	n := ea.GetNode(0x03)

	// 1s rx, 100ms tx at 17 dBm, 1s sleep
	n.SetRadioState(RadioTx, 17, 1000000)
	n.SetRadioState(RadioSleep, 0, 1100000)
	rep := ea.Report(2100000)

	assert.Len(t, rep, 1)
	assert.InDelta(t, 3.3*10.8, rep[0].Rx, 1e-6)
	assert.InDelta(t, 3.3*87*0.1, rep[0].Tx, 1e-6)
	assert.InDelta(t, 3.3*0.0002, rep[0].Sleep, 1e-9)
	assert.Equal(t, 0.0, rep[0].Disabled)
	assert.InDelta(t, rep[0].Rx+rep[0].Tx+rep[0].Sleep, rep[0].Total(), 1e-9)
}

func TestNetworkHistory(t *testing.T) {
	ea := NewEnergyAnalyser()
	ea.AddNode(0x01, 0)
	ea.AddNode(0x02, 0)
	ea.OnTimeAdvanced(ComputePeriod*3 + 1)
	hist := ea.GetNetworkEnergyHistory()
	assert.Len(t, hist, 3)
	assert.Equal(t, ComputePeriod*3, hist[2].Timestamp)
	assert.InDelta(t, 3.3*10.8*90, hist[2].EnergyConsRx, 1e-6)

	var buf bytes.Buffer
	ea.WriteEnergyByNodes(&buf, ComputePeriod*3)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[2], "0x01\t"))

	ea.DeleteNode(0x01)
	ea.DeleteNode(0x02)
	assert.Empty(t, ea.GetNetworkEnergyHistory())
}

func TestSaveEnergyData(t *testing.T) {
	dir := t.TempDir()
	ea := NewEnergyAnalyser()
	ea.AddNode(0x01, 0)
	assert.NoError(t, ea.SaveEnergyDataToFile(dir, "run", ComputePeriod))
}
