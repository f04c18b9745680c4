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
	. "github.com/fieldmesh/fieldmesh/types"
)

/*
 * Supply currents of an SX1276 class LoRa transceiver at 3.3 V (datasheet, table 6).
 * Power in kilowatts, time in microseconds, resulting energy in mJ.
 */
const (
	SupplyVoltage     float64 = 3.3
	DisabledCurrentMa float64 = 0.0
	SleepCurrentMa    float64 = 0.0002
	RxCurrentMa       float64 = 10.8
)

// txCurrentMa is the PA supply current per output power step, ascending.
var txCurrentMa = []struct {
	dbm int
	ma  float64
}{
	{7, 20},
	{13, 29},
	{17, 87},
	{20, 120},
}

// TxCurrentMa returns the supply current when transmitting at txPowerDbm.
func TxCurrentMa(txPowerDbm int) float64 {
	for _, e := range txCurrentMa {
		if txPowerDbm <= e.dbm {
			return e.ma
		}
	}
	return txCurrentMa[len(txCurrentMa)-1].ma
}

func currentToKw(ma float64) float64 {
	return SupplyVoltage * ma / 1e6
}

const (
	ComputePeriod uint64 = 30000000 // in microseconds
)

type RadioStatus struct {
	State         RadioStates
	TxPowerDbm    int
	SpentDisabled uint64
	SpentSleep    uint64
	SpentTx       uint64
	SpentRx       uint64
	TxEnergyMj    float64 // accumulated per transmission, as the current depends on power
	Timestamp     uint64
}

// NodeEnergyReport is the energy in mJ a node spent per radio state.
type NodeEnergyReport struct {
	Addr     NodeAddr `yaml:"addr"`
	Disabled float64  `yaml:"disabled"`
	Sleep    float64  `yaml:"sleep"`
	Tx       float64  `yaml:"tx"`
	Rx       float64  `yaml:"rx"`
}

func (r NodeEnergyReport) Total() float64 {
	return r.Disabled + r.Sleep + r.Tx + r.Rx
}

type NetworkConsumption struct {
	Timestamp          uint64
	EnergyConsDisabled float64
	EnergyConsSleep    float64
	EnergyConsTx       float64
	EnergyConsRx       float64
}
