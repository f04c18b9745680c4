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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeAddrString(t *testing.T) {
	assert.Equal(t, "0x03", DefaultLocalAddr.String())
	assert.Equal(t, "0xff", BroadcastAddr.String())
}

func TestMessageType(t *testing.T) {
	assert.False(t, MessageNone.IsWireType())
	for _, mt := range []MessageType{MessageData, MessageConfig, MessageThresholds, MessageSendFail} {
		assert.True(t, mt.IsWireType(), mt.String())
	}
	assert.False(t, MessageType(5).IsWireType())
	assert.Equal(t, "sendfail", MessageSendFail.String())
	assert.Panics(t, func() {
		_ = MessageType(9).String()
	})
}

func TestRadioStatesString(t *testing.T) {
	assert.Equal(t, "Off", RadioDisabled.String())
	assert.Equal(t, "Tx_", RadioTx.String())
}

func TestSameChannel(t *testing.T) {
	p := RadioParams{SpreadingFactor: 7, BandwidthHz: 125e3, FrequencyHz: 866e6, SyncWord: 0x12}
	q := p
	q.TxPowerDbm = 2
	q.CodingRate = 8
	assert.True(t, p.SameChannel(q))

	q.SpreadingFactor = 8
	assert.False(t, p.SameChannel(q))
	q = p
	q.SyncWord = 0x34
	assert.False(t, p.SameChannel(q))
	q = p
	q.InvertIQ = true
	assert.False(t, p.SameChannel(q))
}

func TestSoilMoisturePercent(t *testing.T) {
	assert.Equal(t, 0.0, SoilMoisturePercent(0))
	assert.Equal(t, 100.0, SoilMoisturePercent(MaxSoilMoisture))
}

func TestDefaultNodeConfig(t *testing.T) {
	cfg := DefaultNodeConfig()
	assert.Equal(t, InvalidAddr, cfg.Addr)
	assert.False(t, cfg.IsGateway())
	assert.Equal(t, DefaultRange, cfg.Range)
	assert.Len(t, cfg.Destinations, 5)

	cfg.Destinations[0] = 9
	assert.Equal(t, NodeAddr(1), DefaultDestinations()[0])

	cfg.Role = GATEWAY
	assert.True(t, cfg.IsGateway())
}
