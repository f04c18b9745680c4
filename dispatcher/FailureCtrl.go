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

package dispatcher

import (
	"fmt"

	"github.com/fieldmesh/fieldmesh/logger"
	"github.com/fieldmesh/fieldmesh/prng"
	. "github.com/fieldmesh/fieldmesh/types"
)

// FailTime describes random node outages: within every FailInterval the node is down for FailDuration
// at a random offset. Both in us.
type FailTime struct {
	FailDuration uint64 `yaml:"duration"`
	FailInterval uint64 `yaml:"interval"`
}

var (
	NonFailTime = FailTime{0, 0}
)

func (ft FailTime) CanFail() bool {
	return ft.FailDuration > 0
}

func (ft FailTime) String() string {
	if !ft.CanFail() {
		return "never"
	}
	return fmt.Sprintf("%.1fs of every %.1fs", float64(ft.FailDuration)/1e6, float64(ft.FailInterval)/1e6)
}

// FailureCtrl fails and recovers its owner node according to a FailTime.
type FailureCtrl struct {
	owner     *Node
	failTime  FailTime
	recoverTs uint64 // valid while the owner is failed
	failTs    uint64 // valid while the owner works
	remainTm  uint64 // rest of the current interval after the outage
}

func newFailureCtrl(owner *Node, failTime FailTime) *FailureCtrl {
	return &FailureCtrl{
		owner:    owner,
		failTime: failTime,
	}
}

func (fc *FailureCtrl) FailTime() FailTime {
	return fc.failTime
}

// SetFailTime restarts the outage schedule. A node that cannot fail anymore is recovered.
func (fc *FailureCtrl) SetFailTime(failTime FailTime) {
	if failTime.CanFail() {
		logger.AssertTrue(failTime.FailInterval > failTime.FailDuration, "fail interval %d <= duration %d",
			failTime.FailInterval, failTime.FailDuration)
	}
	fc.failTime = failTime
	fc.recoverTs, fc.failTs, fc.remainTm = 0, 0, 0

	if !failTime.CanFail() && fc.owner.IsFailed() {
		fc.owner.Recover()
	}
	fc.scheduleNextFailure()
}

// OnTimeAdvanced fails or recovers the owner once its time passed the scheduled instant, and returns
// the timestamp of the next scheduled operation.
func (fc *FailureCtrl) OnTimeAdvanced() uint64 {
	if !fc.failTime.CanFail() {
		return Ever
	}

	now := fc.owner.CurTime
	if fc.owner.IsFailed() {
		if now < fc.recoverTs {
			return fc.recoverTs
		}
		fc.recoverTs = 0
		fc.scheduleNextFailure()
		fc.owner.Recover()
		return fc.failTs
	}

	if now < fc.failTs {
		return fc.failTs
	}
	fc.failTs = 0
	fc.recoverTs = now + fc.failTime.FailDuration
	fc.owner.Fail()
	return fc.recoverTs
}

func (fc *FailureCtrl) scheduleNextFailure() {
	if !fc.failTime.CanFail() {
		return
	}
	window := fc.failTime.FailInterval - fc.failTime.FailDuration
	offset := prng.NewFailTime(int(window))
	fc.failTs = fc.owner.CurTime + fc.remainTm + offset
	fc.remainTm = window - offset
}
