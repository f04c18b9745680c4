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
	"container/heap"

	"github.com/fieldmesh/fieldmesh/logger"
	. "github.com/fieldmesh/fieldmesh/types"
)

// alarmEvent is the next periodic wakeup of a node.
type alarmEvent struct {
	Addr      NodeAddr
	Timestamp uint64

	index int
}

type alarmQueue []*alarmEvent

func (aq alarmQueue) Len() int {
	return len(aq)
}

func (aq alarmQueue) Less(i, j int) bool {
	if aq[i].Timestamp == aq[j].Timestamp {
		return aq[i].Addr < aq[j].Addr
	}
	return aq[i].Timestamp < aq[j].Timestamp
}

func (aq alarmQueue) Swap(i, j int) {
	a, b := aq[i], aq[j]
	if a.index != i && b.index != j {
		logger.Panicf("wrong index")
	}

	aq[i], aq[j] = b, a
	aq[i].index, aq[j].index = i, j
}

func (aq *alarmQueue) Push(x interface{}) {
	e := x.(*alarmEvent)
	*aq = append(*aq, e)
	e.index = len(*aq) - 1
}

func (aq *alarmQueue) Pop() (elem interface{}) {
	eqlen := len(*aq)
	elem = (*aq)[eqlen-1]
	*aq = (*aq)[:eqlen-1]
	return
}

type alarmMgr struct {
	q      alarmQueue
	events map[NodeAddr]*alarmEvent
}

func newAlarmMgr() *alarmMgr {
	mgr := &alarmMgr{
		q:      alarmQueue{},
		events: map[NodeAddr]*alarmEvent{},
	}

	heap.Init(&mgr.q)
	return mgr
}

func (am *alarmMgr) AddNode(addr NodeAddr) {
	e := am.events[addr]
	logger.AssertNil(e)

	e = &alarmEvent{
		Addr:      addr,
		Timestamp: Ever,
	}
	heap.Push(&am.q, e)
	am.events[addr] = e
}

func (am *alarmMgr) SetNotified(addr NodeAddr) {
	am.SetTimestamp(addr, Ever)
}

func (am *alarmMgr) SetTimestamp(addr NodeAddr, timestamp uint64) {
	e := am.events[addr]
	logger.AssertNotNil(e)

	if e.Timestamp != timestamp {
		e.Timestamp = timestamp
		heap.Fix(&am.q, e.index)
	}
}

func (am *alarmMgr) GetTimestamp(addr NodeAddr) uint64 {
	e := am.events[addr]
	logger.AssertNotNil(e)

	return e.Timestamp
}

func (am *alarmMgr) NextAlarm() *alarmEvent {
	if len(am.q) == 0 {
		return nil
	}

	return am.q[0]
}

func (am *alarmMgr) NextTimestamp() uint64 {
	if len(am.q) == 0 {
		return Ever
	}

	return am.q[0].Timestamp
}

func (am *alarmMgr) DeleteNode(addr NodeAddr) {
	e := am.events[addr]
	logger.AssertNotNil(e)
	heap.Remove(&am.q, e.index)
	delete(am.events, addr)
}
