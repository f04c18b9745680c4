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

	"github.com/fieldmesh/fieldmesh/radiomodel"
	. "github.com/fieldmesh/fieldmesh/types"
)

// radioFrame is a frame on the air. Timestamp is the end of its airtime.
type radioFrame struct {
	Timestamp uint64
	StartTime uint64
	Src       NodeAddr
	Data      []byte

	// snapshot of the sender's radio at the start of the frame
	srcRadio radiomodel.RadioNode
	seq      uint64
	done     bool
	index    int
}

// overlaps returns true if f and other share part of their airtime.
func (f *radioFrame) overlaps(other *radioFrame) bool {
	return f.StartTime < other.Timestamp && other.StartTime < f.Timestamp
}

type sendQueue struct {
	q    radioFrameQueue
	next uint64
}

type radioFrameQueue []*radioFrame

func (q radioFrameQueue) Len() int {
	return len(q)
}

func (q radioFrameQueue) Less(i, j int) bool {
	if q[i].Timestamp == q[j].Timestamp {
		return q[i].seq < q[j].seq
	}
	return q[i].Timestamp < q[j].Timestamp
}

func (q radioFrameQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}

func (q *radioFrameQueue) Push(x interface{}) {
	f := x.(*radioFrame)
	f.index = len(*q)
	*q = append(*q, f)
}

func (q *radioFrameQueue) Pop() interface{} {
	n := len(*q)
	f := (*q)[n-1]
	(*q)[n-1] = nil
	*q = (*q)[:n-1]
	return f
}

func newSendQueue() *sendQueue {
	sq := &sendQueue{}
	heap.Init(&sq.q)
	return sq
}

// Add queues f. Frames ending at the same time pop in the order they were added.
func (sq *sendQueue) Add(f *radioFrame) {
	sq.next++
	f.seq = sq.next
	heap.Push(&sq.q, f)
}

func (sq *sendQueue) Len() int {
	return len(sq.q)
}

func (sq *sendQueue) NextTimestamp() uint64 {
	if len(sq.q) == 0 {
		return Ever
	}
	return sq.q[0].Timestamp
}

func (sq *sendQueue) NextEvent() *radioFrame {
	if len(sq.q) == 0 {
		return nil
	}
	return sq.q[0]
}

func (sq *sendQueue) PopNext() *radioFrame {
	return heap.Pop(&sq.q).(*radioFrame)
}
