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
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/fieldmesh/fieldmesh/types"
)

func TestSendQueue_Len(t *testing.T) {
	q := newSendQueue()
	assert.Equal(t, 0, q.Len())
	q.Add(&radioFrame{Timestamp: 2, Src: 2})
	assert.Equal(t, 1, q.Len())
	q.Add(&radioFrame{Timestamp: 1, Src: 1})
	assert.Equal(t, 2, q.Len())
	q.Add(&radioFrame{Timestamp: 3, Src: 3})
	assert.Equal(t, 3, q.Len())
}

func TestSendQueue_NextTimestamp(t *testing.T) {
	q := newSendQueue()
	assert.Equal(t, Ever, q.NextTimestamp())
	q.Add(&radioFrame{Timestamp: 2, Src: 2, Data: []byte{1, 3, 2}})
	assert.Equal(t, uint64(2), q.NextTimestamp())
	q.Add(&radioFrame{Timestamp: 1, Src: 1})
	assert.Equal(t, uint64(1), q.NextTimestamp())
	q.Add(&radioFrame{Timestamp: 3, Src: 3})
	assert.Equal(t, uint64(1), q.NextTimestamp())
}

func TestSendQueue_NextEvent(t *testing.T) {
	q := newSendQueue()
	assert.Nil(t, q.NextEvent())
	q.Add(&radioFrame{Timestamp: 2, Src: 2, Data: []byte{1, 3, 2}})
	assert.Equal(t, NodeAddr(2), q.NextEvent().Src)
	assert.Equal(t, []byte{1, 3, 2}, q.NextEvent().Data)
	q.Add(&radioFrame{Timestamp: 1, Src: 1})
	assert.Equal(t, NodeAddr(1), q.NextEvent().Src)
	assert.Equal(t, []byte(nil), q.NextEvent().Data)
}

func TestSendQueue_PopNext(t *testing.T) {
	q := newSendQueue()
	q.Add(&radioFrame{Timestamp: 2, Src: 2})
	q.Add(&radioFrame{Timestamp: 1, Src: 1})
	q.Add(&radioFrame{Timestamp: 3, Src: 3})
	q.Add(&radioFrame{Timestamp: 2, Src: 4})

	for _, want := range []struct {
		src NodeAddr
		ts  uint64
	}{{1, 1}, {2, 2}, {4, 2}, {3, 3}} {
		f := q.PopNext()
		assert.Equal(t, want.src, f.Src)
		assert.Equal(t, want.ts, f.Timestamp)
	}
	assert.Equal(t, 0, q.Len())
}

func TestRadioFrameOverlaps(t *testing.T) {
	a := &radioFrame{StartTime: 100, Timestamp: 200}
	assert.True(t, a.overlaps(&radioFrame{StartTime: 150, Timestamp: 250}))
	assert.True(t, a.overlaps(&radioFrame{StartTime: 50, Timestamp: 101}))
	assert.False(t, a.overlaps(&radioFrame{StartTime: 200, Timestamp: 300}))
	assert.False(t, a.overlaps(&radioFrame{StartTime: 0, Timestamp: 100}))
}
