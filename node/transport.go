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

package node

import (
	"github.com/pkg/errors"

	. "github.com/fieldmesh/fieldmesh/types"
)

// Transport is the byte-level radio interface of a node. Frames are written with BeginFrame,
// WriteByte for each byte and EndFrame; received frames are read with PendingFrameSize followed by
// that many ReadByte calls. PendingFrameSize must not block and returns 0 if no frame is pending.
type Transport interface {
	BeginFrame() error
	WriteByte(b byte) error
	EndFrame() error
	PendingFrameSize() int
	ReadByte() (byte, error)
	// Configure applies radio parameters. It is called with the active set before every send.
	Configure(p RadioParams) error
}

// RssiReporter is optionally implemented by a Transport that knows the signal strength of the last
// frame it delivered.
type RssiReporter interface {
	LastRssi() (rssi DbValue, ok bool)
}

// Sensor provides environment readings.
type Sensor interface {
	CaptureReading() (SensorReading, error)
}

var (
	ErrNoSensor      = errors.New("node has no sensor")
	ErrNoDestination = errors.New("node has no destinations")
)
