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

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldmesh/fieldmesh/types"
)

func TestParseLevelString(t *testing.T) {
	for _, lv := range []Level{TraceLevel, DebugLevel, InfoLevel, NoteLevel, WarnLevel, ErrorLevel, OffLevel} {
		parsed, err := ParseLevelString(GetLevelString(lv))
		assert.Nil(t, err)
		assert.Equal(t, lv, parsed)
	}
	lv, err := ParseLevelString("W")
	assert.Nil(t, err)
	assert.Equal(t, WarnLevel, lv)

	lv, err = ParseLevelString("loud")
	assert.NotNil(t, err)
	assert.Equal(t, DefaultLevel, lv)
}

func TestAssertPanics(t *testing.T) {
	assert.Panics(t, func() { AssertTrue(false) })
	assert.NotPanics(t, func() { AssertEqual(1, 1) })
}

func TestNodeLoggerBuffersUntilDisplayed(t *testing.T) {
	cfg := types.DefaultNodeConfig()
	cfg.Addr = 0x42
	nl := GetNodeLogger(t.TempDir(), &cfg)
	defer RemoveNodeLogger(cfg.Addr)

	nl.SetDisplayLevel(OffLevel)
	nl.SetFileLevel(DebugLevel)
	nl.Debugf("range now %.1f", 33.0)
	nl.Tracef("dropped")
	assert.Equal(t, 1, len(nl.entries))

	nl.DisplayPendingLogEntries(1000)
	assert.Equal(t, 0, len(nl.entries))
	assert.Equal(t, uint64(1000), nl.timestampUs)
	assert.True(t, nl == GetNodeLogger("", &cfg))
}
