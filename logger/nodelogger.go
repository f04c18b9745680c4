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
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/fieldmesh/fieldmesh/types"
)

// NodeLogger is a node-specific log object. The display level and an optional log file are set per node.
// Entries are buffered and flushed by the simulation, so that they appear with the simulated timestamp.
type NodeLogger struct {
	Addr         NodeAddr
	fileLevel    Level
	displayLevel Level

	logFile     *os.File
	logFileName string
	entries     chan logEntry
	timestampUs uint64
}

var (
	nodeLogs   = make(map[NodeAddr]*NodeLogger)
	nodeLogsMu sync.Mutex
)

// GetNodeLogger returns the NodeLogger of the node with given config, creating it if needed.
func GetNodeLogger(outputDir string, cfg *NodeConfig) *NodeLogger {
	nodeLogsMu.Lock()
	defer nodeLogsMu.Unlock()

	nl, ok := nodeLogs[cfg.Addr]
	if !ok {
		nl = &NodeLogger{
			Addr:         cfg.Addr,
			fileLevel:    InfoLevel,
			displayLevel: WarnLevel,
			entries:      make(chan logEntry, 256),
			logFileName:  filepath.Join(outputDir, fmt.Sprintf("node_%02x.log", uint8(cfg.Addr))),
		}
		nodeLogs[cfg.Addr] = nl
	}
	if cfg.NodeLogFile && nl.logFile == nil {
		nl.openLogFile()
	}
	return nl
}

func (nl *NodeLogger) openLogFile() {
	f, err := os.OpenFile(nl.logFileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0664)
	if err != nil {
		Errorf("opening node log file %s failed: %+v", nl.logFileName, err)
		return
	}
	nl.logFile = f
	_ = nl.writeToLogFile(fmt.Sprintf("#\n# fieldmesh node %v log, opened %s\n# SimTimeUs Message",
		nl.Addr, time.Now().Format(time.RFC3339)))
}

func (nl *NodeLogger) writeToLogFile(line string) error {
	_, err := nl.logFile.WriteString(line + "\n")
	if err != nil {
		_ = nl.logFile.Close()
		nl.logFile = nil
		Errorf("couldn't write to node log file %s, closing it", nl.logFileName)
	}
	return err
}

func (nl *NodeLogger) SetDisplayLevel(level Level) {
	nl.displayLevel = level
}

func (nl *NodeLogger) SetFileLevel(level Level) {
	nl.fileLevel = level
}

func (nl *NodeLogger) DisplayLevel() Level {
	return nl.displayLevel
}

func (nl *NodeLogger) Logf(level Level, format string, args ...interface{}) {
	if level > nl.fileLevel && level > nl.displayLevel {
		return
	}
	entry := logEntry{Addr: nl.Addr, Level: level, Msg: getMessage(format, args)}
	select {
	case nl.entries <- entry:
	default:
		nl.DisplayPendingLogEntries(nl.timestampUs)
		nl.entries <- entry
	}
}

func (nl *NodeLogger) Tracef(format string, args ...interface{}) {
	nl.Logf(TraceLevel, format, args...)
}

func (nl *NodeLogger) Debugf(format string, args ...interface{}) {
	nl.Logf(DebugLevel, format, args...)
}

func (nl *NodeLogger) Infof(format string, args ...interface{}) {
	nl.Logf(InfoLevel, format, args...)
}

func (nl *NodeLogger) Warnf(format string, args ...interface{}) {
	nl.Logf(WarnLevel, format, args...)
}

func (nl *NodeLogger) Errorf(format string, args ...interface{}) {
	nl.Logf(ErrorLevel, format, args...)
}

// DisplayPendingLogEntries flushes buffered entries to the display and log file, stamped with
// simulation time ts.
func (nl *NodeLogger) DisplayPendingLogEntries(ts uint64) {
	nl.timestampUs = ts
	prefix := fmt.Sprintf("%11d ", ts)
	for {
		select {
		case entry := <-nl.entries:
			line := prefix + entry.Msg
			if nl.logFile != nil && entry.Level <= nl.fileLevel {
				_ = nl.writeToLogFile(line)
			}
			if entry.Level <= nl.displayLevel && entry.Level <= currentLevel {
				write(entry.Level, fmt.Sprintf("Node<%v> %s", nl.Addr, line))
			}
		default:
			return
		}
	}
}

// Close flushes pending entries and closes the node log file, if any.
func (nl *NodeLogger) Close() {
	nl.DisplayPendingLogEntries(nl.timestampUs)
	if nl.logFile != nil {
		_ = nl.logFile.Close()
		nl.logFile = nil
	}
}

// RemoveNodeLogger closes and forgets the logger of a deleted node.
func RemoveNodeLogger(addr NodeAddr) {
	nodeLogsMu.Lock()
	defer nodeLogsMu.Unlock()

	if nl, ok := nodeLogs[addr]; ok {
		nl.Close()
		delete(nodeLogs, addr)
	}
}
