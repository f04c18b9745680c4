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

// Package logger is the levelled logger of fieldmesh, with per-node loggers and assertion helpers.
package logger

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	. "github.com/fieldmesh/fieldmesh/types"
)

// Level is the log level of the program as a whole, or of an individual node.
type Level int8

const (
	TraceLevel   Level = 6
	DebugLevel   Level = 5
	InfoLevel    Level = 4
	NoteLevel    Level = 3
	WarnLevel    Level = 2
	ErrorLevel   Level = 1
	PanicLevel   Level = 0
	FatalLevel   Level = -1
	OffLevel     Level = -2
	MinLevel           = OffLevel
	DefaultLevel       = InfoLevel
)

type logEntry struct {
	Addr  NodeAddr
	Level Level
	Msg   string
}

// StdoutCallback is notified after log output reached the terminal, so that a CLI prompt can be redrawn.
type StdoutCallback interface {
	OnStdout()
}

var (
	cfg          zap.Config
	zaplogger    *zap.Logger
	currentLevel = DefaultLevel
	isTerminal   bool
	cbStdout     StdoutCallback
	// index is Level-MinLevel
	zapLevels = []zapcore.Level{zapcore.FatalLevel + 1, zapcore.FatalLevel, zapcore.PanicLevel,
		zapcore.ErrorLevel, zapcore.WarnLevel, zapcore.InfoLevel, zapcore.InfoLevel, zapcore.DebugLevel,
		zapcore.DebugLevel}
)

func init() {
	if st, err := os.Stdout.Stat(); err == nil && st.Mode()&os.ModeCharDevice != 0 {
		isTerminal = true
	}

	cfg = zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.DebugLevel),
		Encoding:         "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:  "message",
			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,
			EncodeTime:  zapcore.ISO8601TimeEncoder,
		},
	}
	rebuild()
}

func rebuild() {
	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	if zaplogger != nil {
		_ = zaplogger.Sync()
	}
	zaplogger = l
}

// SetLevel sets the log level.
func SetLevel(lv Level) {
	currentLevel = lv
}

// GetLevel gets the current log level.
func GetLevel() Level {
	return currentLevel
}

// SetOutput sets the zap output paths, e.g. []string{"stderr", "fieldmesh.log"}.
func SetOutput(outputs []string) {
	cfg.OutputPaths = outputs
	rebuild()
}

// SetStdoutCallback sets the callback invoked after output was written to a terminal.
func SetStdoutCallback(cb StdoutCallback) {
	cbStdout = cb
}

func getMessage(template string, fmtArgs []interface{}) string {
	if len(fmtArgs) == 0 {
		return template
	}
	if template != "" {
		return fmt.Sprintf(template, fmtArgs...)
	}
	if len(fmtArgs) == 1 {
		if str, ok := fmtArgs[0].(string); ok {
			return str
		}
	}
	return fmt.Sprint(fmtArgs...)
}

func write(level Level, msg string) {
	if isTerminal {
		_, _ = fmt.Fprint(os.Stdout, "\033[2K\r") // clear the CLI line
	}
	ts := time.Now().Format("2006-01-02 15:04:05.000") + " - "
	zaplogger.Log(zapLevels[level-MinLevel], ts+msg)
	if isTerminal && cbStdout != nil {
		cbStdout.OnStdout()
	}
}

// Logf logs a formatted message at the given level.
func Logf(level Level, format string, args []interface{}) {
	if level > currentLevel {
		return
	}
	write(level, getMessage(format, args))
}

// Log logs msg at the given level.
func Log(level Level, msg interface{}) {
	Logf(level, "", []interface{}{msg})
}

// Println prints a line for the user, bypassing the log format.
func Println(msg string) {
	if isTerminal {
		_, _ = fmt.Fprint(os.Stdout, "\033[2K\r")
	}
	_, _ = fmt.Fprintln(os.Stdout, msg)
	if isTerminal && cbStdout != nil {
		cbStdout.OnStdout()
	}
}

func Tracef(format string, args ...interface{}) {
	Logf(TraceLevel, format, args)
}

func Debugf(format string, args ...interface{}) {
	Logf(DebugLevel, format, args)
}

func Infof(format string, args ...interface{}) {
	Logf(InfoLevel, format, args)
}

func Notef(format string, args ...interface{}) {
	Logf(NoteLevel, format, args)
}

func Warnf(format string, args ...interface{}) {
	Logf(WarnLevel, format, args)
}

func Errorf(format string, args ...interface{}) {
	Logf(ErrorLevel, format, args)
}

func Panicf(format string, args ...interface{}) {
	Logf(PanicLevel, format, args)
}

func Fatalf(format string, args ...interface{}) {
	Logf(FatalLevel, format, args)
}

func Error(args ...interface{}) {
	Log(ErrorLevel, args)
}

func Panic(args ...interface{}) {
	Log(PanicLevel, args)
}

// TraceError logs the current stack followed by the error message.
func TraceError(format string, args ...interface{}) {
	Error(string(debug.Stack()))
	Errorf(format, args...)
}

func PanicIfError(err error, args ...interface{}) {
	if err == nil {
		return
	}
	if len(args) == 0 {
		args = []interface{}{err}
	}
	Panic(args...)
}

func FatalIfError(err error, format string, args ...interface{}) {
	if err != nil {
		Fatalf(format, args...)
	}
}

type assertLogger struct{}

func (assertLogger) Errorf(format string, args ...interface{}) {
	Panicf(format, args...)
}

func AssertEqual(expected, actual interface{}, msgAndArgs ...interface{}) bool {
	return assert.Equal(assertLogger{}, expected, actual, msgAndArgs...)
}

func AssertNil(object interface{}, msgAndArgs ...interface{}) bool {
	return assert.Nil(assertLogger{}, object, msgAndArgs...)
}

func AssertNotNil(object interface{}, msgAndArgs ...interface{}) bool {
	return assert.NotNil(assertLogger{}, object, msgAndArgs...)
}

func AssertTrue(value bool, msgAndArgs ...interface{}) bool {
	return assert.True(assertLogger{}, value, msgAndArgs...)
}

func AssertFalse(value bool, msgAndArgs ...interface{}) bool {
	return assert.False(assertLogger{}, value, msgAndArgs...)
}
