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

package cli

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/fieldmesh/fieldmesh/logger"
)

type CliHandler interface {
	HandleCommand(cmd string, output io.Writer) error
	GetPrompt() string
}

// commandLister is implemented by handlers that offer tab completion of command names.
type commandLister interface {
	CommandNames() []string
}

type CliOptions struct {
	EchoInput   bool
	HistoryFile string
	Stdin       *os.File
	Stdout      *os.File
}

func DefaultCliOptions() *CliOptions {
	return &CliOptions{}
}

// CliInstance is the singleton CLI instance.
type CliInstance struct {
	Started          chan struct{}
	Options          *CliOptions
	readlineInstance *readline.Instance
	waitCliClosed    chan struct{}
}

var Cli = newCliInstance()

func newCliInstance() *CliInstance {
	return &CliInstance{
		Started:       make(chan struct{}),
		waitCliClosed: make(chan struct{}),
	}
}

func (cli *CliInstance) RestorePrompt() {
	if cli.readlineInstance != nil {
		cli.readlineInstance.Refresh()
	}
}

func getCliOptions(options *CliOptions) *CliOptions {
	if options == nil {
		options = DefaultCliOptions()
	}
	if options.Stdin == nil {
		options.Stdin = os.Stdin
	}
	if options.Stdout == nil {
		options.Stdout = os.Stdout
	}
	return options
}

// Stop makes a running Run return.
func (cli *CliInstance) Stop() {
	<-cli.Started
	// readline can block in Close; send ETX (Ctrl-C) and close stdin so Run closes it instead.
	_, _ = cli.Options.Stdin.WriteString("\003\n")
	_ = cli.Options.Stdin.Close()
	logger.Tracef("Waiting for CLI to stop ...")
	<-cli.waitCliClosed
	logger.Tracef("CLI wait-for-stop done.")
}

// saveTermState saves the terminal state of f, if it is a terminal, and returns its restore func.
func saveTermState(f *os.File) (func(), error) {
	fd := int(f.Fd())
	if !readline.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := readline.GetState(fd)
	if err != nil {
		return nil, err
	}
	return func() {
		_ = readline.Restore(fd, state)
	}, nil
}

func newCompleter(handler CliHandler) readline.AutoCompleter {
	lister, ok := handler.(commandLister)
	if !ok {
		return nil
	}
	var items []readline.PrefixCompleterInterface
	for _, name := range lister.CommandNames() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

// Run reads command lines and passes them to handler until EOF, an interrupt on an empty line, or
// a handler error.
func (cli *CliInstance) Run(handler CliHandler, options *CliOptions) error {
	defer logger.Debugf("CLI exit.")
	defer close(cli.waitCliClosed)

	options = getCliOptions(options)
	cli.Options = options
	stdout := options.Stdout

	for _, f := range []*os.File{options.Stdin, stdout} {
		restore, err := saveTermState(f)
		if err != nil {
			close(cli.Started)
			return err
		}
		defer restore()
	}

	l, err := readline.NewEx(&readline.Config{
		Prompt:          handler.GetPrompt(),
		HistoryFile:     options.HistoryFile,
		AutoComplete:    newCompleter(handler),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           options.Stdin,
		Stdout:          stdout,

		HistorySearchFold: true,
		FuncFilterInputRune: func(r rune) (rune, bool) {
			switch r {
			// block CtrlZ feature
			case readline.CharCtrlZ:
				return r, false
			}
			return r, true
		},
	})
	if err != nil {
		close(cli.Started)
		return err
	}
	defer func() {
		_ = l.Close()
	}()
	cli.readlineInstance = l
	close(cli.Started)

	for {
		l.SetPrompt(handler.GetPrompt())
		line, err := l.Readline()

		if len(line) > 0 && line[0] == readline.CharInterrupt {
			return nil
		} else if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue // Ctrl-C while editing only drops the line
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		if options.EchoInput {
			if _, err := stdout.WriteString(line + "\n"); err != nil {
				return err
			}
		}

		cmd := strings.TrimSpace(line)
		if len(cmd) == 0 || cmd[0] == '#' {
			continue
		}

		err = handler.HandleCommand(cmd, l.Stdout())
		_ = stdout.Sync()
		if err != nil {
			return err
		}
	}
}

// OnStdout is the handler called when new Stdout/Stderr output occurred.
func (cli *CliInstance) OnStdout() {
	cli.RestorePrompt()
}
