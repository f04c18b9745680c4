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
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/term"
)

const defaultTermWidth = 80

var (
	cmdHeaderPattern  = regexp.MustCompile(`^### (\S+)`)
	linkTargetPattern = regexp.MustCompile(`\[([^\]]+)\]\(#[a-z-]+\)`)
)

// The command reference, also readable on its own.
//
//go:embed README.md
var cliHelpFile string

type helpEntry struct {
	summary string
	usage   []string
	text    []string
	example []string
}

type Help struct {
	termWidth uint
	cmdWidth  int
	commands  map[string]*helpEntry
}

func newHelp() Help {
	h := Help{
		termWidth: defaultTermWidth,
		commands:  make(map[string]*helpEntry),
	}
	h.parseHelpFile(cliHelpFile)
	h.update()
	return h
}

// update takes the width of the user's terminal, if any.
func (help *Help) update() {
	fdTerm := int(os.Stdout.Fd())
	if !term.IsTerminal(fdTerm) {
		return
	}
	if width, _, err := term.GetSize(fdTerm); err == nil && width > 20 {
		help.termWidth = uint(width)
	}
}

func (help *Help) sortedCommands() []string {
	cmds := make([]string, 0, len(help.commands))
	for k := range help.commands {
		cmds = append(cmds, k)
	}
	sort.Strings(cmds)
	return cmds
}

func (help *Help) outputGeneralHelp() string {
	help.update()
	var sb strings.Builder
	indent := strings.Repeat(" ", help.cmdWidth+2)
	for _, c := range help.sortedCommands() {
		summary := wordwrap.WrapString(help.commands[c].summary, help.termWidth-uint(len(indent)))
		sb.WriteString(fmt.Sprintf("%-*s  %s\n", help.cmdWidth, c,
			strings.ReplaceAll(summary, "\n", "\n"+indent)))
	}
	sb.WriteString(wordwrap.WrapString("\nFor detailed help per command, use: 'help <command>'\n",
		help.termWidth))
	return sb.String()
}

func (help *Help) outputCommandHelp(command string) string {
	help.update()
	entry, ok := help.commands[command]
	if !ok {
		return fmt.Sprintf("%s: no such command, try 'help'\n", command)
	}

	var sb strings.Builder
	for _, u := range entry.usage {
		sb.WriteString(u + "\n")
	}
	for _, par := range entry.text {
		for _, line := range strings.Split(wordwrap.WrapString(par, help.termWidth-2), "\n") {
			sb.WriteString("  " + line + "\n")
		}
	}
	if len(entry.example) > 0 {
		sb.WriteString("Example:\n")
		for _, line := range entry.example {
			sb.WriteString("  " + line + "\n")
		}
	}
	return sb.String()
}

// parseHelpFile reads the command sections of the markdown reference: a '### name' header,
// paragraphs, a 'shell' block with the usage and an optional 'bash' block with an example.
func (help *Help) parseHelpFile(md string) {
	var cur *helpEntry
	block := ""
	par := ""

	flushPar := func() {
		if cur != nil && par != "" {
			cur.text = append(cur.text, par)
			if cur.summary == "" {
				cur.summary = firstSentence(par)
			}
		}
		par = ""
	}

	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimRight(line, " \t\r")

		if m := cmdHeaderPattern.FindStringSubmatch(line); m != nil {
			flushPar()
			cur = &helpEntry{}
			help.commands[m[1]] = cur
			if len(m[1]) > help.cmdWidth {
				help.cmdWidth = len(m[1])
			}
			continue
		}
		if cur == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "```"):
			flushPar()
			if block == "" {
				block = strings.TrimPrefix(line, "```")
			} else {
				block = ""
			}
		case block == "shell":
			cur.usage = append(cur.usage, line)
		case block != "":
			cur.example = append(cur.example, line)
		case strings.HasPrefix(line, "#"):
			flushPar()
			cur = nil
		case strings.TrimSpace(line) == "":
			flushPar()
		default:
			if par != "" {
				par += " "
			}
			par += markdownUnquote(strings.TrimSpace(line))
		}
	}
	flushPar()
}

func firstSentence(s string) string {
	if idx := strings.Index(s, ". "); idx > 0 {
		return s[:idx+1]
	}
	return s
}

func markdownUnquote(md string) string {
	md = linkTargetPattern.ReplaceAllString(md, "$1")
	md = strings.ReplaceAll(md, "\\", "")
	return strings.ReplaceAll(md, "`", "")
}
