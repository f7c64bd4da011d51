// This file is part of rill - https://github.com/rill-lang/rill
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/rill-lang/rill/builtin"
	"github.com/rill-lang/rill/chunk"
	"github.com/rill-lang/rill/compiler"
	"github.com/rill-lang/rill/internal/rli"
	"github.com/rill-lang/rill/preprocess"
	"github.com/rill-lang/rill/value"
	"github.com/rill-lang/rill/vm"
)

const (
	promptPrimary = ">>> "
	promptCont    = "... "
)

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rill_history")
}

// runREPL drives an interactive read-compile-run loop against a single,
// long-lived vm.Instance so that globals and heap state persist across
// statements (Run is documented re-entrant for exactly this use). Liner
// supplies line editing and history the way cmd/retro relies on bufio for
// its own interactive dump prompts, generalised to a full line editor since
// a scripting REPL's input is free-form text rather than single keystrokes.
func runREPL(jitEnabled, debug bool) {
	heap := value.NewHeap(0)
	reg := builtin.NewRegistry()
	ew := rli.NewErrWriter(os.Stdout)
	vm.BindCore(reg, heap, ew)

	inst, err := vm.New(chunk.New(), heap, reg, vm.Output(ew), vm.EnableJIT(jitEnabled), vm.Debug(debug))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if hp := historyPath(); hp != "" {
		if f, err := os.Open(hp); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	go func() {
		<-sigc
		saveHistory(line)
		os.Exit(exitOK)
	}()

	fmt.Println(version + " -- type .help for help, .exit to quit")

	var buf strings.Builder
	depth := 0
	for {
		prompt := promptPrimary
		if depth > 0 {
			prompt = promptCont
		}
		text, err := line.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			buf.Reset()
			depth = 0
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			break
		}

		if depth == 0 {
			if handled := dotCommand(text, line, inst, reg, heap); handled {
				if ew.Err != nil {
					fmt.Fprintln(os.Stderr, ew.Err)
					break
				}
				continue
			}
		}

		line.AppendHistory(text)
		buf.WriteString(text)
		buf.WriteByte('\n')
		depth += blockDelta(text)
		if depth > 0 {
			continue
		}

		src := buf.String()
		buf.Reset()
		depth = 0
		runREPLStatement(src, inst, reg, heap, debug)
		if ew.Err != nil {
			fmt.Fprintln(os.Stderr, ew.Err)
			break
		}
	}
	saveHistory(line)
}

func saveHistory(line *liner.State) {
	hp := historyPath()
	if hp == "" {
		return
	}
	if f, err := os.Create(hp); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}

// dotCommand recognises the REPL's dot-commands and bare exit/quit words.
// It reports whether text was handled as a command (vs. passed through as
// program source).
func dotCommand(text string, line *liner.State, inst *vm.Instance, reg *builtin.Registry, heap *value.Heap) bool {
	trimmed := strings.TrimSpace(text)
	switch trimmed {
	case "":
		return true
	case ".help":
		usage(os.Stdout)
		return true
	case ".version":
		fmt.Println(version)
		return true
	case ".clear":
		fmt.Print("\033[H\033[2J")
		return true
	case ".quit", ".exit", "exit", "quit":
		saveHistory(line)
		os.Exit(exitOK)
		return true
	}
	if strings.HasPrefix(trimmed, ".load ") {
		path := strings.TrimSpace(trimmed[len(".load "):])
		runFileInREPL(path, inst, reg, heap)
		return true
	}
	return false
}

func runFileInREPL(path string, inst *vm.Instance, reg *builtin.Registry, heap *value.Heap) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	expanded, err := preprocess.Expand(path, string(data), readFileLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	ch, err := compiler.Compile(expanded, heap, reg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if _, err := inst.Run(ch); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func runREPLStatement(src string, inst *vm.Instance, reg *builtin.Registry, heap *value.Heap, debug bool) {
	ch, err := compiler.Compile(src, heap, reg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	v, err := inst.Run(ch)
	if err != nil {
		if debug {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return
	}
	if !v.IsNil() {
		fmt.Println(vm.Stringify(v))
	}
}

// blockDelta reports how a line changes the REPL's nesting depth: +1 for
// every block-opening keyword (fn/if/while/for), -1 for every `end`. elif
// and else don't change nesting since they stay inside the same block.
func blockDelta(line string) int {
	delta := 0
	for _, word := range strings.Fields(line) {
		switch word {
		case "fn", "if", "while", "for":
			delta++
		case "end":
			delta--
		}
	}
	return delta
}
