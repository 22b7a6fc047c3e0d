// Command finch is the interpreter's CLI entry point: with no arguments
// it starts an interactive REPL, with one argument it loads and runs a
// source file, and with more than one it reports usage and exits.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/chazu/finch/internal/config"
	"github.com/chazu/finch/internal/gc"
	"github.com/chazu/finch/internal/object"
	"github.com/chazu/finch/internal/vm"
)

const (
	exitOK           = 0
	exitUsage        = 64
	exitCompileError = 65
	exitRuntimeError = 70
	exitIOError      = 74
)

func main() {
	trace := flag.Bool("trace", false, "print each instruction before it executes")
	debugGC := flag.Bool("debug-gc", false, "log every collection cycle")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: finch [options] [path]\n\n")
		fmt.Fprintf(os.Stderr, "With no path, starts an interactive REPL.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) > 1 {
		flag.Usage()
		os.Exit(exitUsage)
	}

	cwd, _ := os.Getwd()
	cfg, err := config.FindAndLoad(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "finch: %v\n", err)
	}

	tracing := *trace || cfg.Debug.TraceExecution
	logGC := *debugGC || cfg.Debug.LogGC
	stressGC := cfg.Debug.StressGC || os.Getenv("FINCH_GC_STRESS") != ""

	strings := object.NewStrings()
	collector := gc.New(strings, gc.Config{
		InitialHeapBytes: cfg.GC.InitialHeapBytes,
		HeapGrowFactor:   cfg.GC.HeapGrowFactor,
		StressGC:         stressGC,
		LogGC:            logGC,
	}, os.Stderr)

	machine := vm.New(collector, strings, os.Stdout, os.Stderr, tracing)
	defer machine.Close()

	if len(args) == 1 {
		runFile(machine, args[0])
		return
	}
	runRepl(machine, cfg.Repl.Prompt)
}

func runFile(machine *vm.VM, path string) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "finch: cannot read %s: %v\n", path, err)
		os.Exit(exitIOError)
	}

	result, ierr := machine.Interpret(string(source))
	switch result {
	case vm.InterpretCompileError:
		os.Exit(exitCompileError)
	case vm.InterpretRuntimeError:
		fmt.Fprintln(os.Stderr, ierr)
		os.Exit(exitRuntimeError)
	}
	os.Exit(exitOK)
}

func runRepl(machine *vm.VM, prompt string) {
	if prompt == "" {
		prompt = "> "
	}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(prompt)
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		result, ierr := machine.Interpret(line)
		if result == vm.InterpretRuntimeError {
			fmt.Fprintln(os.Stderr, ierr)
		}
	}
}
