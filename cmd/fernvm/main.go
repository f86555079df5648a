// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Command fernvm is a minimal embedder for the engine: it assembles one of
// a few built-in sample programs, runs it to completion, and prints the
// result (or the uncaught exception's stack trace). It exists to exercise
// the engine end to end, not as a designed subsystem in its own right —
// there is no bytecode file format to load here, since the compiled program
// record has no wire encoding at this layer.
package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/imlyzh/Pr47/config"
	"github.com/imlyzh/Pr47/internal/xlog"
	"github.com/imlyzh/Pr47/vm"
)

const version = "0.1.0"

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	sampleFlag = cli.StringFlag{
		Name:  "sample",
		Value: "fib7",
		Usage: "built-in sample program to run: fib7, sum, raise",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "fernvm"
	app.Usage = "run a built-in sample program on the engine"
	app.Version = version
	app.Flags = []cli.Flag{configFileFlag, sampleFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fernvm: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	cfg := config.Default()
	if file := ctx.String(configFileFlag.Name); file != "" {
		loaded, err := config.Load(file)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	log := xlog.New(levelFromString(cfg.LogLevel))

	prog, err := sampleProgram(ctx.String(sampleFlag.Name))
	if err != nil {
		return err
	}

	var alloc vm.Allocator
	switch cfg.Allocator {
	case config.AllocatorNoGC:
		alloc = vm.NewNoGCAlloc(log)
	default:
		alloc = vm.NewDefaultAlloc(cfg.DebtCeiling, log)
	}
	alloc.SetGCAllowed(cfg.GCAllowed)

	eng := vm.NewEngine(prog, alloc, vm.NewTyckPool(), log)
	defer func() {
		if err := eng.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "fernvm: allocator teardown: %v\n", err)
		}
	}()

	result, runErr := eng.Run()
	if runErr != nil {
		if exc, ok := runErr.(*vm.Exception); ok {
			fmt.Println("uncaught exception:")
			for _, frame := range exc.CallChain() {
				fmt.Printf("  func %d, insc %d\n", frame.FuncID, frame.InscPtr)
			}
			return runErr
		}
		return runErr
	}

	fmt.Printf("result: %s\n", result)
	return nil
}

func levelFromString(s string) xlog.Level {
	switch s {
	case "debug":
		return xlog.LevelDebug
	case "warn":
		return xlog.LevelWarn
	case "error":
		return xlog.LevelError
	case "crit":
		return xlog.LevelCrit
	default:
		return xlog.LevelInfo
	}
}

// sampleProgram builds one of fernvm's built-in demonstration programs by
// name, in lieu of loading a bytecode file from disk.
func sampleProgram(name string) (*vm.Program, error) {
	switch name {
	case "sum":
		return &vm.Program{
			Code: []vm.Insc{
				vm.InscMakeIntConst(2, 0),
				vm.InscMakeIntConst(3, 1),
				vm.InscAddInt(0, 1, 2),
				vm.InscReturnOne(2),
			},
			InitProc:  0,
			Functions: []vm.CompiledFunction{{StartInsc: 0, ArgCount: 0, RetCount: 1, RegisterCount: 3}},
		}, nil
	case "fib7":
		return fibProgram(), nil
	case "raise":
		return raiseProgram(), nil
	default:
		return nil, fmt.Errorf("unknown sample %q (want one of: fib7, sum, raise)", name)
	}
}

func fibProgram() *vm.Program {
	code := []vm.Insc{
		vm.InscMakeIntConst(7, 0),
		vm.InscCall(1, []int{0}, []int{1}),
		vm.InscReturnOne(1),

		vm.InscMakeIntConst(1, 1),
		vm.InscLeInt(0, 1, 2),
		vm.InscJumpIfTrue(2, 14),
		vm.InscMakeIntConst(1, 3),
		vm.InscSubInt(0, 3, 3),
		vm.InscCall(1, []int{3}, []int{4}),
		vm.InscMakeIntConst(2, 5),
		vm.InscSubInt(0, 5, 5),
		vm.InscCall(1, []int{5}, []int{5}),
		vm.InscAddInt(4, 5, 4),
		vm.InscReturnOne(4),
		vm.InscReturnOne(0),
	}
	return &vm.Program{
		Code:     code,
		InitProc: 0,
		Functions: []vm.CompiledFunction{
			{StartInsc: 0, ArgCount: 0, RetCount: 1, RegisterCount: 2},
			{StartInsc: 3, ArgCount: 1, RetCount: 1, RegisterCount: 6},
		},
	}
}

func raiseProgram() *vm.Program {
	code := []vm.Insc{
		vm.InscCall(1, nil, nil),
		vm.InscReturnNothing(),

		vm.InscCall(2, nil, nil),
		vm.InscReturnNothing(),

		vm.InscMakeIntConst(0, 0),
		vm.InscRaise(0),
	}
	return &vm.Program{
		Code:     code,
		InitProc: 0,
		Functions: []vm.CompiledFunction{
			{StartInsc: 0, ArgCount: 0, RetCount: 0, RegisterCount: 1},
			{StartInsc: 2, ArgCount: 0, RetCount: 0, RegisterCount: 1},
			{StartInsc: 4, ArgCount: 0, RetCount: 0, RegisterCount: 1},
		},
	}
}
