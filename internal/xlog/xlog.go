// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package xlog is a small leveled, colorized logger for the VM's ambient
// diagnostics: collection cycles, FFI ownership faults, exception
// unwinding. It is deliberately not on the hot instruction-dispatch path.
package xlog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level is a log severity, ordered from most to least verbose.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCrit
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "EROR"
	case LevelCrit:
		return "CRIT"
	default:
		return "????"
	}
}

func (l Level) color() *color.Color {
	switch l {
	case LevelDebug:
		return color.New(color.FgHiBlack)
	case LevelInfo:
		return color.New(color.FgGreen)
	case LevelWarn:
		return color.New(color.FgYellow)
	case LevelError:
		return color.New(color.FgRed)
	case LevelCrit:
		return color.New(color.FgHiRed, color.Bold)
	default:
		return color.New()
	}
}

// Logger is the interface the vm package depends on, satisfied by *Handler.
// Keeping it as an interface lets callers substitute a no-op logger in
// tests without pulling in the color/tty dependencies.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	Crit(msg string, kv ...any)
}

// Handler writes leveled, colorized log lines to an io.Writer, matching the
// go-ethereum-style terminal logger this is modeled on.
type Handler struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel Level
	color    bool
}

// New returns a Handler writing to os.Stderr, colorized automatically when
// stderr is a terminal.
func New(minLevel Level) *Handler {
	useColor := isatty.IsTerminal(os.Stderr.Fd())
	return &Handler{
		out:      colorable.NewColorableStderr(),
		minLevel: minLevel,
		color:    useColor,
	}
}

// NewWithWriter returns a Handler writing to w, with colorization forced on
// or off rather than auto-detected. Useful for tests that assert on plain
// output.
func NewWithWriter(w io.Writer, minLevel Level, useColor bool) *Handler {
	return &Handler{out: w, minLevel: minLevel, color: useColor}
}

func (h *Handler) log(level Level, msg string, kv []any) {
	if level < h.minLevel {
		return
	}
	var b strings.Builder
	b.WriteString(time.Now().Format("15:04:05.000"))
	b.WriteByte(' ')
	if h.color {
		b.WriteString(level.color().Sprint(level.String()))
	} else {
		b.WriteString(level.String())
	}
	b.WriteByte(' ')
	b.WriteString(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	if level >= LevelError {
		// A one-frame caller hint, enough to locate the diagnostic without
		// the cost of a full stack capture on every log line.
		if frames := stack.Trace().TrimRuntime(); len(frames) > 2 {
			fmt.Fprintf(&b, " caller=%v", frames[2])
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	io.WriteString(h.out, b.String())
}

func (h *Handler) Debug(msg string, kv ...any) { h.log(LevelDebug, msg, kv) }
func (h *Handler) Info(msg string, kv ...any)  { h.log(LevelInfo, msg, kv) }
func (h *Handler) Warn(msg string, kv ...any)  { h.log(LevelWarn, msg, kv) }
func (h *Handler) Error(msg string, kv ...any) { h.log(LevelError, msg, kv) }
func (h *Handler) Crit(msg string, kv ...any)  { h.log(LevelCrit, msg, kv) }

// Nop is a Logger that discards everything, used by default in the vm
// package's tests so output stays silent unless a test explicitly wants it.
type Nop struct{}

func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}
func (Nop) Crit(string, ...any)  {}
