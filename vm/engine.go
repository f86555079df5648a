// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import (
	"fmt"
	"reflect"

	"github.com/imlyzh/Pr47/internal/xlog"
)

// frame is one call frame's bookkeeping: its register window's base offset
// into the engine's single shared Stack, where to resume the caller, and
// which caller registers receive the returned values.
type frame struct {
	base     int
	funcID   int
	returnPC int
	retRegs  []int
}

// builtinObject is the trivial opaque payload CreateObject allocates when
// the embedder has not installed a richer object capability set (the kind
// host/poly.Object supplies in a real embedding). It carries no data and
// has no children.
type builtinObject struct{}

var builtinObjectCaps = &Capabilities{
	TypeName: "object",
	TypeID:   reflect.TypeOf(builtinObject{}),
}

// Engine runs one compiled Program against one call stack. It is the
// scheduler spec.md §6-§7 describes: instruction dispatch, call/return
// frame management, and checked/unchecked exception unwinding.
type Engine struct {
	prog       *Program
	alloc      Allocator
	pool       *TyckPool
	log        xlog.Logger
	stack      *Stack
	frames     []frame
	pc         int
	objectCaps *Capabilities
}

// NewEngine returns an Engine ready to Run prog. alloc and pool may be
// shared across multiple engines (e.g. multiple concurrently executing
// scripts in one embedding); stack is created fresh and owned by the
// engine, closed when the engine is done.
func NewEngine(prog *Program, alloc Allocator, pool *TyckPool, log xlog.Logger) *Engine {
	if log == nil {
		log = xlog.Nop{}
	}
	return &Engine{
		prog:       prog,
		alloc:      alloc,
		pool:       pool,
		log:        log,
		stack:      NewStack(alloc),
		objectCaps: builtinObjectCaps,
	}
}

// SetObjectCapabilities overrides the capability set CreateObject attaches
// to the objects it allocates. The payload stays the built-in empty
// builtinObject; only the capability set (type name, TypeID, hooks) changes.
func (e *Engine) SetObjectCapabilities(caps *Capabilities) { e.objectCaps = caps }

// Close releases the engine's stack. It must be called exactly once, after
// Run returns.
func (e *Engine) Close() { e.stack.Close() }

// Pool returns the engine's type-check descriptor pool, for host functions
// that need to intern or compare descriptors.
func (e *Engine) Pool() *TyckPool { return e.pool }

// Alloc returns the engine's allocator, for host functions that allocate
// polymorphic or container objects as part of a call.
func (e *Engine) Alloc() Allocator { return e.alloc }

func (e *Engine) getReg(rel int) Value  { return e.stack.Get(e.frames[len(e.frames)-1].base + rel) }
func (e *Engine) setReg(rel int, v Value) {
	e.stack.Set(e.frames[len(e.frames)-1].base+rel, v)
}

func (e *Engine) curFrame() *frame { return &e.frames[len(e.frames)-1] }

// Run executes the program's designated entry function to completion,
// returning its result value or the uncaught exception that terminated it.
func (e *Engine) Run() (Value, error) {
	e.pushCall(e.prog.InitProc, nil)
	for {
		done, result, err := e.step()
		if err != nil {
			return Value{}, err
		}
		if done {
			return result, nil
		}
	}
}

// step executes exactly one instruction. done reports whether the
// outermost frame just returned (or an exception escaped it uncaught), in
// which case result/err carry the final outcome.
func (e *Engine) step() (done bool, result Value, err error) {
	insc := e.prog.Code[e.pc]
	switch insc.Op {
	case OpAddInt:
		a, ok1 := e.getReg(insc.A).AsImmediateInt()
		b, ok2 := e.getReg(insc.B).AsImmediateInt()
		if !ok1 || !ok2 {
			return e.raiseUnchecked(&UncheckedException{Kind: ExcInvalidBinaryOp, BinOp: "+"})
		}
		e.setReg(insc.Dst, Int(a+b))
		e.pc++

	case OpSubInt:
		a, ok1 := e.getReg(insc.A).AsImmediateInt()
		b, ok2 := e.getReg(insc.B).AsImmediateInt()
		if !ok1 || !ok2 {
			return e.raiseUnchecked(&UncheckedException{Kind: ExcInvalidBinaryOp, BinOp: "-"})
		}
		e.setReg(insc.Dst, Int(a-b))
		e.pc++

	case OpEqValue:
		e.setReg(insc.Dst, Bool(valuesEqual(e.getReg(insc.A), e.getReg(insc.B))))
		e.pc++

	case OpLeInt:
		a, ok1 := e.getReg(insc.A).AsImmediateInt()
		b, ok2 := e.getReg(insc.B).AsImmediateInt()
		if !ok1 || !ok2 {
			return e.raiseUnchecked(&UncheckedException{Kind: ExcInvalidBinaryOp, BinOp: "<="})
		}
		e.setReg(insc.Dst, Bool(a <= b))
		e.pc++

	case OpMakeIntConst:
		e.setReg(insc.Dst, Int(int32(insc.Imm)))
		e.pc++

	case OpJump:
		e.pc = insc.Target

	case OpJumpIfTrue:
		b, ok := e.getReg(insc.A).AsImmediateBool()
		if !ok {
			return e.raiseUnchecked(&UncheckedException{Kind: ExcTypeCheckFailure})
		}
		if b {
			e.pc = insc.Target
		} else {
			e.pc++
		}

	case OpCall:
		fn := e.prog.Functions[insc.FuncID]
		if len(insc.Args) != fn.ArgCount {
			return e.raiseUnchecked(&UncheckedException{Kind: ExcArgCountMismatch, FuncID: insc.FuncID, Expected: fn.ArgCount, Got: len(insc.Args)})
		}
		args := make([]Value, len(insc.Args))
		for i, r := range insc.Args {
			args[i] = e.getReg(r)
		}
		e.pushCall(insc.FuncID, args)
		e.curFrame().retRegs = insc.Rets

	case OpFFICall:
		return e.execFFICall(insc)

	case OpReturn:
		return e.execReturn(insc.Args)

	case OpReturnOne:
		return e.execReturn([]int{insc.A})

	case OpReturnNothing:
		return e.execReturn(nil)

	case OpCreateObject:
		v := e.alloc.AllocatePolymorphic(builtinObject{}, e.objectCaps)
		e.setReg(insc.Dst, v)
		e.pc++

	case OpRaise:
		exc := NewCheckedException(e.getReg(insc.A))
		return e.raiseException(exc)

	default:
		return true, Value{}, fmt.Errorf("vm: unknown opcode %d at pc=%d", insc.Op, e.pc)
	}
	return false, Value{}, nil
}

// pushCall allocates a new register window for funcID, copies args into it,
// pushes a frame whose returnPC is the instruction after the current one,
// and transfers control to the callee's entry point. The caller is
// responsible for filling in the new frame's retRegs (see OpCall above).
func (e *Engine) pushCall(funcID int, args []Value) {
	fn := e.prog.Functions[funcID]
	base := e.stack.Grow(fn.RegisterCount)
	for i, v := range args {
		e.stack.Set(base+i, v)
	}
	e.frames = append(e.frames, frame{base: base, funcID: funcID, returnPC: e.pc + 1})
	e.pc = fn.StartInsc
}

func (e *Engine) execReturn(regs []int) (done bool, result Value, err error) {
	vals := make([]Value, len(regs))
	for i, r := range regs {
		vals[i] = e.getReg(r)
	}
	f := e.frames[len(e.frames)-1]
	e.frames = e.frames[:len(e.frames)-1]
	e.stack.Truncate(f.base)

	if len(e.frames) == 0 {
		if len(vals) == 0 {
			return true, Null(), nil
		}
		return true, vals[0], nil
	}

	for i, destReg := range f.retRegs {
		if i < len(vals) {
			e.setReg(destReg, vals[i])
		}
	}
	e.pc = f.returnPC
	return false, Value{}, nil
}

func (e *Engine) execFFICall(insc Insc) (done bool, result Value, err error) {
	fn := e.prog.FFIFuncs[insc.FFIID]
	args := make([]Value, len(insc.Args))
	for i, r := range insc.Args {
		args[i] = e.getReg(r)
	}
	rets := make([]*Value, len(insc.Rets))
	for i := range rets {
		rets[i] = new(Value)
	}
	callErr := fn.CallTyck(e, args, rets)
	if callErr != nil {
		return e.handleFFIError(callErr)
	}
	for i, destReg := range insc.Rets {
		e.setReg(destReg, *rets[i])
	}
	e.pc++
	return false, Value{}, nil
}

func (e *Engine) handleFFIError(callErr error) (done bool, result Value, err error) {
	if exc, ok := callErr.(*Exception); ok {
		return e.raiseException(exc)
	}
	if u, ok := callErr.(*UncheckedException); ok {
		return e.raiseUnchecked(u)
	}
	return e.raiseUnchecked(&UncheckedException{Kind: ExcOverloadCallFailure})
}

func (e *Engine) raiseUnchecked(u *UncheckedException) (bool, Value, error) {
	return e.raiseException(NewUncheckedException(u))
}

// raiseException unwinds frames looking for a matching handler. pc tracks
// the instruction pointer active in whichever frame is currently under
// consideration: for the innermost (raising) frame that is e.pc itself; for
// every frame further out it is the index of the Call instruction that
// invoked the callee which just unwound through it, since that is where the
// outer frame is suspended.
func (e *Engine) raiseException(exc *Exception) (done bool, result Value, err error) {
	pc := e.pc
	for {
		f := e.curFrame()
		if exc.IsChecked() {
			fn := e.prog.Functions[f.funcID]
			if h, ok := matchingHandler(fn, pc, exc.Checked, e.pool); ok {
				e.setReg(0, *exc.Checked)
				e.pc = h.HandlerInsc
				return false, Value{}, nil
			}
		}
		exc.PushStackTrace(f.funcID, pc)
		e.stack.Truncate(f.base)
		returnPC := f.returnPC
		e.frames = e.frames[:len(e.frames)-1]
		if len(e.frames) == 0 {
			e.log.Warn("uncaught exception", "error", exc.Error(), "frames", len(exc.Trace()))
			return true, Value{}, exc
		}
		pc = returnPC - 1
	}
}

// matchingHandler finds the first exception-handling block, in the order
// fn.ExcHandlers lists them, covering pc whose declared type matches the
// checked exception's dynamic type. A
// handler with a nil TypeID is a catch-all, matching any checked value
// including immediates (which have no wrapper-derived type identity at
// all) — the common case for a simple untyped catch block.
func matchingHandler(fn CompiledFunction, pc int, checked *Value, pool *TyckPool) (ExceptionHandlingBlock, bool) {
	for _, h := range fn.ExcHandlers {
		if pc < h.StartInsc || pc >= h.EndInsc {
			continue
		}
		if h.TypeID == nil {
			return h, true
		}
		w, isPointer := checked.AsWrapperPtr()
		if !isPointer {
			continue
		}
		if tyckInfoOf(w, pool).Host == h.TypeID {
			return h, true
		}
	}
	return ExceptionHandlingBlock{}, false
}

// valuesEqual implements EqValue's comparison: immediates compare by value
// within their kind, pointer values compare by identity (same wrapper).
func valuesEqual(a, b Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if a.IsImmediate() != b.IsImmediate() {
		return false
	}
	if a.IsImmediate() {
		if ai, ok := a.AsImmediateInt(); ok {
			bi, ok2 := b.AsImmediateInt()
			return ok2 && ai == bi
		}
		if ab, ok := a.AsImmediateBool(); ok {
			bb, ok2 := b.AsImmediateBool()
			return ok2 && ab == bb
		}
		if af, ok := a.AsImmediateFloat(); ok {
			bf, ok2 := b.AsImmediateFloat()
			return ok2 && af == bf
		}
		if ac, ok := a.AsImmediateChar(); ok {
			bc, ok2 := b.AsImmediateChar()
			return ok2 && ac == bc
		}
		return false
	}
	aw, _ := a.AsWrapperPtr()
	bw, _ := b.AsWrapperPtr()
	return aw == bw
}
