// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package vm implements the core of an embeddable register-based bytecode
// virtual machine: the tagged value representation, the wrapper/ownership
// state machine, the tracing garbage collector, and the foreign-function
// call boundary that lets host code safely borrow VM-owned data.
package vm

import (
	"fmt"
	"math"
)

// immKind discriminates the immediate payload carried directly in a Value,
// as opposed to a Value that holds a pointer to a heap Wrapper.
type immKind uint8

const (
	immNull immKind = iota
	immBool
	immInt
	immFloat
	immChar
	immSmallTag
)

// Value-kind mask bits, preserved from the design's bit-tagged layout. A
// real Go heap pointer cannot safely have its low bits repurposed — the
// garbage collector requires every pointer-typed word to be a genuine,
// dereferenceable address — so these masks apply to the explicit tag field
// below rather than to a raw pointer word. The contract they encode is
// unchanged: exactly one of the two encodings applies, and the engine never
// dereferences the payload of an immediate or reads the trivia of a
// non-container.
const (
	// valueTypeMask is set on tag iff the Value is an immediate.
	valueTypeMask uint8 = 0x01
	// containerMask is set on tag iff the Value's wrapper is container-kind.
	containerMask uint8 = 0x02
)

// Value is the VM's 128-bit (conceptually two-word) sum type: either an
// immediate scalar or a fat pointer to a heap Wrapper plus an optional
// container vtable (trivia).
type Value struct {
	tag    uint8
	kind   immKind
	imm    uint64
	ptr    *Wrapper
	vtable *ContainerVT
}

// Null returns the null sentinel value.
func Null() Value { return Value{tag: valueTypeMask, kind: immNull} }

// Bool returns an immediate boolean value.
func Bool(b bool) Value {
	v := uint64(0)
	if b {
		v = 1
	}
	return Value{tag: valueTypeMask, kind: immBool, imm: v}
}

// Int returns an immediate 32-bit integer value.
func Int(i int32) Value {
	return Value{tag: valueTypeMask, kind: immInt, imm: uint64(uint32(i))}
}

// Float returns an immediate 32-bit float value.
func Float(f float32) Value {
	return Value{tag: valueTypeMask, kind: immFloat, imm: uint64(f32bits(f))}
}

// Char returns an immediate character (rune) value.
func Char(r rune) Value {
	return Value{tag: valueTypeMask, kind: immChar, imm: uint64(uint32(r))}
}

// SmallTag returns an immediate small-tag value, used for compact enum-like
// discriminants that never need to allocate.
func SmallTag(t uint8) Value {
	return Value{tag: valueTypeMask, kind: immSmallTag, imm: uint64(t)}
}

// fromPolymorphic wraps a polymorphic (capability-dispatched) heap object.
func fromPolymorphic(w *Wrapper) Value {
	return Value{ptr: w}
}

// fromContainer wraps a container (vtable-dispatched) heap object.
func fromContainer(w *Wrapper, vt *ContainerVT) Value {
	return Value{tag: containerMask, ptr: w, vtable: vt}
}

// IsNull reports whether v is the null sentinel.
func (v Value) IsNull() bool {
	return v.tag&valueTypeMask != 0 && v.kind == immNull
}

// IsImmediate reports whether v is an immediate scalar (never allocates,
// never holds a heap pointer).
func (v Value) IsImmediate() bool {
	return v.tag&valueTypeMask != 0
}

// IsContainer reports whether v is a pointer Value whose wrapper is
// container-kind (vtable-driven) rather than polymorphic.
func (v Value) IsContainer() bool {
	return !v.IsImmediate() && v.tag&containerMask != 0
}

// AsImmediateBool returns the boolean payload and true if v is an immediate
// bool.
func (v Value) AsImmediateBool() (bool, bool) {
	if v.IsImmediate() && v.kind == immBool {
		return v.imm != 0, true
	}
	return false, false
}

// AsImmediateInt returns the int32 payload and true if v is an immediate
// int.
func (v Value) AsImmediateInt() (int32, bool) {
	if v.IsImmediate() && v.kind == immInt {
		return int32(uint32(v.imm)), true
	}
	return 0, false
}

// AsImmediateFloat returns the float32 payload and true if v is an immediate
// float.
func (v Value) AsImmediateFloat() (float32, bool) {
	if v.IsImmediate() && v.kind == immFloat {
		return f32frombits(uint32(v.imm)), true
	}
	return 0, false
}

// AsImmediateChar returns the rune payload and true if v is an immediate
// char.
func (v Value) AsImmediateChar() (rune, bool) {
	if v.IsImmediate() && v.kind == immChar {
		return rune(uint32(v.imm)), true
	}
	return 0, false
}

// AsWrapperPtr returns the underlying Wrapper and true iff v is a pointer
// Value. The engine must never call this on an immediate.
func (v Value) AsWrapperPtr() (*Wrapper, bool) {
	if v.IsImmediate() || v.ptr == nil {
		return nil, false
	}
	return v.ptr, true
}

// AsContainerVT returns the container vtable and true iff v is a container
// pointer Value. Reading the trivia of a non-container is a programmer
// error in the spec this mirrors; here it is simply unreachable via the
// ok-bool contract.
func (v Value) AsContainerVT() (*ContainerVT, bool) {
	if !v.IsContainer() {
		return nil, false
	}
	return v.vtable, true
}

func (v Value) String() string {
	switch {
	case v.IsNull():
		return "null"
	case v.IsImmediate():
		switch v.kind {
		case immBool:
			b, _ := v.AsImmediateBool()
			return fmt.Sprintf("%t", b)
		case immInt:
			i, _ := v.AsImmediateInt()
			return fmt.Sprintf("%d", i)
		case immFloat:
			f, _ := v.AsImmediateFloat()
			return fmt.Sprintf("%g", f)
		case immChar:
			c, _ := v.AsImmediateChar()
			return fmt.Sprintf("%q", c)
		default:
			return fmt.Sprintf("tag(%d)", v.imm)
		}
	case v.IsContainer():
		return fmt.Sprintf("container<%s>@%p", v.vtable.TypeName, v.ptr)
	default:
		return fmt.Sprintf("object@%p", v.ptr)
	}
}

func f32bits(f float32) uint32 {
	return math.Float32bits(f)
}

func f32frombits(b uint32) float32 {
	return math.Float32frombits(b)
}
