// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

// Signature describes a host function's arity and declared parameter/return
// type descriptors, consulted by CallTyck before the call is allowed to
// proceed to CallRTLC.
type Signature struct {
	Name    string
	Params  []*TyckInfo
	Returns []*TyckInfo
}

// HostFunc is a foreign function callable from VM bytecode through the
// FFICall instruction, offered at three capability tiers matching
// spec.md §4.5: a fully-checked entry point, a type-trusted-but-ownership-
// checked entry point, and a trust-everything entry point for call sites a
// compiler has statically proven safe.
type HostFunc interface {
	Signature() Signature

	// CallTyck verifies every argument's structural type against Signature
	// before delegating to CallRTLC.
	CallTyck(eng *Engine, args []Value, rets []*Value) error

	// CallRTLC assumes argument types already match Signature, but still
	// performs the ownership check that borrowing requires.
	CallRTLC(eng *Engine, args []Value, rets []*Value) error

	// CallUnchecked assumes both type and ownership checks have already
	// been discharged by the caller (typically a compiler that proved the
	// call site safe ahead of time) and performs neither.
	CallUnchecked(eng *Engine, args []Value, rets []*Value) error
}

// BorrowGuard restores a wrapper's pre-call ownership byte when the borrow
// it represents ends, on every exit path (normal return or exception
// unwind). Guards must be released in last-acquired-first-released order
// when a call holds more than one concurrent borrow.
type BorrowGuard struct {
	w        *Wrapper
	original Ownership
	noop     bool
}

// Release restores the wrapper's ownership state. It is idempotent-safe to
// call at most once; callers typically defer it immediately after acquiring
// the borrow.
func (g *BorrowGuard) Release() {
	if g == nil || g.noop {
		return
	}
	g.w.Ownership = g.original
}

// ReleaseAll releases a set of guards in last-acquired-first-released
// order, the nested-borrow discipline spec.md §4.5 requires.
func ReleaseAll(guards ...*BorrowGuard) {
	for i := len(guards) - 1; i >= 0; i-- {
		guards[i].Release()
	}
}

func acquireReadBorrow(w *Wrapper) (*BorrowGuard, error) {
	// A read borrow starts either from plain VM ownership (moved to
	// SharedToHost for the call) or from a state that already permits reads.
	if err := checkOwnership(w, OwnInfoReadMask|uint8(VMOwned)); err != nil {
		return nil, err
	}
	if w.Ownership == SharedToHost {
		// Already shared: stacking another shared read borrow needs no
		// state change and restores nothing on release.
		return &BorrowGuard{noop: true}, nil
	}
	original := w.Ownership
	w.Ownership = SharedToHost
	return &BorrowGuard{w: w, original: original}, nil
}

// ValueIntoRef borrows a polymorphic host object for the duration of an FFI
// call, type-asserting its payload to T. The returned guard must be
// released (directly or via ReleaseAll) when the borrow ends.
func ValueIntoRef[T any](v Value) (T, *BorrowGuard, error) {
	var zero T
	w, ok := v.AsWrapperPtr()
	if !ok {
		return zero, nil, &UncheckedException{Kind: ExcUnexpectedNull}
	}
	guard, err := acquireReadBorrow(w)
	if err != nil {
		return zero, nil, err
	}
	t, ok := w.Payload.(T)
	if !ok {
		guard.Release()
		return zero, nil, &UncheckedException{Kind: ExcTypeCheckFailure}
	}
	return t, guard, nil
}

// ContainerRef is the payload handle a container-kind wrapper's borrow
// yields: the raw payload plus its vtable, so the caller can dispatch
// container-specific operations (length, indexing, iteration) without
// knowing the concrete Go type backing it.
type ContainerRef struct {
	Payload any
	VT      *ContainerVT
}

// ContainerIntoRef borrows a container-kind Value for the duration of an FFI
// call. The returned guard must be released when the borrow ends.
func ContainerIntoRef(v Value) (ContainerRef, *BorrowGuard, error) {
	w, ok := v.AsWrapperPtr()
	if !ok || !v.IsContainer() {
		return ContainerRef{}, nil, &UncheckedException{Kind: ExcUnexpectedNull}
	}
	guard, err := acquireReadBorrow(w)
	if err != nil {
		return ContainerRef{}, nil, err
	}
	return ContainerRef{Payload: w.Payload, VT: w.vt}, guard, nil
}

// ValueIntoMutRef borrows a polymorphic host object exclusively (read-write)
// for the duration of an FFI call.
func ValueIntoMutRef[T any](v Value) (T, *BorrowGuard, error) {
	var zero T
	w, ok := v.AsWrapperPtr()
	if !ok {
		return zero, nil, &UncheckedException{Kind: ExcUnexpectedNull}
	}
	if err := checkOwnership(w, uint8(VMOwned)); err != nil {
		return zero, nil, &UncheckedException{Kind: ExcOwnershipCheckFailure, Actual: w.Ownership, ExpectedMask: uint8(VMOwned)}
	}
	original := w.Ownership
	w.Ownership = MutSharedToHost
	t, ok := w.Payload.(T)
	if !ok {
		w.Ownership = original
		return zero, nil, &UncheckedException{Kind: ExcTypeCheckFailure}
	}
	return t, &BorrowGuard{w: w, original: original}, nil
}

// CheckArgTypes verifies each argument's dynamic type matches the
// corresponding declared parameter descriptor, the check CallTyck performs
// before delegating to CallRTLC.
func CheckArgTypes(pool *TyckPool, params []*TyckInfo, args []Value, tyckOf func(*Wrapper, *TyckPool) *TyckInfo) error {
	if len(args) != len(params) {
		return &UncheckedException{Kind: ExcArgCountMismatch, Expected: len(params), Got: len(args)}
	}
	for i, v := range args {
		if v.IsImmediate() {
			continue // immediates are trusted by construction; no wrapper to inspect
		}
		w, _ := v.AsWrapperPtr()
		if !structurallyMatches(pool, params[i], w, tyckOf) {
			return &UncheckedException{Kind: ExcTypeCheckFailure, ExpectedType: params[i]}
		}
	}
	return nil
}
