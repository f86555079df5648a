// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package container supplies container-vtable dispatched host types: the
// second of the two dispatch mechanisms the engine's FFI boundary exposes,
// where the engine itself (rather than an opaque host capability set)
// defines the structural shape.
package container

import (
	"reflect"

	"github.com/imlyzh/Pr47/vm"
)

// Array is a growable sequence of Values, the container-side counterpart of
// a script-level array type.
type Array struct {
	elems []vm.Value
}

var arrayTypeID = reflect.TypeOf(Array{})

// ArrayVT returns the container vtable for Array.
func ArrayVT() *vm.ContainerVT {
	return &vm.ContainerVT{
		TypeName: "container.Array",
		TypeID:   arrayTypeID,
		Children: func(payload any) vm.ChildIter {
			a := payload.(*Array)
			i := 0
			return func() (vm.Value, bool) {
				if i >= len(a.elems) {
					return vm.Value{}, false
				}
				v := a.elems[i]
				i++
				return v, true
			}
		},
		MoveOut: func(payload any) any {
			a := payload.(*Array)
			out := a.elems
			a.elems = nil
			return out
		},
	}
}

// NewArray allocates an Array from the given initial elements.
func NewArray(alloc vm.Allocator, elems ...vm.Value) vm.Value {
	a := &Array{elems: append([]vm.Value(nil), elems...)}
	return alloc.AllocateContainer(a, ArrayVT())
}

// Len returns the array's length.
func (a *Array) Len() int { return len(a.elems) }

// Get returns the element at index i, and whether i was in bounds.
func (a *Array) Get(i int) (vm.Value, bool) {
	if i < 0 || i >= len(a.elems) {
		return vm.Value{}, false
	}
	return a.elems[i], true
}

// Set replaces the element at index i, reporting whether i was in bounds.
func (a *Array) Set(i int, v vm.Value) bool {
	if i < 0 || i >= len(a.elems) {
		return false
	}
	a.elems[i] = v
	return true
}

// Push appends v to the array.
func (a *Array) Push(v vm.Value) { a.elems = append(a.elems, v) }

// ArrayLen is an FFI-callable function returning an array's length as an
// immediate int, exercising the container borrow path end to end.
func ArrayLen(v vm.Value) (vm.Value, error) {
	ref, guard, err := vm.ContainerIntoRef(v)
	if err != nil {
		return vm.Value{}, err
	}
	defer guard.Release()
	a, ok := ref.Payload.(*Array)
	if !ok {
		return vm.Value{}, &vm.UncheckedException{Kind: vm.ExcTypeCheckFailure}
	}
	return vm.Int(int32(a.Len())), nil
}
