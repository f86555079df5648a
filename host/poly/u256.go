// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package poly

import (
	"reflect"

	"github.com/holiman/uint256"
	"github.com/imlyzh/Pr47/vm"
)

// U256 is a 256-bit unsigned integer, too wide to fit an immediate Value
// word and so reached through the polymorphic heap path instead. It wraps
// the pack's own big-integer type rather than reimplementing wide-integer
// arithmetic.
type U256 struct {
	*uint256.Int
}

var u256TypeID = reflect.TypeOf(U256{})

// U256Capabilities returns the capability set for U256 values.
func U256Capabilities() *vm.Capabilities {
	return &vm.Capabilities{
		TypeName: "poly.U256",
		TypeID:   u256TypeID,
	}
}

// NewU256 allocates a U256 initialized from a uint64, returning the Value
// that reaches it.
func NewU256(alloc vm.Allocator, v uint64) vm.Value {
	return alloc.AllocatePolymorphic(U256{uint256.NewInt(v)}, U256Capabilities())
}

// AddU256 is an FFI-callable function adding two borrowed U256 operands and
// allocating a fresh U256 for the result, exercising both the read-borrow
// path and the allocation path in a single host call.
func AddU256(eng *vm.Engine, a, b vm.Value) (vm.Value, error) {
	av, ga, err := vm.ValueIntoRef[U256](a)
	if err != nil {
		return vm.Value{}, err
	}
	defer ga.Release()
	bv, gb, err := vm.ValueIntoRef[U256](b)
	if err != nil {
		return vm.Value{}, err
	}
	defer gb.Release()

	sum := new(uint256.Int).Add(av.Int, bv.Int)
	return eng.Alloc().AllocatePolymorphic(U256{sum}, U256Capabilities()), nil
}
