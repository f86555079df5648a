// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package container

import (
	"reflect"

	"github.com/imlyzh/Pr47/vm"
)

// ExceptionContainer lets a caught exception be held as an ordinary VM
// value — captured by a handler, stored in a field, passed to a host
// function — rather than only existing transiently on the unwind path.
// Its traced children are the wrapped exception's Values: a checked
// exception's payload, or whatever operands an unchecked exception captured.
type ExceptionContainer struct {
	Exc *vm.Exception
}

var excContainerTypeID = reflect.TypeOf(ExceptionContainer{})

// ExceptionContainerVT returns the container vtable for ExceptionContainer.
// It has no MoveOut: an exception is inspected in place (IsChecked,
// Checked/Unchecked, CallChain) rather than ever being handed to the host
// as a raw Go value.
func ExceptionContainerVT() *vm.ContainerVT {
	return &vm.ContainerVT{
		TypeName: "container.ExceptionContainer",
		TypeID:   excContainerTypeID,
		Children: func(payload any) vm.ChildIter {
			ec := payload.(*ExceptionContainer)
			children := ec.Exc.Children()
			i := 0
			return func() (vm.Value, bool) {
				if i >= len(children) {
					return vm.Value{}, false
				}
				v := children[i]
				i++
				return v, true
			}
		},
	}
}

// NewExceptionContainer wraps a caught exception as a VM-managed Value.
func NewExceptionContainer(alloc vm.Allocator, exc *vm.Exception) vm.Value {
	return alloc.AllocateContainer(&ExceptionContainer{Exc: exc}, ExceptionContainerVT())
}

// ExceptionIsChecked is an FFI-callable predicate over a contained
// exception, exercising the container borrow path for ExceptionContainer.
func ExceptionIsChecked(v vm.Value) (vm.Value, error) {
	ref, guard, err := vm.ContainerIntoRef(v)
	if err != nil {
		return vm.Value{}, err
	}
	defer guard.Release()
	ec, ok := ref.Payload.(*ExceptionContainer)
	if !ok {
		return vm.Value{}, &vm.UncheckedException{Kind: vm.ExcTypeCheckFailure}
	}
	return vm.Bool(ec.Exc.IsChecked()), nil
}
