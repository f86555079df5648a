// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package poly supplies polymorphic (capability-set dispatched) host types:
// concrete instances of the first of the two dispatch mechanisms the engine
// exposes at its FFI boundary.
package poly

import (
	"fmt"
	"reflect"

	"github.com/imlyzh/Pr47/vm"
)

// Object is the minimal opaque VM resource: it carries an identity and a
// freeform label but no children, the shape CreateObject, the checked/
// unchecked exception scenarios, and the FFI triple-borrow scenario all
// exercise.
type Object struct {
	Label string
	mu    int // bump on mutation, observable via FFI round trips in tests
}

var objectTypeID = reflect.TypeOf(Object{})

// Capabilities returns the capability set the engine's allocator uses to
// manage Object values allocated through NewObject. Engine.SetObjectCapabilities
// does not make CreateObject allocate an Object: CreateObject's payload stays
// the engine's built-in empty object whatever capability set is installed.
func Capabilities() *vm.Capabilities {
	return &vm.Capabilities{
		TypeName: "poly.Object",
		TypeID:   objectTypeID,
		// Object holds no VM Values, so it has no children to trace.
	}
}

// NewObject allocates an Object through alloc, returning the Value that
// reaches it.
func NewObject(alloc vm.Allocator, label string) vm.Value {
	return alloc.AllocatePolymorphic(&Object{Label: label}, Capabilities())
}

// Bump increments the object's mutation counter, used by tests that borrow
// an Object mutably through ValueIntoMutRef to prove the exclusive borrow
// actually reached the same underlying payload.
func (o *Object) Bump() { o.mu++ }

// Mutations returns the object's mutation counter.
func (o *Object) Mutations() int { return o.mu }

func (o *Object) String() string { return fmt.Sprintf("poly.Object(%q)", o.Label) }
