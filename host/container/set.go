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

	mapset "github.com/deckarep/golang-set"
	"github.com/imlyzh/Pr47/vm"
)

// setKey is what backs the underlying set: Values aren't themselves
// comparable in the general case (a wrapper-backed Value compares by pointer
// identity, an immediate by its bit pattern), so membership is keyed on the
// String() rendering rather than the Value itself.
type setKey string

// Set is an unordered collection of Values with no duplicates, backed by the
// pack's own hash-set implementation rather than a hand-rolled map.
type Set struct {
	keys mapset.Set
	vals map[setKey]vm.Value
}

var setTypeID = reflect.TypeOf(Set{})

// SetVT returns the container vtable for Set. Sets are never moved out to
// the host as a raw Go value (there is no single canonical iteration order
// to hand over), so MoveOut is left nil.
func SetVT() *vm.ContainerVT {
	return &vm.ContainerVT{
		TypeName: "container.Set",
		TypeID:   setTypeID,
		Children: func(payload any) vm.ChildIter {
			s := payload.(*Set)
			ch := s.keys.Iter()
			return func() (vm.Value, bool) {
				k, ok := <-ch
				if !ok {
					return vm.Value{}, false
				}
				return s.vals[k.(setKey)], true
			}
		},
	}
}

// NewSet allocates an empty Set.
func NewSet(alloc vm.Allocator) vm.Value {
	s := &Set{keys: mapset.NewSet(), vals: make(map[setKey]vm.Value)}
	return alloc.AllocateContainer(s, SetVT())
}

// Add inserts v into the set, reporting whether it was newly added.
func (s *Set) Add(v vm.Value) bool {
	k := setKey(v.String())
	if s.keys.Contains(k) {
		return false
	}
	s.keys.Add(k)
	s.vals[k] = v
	return true
}

// Contains reports whether v (by its String rendering) is a member.
func (s *Set) Contains(v vm.Value) bool {
	return s.keys.Contains(setKey(v.String()))
}

// Remove deletes v from the set, reporting whether it had been present.
func (s *Set) Remove(v vm.Value) bool {
	k := setKey(v.String())
	if !s.keys.Contains(k) {
		return false
	}
	s.keys.Remove(k)
	delete(s.vals, k)
	return true
}

// Cardinality returns the number of elements currently in the set.
func (s *Set) Cardinality() int { return s.keys.Cardinality() }

// SetContains is an FFI-callable membership test, exercising the container
// borrow path for a Set.
func SetContains(v, elem vm.Value) (vm.Value, error) {
	ref, guard, err := vm.ContainerIntoRef(v)
	if err != nil {
		return vm.Value{}, err
	}
	defer guard.Release()
	s, ok := ref.Payload.(*Set)
	if !ok {
		return vm.Value{}, &vm.UncheckedException{Kind: vm.ExcTypeCheckFailure}
	}
	return vm.Bool(s.Contains(elem)), nil
}
