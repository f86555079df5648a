// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import "github.com/google/uuid"

// Stack is a growable, ordered sequence of Values representing one
// executor's register file. It registers itself with an Allocator on
// creation so the collector's mark phase can treat every live Value in the
// stack as a GC root, and unregisters on Close so a finished executor's
// frames stop being scanned.
type Stack struct {
	id     uuid.UUID
	values []Value
	alloc  Allocator
}

// NewStack creates a stack rooted at alloc. The caller must call Close when
// the stack is no longer in use.
func NewStack(alloc Allocator) *Stack {
	s := &Stack{id: uuid.New(), values: make([]Value, 0, 64), alloc: alloc}
	alloc.RegisterStack(s)
	return s
}

// ID returns the stack's diagnostic identifier, surfaced in log lines so
// multiple concurrently-registered stacks can be told apart.
func (s *Stack) ID() uuid.UUID { return s.id }

// Close unregisters the stack from its allocator. After Close, the stack's
// former contents are no longer reachable as GC roots.
func (s *Stack) Close() { s.alloc.UnregisterStack(s) }

// Values returns the stack's live Values, used by the collector to seed the
// mark phase. Callers other than the collector should prefer Get/Len.
func (s *Stack) Values() []Value { return s.values }

// Len returns the number of values currently on the stack.
func (s *Stack) Len() int { return len(s.values) }

// Grow extends the stack by n null-initialized Values and returns the base
// index of the new region.
func (s *Stack) Grow(n int) int {
	base := len(s.values)
	for i := 0; i < n; i++ {
		s.values = append(s.values, Null())
	}
	return base
}

// Truncate shrinks the stack back to length n, discarding everything above
// it. It is used when a call frame returns and its register window is
// reclaimed.
func (s *Stack) Truncate(n int) { s.values = s.values[:n] }

// Get returns the value at absolute index i.
func (s *Stack) Get(i int) Value { return s.values[i] }

// Set stores v at absolute index i.
func (s *Stack) Set(i int, v Value) { s.values[i] = v }

// Push appends v to the top of the stack.
func (s *Stack) Push(v Value) { s.values = append(s.values, v) }

// Pop removes and returns the top value. It panics if the stack is empty,
// matching the teacher's convention that register/stack underflow is a VM
// bug, not a recoverable host-facing condition.
func (s *Stack) Pop() Value {
	n := len(s.values) - 1
	v := s.values[n]
	s.values = s.values[:n]
	return v
}
