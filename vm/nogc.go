// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import "github.com/imlyzh/Pr47/internal/xlog"

// NoGCAlloc is an Allocator that never collects. Every object allocated
// through it lives until the allocator itself is closed, at which point its
// teardown hooks run unconditionally regardless of ownership state. It
// trades memory for the absence of any pause, which is the right tradeoff
// for short-lived embeddings (a single script invocation per process) where
// a stop-the-world cycle would only waste time reclaiming memory the OS is
// about to reclaim anyway at process exit.
type NoGCAlloc struct {
	stacks  map[*Stack]struct{}
	managed []*Wrapper
	log     xlog.Logger
}

// NewNoGCAlloc returns a NoGCAlloc ready for use.
func NewNoGCAlloc(log xlog.Logger) *NoGCAlloc {
	if log == nil {
		log = xlog.Nop{}
	}
	return &NoGCAlloc{stacks: make(map[*Stack]struct{}), log: log}
}

func (a *NoGCAlloc) RegisterStack(s *Stack)   { a.stacks[s] = struct{}{} }
func (a *NoGCAlloc) UnregisterStack(s *Stack) { delete(a.stacks, s) }

func (a *NoGCAlloc) AllocatePolymorphic(payload any, caps *Capabilities) Value {
	w := newPolymorphicWrapper(payload, caps)
	a.managed = append(a.managed, w)
	return fromPolymorphic(w)
}

func (a *NoGCAlloc) AllocateContainer(payload any, vt *ContainerVT) Value {
	w := newContainerWrapper(payload, vt)
	a.managed = append(a.managed, w)
	return fromContainer(w, vt)
}

// PinObject is a no-op: nothing is ever collected, so there is nothing to
// protect from collection.
func (a *NoGCAlloc) PinObject(*Wrapper) {}

// MarkObject is a no-op for the same reason.
func (a *NoGCAlloc) MarkObject(*Wrapper) {}

// Collect is a no-op; this allocator never reclaims mid-run.
func (a *NoGCAlloc) Collect() {
	a.log.Debug("nogc allocator ignores Collect", "live", len(a.managed))
}

// SetGCAllowed is a no-op; there is no collector to enable or disable.
func (a *NoGCAlloc) SetGCAllowed(bool) {}

// Close reclaims every object ever allocated, unconditionally.
func (a *NoGCAlloc) Close() error {
	for s := range a.stacks {
		delete(a.stacks, s)
	}
	for _, w := range a.managed {
		w.drop()
	}
	a.log.Debug("nogc allocator teardown", "reclaimed", len(a.managed))
	a.managed = nil
	return nil
}
