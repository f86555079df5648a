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

	"github.com/imlyzh/Pr47/internal/xlog"
)

// Allocator owns every managed Wrapper the engine allocates and decides when
// and how to reclaim them. DefaultAlloc and NoGCAlloc are the two concrete
// implementations this module carries.
type Allocator interface {
	RegisterStack(s *Stack)
	UnregisterStack(s *Stack)
	AllocatePolymorphic(payload any, caps *Capabilities) Value
	AllocateContainer(payload any, vt *ContainerVT) Value
	PinObject(w *Wrapper)
	MarkObject(w *Wrapper)
	Collect()
	SetGCAllowed(allowed bool)
	// Close tears the allocator down: unregisters every remaining stack
	// then reclaims every remaining managed object, in that order.
	Close() error
}

// DefaultAlloc is a stop-the-world tracing mark-sweep collector. Collection
// runs automatically whenever accumulated allocation debt exceeds a ceiling;
// the embedder may also call Collect directly or disable automatic
// triggering via SetGCAllowed(false).
type DefaultAlloc struct {
	stacks   map[*Stack]struct{}
	managed  map[*Wrapper]struct{}
	pinned   map[*Wrapper]struct{}
	debt     uint64
	maxDebt  uint64
	gcAllowed bool
	log      xlog.Logger
	cycles   uint64
}

// DefaultDebtCeiling is the allocation-count threshold that triggers an
// automatic collection cycle when no explicit ceiling is configured.
const DefaultDebtCeiling = 512

// NewDefaultAlloc returns a DefaultAlloc that triggers a collection every
// maxDebt allocations; a maxDebt of 0 selects DefaultDebtCeiling.
func NewDefaultAlloc(maxDebt uint64, log xlog.Logger) *DefaultAlloc {
	if maxDebt == 0 {
		maxDebt = DefaultDebtCeiling
	}
	if log == nil {
		log = xlog.Nop{}
	}
	return &DefaultAlloc{
		stacks:    make(map[*Stack]struct{}),
		managed:   make(map[*Wrapper]struct{}),
		pinned:    make(map[*Wrapper]struct{}),
		maxDebt:   maxDebt,
		gcAllowed: true,
		log:       log,
	}
}

func (a *DefaultAlloc) RegisterStack(s *Stack)   { a.stacks[s] = struct{}{} }
func (a *DefaultAlloc) UnregisterStack(s *Stack) { delete(a.stacks, s) }

func (a *DefaultAlloc) SetGCAllowed(allowed bool) { a.gcAllowed = allowed }

func (a *DefaultAlloc) maybeCollect() {
	if a.gcAllowed && a.debt >= a.maxDebt {
		a.Collect()
	}
}

// AllocatePolymorphic allocates and registers a capability-dispatched
// object, returning the Value that reaches it.
func (a *DefaultAlloc) AllocatePolymorphic(payload any, caps *Capabilities) Value {
	a.maybeCollect()
	w := newPolymorphicWrapper(payload, caps)
	a.managed[w] = struct{}{}
	a.debt++
	return fromPolymorphic(w)
}

// AllocateContainer allocates and registers a vtable-dispatched container,
// returning the Value that reaches it.
func (a *DefaultAlloc) AllocateContainer(payload any, vt *ContainerVT) Value {
	a.maybeCollect()
	w := newContainerWrapper(payload, vt)
	a.managed[w] = struct{}{}
	a.debt++
	return fromContainer(w, vt)
}

// PinObject registers w as a collector root for as long as its ownership
// state stays outside plain VM ownership (i.e. while the host holds any
// kind of borrow or move on it), so the objects it reaches are marked too.
// The FFI borrow helpers in this package do not call it: an object they
// borrow survives a sweep through the ownership test alone, and what it
// reaches is kept only if a root reaches it.
func (a *DefaultAlloc) PinObject(w *Wrapper) { a.pinned[w] = struct{}{} }

// MarkObject is a reserved hook for a future incremental collector to
// receive write-barrier notifications. The stop-the-world collector here
// rediscovers reachability from scratch every cycle, so this is
// intentionally a no-op.
func (a *DefaultAlloc) MarkObject(*Wrapper) {}

// Collect runs one full stop-the-world mark-sweep cycle: clear marks, seed
// roots from every registered stack plus every pinned object still actually
// host-visible, breadth-first mark, then sweep every managed object that is
// both unmarked and collectible.
func (a *DefaultAlloc) Collect() {
	a.cycles++
	for w := range a.managed {
		w.mark = unmarked
	}

	var queue []*Wrapper
	for s := range a.stacks {
		for _, v := range s.Values() {
			if w, ok := v.AsWrapperPtr(); ok {
				queue = append(queue, w)
			}
		}
	}
	for w := range a.pinned {
		if uint8(w.Ownership)&(uint8(SharedToHost)|uint8(MutSharedToHost)|uint8(MovedToHost)) != 0 {
			queue = append(queue, w)
		} else {
			delete(a.pinned, w)
		}
	}

	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]
		if w.mark == marked {
			continue
		}
		w.mark = marked
		it := w.children()
		for {
			v, ok := it()
			if !ok {
				break
			}
			if cw, ok := v.AsWrapperPtr(); ok {
				queue = append(queue, cw)
			}
		}
	}

	var dead []*Wrapper
	for w := range a.managed {
		if w.mark == unmarked && uint8(w.Ownership)&OwnInfoCollectMask != 0 {
			dead = append(dead, w)
		}
	}
	for _, w := range dead {
		w.drop()
		delete(a.managed, w)
	}

	a.debt = 0
	a.log.Debug("gc cycle complete", "cycle", a.cycles, "reclaimed", len(dead), "live", len(a.managed))
}

// Close unregisters every remaining stack (so teardown scans nothing live),
// then reclaims every remaining managed object. Any object that is not in a
// collectible ownership state at this point indicates an embedder bug — a
// host-visible borrow or move that outlived the VM itself — and is reported
// as an error identifying the offending wrapper rather than silently
// leaked or use-after-freed.
func (a *DefaultAlloc) Close() error {
	for s := range a.stacks {
		delete(a.stacks, s)
	}
	var stuck []*Wrapper
	for w := range a.managed {
		if uint8(w.Ownership)&OwnInfoCollectMask == 0 {
			stuck = append(stuck, w)
		}
	}
	if len(stuck) > 0 {
		a.log.Error("allocator teardown found non-reclaimable objects", "count", len(stuck))
		return fmt.Errorf("vm: %d object(s) still host-visible at allocator teardown, e.g. %p (%s)",
			len(stuck), stuck[0], stuck[0].Ownership)
	}
	for w := range a.managed {
		w.drop()
		delete(a.managed, w)
	}
	return nil
}
