// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import "fmt"

// Ownership is the wrapper's ownership/sharing state. Each state is a
// distinct bit so that OwnInfoReadMask/OwnInfoCollectMask can be expressed
// as plain bitwise-OR combinations, matching the mask vocabulary of the
// ownership state machine this mirrors.
type Ownership uint8

const (
	// VMOwned: exclusively owned by the VM, not visible to host code.
	VMOwned Ownership = 1 << iota
	// SharedToHost: host holds a shared (read-only) borrow.
	SharedToHost
	// MutSharedToHost: host holds the exclusive (read-write) borrow.
	MutSharedToHost
	// MovedToHost: ownership has been transferred out to the host entirely.
	MovedToHost
	// VMOwnedPendingMove: VM-owned, but a move to host is in flight and the
	// object must not be treated as collectible until the move completes.
	VMOwnedPendingMove
)

// OwnInfoReadMask matches the ownership states from which host code may
// read wrapper data: SharedToHost (shared read) and MutSharedToHost
// (exclusive read while holding the unique write borrow).
const OwnInfoReadMask = uint8(SharedToHost | MutSharedToHost)

// OwnInfoWriteMask matches the one ownership state from which host code may
// write wrapper data.
const OwnInfoWriteMask = uint8(MutSharedToHost)

// OwnInfoCollectMask matches the one ownership state in which the
// collector is permitted to reclaim the wrapper: plain VM ownership with no
// outstanding host borrow or move in flight.
const OwnInfoCollectMask = uint8(VMOwned)

func (o Ownership) String() string {
	switch o {
	case VMOwned:
		return "VMOwned"
	case SharedToHost:
		return "SharedToHost"
	case MutSharedToHost:
		return "MutSharedToHost"
	case MovedToHost:
		return "MovedToHost"
	case VMOwnedPendingMove:
		return "VMOwnedPendingMove"
	default:
		return fmt.Sprintf("Ownership(%d)", uint8(o))
	}
}

// gcMark is the two-state mark bit the collector flips during a cycle.
type gcMark uint8

const (
	unmarked gcMark = 0
	marked   gcMark = 1
)

// ChildIter is a pull-style lazy iterator over a composite value's children,
// used by both polymorphic capability sets and container vtables so the
// collector never needs to materialize a full child slice up front.
type ChildIter func() (Value, bool)

// noChildren is shared by every leaf (childless) type.
func noChildren(any) ChildIter { return func() (Value, bool) { return Value{}, false } }

// Capabilities is the capability set a polymorphic host type supplies. Every
// field is required except Children, which may be nil for leaf types.
type Capabilities struct {
	TypeName string
	TypeID   TypeID
	Children func(payload any) ChildIter
	Drop     func(payload any)
}

// ContainerVT is the vtable an engine-defined structural container type
// supplies. It plays the same dispatch role as Capabilities but for
// container-kind wrappers, matching spec.md §9's second dispatch mechanism.
type ContainerVT struct {
	TypeName string
	TypeID   TypeID
	Children func(payload any) ChildIter
	Drop     func(payload any)
	// MoveOut transfers the payload to the host, returning an opaque value
	// the host-side binding downcasts. It is nil for containers that are
	// never moved (only ever borrowed), e.g. ExceptionContainer.
	MoveOut func(payload any) any
}

// Wrapper is the heap-allocated envelope around every VM-managed object,
// whether reached through the polymorphic or the container dispatch path.
// Exactly one of caps/vt is non-nil, selected by isContainer.
type Wrapper struct {
	Ownership   Ownership
	mark        gcMark
	isContainer bool
	caps        *Capabilities
	vt          *ContainerVT
	Payload     any
}

// newPolymorphicWrapper builds a Wrapper for a capability-dispatched host
// object, owned by the VM from the moment of allocation.
func newPolymorphicWrapper(payload any, caps *Capabilities) *Wrapper {
	return &Wrapper{Ownership: VMOwned, caps: caps, Payload: payload}
}

// newContainerWrapper builds a Wrapper for a vtable-dispatched container,
// owned by the VM from the moment of allocation.
func newContainerWrapper(payload any, vt *ContainerVT) *Wrapper {
	return &Wrapper{Ownership: VMOwned, isContainer: true, vt: vt, Payload: payload}
}

// TypeName returns the wrapper's dynamic type name, regardless of dispatch
// mechanism.
func (w *Wrapper) TypeName() string {
	if w.isContainer {
		return w.vt.TypeName
	}
	return w.caps.TypeName
}

// TypeID returns the wrapper's dynamic type identity, used by the type-check
// descriptor pool and by checked-exception handler matching.
func (w *Wrapper) TypeID() TypeID {
	if w.isContainer {
		return w.vt.TypeID
	}
	return w.caps.TypeID
}

// children returns a lazy iterator over w's children for the collector's
// mark phase, dispatching through whichever of the two mechanisms applies.
func (w *Wrapper) children() ChildIter {
	var fn func(any) ChildIter
	if w.isContainer {
		fn = w.vt.Children
	} else {
		fn = w.caps.Children
	}
	if fn == nil {
		return noChildren(w.Payload)
	}
	return fn(w.Payload)
}

// drop runs the wrapper's teardown hook, if any, dispatching through
// whichever of the two mechanisms applies.
func (w *Wrapper) drop() {
	if w.isContainer {
		if w.vt.Drop != nil {
			w.vt.Drop(w.Payload)
		}
		return
	}
	if w.caps.Drop != nil {
		w.caps.Drop(w.Payload)
	}
}

// OwnershipCheckFailure reports that a wrapper's current ownership state did
// not satisfy a required access mask.
type OwnershipCheckFailure struct {
	Actual   Ownership
	Expected uint8
}

func (e *OwnershipCheckFailure) Error() string {
	return fmt.Sprintf("ownership check failed: have %s, need one of mask 0x%02x", e.Actual, e.Expected)
}

// checkOwnership reports whether w's current ownership state satisfies mask.
func checkOwnership(w *Wrapper, mask uint8) error {
	if uint8(w.Ownership)&mask == 0 {
		return &OwnershipCheckFailure{Actual: w.Ownership, Expected: mask}
	}
	return nil
}
