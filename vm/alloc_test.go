package vm

import "testing"

func newTestAlloc(maxDebt uint64) *DefaultAlloc {
	return NewDefaultAlloc(maxDebt, nil)
}

func TestCollectReclaimsUnreachableVMOwned(t *testing.T) {
	a := newTestAlloc(1000)
	v := a.AllocatePolymorphic(builtinObject{}, builtinObjectCaps)
	w, _ := v.AsWrapperPtr()
	if len(a.managed) != 1 {
		t.Fatalf("expected one managed object")
	}
	// v is not rooted by any stack, so it must be swept.
	a.Collect()
	if _, stillManaged := a.managed[w]; stillManaged {
		t.Fatalf("unreachable VM-owned object survived collection")
	}
}

func TestCollectKeepsStackRootedObjects(t *testing.T) {
	a := newTestAlloc(1000)
	s := NewStack(a)
	defer s.Close()

	v := a.AllocatePolymorphic(builtinObject{}, builtinObjectCaps)
	s.Push(v)
	w, _ := v.AsWrapperPtr()

	a.Collect()
	if _, ok := a.managed[w]; !ok {
		t.Fatalf("stack-rooted object was incorrectly collected")
	}
}

func TestCollectTracesChildren(t *testing.T) {
	a := newTestAlloc(1000)
	s := NewStack(a)
	defer s.Close()

	child := a.AllocatePolymorphic(builtinObject{}, builtinObjectCaps)
	childW, _ := child.AsWrapperPtr()

	parentCaps := &Capabilities{
		TypeName: "parent",
		TypeID:   builtinObjectCaps.TypeID,
		Children: func(payload any) ChildIter {
			kids := payload.([]Value)
			i := 0
			return func() (Value, bool) {
				if i >= len(kids) {
					return Value{}, false
				}
				v := kids[i]
				i++
				return v, true
			}
		},
	}
	parent := a.AllocatePolymorphic([]Value{child}, parentCaps)
	s.Push(parent)

	a.Collect()
	if _, ok := a.managed[childW]; !ok {
		t.Fatalf("child reachable only through parent's children() was incorrectly collected")
	}
}

func TestCollectNeverReclaimsHostVisibleObject(t *testing.T) {
	a := newTestAlloc(1000)
	v := a.AllocatePolymorphic(builtinObject{}, builtinObjectCaps)
	w, _ := v.AsWrapperPtr()
	w.Ownership = SharedToHost
	a.PinObject(w)

	a.Collect()
	if _, ok := a.managed[w]; !ok {
		t.Fatalf("pinned, host-visible object must survive collection")
	}
}

func TestPinnedObjectBecomesCollectibleOnceOwnershipReverts(t *testing.T) {
	a := newTestAlloc(1000)
	v := a.AllocatePolymorphic(builtinObject{}, builtinObjectCaps)
	w, _ := v.AsWrapperPtr()
	w.Ownership = SharedToHost
	a.PinObject(w)

	w.Ownership = VMOwned
	a.Collect()
	if _, ok := a.managed[w]; ok {
		t.Fatalf("object must become collectible again once ownership reverts to VMOwned")
	}
}

// TestAllocationStressBoundedMemory exercises the scenario of many
// allocations in sequence with no roots retained, verifying memory stays
// bounded by the debt ceiling (the collector runs periodically) and that a
// final explicit collection leaves nothing live.
func TestAllocationStressBoundedMemory(t *testing.T) {
	a := newTestAlloc(256)
	const n = 50000
	for i := 0; i < n; i++ {
		a.AllocatePolymorphic(builtinObject{}, builtinObjectCaps)
		if len(a.managed) > int(a.maxDebt)*2 {
			t.Fatalf("managed set grew unbounded: %d live after %d allocations", len(a.managed), i)
		}
	}
	a.Collect()
	if len(a.managed) != 0 {
		t.Fatalf("expected 0 live objects after final collection, got %d", len(a.managed))
	}
}

func TestDropHookRunsOnSweep(t *testing.T) {
	a := newTestAlloc(1000)
	dropped := false
	caps := &Capabilities{
		TypeName: "droppable",
		TypeID:   builtinObjectCaps.TypeID,
		Drop:     func(any) { dropped = true },
	}
	a.AllocatePolymorphic(builtinObject{}, caps)
	a.Collect()
	if !dropped {
		t.Fatalf("drop hook did not run during sweep")
	}
}

func TestCloseReclaimsEverythingWhenCollectible(t *testing.T) {
	a := newTestAlloc(1000)
	a.AllocatePolymorphic(builtinObject{}, builtinObjectCaps)
	if err := a.Close(); err != nil {
		t.Fatalf("unexpected teardown error: %v", err)
	}
}

func TestCloseReportsHostVisibleLeak(t *testing.T) {
	a := newTestAlloc(1000)
	v := a.AllocatePolymorphic(builtinObject{}, builtinObjectCaps)
	w, _ := v.AsWrapperPtr()
	w.Ownership = SharedToHost
	if err := a.Close(); err == nil {
		t.Fatalf("expected teardown error for a still-host-visible object")
	}
}
