package vm

import "testing"

func TestOwnershipMasks(t *testing.T) {
	if OwnInfoReadMask&uint8(SharedToHost) == 0 {
		t.Fatalf("SharedToHost must be readable")
	}
	if OwnInfoReadMask&uint8(MutSharedToHost) == 0 {
		t.Fatalf("MutSharedToHost must be readable")
	}
	if OwnInfoReadMask&uint8(VMOwned) != 0 {
		t.Fatalf("VMOwned must not be readable via the host borrow path")
	}
	if OwnInfoCollectMask != uint8(VMOwned) {
		t.Fatalf("only VMOwned should be collectible, got mask 0x%02x", OwnInfoCollectMask)
	}
	if OwnInfoWriteMask&uint8(MutSharedToHost) == 0 {
		t.Fatalf("MutSharedToHost must be writable")
	}
}

func TestCheckOwnership(t *testing.T) {
	w := newPolymorphicWrapper(builtinObject{}, builtinObjectCaps)
	if err := checkOwnership(w, OwnInfoCollectMask); err != nil {
		t.Fatalf("fresh VMOwned wrapper should satisfy the collect mask: %v", err)
	}
	w.Ownership = SharedToHost
	if err := checkOwnership(w, OwnInfoCollectMask); err == nil {
		t.Fatalf("SharedToHost wrapper must not satisfy the collect mask")
	}
	if err := checkOwnership(w, OwnInfoReadMask); err != nil {
		t.Fatalf("SharedToHost wrapper should satisfy the read mask: %v", err)
	}
}

func TestWrapperChildrenDispatch(t *testing.T) {
	called := false
	caps := &Capabilities{
		TypeName: "with-child",
		TypeID:   builtinObjectCaps.TypeID,
		Children: func(any) ChildIter {
			called = true
			emitted := false
			return func() (Value, bool) {
				if emitted {
					return Value{}, false
				}
				emitted = true
				return Int(1), true
			}
		},
	}
	w := newPolymorphicWrapper(builtinObject{}, caps)
	it := w.children()
	v, ok := it()
	if !ok || !called {
		t.Fatalf("children iterator was not invoked")
	}
	if i, _ := v.AsImmediateInt(); i != 1 {
		t.Fatalf("unexpected child value %v", v)
	}
	if _, ok := it(); ok {
		t.Fatalf("iterator should have been exhausted")
	}
}

func TestWrapperLeafHasNoChildren(t *testing.T) {
	w := newPolymorphicWrapper(builtinObject{}, builtinObjectCaps)
	it := w.children()
	if _, ok := it(); ok {
		t.Fatalf("leaf wrapper must report no children")
	}
}
