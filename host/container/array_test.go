package container

import (
	"testing"

	"github.com/imlyzh/Pr47/host/poly"
	"github.com/imlyzh/Pr47/vm"
)

func newTestAlloc(maxDebt uint64) *vm.DefaultAlloc {
	return vm.NewDefaultAlloc(maxDebt, nil)
}

func TestArrayLenAndElements(t *testing.T) {
	a := newTestAlloc(1000)
	v := NewArray(a, vm.Int(1), vm.Int(2), vm.Int(3))

	n, err := ArrayLen(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := n.AsImmediateInt(); !ok || i != 3 {
		t.Fatalf("expected length 3, got %v", n)
	}

	ref, guard, err := vm.ContainerIntoRef(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer guard.Release()
	arr := ref.Payload.(*Array)
	got, ok := arr.Get(1)
	if !ok {
		t.Fatalf("expected index 1 to be in bounds")
	}
	if i, ok := got.AsImmediateInt(); !ok || i != 2 {
		t.Fatalf("expected element 2, got %v", got)
	}
	if _, ok := arr.Get(99); ok {
		t.Fatalf("expected out-of-bounds Get to fail")
	}
}

func TestArrayIsTracedAsGCRoot(t *testing.T) {
	a := newTestAlloc(1000)
	obj := poly.NewObject(a, "held")
	arr := NewArray(a, obj)

	s := vm.NewStack(a)
	defer s.Close()
	s.Push(arr)

	for i := 0; i < 2000; i++ {
		a.AllocatePolymorphic(struct{}{}, &vm.Capabilities{TypeName: "pad"})
	}
	a.Collect()

	ref, guard, err := vm.ContainerIntoRef(arr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer guard.Release()
	held := ref.Payload.(*Array)
	if held.Len() != 1 {
		t.Fatalf("expected array to still hold its element after collection")
	}
}
