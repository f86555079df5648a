package poly

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/imlyzh/Pr47/vm"
)

func TestAddU256(t *testing.T) {
	a := vm.NewDefaultAlloc(1000, nil)
	eng := vm.NewEngine(&vm.Program{
		Code:      []vm.Insc{},
		InitProc:  0,
		Functions: []vm.CompiledFunction{{StartInsc: 0, RegisterCount: 0}},
	}, a, vm.NewTyckPool(), nil)
	defer eng.Close()

	x := NewU256(a, 40)
	y := NewU256(a, 2)

	sum, err := AddU256(eng, x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, guard, err := vm.ValueIntoRef[U256](sum)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer guard.Release()
	if !got.Eq(uint256.NewInt(42)) {
		t.Fatalf("expected 42, got %s", got.Int)
	}
}

func TestObjectMutationThroughMutRef(t *testing.T) {
	a := vm.NewDefaultAlloc(1000, nil)
	v := NewObject(a, "widget")

	obj, guard, err := vm.ValueIntoMutRef[*Object](v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obj.Bump()
	obj.Bump()
	guard.Release()

	if obj.Mutations() != 2 {
		t.Fatalf("expected 2 mutations, got %d", obj.Mutations())
	}
}
