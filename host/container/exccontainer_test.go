package container

import (
	"testing"

	"github.com/imlyzh/Pr47/vm"
)

func TestExceptionContainerChecked(t *testing.T) {
	a := newTestAlloc(1000)
	exc := vm.NewCheckedException(vm.Int(42))
	v := NewExceptionContainer(a, exc)

	checked, err := ExceptionIsChecked(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := checked.AsImmediateBool(); !ok || !b {
		t.Fatalf("expected checked exception to report true, got %v", checked)
	}
}

func TestExceptionContainerUnchecked(t *testing.T) {
	a := newTestAlloc(1000)
	exc := vm.NewUncheckedException(&vm.UncheckedException{Kind: vm.ExcDivideByZero})
	v := NewExceptionContainer(a, exc)

	checked, err := ExceptionIsChecked(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := checked.AsImmediateBool(); !ok || b {
		t.Fatalf("expected unchecked exception to report false, got %v", checked)
	}
}
