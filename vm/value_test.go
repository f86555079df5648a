package vm

import "testing"

func TestImmediateRoundTrip(t *testing.T) {
	cases := []Value{
		Null(),
		Bool(true),
		Bool(false),
		Int(42),
		Int(-7),
		Float(3.5),
		Char('z'),
		SmallTag(9),
	}
	for _, v := range cases {
		if !v.IsImmediate() {
			t.Fatalf("%v: expected immediate", v)
		}
		if _, ok := v.AsWrapperPtr(); ok {
			t.Fatalf("%v: immediate must never yield a wrapper pointer", v)
		}
	}

	if b, ok := Bool(true).AsImmediateBool(); !ok || !b {
		t.Fatalf("bool round trip failed")
	}
	if i, ok := Int(42).AsImmediateInt(); !ok || i != 42 {
		t.Fatalf("int round trip failed: %d %v", i, ok)
	}
	if f, ok := Float(3.5).AsImmediateFloat(); !ok || f != 3.5 {
		t.Fatalf("float round trip failed: %v %v", f, ok)
	}
	if c, ok := Char('z').AsImmediateChar(); !ok || c != 'z' {
		t.Fatalf("char round trip failed")
	}
}

func TestNullIsDistinctFromZeroInt(t *testing.T) {
	if Int(0).IsNull() {
		t.Fatalf("Int(0) must not be null")
	}
	if !Null().IsNull() {
		t.Fatalf("Null() must be null")
	}
}

func TestPointerValueIsNeverImmediate(t *testing.T) {
	w := newPolymorphicWrapper(builtinObject{}, builtinObjectCaps)
	v := fromPolymorphic(w)
	if v.IsImmediate() {
		t.Fatalf("pointer value reported as immediate")
	}
	got, ok := v.AsWrapperPtr()
	if !ok || got != w {
		t.Fatalf("AsWrapperPtr did not round-trip the wrapper")
	}
	if v.IsContainer() {
		t.Fatalf("polymorphic value must not report as container")
	}
}

func TestContainerValueCarriesVtable(t *testing.T) {
	vt := &ContainerVT{TypeName: "test-array"}
	w := newContainerWrapper([]Value{Int(1)}, vt)
	v := fromContainer(w, vt)
	if !v.IsContainer() {
		t.Fatalf("expected container value")
	}
	got, ok := v.AsContainerVT()
	if !ok || got != vt {
		t.Fatalf("AsContainerVT did not round-trip the vtable")
	}
}
