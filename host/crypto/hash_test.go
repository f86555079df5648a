package crypto

import (
	"bytes"
	"testing"

	"github.com/imlyzh/Pr47/vm"
)

func TestKeccak256KnownVector(t *testing.T) {
	// Keccak256("") is a well-known fixed digest.
	want := []byte{
		0xc5, 0xd2, 0x46, 0x01, 0x86, 0xf7, 0x23, 0x3c, 0x92, 0x7e, 0x7d, 0xb2, 0xdc, 0xc7, 0x03, 0xc0,
		0xe5, 0x00, 0xb6, 0x53, 0xca, 0x82, 0x27, 0x3b, 0x7b, 0xfa, 0xd8, 0x04, 0x5d, 0x85, 0xa4, 0x70,
	}
	got := Keccak256(nil)
	if !bytes.Equal(got, want) {
		t.Fatalf("Keccak256(\"\") = %x, want %x", got, want)
	}
}

func TestKeccakValueFFIRoundTrip(t *testing.T) {
	a := vm.NewDefaultAlloc(1000, nil)
	eng := vm.NewEngine(&vm.Program{
		Code:      []vm.Insc{},
		InitProc:  0,
		Functions: []vm.CompiledFunction{{StartInsc: 0, RegisterCount: 0}},
	}, a, vm.NewTyckPool(), nil)
	defer eng.Close()

	in := NewByteString(a, []byte("hello"))
	out, err := KeccakValue(eng, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	digest, guard, err := vm.ValueIntoRef[*ByteString](out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer guard.Release()
	if len(digest.Bytes) != 32 {
		t.Fatalf("expected a 32-byte digest, got %d bytes", len(digest.Bytes))
	}
}

func TestShake256VariableLength(t *testing.T) {
	out := make([]byte, 64)
	Shake256([]byte("hello"), out)
	allZero := true
	for _, b := range out {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Fatalf("expected Shake256 output to be non-zero")
	}
}
