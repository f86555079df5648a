package crypto

import (
	"crypto/rand"
	"testing"

	"github.com/cloudflare/circl/sign/dilithium/mode2"

	"github.com/imlyzh/Pr47/vm"
)

func TestVerifyMLDSARoundTrip(t *testing.T) {
	pub, priv, err := mode2.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg := []byte("a signed message")
	sig := make([]byte, mode2.SignatureSize)
	mode2.SignTo(priv, msg, sig)

	var pubBuf [mode2.PublicKeySize]byte
	pub.Pack(&pubBuf)

	parsed, err := UnmarshalDilithiumPublicKey(pubBuf[:])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !VerifyMLDSA(parsed, msg, sig) {
		t.Fatalf("expected signature to verify")
	}
	if VerifyMLDSA(parsed, []byte("tampered"), sig) {
		t.Fatalf("expected tampered message to fail verification")
	}
}

func TestVerifyMLDSAValueFFI(t *testing.T) {
	a := vm.NewDefaultAlloc(1000, nil)

	pub, priv, err := mode2.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg := []byte("ffi signed message")
	sig := make([]byte, mode2.SignatureSize)
	mode2.SignTo(priv, msg, sig)

	var pubBuf [mode2.PublicKeySize]byte
	pub.Pack(&pubBuf)

	pubV := NewByteString(a, pubBuf[:])
	msgV := NewByteString(a, msg)
	sigV := NewByteString(a, sig)

	result, err := VerifyMLDSAValue(pubV, msgV, sigV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := result.AsImmediateBool(); !ok || !b {
		t.Fatalf("expected verification to succeed, got %v", result)
	}
}
