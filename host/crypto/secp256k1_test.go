package crypto

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/btcsuite/btcd/btcec"

	"github.com/imlyzh/Pr47/vm"
)

func TestRecoverSecp256k1RoundTrip(t *testing.T) {
	priv, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hash := make([]byte, 32)
	if _, err := rand.Read(hash); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sig, err := btcec.SignCompact(btcec.S256(), priv, hash, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// btcec's compact format is [V || R || S]; RecoverSecp256k1 expects
	// [R || S || V], matching the conventional Ethereum-style layout.
	reordered := append(append([]byte{}, sig[1:]...), sig[0]-27)

	pub, err := RecoverSecp256k1(hash, reordered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := priv.PubKey().SerializeUncompressed()
	if !bytes.Equal(pub, want) {
		t.Fatalf("recovered public key does not match signer")
	}
}

func TestRecoverSecp256k1ValueFFI(t *testing.T) {
	a := vm.NewDefaultAlloc(1000, nil)
	eng := vm.NewEngine(&vm.Program{
		Code:      []vm.Insc{},
		InitProc:  0,
		Functions: []vm.CompiledFunction{{StartInsc: 0, RegisterCount: 0}},
	}, a, vm.NewTyckPool(), nil)
	defer eng.Close()

	priv, _ := btcec.NewPrivateKey(btcec.S256())
	hash := make([]byte, 32)
	rand.Read(hash)
	sig, _ := btcec.SignCompact(btcec.S256(), priv, hash, false)
	reordered := append(append([]byte{}, sig[1:]...), sig[0]-27)

	hashV := NewByteString(a, hash)
	sigV := NewByteString(a, reordered)

	out, err := RecoverSecp256k1Value(eng, hashV, sigV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pub, guard, err := vm.ValueIntoRef[*ByteString](out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer guard.Release()
	if !bytes.Equal(pub.Bytes, priv.PubKey().SerializeUncompressed()) {
		t.Fatalf("recovered public key does not match signer")
	}
}
