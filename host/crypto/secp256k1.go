// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package crypto

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec"

	"github.com/imlyzh/Pr47/vm"
)

// RecoverSecp256k1 recovers the uncompressed public key that produced sig
// over the 32-byte hash. sig is the 65-byte [R || S || V] compact format.
func RecoverSecp256k1(hash, sig []byte) ([]byte, error) {
	if len(sig) != 65 {
		return nil, fmt.Errorf("crypto: invalid signature length %d, want 65", len(sig))
	}
	// btcec.RecoverCompact expects its recovery byte first.
	compact := make([]byte, 65)
	compact[0] = sig[64] + 27
	copy(compact[1:], sig[:64])

	pub, _, err := btcec.RecoverCompact(btcec.S256(), compact, hash)
	if err != nil {
		return nil, fmt.Errorf("crypto: secp256k1 recovery failed: %w", err)
	}
	return pub.SerializeUncompressed(), nil
}

// RecoverSecp256k1Value is the FFI-callable entry point: borrows two host
// byte-string Values (hash, signature) and allocates the recovered
// uncompressed public key as a fresh host byte-string Value.
func RecoverSecp256k1Value(eng *vm.Engine, hashV, sigV vm.Value) (vm.Value, error) {
	hashBuf, g1, err := vm.ValueIntoRef[*ByteString](hashV)
	if err != nil {
		return vm.Value{}, err
	}
	defer g1.Release()
	sigBuf, g2, err := vm.ValueIntoRef[*ByteString](sigV)
	if err != nil {
		return vm.Value{}, err
	}
	defer g2.Release()

	pubBytes, err := RecoverSecp256k1(hashBuf.Bytes, sigBuf.Bytes)
	if err != nil {
		return vm.Value{}, &vm.UncheckedException{Kind: vm.ExcInvalidCast, DestType: "secp256k1.PublicKey"}
	}
	return NewByteString(eng.Alloc(), pubBytes), nil
}
