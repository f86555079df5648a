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

	"github.com/cloudflare/circl/sign/dilithium/mode2"

	"github.com/imlyzh/Pr47/vm"
)

// UnmarshalDilithiumPublicKey parses a serialized ML-DSA-44 (Dilithium2)
// public key, the size the mode2 package fixes.
func UnmarshalDilithiumPublicKey(data []byte) (*mode2.PublicKey, error) {
	if len(data) != mode2.PublicKeySize {
		return nil, fmt.Errorf("crypto: invalid dilithium public key size %d, want %d", len(data), mode2.PublicKeySize)
	}
	var buf [mode2.PublicKeySize]byte
	copy(buf[:], data)
	pk := new(mode2.PublicKey)
	pk.Unpack(&buf)
	return pk, nil
}

// VerifyMLDSA verifies a Dilithium2 signature over msg under pub.
func VerifyMLDSA(pub *mode2.PublicKey, msg, sig []byte) bool {
	if len(sig) != mode2.SignatureSize {
		return false
	}
	return mode2.Verify(pub, msg, sig)
}

// VerifyMLDSAValue is the FFI-callable entry point: borrows three host
// byte-string Values (public key, message, signature) and returns an
// immediate bool.
func VerifyMLDSAValue(pubV, msgV, sigV vm.Value) (vm.Value, error) {
	pubBuf, g1, err := vm.ValueIntoRef[*ByteString](pubV)
	if err != nil {
		return vm.Value{}, err
	}
	defer g1.Release()
	msgBuf, g2, err := vm.ValueIntoRef[*ByteString](msgV)
	if err != nil {
		return vm.Value{}, err
	}
	defer g2.Release()
	sigBuf, g3, err := vm.ValueIntoRef[*ByteString](sigV)
	if err != nil {
		return vm.Value{}, err
	}
	defer g3.Release()

	pub, err := UnmarshalDilithiumPublicKey(pubBuf.Bytes)
	if err != nil {
		return vm.Value{}, &vm.UncheckedException{Kind: vm.ExcInvalidCast, DestType: "dilithium.PublicKey"}
	}
	return vm.Bool(VerifyMLDSA(pub, msgBuf.Bytes, sigBuf.Bytes)), nil
}
