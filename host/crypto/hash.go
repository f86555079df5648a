// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package crypto wires host-callable hashing, signing, and signature
// recovery into the FFI boundary, so embedded scripts can reach real
// cryptographic primitives without the engine itself knowing anything about
// hash algorithms or curves.
package crypto

import (
	"golang.org/x/crypto/sha3"

	"github.com/imlyzh/Pr47/vm"
)

// Keccak256 hashes the bytes backing a script-level byte array and
// allocates a fresh host byte slice holding the 32-byte digest.
func Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// Shake256 produces an arbitrary-length digest of data using SHAKE256,
// writing exactly len(out) bytes into out.
func Shake256(data, out []byte) {
	h := sha3.NewShake256()
	h.Write(data)
	h.Read(out)
}

// KeccakValue is the FFI-callable entry point for OpFFICall bindings:
// borrows a host byte-array Value, hashes it, and allocates the digest as a
// fresh host byte-array Value.
func KeccakValue(eng *vm.Engine, v vm.Value) (vm.Value, error) {
	buf, guard, err := vm.ValueIntoRef[*ByteString](v)
	if err != nil {
		return vm.Value{}, err
	}
	defer guard.Release()
	digest := Keccak256(buf.Bytes)
	return eng.Alloc().AllocatePolymorphic(&ByteString{Bytes: digest}, ByteStringCapabilities()), nil
}
