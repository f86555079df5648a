// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package crypto

import (
	"reflect"

	"github.com/imlyzh/Pr47/vm"
)

// ByteString is the polymorphic host type every function in this package
// reads its input from and allocates its output as: raw bytes, too wide for
// an immediate Value word, reached through the polymorphic heap path.
type ByteString struct {
	Bytes []byte
}

var byteStringTypeID = reflect.TypeOf(ByteString{})

// ByteStringCapabilities returns the capability set for ByteString values.
// ByteString holds no child Values, so Children is left nil.
func ByteStringCapabilities() *vm.Capabilities {
	return &vm.Capabilities{
		TypeName: "crypto.ByteString",
		TypeID:   byteStringTypeID,
	}
}

// NewByteString allocates a ByteString initialized from b.
func NewByteString(alloc vm.Allocator, b []byte) vm.Value {
	cp := append([]byte(nil), b...)
	return alloc.AllocatePolymorphic(&ByteString{Bytes: cp}, ByteStringCapabilities())
}
