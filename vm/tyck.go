// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// TypeID identifies a host or container type's dynamic identity. reflect.Type
// already gives every concrete Go type a stable, comparable identity, so it
// is reused directly rather than minting a parallel numbering scheme.
type TypeID = reflect.Type

// PrimKind enumerates the closed set of primitive (leaf) type-check
// descriptor kinds.
type PrimKind uint8

const (
	KindNull PrimKind = iota
	KindBool
	KindInt
	KindFloat
	KindChar
	KindHost // opaque host type, distinguished further by TyckInfo.Host
)

// TyckInfo is a node in the type-check descriptor pool's structural DAG.
// Two descriptors describe the same structural type if and only if they are
// the same pointer — the pool guarantees this by interning on structural
// identity before ever handing out a descriptor.
type TyckInfo struct {
	Prim   PrimKind
	Host   TypeID     // valid iff Prim == KindHost
	Params []*TyckInfo // child type parameters, e.g. Array<Int>'s [Int]
}

// Equals reports whether two descriptors denote the same structural type.
// Because the pool interns by structure, this is always a pointer compare.
func (t *TyckInfo) Equals(o *TyckInfo) bool { return t == o }

func (t *TyckInfo) String() string {
	if t.Prim == KindHost {
		if len(t.Params) == 0 {
			return t.Host.String()
		}
	}
	names := make([]string, len(t.Params))
	for i, p := range t.Params {
		names[i] = p.String()
	}
	base := [...]string{"null", "bool", "int", "float", "char", t.hostName()}[t.Prim]
	if len(names) == 0 {
		return base
	}
	return base + "<" + strings.Join(names, ",") + ">"
}

func (t *TyckInfo) hostName() string {
	if t.Host == nil {
		return "host"
	}
	return t.Host.String()
}

// TyckPool is the append-only, structurally-interning arena of TyckInfo
// descriptors. Readers never need external synchronization; the pool's
// RWMutex lets concurrent lookups proceed while a new descriptor is interned.
type TyckPool struct {
	mu         sync.RWMutex
	primitives [KindHost + 1]*TyckInfo
	hostLeaves map[TypeID]*TyckInfo
	composites map[string]*TyckInfo
}

// NewTyckPool returns an empty pool with its primitive singletons pre-seeded.
func NewTyckPool() *TyckPool {
	p := &TyckPool{
		hostLeaves: make(map[TypeID]*TyckInfo),
		composites: make(map[string]*TyckInfo),
	}
	for k := KindNull; k < KindHost; k++ {
		p.primitives[k] = &TyckInfo{Prim: k}
	}
	return p
}

// InternPrimitive returns the canonical descriptor for a non-host primitive
// kind (Null/Bool/Int/Float/Char).
func (p *TyckPool) InternPrimitive(k PrimKind) *TyckInfo {
	if k == KindHost {
		panic("vm: InternPrimitive called with KindHost; use InternHost")
	}
	return p.primitives[k]
}

// InternHost returns the canonical leaf descriptor for a host type,
// interning a new one on first sight.
func (p *TyckPool) InternHost(id TypeID) *TyckInfo {
	p.mu.RLock()
	if info, ok := p.hostLeaves[id]; ok {
		p.mu.RUnlock()
		return info
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if info, ok := p.hostLeaves[id]; ok {
		return info
	}
	info := &TyckInfo{Prim: KindHost, Host: id}
	p.hostLeaves[id] = info
	return info
}

// InternContainer returns the canonical descriptor for a container type
// applied to the given type parameters, interning a new one on first sight.
func (p *TyckPool) InternContainer(id TypeID, params []*TyckInfo) *TyckInfo {
	key := containerKey(id, params)

	p.mu.RLock()
	if info, ok := p.composites[key]; ok {
		p.mu.RUnlock()
		return info
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if info, ok := p.composites[key]; ok {
		return info
	}
	info := &TyckInfo{Prim: KindHost, Host: id, Params: append([]*TyckInfo(nil), params...)}
	p.composites[key] = info
	return info
}

func containerKey(id TypeID, params []*TyckInfo) string {
	addrs := make([]string, len(params))
	for i, p := range params {
		addrs[i] = fmt.Sprintf("%p", p)
	}
	return id.String() + "(" + strings.Join(addrs, ",") + ")"
}

// tyckInfoOf derives a wrapper's own canonical descriptor: its dynamic
// TypeID interned as a host leaf. Container element types are not tracked
// per-wrapper, so structural matching on containers checks outer type
// identity only (Array matches Array, Set matches Set) rather than
// recursing into element types.
func tyckInfoOf(w *Wrapper, pool *TyckPool) *TyckInfo {
	return pool.InternHost(w.TypeID())
}

// structurallyMatches reports whether w's dynamic type, as produced by its
// own TyckInfo accessor, is identical (by pool identity) to desc. Because
// interning guarantees one address per structural type, this is a single
// equality check rather than a recursive structural walk.
func structurallyMatches(pool *TyckPool, desc *TyckInfo, w *Wrapper, tyckOf func(*Wrapper, *TyckPool) *TyckInfo) bool {
	return desc.Equals(tyckOf(w, pool))
}
