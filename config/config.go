// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package config loads embedder-facing engine configuration from TOML,
// following the same decode-settings convention the wider ecosystem uses
// for its own node configuration.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
)

// AllocatorKind selects which Allocator implementation an engine runs with.
type AllocatorKind string

const (
	// AllocatorDefault selects the tracing mark-sweep collector.
	AllocatorDefault AllocatorKind = "default"
	// AllocatorNoGC selects the non-collecting allocator.
	AllocatorNoGC AllocatorKind = "nogc"
)

// EngineConfig is the embedder-facing knob set for one VM instance.
type EngineConfig struct {
	// Allocator picks which Allocator implementation backs the engine.
	Allocator AllocatorKind

	// DebtCeiling is the allocation-count threshold that triggers an
	// automatic collection cycle under the default allocator. Zero means
	// the allocator's own default ceiling applies.
	DebtCeiling uint64

	// GCAllowed, when false, disables automatic collection; the embedder
	// must call Collect explicitly. Only meaningful under the default
	// allocator.
	GCAllowed bool

	// LogLevel names the minimum severity the engine's logger emits, one
	// of "debug", "info", "warn", "error", "crit".
	LogLevel string
}

// Default returns the configuration a freshly embedded engine starts with
// absent any file.
func Default() EngineConfig {
	return EngineConfig{
		Allocator:   AllocatorDefault,
		DebtCeiling: 0,
		GCAllowed:   true,
		LogLevel:    "info",
	}
}

// tomlSettings mirrors the ecosystem convention of keeping TOML keys
// identical to Go struct field names, and turning an unrecognized field
// into a descriptive error rather than silently ignoring it.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(" (%s.%s)", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field %q is not defined in %s%s", field, rt.String(), link)
	},
}

// Load reads an EngineConfig from a TOML file, starting from Default() so
// the file only needs to override what it cares about.
func Load(path string) (EngineConfig, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg); err != nil {
		var lineErr *toml.LineError
		if errors.As(err, &lineErr) {
			return cfg, fmt.Errorf("%s, %w", path, err)
		}
		return cfg, err
	}
	return cfg, nil
}

// Dump renders cfg back to TOML, the form dumpconfig-style embedder tooling
// shows a user before they hand-edit it.
func Dump(cfg EngineConfig) ([]byte, error) {
	return tomlSettings.Marshal(&cfg)
}
