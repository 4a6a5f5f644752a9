// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package convert turns bound argument strings into typed values, keyed by
// the opaque type identifiers carried on method descriptors.
package convert

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"tailscale.com/util/mak"
)

// ParseFunc parses a raw argument string.
type ParseFunc func(raw string) (any, error)

// Error is returned when a value cannot be converted to its type.
type Error struct {
	Type    string
	Value   string
	Allowed []string // for enumerated types
	Err     error
}

func (e *Error) Error() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("invalid %s value %q (want one of: %s)", e.Type, e.Value, strings.Join(e.Allowed, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("invalid %s value %q: %v", e.Type, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s value %q", e.Type, e.Value)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Registry maps type identifiers to parsers. Identifiers it does not know
// convert to the raw string unchanged.
type Registry struct {
	mu      sync.RWMutex // protects the following
	parsers map[string]ParseFunc
	enums   map[string][]string
}

// New returns a Registry with the built-in types registered.
func New() *Registry {
	r := &Registry{}
	r.Register("string", func(s string) (any, error) { return s, nil })
	r.Register("bool", func(s string) (any, error) { return strconv.ParseBool(s) })
	r.Register("int", func(s string) (any, error) { return strconv.Atoi(s) })
	r.Register("int64", func(s string) (any, error) { return strconv.ParseInt(s, 10, 64) })
	r.Register("uint", func(s string) (any, error) {
		v, err := strconv.ParseUint(s, 10, 0)
		return uint(v), err
	})
	r.Register("float64", func(s string) (any, error) { return strconv.ParseFloat(s, 64) })
	r.Register("duration", func(s string) (any, error) { return time.ParseDuration(s) })
	r.Register("url", func(s string) (any, error) { return url.Parse(s) })
	r.Register("semver", func(s string) (any, error) { return semver.NewVersion(s) })
	r.Register("uuid", func(s string) (any, error) { return uuid.Parse(s) })
	return r
}

// Register sets the parser for typeID, replacing any earlier one.
func (r *Registry) Register(typeID string, fn ParseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mak.Set(&r.parsers, typeID, fn)
}

// RegisterEnum declares typeID as an enumerated type with the given values.
// Lookups ignore case and return the spelling given here.
func (r *Registry) RegisterEnum(typeID string, values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mak.Set(&r.enums, typeID, slices.Clone(values))
}

// RegisterEnums registers every enumerated type in enums.
func (r *Registry) RegisterEnums(enums map[string][]string) {
	for id, values := range enums {
		r.RegisterEnum(id, values...)
	}
}

// EnumValues returns the values of an enumerated type.
func (r *Registry) EnumValues(typeID string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vs, ok := r.enums[typeID]
	return vs, ok
}

// Convert parses raw as a value of typeID.
func (r *Registry) Convert(typeID, raw string) (any, error) {
	r.mu.RLock()
	values, isEnum := r.enums[typeID]
	fn := r.parsers[typeID]
	r.mu.RUnlock()

	if isEnum {
		for _, v := range values {
			if strings.EqualFold(v, raw) {
				return v, nil
			}
		}
		return nil, &Error{Type: typeID, Value: raw, Allowed: values}
	}
	if fn == nil {
		return raw, nil
	}
	v, err := fn(raw)
	if err != nil {
		return nil, &Error{Type: typeID, Value: raw, Err: err}
	}
	return v, nil
}
