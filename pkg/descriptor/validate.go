// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package descriptor

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"tailscale.com/util/set"
)

// ValidationError is returned when a descriptor is structurally invalid.
// All problems found in one descriptor are reported together.
type ValidationError struct {
	Descriptor string // "Owner.MethodName"
	Index      int    // position in the input list, -1 if unknown
	Problems   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid descriptor %s: %s", e.Descriptor, strings.Join(e.Problems, "; "))
}

// Validate reports the structural problems of m, or nil.
func (m *Method) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if m.MethodName == "" {
		add("method name is empty")
	}
	if m.Owner == "" {
		add("owner is empty")
	}
	for i, p := range m.GroupPath {
		if !isCommandWord(p.Name) {
			add("group path segment %d (%q) is not a valid command name", i, p.Name)
		}
	}
	if name, ok := m.ProvidedName.GetOk(); ok && name != "" && !isCommandWord(name) {
		add("provided name %q is not a valid command name", name)
	}

	names := make(set.Set[string])
	shorts := make(set.Set[rune])
	for i, a := range m.Arguments {
		if a.Name == "" {
			add("argument %d has no name", i)
			continue
		}
		if names.Contains(a.Name) {
			add("argument %q is declared more than once", a.Name)
		}
		names.Add(a.Name)
		if r, ok := a.Short.GetOk(); ok {
			if r == '-' || unicode.IsSpace(r) || !unicode.IsPrint(r) {
				add("argument %q has an invalid short form %q", a.Name, r)
			} else if shorts.Contains(r) {
				add("short form -%c is used by more than one argument", r)
			}
			shorts.Add(r)
		}
		if a.Default.IsSet() && !a.HasDefault {
			add("argument %q has a default literal but is not marked as having a default", a.Name)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Descriptor: m.String(), Index: -1, Problems: problems}
}

// ValidateAll validates every descriptor in ms and joins the failures.
func ValidateAll(ms []Method) error {
	var errs []error
	for i := range ms {
		if err := ms[i].Validate(); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Index = i
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// isCommandWord reports whether s can be typed as a single command token.
func isCommandWord(s string) bool {
	if s == "" || strings.HasPrefix(s, "-") {
		return false
	}
	return !strings.ContainsFunc(s, unicode.IsSpace)
}
