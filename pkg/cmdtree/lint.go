// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdtree

import (
	"fmt"
	"slices"
	"strings"
)

// HelpMarkers are the tokens that request help anywhere after the command
// path.
var HelpMarkers = []string{"--help", "-h", "-?"}

// IsHelpMarker reports whether tok is one of HelpMarkers.
func IsHelpMarker(tok string) bool {
	return slices.Contains(HelpMarkers, tok)
}

// WarningCode identifies the kind of a lint warning.
type WarningCode string

const (
	// ShadowedPositional: a method with positional parameters sits on a
	// node that also has children, so a positional value equal to a child
	// name selects the child instead.
	ShadowedPositional WarningCode = "shadowed-positional"

	// HelpMarkerShadow: a flag or option is selected by a help marker and
	// can never be matched.
	HelpMarkerShadow WarningCode = "help-marker-shadow"

	// MarkerCollision: two flags or options of one method share a marker.
	// Only the first in plan order can ever bind.
	MarkerCollision WarningCode = "marker-collision"
)

// Warning is an advisory finding about a built tree. Warnings never prevent
// matching.
type Warning struct {
	Code    WarningCode
	Path    []string
	Method  string
	Message string
}

func (w Warning) String() string {
	path := strings.Join(w.Path, " ")
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("%s: %s: %s", w.Code, path, w.Message)
}

// Lint inspects t for constructions that build fine but match poorly.
func Lint(t *Tree) []Warning {
	var ws []Warning
	t.Walk(func(path []string, n Node) {
		m, ok := n.Method()
		if !ok {
			return
		}
		warn := func(code WarningCode, format string, args ...any) {
			ws = append(ws, Warning{
				Code:    code,
				Path:    slices.Clone(path),
				Method:  m.String(),
				Message: fmt.Sprintf(format, args...),
			})
		}
		if len(n.Children()) > 0 {
			for _, p := range m.Parameters {
				switch p.(type) {
				case Positional, OptionalPositional:
					warn(ShadowedPositional, "positional %q is shadowed when its value names a sub-command", p.ParamName())
				}
			}
		}
		seen := make(map[string]string)
		for _, s := range m.Plan() {
			var ms []string
			switch p := s.Param.(type) {
			case Flag:
				ms = p.Markers()
			case Option:
				ms = p.Markers()
			default:
				continue
			}
			for _, mk := range ms {
				if IsHelpMarker(mk) {
					warn(HelpMarkerShadow, "%s of %q is reserved for help", mk, s.Param.ParamName())
					continue
				}
				if prev, ok := seen[mk]; ok {
					warn(MarkerCollision, "%s is used by both %q and %q", mk, prev, s.Param.ParamName())
					continue
				}
				seen[mk] = s.Param.ParamName()
			}
		}
	})
	return ws
}
