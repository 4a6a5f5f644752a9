// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package descriptor defines the flat method descriptors that a command tree
// is compiled from. Descriptors are produced by a host (a manifest loader, a
// code generator front end) and are immutable once handed to cmdtree.Build.
package descriptor

import (
	"strings"

	"tailscale.com/types/opt"
)

// PathItem is one segment of the group path leading to a method.
type PathItem struct {
	Name        string
	Description opt.Value[string]
}

// Method describes one invocable method.
type Method struct {
	// MethodName is the identifier of the method. The command name is
	// derived from it unless ProvidedName is set.
	MethodName string

	// ProvidedName overrides the derived command name. An explicitly set
	// empty name attaches the method to the node at the end of GroupPath.
	ProvidedName opt.Value[string]

	GroupPath []PathItem

	// Owner is an opaque handle the host uses to find the callable
	// that implements the method.
	Owner string

	Arguments   []Argument
	Description opt.Value[string]
}

// Argument describes one formal parameter of a method, in declaration order.
type Argument struct {
	Name string

	// Type is an opaque type identifier handed to the value converter.
	Type string

	IsBool bool
	Short  opt.Value[rune]

	HasDefault bool
	Default    opt.Value[string]

	// Named marks an argument that must be passed as --name value rather
	// than positionally.
	Named bool

	Description opt.Value[string]
}

// GroupNames returns the names of the segments in m.GroupPath.
func (m *Method) GroupNames() []string {
	names := make([]string, len(m.GroupPath))
	for i, p := range m.GroupPath {
		names[i] = p.Name
	}
	return names
}

// String returns "Owner.MethodName", which is how descriptors are referred
// to in diagnostics.
func (m *Method) String() string {
	if m.Owner == "" {
		return m.MethodName
	}
	return m.Owner + "." + m.MethodName
}

// SplitPath splits a dotted command path ("remote.branch") into path items.
// Empty segments are dropped.
func SplitPath(dotted string) []PathItem {
	var items []PathItem
	for _, seg := range strings.Split(dotted, ".") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		items = append(items, PathItem{Name: seg})
	}
	return items
}
