// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cmdtreetest provides descriptor fixtures for tests of packages
// that consume command trees.
package cmdtreetest

import (
	"testing"

	"github.com/yeetrun/cmdr/pkg/cmdtree"
	"github.com/yeetrun/cmdr/pkg/descriptor"
	"tailscale.com/types/opt"
)

// ColorModeType is the enumerated type identifier used by the Git fixture.
const ColorModeType = "color-mode"

// ColorModes are the values of ColorModeType.
var ColorModes = []string{"auto", "always", "never"}

func path(items ...string) []descriptor.PathItem {
	var ps []descriptor.PathItem
	for _, it := range items {
		ps = append(ps, descriptor.PathItem{Name: it})
	}
	return ps
}

// Git returns descriptors for a small git-like program. It covers groups,
// a method attached to its own group ("checkout"), a node with both a
// method and children ("stash"), every parameter kind, short forms and an
// enumerated type.
func Git() []descriptor.Method {
	return []descriptor.Method{
		{
			MethodName:   "CheckoutBranch",
			ProvidedName: opt.ValueOf(""),
			GroupPath:    []descriptor.PathItem{{Name: "checkout", Description: opt.ValueOf("Check out branches")}},
			Owner:        "CheckoutActions",
			Description:  opt.ValueOf("Check out a branch"),
			Arguments: []descriptor.Argument{
				{Name: "branchName", Type: "string", Description: opt.ValueOf("The branch to check out")},
				{Name: "force", Type: "bool", IsBool: true, Short: opt.ValueOf('f'), Description: opt.ValueOf("Discard local changes")},
			},
		},
		{
			MethodName:   "ListBranches",
			ProvidedName: opt.ValueOf("list"),
			GroupPath:    []descriptor.PathItem{{Name: "branch", Description: opt.ValueOf("Manage branches")}},
			Owner:        "BranchActions",
			Description:  opt.ValueOf("List branches"),
			Arguments: []descriptor.Argument{
				{Name: "pattern", Type: "string", HasDefault: true, Default: opt.ValueOf("*")},
				{Name: "all", Type: "bool", IsBool: true, Short: opt.ValueOf('a')},
			},
		},
		{
			MethodName: "Delete",
			GroupPath:  path("branch"),
			Owner:      "BranchActions",
			Arguments: []descriptor.Argument{
				{Name: "name", Type: "string"},
				{Name: "force", Type: "bool", IsBool: true, Short: opt.ValueOf('D')},
			},
		},
		{
			MethodName:   "AddRemote",
			ProvidedName: opt.ValueOf("add"),
			GroupPath:    []descriptor.PathItem{{Name: "remote", Description: opt.ValueOf("Manage remotes")}},
			Owner:        "RemoteActions",
			Description:  opt.ValueOf("Add a remote"),
			Arguments: []descriptor.Argument{
				{Name: "name", Type: "string"},
				{Name: "url", Type: "url"},
				{Name: "track", Type: "string", Named: true, Short: opt.ValueOf('t')},
				{Name: "fetch", Type: "bool", IsBool: true},
			},
		},
		{
			MethodName: "Commit",
			Owner:      "CommitActions",
			Arguments: []descriptor.Argument{
				{Name: "message", Type: "string", Named: true, Short: opt.ValueOf('m')},
				{Name: "amend", Type: "bool", IsBool: true},
			},
		},
		{
			MethodName:  "Stash",
			Owner:       "StashActions",
			Description: opt.ValueOf("Stash local changes"),
			Arguments: []descriptor.Argument{
				{Name: "message", Type: "string", HasDefault: true},
			},
		},
		{
			MethodName: "Pop",
			GroupPath:  path("stash"),
			Owner:      "StashActions",
			Arguments: []descriptor.Argument{
				{Name: "index", Type: "int", HasDefault: true, Default: opt.ValueOf("0")},
			},
		},
		{
			MethodName: "Log",
			Owner:      "LogActions",
			Arguments: []descriptor.Argument{
				{Name: "count", Type: "int", Named: true, Short: opt.ValueOf('n'), HasDefault: true, Default: opt.ValueOf("10")},
				{Name: "oneline", Type: "bool", IsBool: true},
			},
		},
		{
			MethodName:   "SetColor",
			ProvidedName: opt.ValueOf("color"),
			GroupPath:    path("config"),
			Owner:        "ConfigActions",
			Arguments: []descriptor.Argument{
				{Name: "mode", Type: ColorModeType},
			},
		},
	}
}

// MustBuild builds descs and fails the test on any conflict.
func MustBuild(tb testing.TB, descs []descriptor.Method) *cmdtree.Tree {
	tb.Helper()
	t, err := cmdtree.Build(descs)
	if err != nil {
		tb.Fatalf("Build: %v", err)
	}
	return t
}
