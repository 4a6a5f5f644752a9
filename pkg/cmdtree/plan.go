// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdtree

import "sort"

// Step is one entry of a matching plan.
type Step struct {
	Param Parameter
	Rank  int
}

// Plan is the order in which a method's parameters claim tokens: all flags,
// then all options, then positionals. Within a rank, declaration order is
// kept.
type Plan []Step

// Compile returns the matching plan for m.
func Compile(m *CommandMethod) Plan {
	p := make(Plan, len(m.Parameters))
	for i, param := range m.Parameters {
		p[i] = Step{Param: param, Rank: param.Kind().Rank()}
	}
	sort.SliceStable(p, func(i, j int) bool { return p[i].Rank < p[j].Rank })
	return p
}

// Names returns the parameter names of p in plan order.
func (p Plan) Names() []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Param.ParamName()
	}
	return names
}
