// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cmdtree compiles flat method descriptors into an immutable command
// tree. Every method in the tree carries a matching plan, the order in which
// its parameters claim tokens from an argument vector.
//
// A built tree is never mutated and may be shared by any number of
// goroutines.
package cmdtree

import (
	"fmt"
	"strings"

	"github.com/yeetrun/cmdr/pkg/descriptor"
	"tailscale.com/types/opt"
)

// Node is a position in the command tree. It is either *Root or *SubCommand.
type Node interface {
	// Children returns the sub-commands of the node in the order they were
	// first inserted.
	Children() []*SubCommand

	// Child returns the child with the given name.
	Child(name string) (*SubCommand, bool)

	// Method returns the method attached to the node, if any.
	Method() (*CommandMethod, bool)

	isNode()
}

type branch struct {
	children []*SubCommand
	method   *CommandMethod
}

func (b *branch) Children() []*SubCommand { return b.children }

func (b *branch) Child(name string) (*SubCommand, bool) {
	for _, c := range b.children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func (b *branch) Method() (*CommandMethod, bool) {
	return b.method, b.method != nil
}

// Root is the top of a command tree. It has no name.
type Root struct {
	branch
}

// SubCommand is a named node below the root.
type SubCommand struct {
	Name        string
	Description opt.Value[string]
	branch
}

func (*Root) isNode()       {}
func (*SubCommand) isNode() {}

// CommandMethod is a method attached to a node.
type CommandMethod struct {
	Owner       string
	MethodName  string
	Description opt.Value[string]
	Parameters  []Parameter

	plan Plan
}

func newCommandMethod(m *descriptor.Method) *CommandMethod {
	cm := &CommandMethod{
		Owner:       m.Owner,
		MethodName:  m.MethodName,
		Description: m.Description,
		Parameters:  make([]Parameter, 0, len(m.Arguments)),
	}
	for _, a := range m.Arguments {
		cm.Parameters = append(cm.Parameters, Classify(a))
	}
	cm.plan = Compile(cm)
	return cm
}

// Plan returns the matching plan of m.
func (m *CommandMethod) Plan() Plan { return m.plan }

// String returns "Owner.MethodName".
func (m *CommandMethod) String() string { return m.Owner + "." + m.MethodName }

// MandatoryParameters returns the mandatory positional parameters of m in
// declaration order.
func (m *CommandMethod) MandatoryParameters() []Positional {
	var ps []Positional
	for _, p := range m.Parameters {
		if pos, ok := p.(Positional); ok {
			ps = append(ps, pos)
		}
	}
	return ps
}

// Options returns the option parameters of m in declaration order.
func (m *CommandMethod) Options() []Option {
	var opts []Option
	for _, p := range m.Parameters {
		if o, ok := p.(Option); ok {
			opts = append(opts, o)
		}
	}
	return opts
}

// Flags returns the flag parameters of m in declaration order.
func (m *CommandMethod) Flags() []Flag {
	var fs []Flag
	for _, p := range m.Parameters {
		if f, ok := p.(Flag); ok {
			fs = append(fs, f)
		}
	}
	return fs
}

// Parameter returns the parameter with the given name.
func (m *CommandMethod) Parameter(name string) (Parameter, bool) {
	for _, p := range m.Parameters {
		if p.ParamName() == name {
			return p, true
		}
	}
	return nil, false
}

// Tree is a compiled command tree.
type Tree struct {
	Root *Root

	// Conflicts lists the descriptors that could not be attached, in input
	// order.
	Conflicts []Conflict
}

// Lookup walks path from the root and returns the node it ends at.
func (t *Tree) Lookup(path ...string) (Node, bool) {
	var n Node = t.Root
	for _, name := range path {
		c, ok := n.Child(name)
		if !ok {
			return nil, false
		}
		n = c
	}
	return n, true
}

// Walk calls fn for every node in depth-first, insertion order. The root is
// visited first with a nil path.
func (t *Tree) Walk(fn func(path []string, n Node)) {
	var walk func(path []string, n Node)
	walk = func(path []string, n Node) {
		fn(path, n)
		for _, c := range n.Children() {
			walk(append(path[:len(path):len(path)], c.Name), c)
		}
	}
	walk(nil, t.Root)
}

// ConflictKind classifies a build-time conflict.
type ConflictKind string

const (
	// DuplicateCommand means two descriptors resolved to the same node.
	DuplicateCommand ConflictKind = "duplicate-command"
)

// DescriptorRef identifies a descriptor in the build input.
type DescriptorRef struct {
	Index      int    `json:"index"`
	Owner      string `json:"owner"`
	MethodName string `json:"method"`
}

func (r DescriptorRef) String() string {
	return fmt.Sprintf("%s.%s (#%d)", r.Owner, r.MethodName, r.Index)
}

// Conflict is a descriptor that was left out of the tree. Existing keeps the
// node, Duplicate is the descriptor that was omitted.
type Conflict struct {
	Kind      ConflictKind
	Path      []string
	Existing  DescriptorRef
	Duplicate DescriptorRef
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %q is defined by both %v and %v", c.Kind, strings.Join(c.Path, " "), c.Existing, c.Duplicate)
}

// ConflictError is returned by Build when one or more descriptors could not
// be attached. The tree returned alongside it is still usable.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 1 {
		return e.Conflicts[0].String()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d conflicting commands:", len(e.Conflicts))
	for _, c := range e.Conflicts {
		sb.WriteString("\n  ")
		sb.WriteString(c.String())
	}
	return sb.String()
}

// Build compiles descs into a command tree.
//
// Each descriptor is attached at its group path followed by its command
// name. Intermediate nodes are created on demand and keep the first
// description supplied for them. When two descriptors resolve to the same
// node the first one keeps it; the other is recorded as a Conflict and
// the returned error is a *ConflictError. The tree is returned in either
// case.
func Build(descs []descriptor.Method) (*Tree, error) {
	t := &Tree{Root: &Root{}}
	owners := make(map[*CommandMethod]DescriptorRef)
	for i := range descs {
		d := &descs[i]
		b, leaf, path := attachPoint(t.Root, d)
		ref := DescriptorRef{Index: i, Owner: d.Owner, MethodName: d.MethodName}
		if b.method != nil {
			t.Conflicts = append(t.Conflicts, Conflict{
				Kind:      DuplicateCommand,
				Path:      path,
				Existing:  owners[b.method],
				Duplicate: ref,
			})
			continue
		}
		b.method = newCommandMethod(d)
		owners[b.method] = ref
		if leaf != nil && !leaf.Description.IsSet() {
			leaf.Description = d.Description
		}
	}
	if len(t.Conflicts) > 0 {
		return t, &ConflictError{Conflicts: t.Conflicts}
	}
	return t, nil
}

// attachPoint walks (creating as needed) the nodes for d and returns the
// branch the method belongs on, with its path. leaf is the node named by
// the command name of d, or nil when d attaches to the end of its group
// path. The caller sets the leaf description once d owns the node.
func attachPoint(root *Root, d *descriptor.Method) (b *branch, leaf *SubCommand, path []string) {
	b = &root.branch
	descend := func(name string, desc opt.Value[string]) *SubCommand {
		c, ok := b.Child(name)
		if !ok {
			c = &SubCommand{Name: name}
			b.children = append(b.children, c)
		}
		if !c.Description.IsSet() && desc.IsSet() {
			c.Description = desc
		}
		path = append(path, name)
		b = &c.branch
		return c
	}
	for _, seg := range d.GroupPath {
		descend(seg.Name, seg.Description)
	}
	if name := CommandName(d); name != "" {
		leaf = descend(name, opt.Value[string]{})
	}
	return b, leaf, path
}
