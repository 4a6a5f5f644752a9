// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdtree

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"tailscale.com/types/opt"
)

// The JSON form of a tree is what renderers and compiled tree files
// consume. Plans are written for readers but recompiled on decode.

type wireTree struct {
	Root      *wireNode      `json:"root"`
	Conflicts []wireConflict `json:"conflicts,omitempty"`
}

type wireNode struct {
	Name        string      `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Method      *wireMethod `json:"method,omitempty"`
	Children    []*wireNode `json:"children,omitempty"`
}

type wireMethod struct {
	Owner       string      `json:"owner"`
	Method      string      `json:"method"`
	Description *string     `json:"description,omitempty"`
	Parameters  []wireParam `json:"parameters,omitempty"`
	Plan        []wireStep  `json:"plan,omitempty"`
}

type wireParam struct {
	Kind        string  `json:"kind"`
	Name        string  `json:"name"`
	Type        string  `json:"type,omitempty"`
	Short       string  `json:"short,omitempty"`
	Default     *string `json:"default,omitempty"`
	Description *string `json:"description,omitempty"`
}

type wireStep struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

type wireConflict struct {
	Kind      ConflictKind  `json:"kind"`
	Path      []string      `json:"path"`
	Existing  DescriptorRef `json:"existing"`
	Duplicate DescriptorRef `json:"duplicate"`
}

func optPtr[T any](v opt.Value[T]) *T {
	if x, ok := v.GetOk(); ok {
		return &x
	}
	return nil
}

func ptrOpt[T any](p *T) opt.Value[T] {
	if p == nil {
		return opt.Value[T]{}
	}
	return opt.ValueOf(*p)
}

// MarshalJSON implements json.Marshaler.
func (t *Tree) MarshalJSON() ([]byte, error) {
	w := wireTree{Root: &wireNode{}}
	encodeBranch(w.Root, &t.Root.branch)
	for _, c := range t.Conflicts {
		w.Conflicts = append(w.Conflicts, wireConflict(c))
	}
	return json.Marshal(w)
}

func encodeBranch(w *wireNode, b *branch) {
	if m := b.method; m != nil {
		wm := &wireMethod{
			Owner:       m.Owner,
			Method:      m.MethodName,
			Description: optPtr(m.Description),
		}
		for _, p := range m.Parameters {
			wm.Parameters = append(wm.Parameters, encodeParam(p))
		}
		for _, s := range m.plan {
			wm.Plan = append(wm.Plan, wireStep{Name: s.Param.ParamName(), Rank: s.Rank})
		}
		w.Method = wm
	}
	for _, c := range b.children {
		wc := &wireNode{Name: c.Name, Description: optPtr(c.Description)}
		encodeBranch(wc, &c.branch)
		w.Children = append(w.Children, wc)
	}
}

func encodeParam(p Parameter) wireParam {
	wp := wireParam{
		Kind:        p.Kind().String(),
		Name:        p.ParamName(),
		Description: optPtr(p.ParamDescription()),
	}
	switch p := p.(type) {
	case Positional:
		wp.Type = p.Type
	case OptionalPositional:
		wp.Type = p.Type
		def := p.Default
		wp.Default = &def
	case Option:
		wp.Type = p.Type
		if r, ok := p.Short.GetOk(); ok {
			wp.Short = string(r)
		}
		wp.Default = optPtr(p.Default)
	case Flag:
		if r, ok := p.Short.GetOk(); ok {
			wp.Short = string(r)
		}
	}
	return wp
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tree) UnmarshalJSON(b []byte) error {
	var w wireTree
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	root := &Root{}
	if w.Root != nil {
		if w.Root.Name != "" {
			return fmt.Errorf("root node has a name (%q)", w.Root.Name)
		}
		if err := decodeBranch(&root.branch, w.Root, nil); err != nil {
			return err
		}
	}
	t.Root = root
	t.Conflicts = nil
	for _, c := range w.Conflicts {
		t.Conflicts = append(t.Conflicts, Conflict(c))
	}
	return nil
}

func decodeBranch(b *branch, w *wireNode, path []string) error {
	if w.Method != nil {
		m := &CommandMethod{
			Owner:       w.Method.Owner,
			MethodName:  w.Method.Method,
			Description: ptrOpt(w.Method.Description),
		}
		for _, wp := range w.Method.Parameters {
			p, err := decodeParam(wp)
			if err != nil {
				return fmt.Errorf("%v: %s: %w", path, m, err)
			}
			m.Parameters = append(m.Parameters, p)
		}
		m.plan = Compile(m)
		b.method = m
	}
	for _, wc := range w.Children {
		if wc == nil {
			continue
		}
		if wc.Name == "" {
			return fmt.Errorf("%v: child without a name", path)
		}
		if _, dup := b.Child(wc.Name); dup {
			return fmt.Errorf("%v: duplicate child %q", path, wc.Name)
		}
		c := &SubCommand{Name: wc.Name, Description: ptrOpt(wc.Description)}
		if err := decodeBranch(&c.branch, wc, append(path[:len(path):len(path)], wc.Name)); err != nil {
			return err
		}
		b.children = append(b.children, c)
	}
	return nil
}

func decodeParam(wp wireParam) (Parameter, error) {
	kind, err := parseKind(wp.Kind)
	if err != nil {
		return nil, err
	}
	var short opt.Value[rune]
	if wp.Short != "" {
		r, size := utf8.DecodeRuneInString(wp.Short)
		if size != len(wp.Short) {
			return nil, fmt.Errorf("parameter %q: short form %q is not a single character", wp.Name, wp.Short)
		}
		short = opt.ValueOf(r)
	}
	desc := ptrOpt(wp.Description)
	switch kind {
	case KindFlag:
		return Flag{Name: wp.Name, Short: short, Description: desc}, nil
	case KindOption:
		return Option{Name: wp.Name, Type: wp.Type, Short: short, Default: ptrOpt(wp.Default), Description: desc}, nil
	case KindOptionalPositional:
		return OptionalPositional{Name: wp.Name, Type: wp.Type, Default: ptrOpt(wp.Default).Get(), Description: desc}, nil
	default:
		return Positional{Name: wp.Name, Type: wp.Type, Description: desc}, nil
	}
}
