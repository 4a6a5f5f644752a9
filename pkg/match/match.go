// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package match binds an argument vector to a method of a command tree.
//
// Matching runs in three phases. The command path is resolved by walking
// leading tokens that name children. The method's plan then claims tokens:
// flags first, then options with their values, then positionals. Any token
// left unclaimed is an error.
//
// Matching never mutates the tree and keeps no state between calls, so one
// tree may be matched from many goroutines at once.
package match

import (
	"slices"
	"strings"

	"github.com/yeetrun/cmdr/pkg/cmdtree"
	"tailscale.com/types/logger"
	"tailscale.com/util/mak"
)

// Converter turns a raw token into a value of the named type.
type Converter interface {
	Convert(typeID, raw string) (any, error)
}

// ConverterFunc adapts a function to a Converter.
type ConverterFunc func(typeID, raw string) (any, error)

func (f ConverterFunc) Convert(typeID, raw string) (any, error) { return f(typeID, raw) }

// Matcher matches argument vectors. The zero value binds raw strings only
// and logs nothing.
type Matcher struct {
	// Converter, if non-nil, converts every bound value and fills
	// Dispatch.Values.
	Converter Converter

	// Logf, if non-nil, receives a trace of each match.
	Logf logger.Logf
}

// Match matches args against t with a zero Matcher.
func Match(t *cmdtree.Tree, args []string) Outcome {
	var m Matcher
	return m.Match(t, args)
}

// Match matches args against t.
func (m *Matcher) Match(t *cmdtree.Tree, args []string) Outcome {
	logf := m.Logf
	if logf == nil {
		logf = logger.Discard
	}

	var node cmdtree.Node = t.Root
	cursor := 0
	for cursor < len(args) {
		c, ok := node.Child(args[cursor])
		if !ok {
			break
		}
		node = c
		cursor++
	}
	path := slices.Clone(args[:cursor])
	rest := args[cursor:]
	logf("match: path %q, remaining %q", path, rest)

	if slices.ContainsFunc(rest, cmdtree.IsHelpMarker) {
		logf("match: help requested")
		return &ShowHelp{Node: node, Path: path}
	}

	method, ok := node.Method()
	if !ok {
		if len(node.Children()) > 0 {
			h := &ShowHelp{Node: node, Path: path}
			if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
				h.Unknown = rest[0]
				h.Suggestion = suggest(node, rest[0])
			}
			logf("match: %q is a group, showing help", path)
			return h
		}
		logf("match: no method at %q", path)
		return &Diagnostic{Kind: UnknownCommand, Path: path, Tokens: slices.Clone(rest)}
	}

	b := &binder{
		args:    args,
		claimed: make([]bool, len(args)),
		conv:    m.Converter,
		logf:    logf,
	}
	for i := range cursor {
		b.claimed[i] = true
	}
	d := &Dispatch{
		Owner:         method.Owner,
		Method:        method.MethodName,
		Path:          path,
		Bound:         map[string]string{},
		CommandMethod: method,
	}
	for _, s := range method.Plan() {
		if diag := b.bind(d, s.Param); diag != nil {
			diag.Path = path
			logf("match: %v", diag)
			return diag
		}
	}

	var left []string
	for i, tok := range args {
		if !b.claimed[i] {
			left = append(left, tok)
		}
	}
	if len(left) > 0 {
		logf("match: unclaimed %q", left)
		return &Diagnostic{
			Kind:       UnrecognizedArguments,
			Path:       path,
			Tokens:     left,
			Suggestion: suggestMarker(method, left),
		}
	}
	logf("match: dispatch %s with %v", method, d.Bound)
	return d
}

type binder struct {
	args    []string
	claimed []bool
	conv    Converter
	logf    logger.Logf
}

// find returns the index of the first unclaimed token for which ok is true.
func (b *binder) find(ok func(string) bool) int {
	for i, tok := range b.args {
		if !b.claimed[i] && ok(tok) {
			return i
		}
	}
	return -1
}

func (b *binder) claim(i int) {
	b.claimed[i] = true
	b.logf("match: claimed %d %q", i, b.args[i])
}

func isValueToken(tok string) bool {
	return !strings.HasPrefix(tok, "-")
}

func (b *binder) bind(d *Dispatch, p cmdtree.Parameter) *Diagnostic {
	switch p := p.(type) {
	case cmdtree.Flag:
		ms := p.Markers()
		i := b.find(func(tok string) bool { return slices.Contains(ms, tok) })
		if i < 0 {
			b.set(d, p, "false", false)
			return nil
		}
		b.claim(i)
		b.set(d, p, "true", true)
		return nil

	case cmdtree.Option:
		ms := p.Markers()
		i := b.find(func(tok string) bool { return slices.Contains(ms, tok) })
		if i < 0 {
			return nil
		}
		v := i + 1
		if v >= len(b.args) || b.claimed[v] || !isValueToken(b.args[v]) {
			return &Diagnostic{Kind: MissingOptionValue, Parameter: p.Name, Tokens: []string{b.args[i]}}
		}
		b.claim(i)
		b.claim(v)
		return b.convert(d, p, b.args[v])

	case cmdtree.Positional:
		i := b.find(isValueToken)
		if i < 0 {
			return &Diagnostic{Kind: MissingPositional, Parameter: p.Name}
		}
		b.claim(i)
		return b.convert(d, p, b.args[i])

	case cmdtree.OptionalPositional:
		i := b.find(isValueToken)
		if i < 0 {
			if p.Default == "" {
				b.set(d, p, "", nil)
				return nil
			}
			return b.convert(d, p, p.Default)
		}
		b.claim(i)
		return b.convert(d, p, b.args[i])
	}
	return nil
}

func (b *binder) convert(d *Dispatch, p cmdtree.Parameter, raw string) *Diagnostic {
	if b.conv == nil {
		b.set(d, p, raw, nil)
		return nil
	}
	v, err := b.conv.Convert(p.ParamType(), raw)
	if err != nil {
		return &Diagnostic{Kind: ConversionFailed, Parameter: p.ParamName(), Tokens: []string{raw}, Err: err}
	}
	b.set(d, p, raw, v)
	return nil
}

func (b *binder) set(d *Dispatch, p cmdtree.Parameter, raw string, v any) {
	d.Bound[p.ParamName()] = raw
	if b.conv != nil {
		mak.Set(&d.Values, p.ParamName(), v)
	}
}
