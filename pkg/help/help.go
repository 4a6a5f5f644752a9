// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package help renders usage text for nodes of a command tree and for
// matching diagnostics.
package help

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/yeetrun/cmdr/pkg/cmdtree"
	"github.com/yeetrun/cmdr/pkg/match"
)

// EnumSource reports the values of enumerated types.
type EnumSource interface {
	EnumValues(typeID string) ([]string, bool)
}

// Renderer renders help text. The zero value renders plain text with no
// program name.
type Renderer struct {
	Program     string
	Description string // shown on the root node
	Enums       EnumSource
	Color       bool
}

const helpRow = "-h | --help"

func (r *Renderer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if r.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

type row struct {
	left, right string
}

// writeRows writes rows as two columns, the first padded to the longest
// entry plus two spaces.
func (r *Renderer) writeRows(sb *strings.Builder, title string, rows []row) {
	if len(rows) == 0 {
		return
	}
	width := 0
	for _, rw := range rows {
		width = max(width, len(rw.left))
	}
	desc := r.paint(color.FgGreen)
	fmt.Fprintf(sb, "%s\n", r.paint(color.Bold).Sprint(title))
	for _, rw := range rows {
		if rw.right == "" {
			fmt.Fprintf(sb, "  %s\n", rw.left)
			continue
		}
		fmt.Fprintf(sb, "  %-*s  %s\n", width, rw.left, desc.Sprint(rw.right))
	}
	sb.WriteString("\n")
}

func (r *Renderer) command(path []string) string {
	parts := make([]string, 0, len(path)+1)
	if r.Program != "" {
		parts = append(parts, r.Program)
	}
	return strings.Join(append(parts, path...), " ")
}

// Node writes help for n, which is reached by path.
func (r *Renderer) Node(w io.Writer, n cmdtree.Node, path []string) error {
	var sb strings.Builder
	method, hasMethod := n.Method()

	if r.Program != "" {
		fmt.Fprintf(&sb, "%s\n\n", r.paint(color.Bold).Sprint(r.Program))
	}
	if len(path) > 0 {
		fmt.Fprintf(&sb, "%s\n", strings.Join(path, " "))
	}
	if desc := r.nodeDescription(n); desc != "" {
		fmt.Fprintf(&sb, "  %s\n", r.paint(color.FgGreen).Sprint(desc))
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "%s\n", r.paint(color.Bold).Sprint("Usage:"))
	cmd := r.command(path)
	if hasMethod {
		fmt.Fprintf(&sb, "  %s\n", strings.TrimSpace(cmd+" "+r.InlineUsage(method)))
	}
	if len(n.Children()) > 0 {
		fmt.Fprintf(&sb, "  %s\n", strings.TrimSpace(cmd+" <command> [options]"))
	}
	sb.WriteString("\n")

	var args, opts []row
	if hasMethod {
		for _, p := range method.Parameters {
			rw := row{left: r.column(p), right: describe(p)}
			switch p.Kind() {
			case cmdtree.KindPositional, cmdtree.KindOptionalPositional:
				args = append(args, rw)
			default:
				opts = append(opts, rw)
			}
		}
	}
	opts = append(opts, row{left: helpRow, right: "Show help and usage information"})
	r.writeRows(&sb, "Arguments:", args)
	r.writeRows(&sb, "Options:", opts)

	var cmds []row
	for _, c := range n.Children() {
		left := c.Name
		if m, ok := c.Method(); ok {
			if u := r.InlineUsage(m); u != "" {
				left += " " + u
			}
		}
		cmds = append(cmds, row{left: left, right: r.nodeDescription(c)})
	}
	r.writeRows(&sb, "Commands:", cmds)

	_, err := io.WriteString(w, sb.String())
	return err
}

func (r *Renderer) nodeDescription(n cmdtree.Node) string {
	if m, ok := n.Method(); ok {
		if d, ok := m.Description.GetOk(); ok {
			return d
		}
	}
	switch n := n.(type) {
	case *cmdtree.SubCommand:
		return n.Description.Get()
	case *cmdtree.Root:
		return r.Description
	}
	return ""
}

func describe(p cmdtree.Parameter) string {
	d := p.ParamDescription().Get()
	var def string
	switch p := p.(type) {
	case cmdtree.OptionalPositional:
		def = p.Default
	case cmdtree.Option:
		def = p.Default.Get()
	}
	if def == "" {
		return d
	}
	return strings.TrimSpace(fmt.Sprintf("%s (default: %s)", d, def))
}

// valueName returns "<name>" or, for enumerated types, "<a|b|c>".
func (r *Renderer) valueName(p cmdtree.Parameter) string {
	if r.Enums != nil {
		if vs, ok := r.Enums.EnumValues(p.ParamType()); ok && len(vs) > 0 {
			return "<" + strings.Join(vs, "|") + ">"
		}
	}
	return "<" + p.ParamName() + ">"
}

func markerList(ms []string) string {
	// Markers are "--name" then "-s"; help lists the short form first.
	if len(ms) == 2 {
		return ms[1] + " | " + ms[0]
	}
	return ms[0]
}

// column is the first help column for p.
func (r *Renderer) column(p cmdtree.Parameter) string {
	switch p := p.(type) {
	case cmdtree.Positional:
		return r.valueName(p)
	case cmdtree.OptionalPositional:
		return "[" + r.valueName(p) + "]"
	case cmdtree.Option:
		return markerList(p.Markers()) + " " + r.valueName(p)
	case cmdtree.Flag:
		return markerList(p.Markers())
	}
	return p.ParamName()
}

// InlineUsage renders the parameters of m for a usage line, in declaration
// order.
func (r *Renderer) InlineUsage(m *cmdtree.CommandMethod) string {
	parts := make([]string, 0, len(m.Parameters))
	for _, p := range m.Parameters {
		switch p.(type) {
		case cmdtree.Positional, cmdtree.OptionalPositional:
			parts = append(parts, r.column(p))
		default:
			parts = append(parts, "["+r.column(p)+"]")
		}
	}
	return strings.Join(parts, " ")
}

// ShowHelp writes the help requested by h. When h names an unknown command,
// a line about it comes first.
func (r *Renderer) ShowHelp(w io.Writer, h *match.ShowHelp) error {
	if h.Unknown != "" {
		msg := fmt.Sprintf("unknown command: %s", h.Unknown)
		if h.Suggestion != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", h.Suggestion)
		}
		if _, err := fmt.Fprintf(w, "%s %s\n\n", r.paint(color.FgRed).Sprint("error:"), msg); err != nil {
			return err
		}
	}
	return r.Node(w, h.Node, h.Path)
}

// Diagnostic writes d as an error line followed by a pointer to the help of
// the command it happened in.
func (r *Renderer) Diagnostic(w io.Writer, d *match.Diagnostic) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %v\n", r.paint(color.FgRed).Sprint("error:"), d)
	if d.Suggestion != "" {
		fmt.Fprintf(&sb, "Did you mean %q?\n", d.Suggestion)
	}
	fmt.Fprintf(&sb, "Run '%s' for usage.\n", strings.TrimSpace(r.command(d.Path)+" --help"))
	_, err := io.WriteString(w, sb.String())
	return err
}
