// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package match

import (
	"fmt"
	"strings"

	"github.com/yeetrun/cmdr/pkg/cmdtree"
)

// Outcome is the result of matching an argument vector. It is one of
// *Dispatch, *ShowHelp or *Diagnostic.
type Outcome interface {
	isOutcome()
}

func (*Dispatch) isOutcome()   {}
func (*ShowHelp) isOutcome()   {}
func (*Diagnostic) isOutcome() {}

// Dispatch means the arguments bound to a method.
type Dispatch struct {
	Owner  string   `json:"owner"`
	Method string   `json:"method"`
	Path   []string `json:"path"`

	// Bound holds the raw string bound to each parameter. Flags are "true"
	// or "false". Options that were not given are absent. Optional
	// positionals that were not given hold their default literal.
	Bound map[string]string `json:"bound"`

	// Values holds converted values, keyed like Bound. It is nil when the
	// matcher has no Converter.
	Values map[string]any `json:"values,omitempty"`

	CommandMethod *cmdtree.CommandMethod `json:"-"`
}

// Binding is one parameter of a Dispatch.
type Binding struct {
	Name  string
	Kind  cmdtree.Kind
	Raw   string
	Value any
	Set   bool // false for options that were not given
}

// Ordered returns the bindings of d in parameter declaration order, which
// is the order a host passes them to the method.
func (d *Dispatch) Ordered() []Binding {
	if d.CommandMethod == nil {
		return nil
	}
	bs := make([]Binding, 0, len(d.CommandMethod.Parameters))
	for _, p := range d.CommandMethod.Parameters {
		raw, ok := d.Bound[p.ParamName()]
		bs = append(bs, Binding{
			Name:  p.ParamName(),
			Kind:  p.Kind(),
			Raw:   raw,
			Value: d.Values[p.ParamName()],
			Set:   ok,
		})
	}
	return bs
}

// ShowHelp means the host should render help for Node.
type ShowHelp struct {
	Node cmdtree.Node
	Path []string

	// Unknown is the first token after Path when it looked like a command
	// name but matched no child. Suggestion is the closest child name, if
	// any is close.
	Unknown    string
	Suggestion string
}

// DiagnosticKind classifies a matching failure.
type DiagnosticKind string

const (
	UnknownCommand        DiagnosticKind = "unknown-command"
	MissingOptionValue    DiagnosticKind = "missing-option-value"
	MissingPositional     DiagnosticKind = "missing-positional"
	ConversionFailed      DiagnosticKind = "conversion-failed"
	UnrecognizedArguments DiagnosticKind = "unrecognized-arguments"
)

// Diagnostic means the arguments could not be bound. It implements error.
type Diagnostic struct {
	Kind      DiagnosticKind `json:"kind"`
	Path      []string       `json:"path"`
	Parameter string         `json:"parameter,omitempty"`
	Tokens    []string       `json:"tokens,omitempty"`

	// Suggestion is a known marker close to an unrecognized one.
	Suggestion string `json:"suggestion,omitempty"`

	Err error `json:"-"`
}

func (d *Diagnostic) Error() string {
	switch d.Kind {
	case UnknownCommand:
		if len(d.Tokens) > 0 {
			return fmt.Sprintf("unknown command: %s", d.Tokens[0])
		}
		return "no command given"
	case MissingOptionValue:
		return fmt.Sprintf("missing value for option %q", d.marker())
	case MissingPositional:
		return fmt.Sprintf("missing value for argument %q", d.Parameter)
	case ConversionFailed:
		return fmt.Sprintf("argument %q: %v", d.Parameter, d.Err)
	case UnrecognizedArguments:
		return fmt.Sprintf("unrecognized arguments: %s", strings.Join(d.Tokens, ", "))
	}
	return string(d.Kind)
}

func (d *Diagnostic) Unwrap() error {
	return d.Err
}

func (d *Diagnostic) marker() string {
	if len(d.Tokens) > 0 {
		return d.Tokens[0]
	}
	return "--" + d.Parameter
}
