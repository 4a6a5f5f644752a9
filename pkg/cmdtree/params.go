// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdtree

import (
	"fmt"

	"github.com/yeetrun/cmdr/pkg/descriptor"
	"tailscale.com/types/opt"
)

// Kind is the matching role of a parameter.
type Kind int

const (
	KindFlag Kind = iota
	KindOption
	KindPositional
	KindOptionalPositional
)

func (k Kind) String() string {
	switch k {
	case KindFlag:
		return "flag"
	case KindOption:
		return "option"
	case KindPositional:
		return "positional"
	case KindOptionalPositional:
		return "optional-positional"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Rank is the evaluation rank of the kind in a matching plan. Lower ranks
// claim tokens first.
func (k Kind) Rank() int {
	switch k {
	case KindFlag:
		return 0
	case KindOption:
		return 1
	default:
		return 2
	}
}

func parseKind(s string) (Kind, error) {
	for k := KindFlag; k <= KindOptionalPositional; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown parameter kind %q", s)
}

// Parameter is a classified method parameter. It is one of Positional,
// OptionalPositional, Option or Flag.
type Parameter interface {
	ParamName() string
	ParamType() string
	ParamDescription() opt.Value[string]
	Kind() Kind

	isParameter()
}

// Positional is a mandatory positional parameter.
type Positional struct {
	Name        string
	Type        string
	Description opt.Value[string]
}

// OptionalPositional is a positional parameter that falls back to Default
// when no token is left for it.
type OptionalPositional struct {
	Name        string
	Type        string
	Default     string
	Description opt.Value[string]
}

// Option is a named parameter passed as "--name value" or "-s value".
type Option struct {
	Name        string
	Type        string
	Short       opt.Value[rune]
	Default     opt.Value[string]
	Description opt.Value[string]
}

// Flag is a boolean parameter that is true when "--name" or "-s" appears.
type Flag struct {
	Name        string
	Short       opt.Value[rune]
	Description opt.Value[string]
}

func (p Positional) ParamName() string                           { return p.Name }
func (p Positional) ParamType() string                           { return p.Type }
func (p Positional) ParamDescription() opt.Value[string]         { return p.Description }
func (Positional) Kind() Kind                                    { return KindPositional }
func (Positional) isParameter()                                  {}
func (p OptionalPositional) ParamName() string                   { return p.Name }
func (p OptionalPositional) ParamType() string                   { return p.Type }
func (p OptionalPositional) ParamDescription() opt.Value[string] { return p.Description }
func (OptionalPositional) Kind() Kind                            { return KindOptionalPositional }
func (OptionalPositional) isParameter()                          {}
func (p Option) ParamName() string                               { return p.Name }
func (p Option) ParamType() string                               { return p.Type }
func (p Option) ParamDescription() opt.Value[string]             { return p.Description }
func (Option) Kind() Kind                                        { return KindOption }
func (Option) isParameter()                                      {}
func (p Flag) ParamName() string                                 { return p.Name }
func (Flag) ParamType() string                                   { return "bool" }
func (p Flag) ParamDescription() opt.Value[string]               { return p.Description }
func (Flag) Kind() Kind                                          { return KindFlag }
func (Flag) isParameter()                                        {}

// Markers returns the tokens that select o: "--name" and, if o has a short
// form, "-s".
func (o Option) Markers() []string { return markers(o.Name, o.Short) }

// Markers returns the tokens that select f.
func (f Flag) Markers() []string { return markers(f.Name, f.Short) }

func markers(name string, short opt.Value[rune]) []string {
	m := []string{"--" + name}
	if r, ok := short.GetOk(); ok {
		m = append(m, "-"+string(r))
	}
	return m
}

// Classify maps an argument descriptor to its parameter variant.
//
// Boolean arguments are always flags. Non-boolean named arguments are
// options. Other arguments with a default are optional positionals, and
// the rest are mandatory positionals.
func Classify(a descriptor.Argument) Parameter {
	switch {
	case a.IsBool:
		return Flag{Name: a.Name, Short: a.Short, Description: a.Description}
	case a.Named:
		o := Option{Name: a.Name, Type: a.Type, Short: a.Short, Description: a.Description}
		if a.HasDefault {
			o.Default = a.Default
		}
		return o
	case a.HasDefault:
		return OptionalPositional{Name: a.Name, Type: a.Type, Default: a.Default.Get(), Description: a.Description}
	default:
		return Positional{Name: a.Name, Type: a.Type, Description: a.Description}
	}
}
