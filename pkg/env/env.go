// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package env renders a dispatched method and its bound arguments as
// environment variables.
package env

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/yeetrun/cmdr/pkg/cmdtree"
	"github.com/yeetrun/cmdr/pkg/match"
	"mvdan.cc/sh/v3/syntax"
)

// Prefix starts every variable name.
const Prefix = "CMDR_"

// header is the part of a Dispatch that is not an argument.
type header struct {
	Owner  string `env:"CMDR_OWNER"`
	Method string `env:"CMDR_METHOD"`
	Path   string `env:"CMDR_PATH"` // space separated
}

// VarName returns the variable that holds the argument named param:
// "branchName" is CMDR_ARG_BRANCH_NAME.
func VarName(param string) string {
	name := strings.ToUpper(cmdtree.DeriveName(param))
	name = strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, name)
	return Prefix + "ARG_" + name
}

// Environ returns d as KEY=value pairs, in the form os/exec expects.
// Options that were not given are left out.
func Environ(d *match.Dispatch) []string {
	var out []string
	marshalEnv(d, func(k, v string) {
		out = append(out, k+"="+v)
	})
	return out
}

// Write writes d as shell assignments, one per line, quoted so that the
// output can be evaluated by a POSIX shell.
func Write(w io.Writer, d *match.Dispatch) error {
	var err error
	marshalEnv(d, func(k, v string) {
		if err != nil {
			return
		}
		var q string
		if q, err = syntax.Quote(v, syntax.LangPOSIX); err != nil {
			err = fmt.Errorf("failed to quote %s: %w", k, err)
			return
		}
		_, err = fmt.Fprintf(w, "%s=%s\n", k, q)
	})
	return err
}

func marshalEnv(d *match.Dispatch, emit func(k, v string)) {
	h := header{Owner: d.Owner, Method: d.Method, Path: strings.Join(d.Path, " ")}
	re := reflect.ValueOf(h)
	ret := re.Type()
	for i := 0; i < re.NumField(); i++ {
		field := re.Field(i)
		tag := ret.Field(i).Tag.Get("env")
		if tag == "" {
			continue
		}
		emit(tag, fmt.Sprint(field.Interface()))
	}
	for _, b := range d.Ordered() {
		if !b.Set {
			continue
		}
		emit(VarName(b.Name), b.Raw)
	}
}
