// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdtree

import (
	"strings"
	"unicode"

	"github.com/yeetrun/cmdr/pkg/descriptor"
)

// CommandName returns the name m is attached under: the provided name when
// one is set (possibly empty), otherwise the name derived from MethodName.
func CommandName(m *descriptor.Method) string {
	if name, ok := m.ProvidedName.GetOk(); ok {
		return name
	}
	return DeriveName(m.MethodName)
}

// DeriveName converts an identifier to a lower-case, hyphen-separated
// command name: "CheckoutBranch" becomes "checkout-branch", "HTTPServer"
// becomes "http-server" and "list_remotes" becomes "list-remotes". Digits
// stay attached to the word before them.
func DeriveName(ident string) string {
	return strings.Join(words(ident), "-")
}

func words(ident string) []string {
	var (
		out []string
		cur []rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	rs := []rune(ident)
	for i, r := range rs {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			// "someName" splits before N; "HTTPServer" splits before the S
			// that starts a capitalized word.
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return out
}
