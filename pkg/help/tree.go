// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package help

import (
	"fmt"
	"io"
	"strings"

	"github.com/yeetrun/cmdr/pkg/cmdtree"
)

// Tree writes an indented outline of t for debugging. Nodes that carry a
// method are marked with "*", and build conflicts are listed at the end.
func (r *Renderer) Tree(w io.Writer, t *cmdtree.Tree) error {
	var sb strings.Builder
	t.Walk(func(path []string, n cmdtree.Node) {
		name := r.Program
		if len(path) > 0 {
			name = path[len(path)-1]
		} else if name == "" {
			name = "(root)"
		}
		mark := ""
		if m, ok := n.Method(); ok {
			mark = " * " + m.String()
		}
		fmt.Fprintf(&sb, "%s%s%s\n", strings.Repeat("  ", len(path)), name, mark)
	})
	sb.WriteString("\n* has a method\n")
	for _, c := range t.Conflicts {
		fmt.Fprintf(&sb, "conflict: %v\n", c)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
