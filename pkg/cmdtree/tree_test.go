// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdtree_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yeetrun/cmdr/pkg/cmdtree"
	"github.com/yeetrun/cmdr/pkg/cmdtree/cmdtreetest"
	"github.com/yeetrun/cmdr/pkg/descriptor"
	"tailscale.com/types/opt"
)

func childNames(n cmdtree.Node) []string {
	var names []string
	for _, c := range n.Children() {
		names = append(names, c.Name)
	}
	return names
}

func TestBuildShape(t *testing.T) {
	tree := cmdtreetest.MustBuild(t, cmdtreetest.Git())

	want := []string{"checkout", "branch", "remote", "commit", "stash", "log", "config"}
	if diff := cmp.Diff(want, childNames(tree.Root)); diff != "" {
		t.Fatalf("root children mismatch (-want +got):\n%s", diff)
	}
	if _, ok := tree.Root.Method(); ok {
		t.Fatal("root has a method, want none")
	}

	branch, ok := tree.Lookup("branch")
	if !ok {
		t.Fatal("Lookup(branch) failed")
	}
	if got, want := childNames(branch), []string{"list", "delete"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("branch children = %q, want %q", got, want)
	}
	if _, ok := branch.Method(); ok {
		t.Fatal("branch has a method, want none")
	}

	// An empty provided name attaches the method to the group itself.
	checkout, _ := tree.Lookup("checkout")
	m, ok := checkout.Method()
	if !ok {
		t.Fatal("checkout has no method")
	}
	if m.MethodName != "CheckoutBranch" || m.Owner != "CheckoutActions" {
		t.Fatalf("checkout method = %v, want CheckoutActions.CheckoutBranch", m)
	}
	if len(checkout.Children()) != 0 {
		t.Fatalf("checkout children = %q, want none", childNames(checkout))
	}

	// stash has both a method and a child.
	stash, _ := tree.Lookup("stash")
	if _, ok := stash.Method(); !ok {
		t.Fatal("stash has no method")
	}
	if got := childNames(stash); !reflect.DeepEqual(got, []string{"pop"}) {
		t.Fatalf("stash children = %q, want [pop]", got)
	}
}

func TestBuildDescriptions(t *testing.T) {
	descs := []descriptor.Method{
		{MethodName: "Add", Owner: "A", GroupPath: []descriptor.PathItem{{Name: "remote"}}},
		{MethodName: "Remove", Owner: "A", GroupPath: []descriptor.PathItem{{Name: "remote", Description: opt.ValueOf("first")}}},
		{MethodName: "Rename", Owner: "A", GroupPath: []descriptor.PathItem{{Name: "remote", Description: opt.ValueOf("second")}}},
		{MethodName: "Show", Owner: "A", Description: opt.ValueOf("Show things")},
	}
	tree := cmdtreetest.MustBuild(t, descs)
	remote, _ := tree.Lookup("remote")
	if got := remote.(*cmdtree.SubCommand).Description.Get(); got != "first" {
		t.Fatalf("remote description = %q, want %q", got, "first")
	}
	show, _ := tree.Lookup("show")
	if got := show.(*cmdtree.SubCommand).Description.Get(); got != "Show things" {
		t.Fatalf("show description = %q, want %q", got, "Show things")
	}
}

func TestBuildDuplicateCommand(t *testing.T) {
	descs := []descriptor.Method{
		{MethodName: "Checkout", Owner: "A"},
		{MethodName: "Status", Owner: "A"},
		{MethodName: "DoCheckout", ProvidedName: opt.ValueOf("checkout"), Owner: "B"},
		{MethodName: "Checkout", Owner: "C"},
	}
	tree, err := cmdtree.Build(descs)
	if tree == nil {
		t.Fatal("Build returned a nil tree")
	}
	var ce *cmdtree.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("Build error = %v, want *ConflictError", err)
	}
	if len(ce.Conflicts) != 2 {
		t.Fatalf("got %d conflicts, want 2: %v", len(ce.Conflicts), err)
	}
	for i, wantDup := range []int{2, 3} {
		c := ce.Conflicts[i]
		if c.Kind != cmdtree.DuplicateCommand {
			t.Errorf("conflict %d kind = %q", i, c.Kind)
		}
		if !reflect.DeepEqual(c.Path, []string{"checkout"}) {
			t.Errorf("conflict %d path = %q, want [checkout]", i, c.Path)
		}
		if c.Existing.Index != 0 || c.Existing.Owner != "A" {
			t.Errorf("conflict %d existing = %v, want A.Checkout (#0)", i, c.Existing)
		}
		if c.Duplicate.Index != wantDup {
			t.Errorf("conflict %d duplicate = %v, want index %d", i, c.Duplicate, wantDup)
		}
	}
	if !strings.Contains(err.Error(), "2 conflicting commands") {
		t.Errorf("Error() = %q", err)
	}

	// The non-conflicting descriptors are still attached and the first
	// checkout keeps its slot.
	n, _ := tree.Lookup("checkout")
	if m, _ := n.Method(); m.Owner != "A" {
		t.Fatalf("checkout owner = %q, want A", m.Owner)
	}
	if _, ok := tree.Lookup("status"); !ok {
		t.Fatal("status missing from tree")
	}
}

func TestBuildDuplicateKeepsDescription(t *testing.T) {
	descs := []descriptor.Method{
		{MethodName: "Checkout", Owner: "G"},
		{MethodName: "Add", Owner: "G", Arguments: []descriptor.Argument{{Name: "remoteName", Type: "string"}}},
		{MethodName: "Add", Owner: "H", Description: opt.ValueOf("second add")},
	}
	tree, err := cmdtree.Build(descs)
	var ce *cmdtree.ConflictError
	if !errors.As(err, &ce) || len(ce.Conflicts) != 1 {
		t.Fatalf("Build error = %v, want one conflict", err)
	}
	n, ok := tree.Lookup("add")
	if !ok {
		t.Fatal("add missing from tree")
	}
	if m, _ := n.Method(); m.Owner != "G" {
		t.Fatalf("add owner = %q, want G", m.Owner)
	}
	if d := n.(*cmdtree.SubCommand).Description; d.IsSet() {
		t.Fatalf("add description = %q, want unset", d.Get())
	}

	// The first descriptor with a description still sets it.
	descs[1].Description = opt.ValueOf("first add")
	tree, _ = cmdtree.Build(descs)
	n, _ = tree.Lookup("add")
	if got := n.(*cmdtree.SubCommand).Description.Get(); got != "first add" {
		t.Fatalf("add description = %q, want %q", got, "first add")
	}
}

func TestBuildRootMethod(t *testing.T) {
	descs := []descriptor.Method{
		{MethodName: "Main", ProvidedName: opt.ValueOf(""), Owner: "Program", Arguments: []descriptor.Argument{{Name: "file", Type: "string"}}},
		{MethodName: "Version", Owner: "Program"},
	}
	tree := cmdtreetest.MustBuild(t, descs)
	m, ok := tree.Root.Method()
	if !ok || m.MethodName != "Main" {
		t.Fatalf("root method = %v, %v; want Program.Main", m, ok)
	}
	if got := childNames(tree.Root); !reflect.DeepEqual(got, []string{"version"}) {
		t.Fatalf("root children = %q", got)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a, errA := cmdtree.Build(cmdtreetest.Git())
	b, errB := cmdtree.Build(cmdtreetest.Git())
	if errA != nil || errB != nil {
		t.Fatalf("Build errors: %v, %v", errA, errB)
	}
	ja, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	jb, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(ja) != string(jb) {
		t.Fatalf("two builds of the same input differ:\n%s\n%s", ja, jb)
	}
}

func TestBuildDepthAndUniqueSiblings(t *testing.T) {
	// With every command named, the deepest node is one below the longest
	// group path.
	var descs []descriptor.Method
	maxGroup := 0
	for _, d := range cmdtreetest.Git() {
		if cmdtree.CommandName(&d) == "" {
			continue
		}
		descs = append(descs, d)
		maxGroup = max(maxGroup, len(d.GroupPath))
	}
	tree := cmdtreetest.MustBuild(t, descs)
	depth := 0
	tree.Walk(func(path []string, n cmdtree.Node) {
		depth = max(depth, len(path))
		seen := map[string]bool{}
		for _, c := range n.Children() {
			if seen[c.Name] {
				t.Errorf("%q has duplicate child %q", path, c.Name)
			}
			seen[c.Name] = true
		}
	})
	if depth != maxGroup+1 {
		t.Fatalf("tree depth = %d, want %d", depth, maxGroup+1)
	}
}

func TestMethodAccessors(t *testing.T) {
	tree := cmdtreetest.MustBuild(t, cmdtreetest.Git())
	n, _ := tree.Lookup("remote", "add")
	m, _ := n.Method()

	var mandatory []string
	for _, p := range m.MandatoryParameters() {
		mandatory = append(mandatory, p.Name)
	}
	if want := []string{"name", "url"}; !reflect.DeepEqual(mandatory, want) {
		t.Fatalf("MandatoryParameters() = %q, want %q", mandatory, want)
	}
	if opts := m.Options(); len(opts) != 1 || opts[0].Name != "track" {
		t.Fatalf("Options() = %+v, want [track]", opts)
	}
	if flags := m.Flags(); len(flags) != 1 || flags[0].Name != "fetch" {
		t.Fatalf("Flags() = %+v, want [fetch]", flags)
	}
	if _, ok := m.Parameter("url"); !ok {
		t.Fatal(`Parameter("url") not found`)
	}
	if _, ok := tree.Lookup("remote", "nope"); ok {
		t.Fatal("Lookup of a missing path succeeded")
	}
}

func TestPlanOrder(t *testing.T) {
	tree := cmdtreetest.MustBuild(t, cmdtreetest.Git())
	tests := []struct {
		path []string
		want []string
	}{
		{[]string{"checkout"}, []string{"force", "branchName"}},
		{[]string{"remote", "add"}, []string{"fetch", "track", "name", "url"}},
		{[]string{"branch", "list"}, []string{"all", "pattern"}},
		{[]string{"log"}, []string{"oneline", "count"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.path, "_"), func(t *testing.T) {
			n, _ := tree.Lookup(tt.path...)
			m, _ := n.Method()
			if diff := cmp.Diff(tt.want, m.Plan().Names()); diff != "" {
				t.Fatalf("plan mismatch (-want +got):\n%s", diff)
			}
			prev := -1
			for _, s := range m.Plan() {
				if s.Rank < prev {
					t.Fatalf("plan ranks not ascending: %+v", m.Plan())
				}
				prev = s.Rank
			}
		})
	}
}

func TestPlanKeepsDeclarationOrderWithinRank(t *testing.T) {
	m := &cmdtree.CommandMethod{
		Parameters: []cmdtree.Parameter{
			cmdtree.Positional{Name: "a"},
			cmdtree.Flag{Name: "x"},
			cmdtree.OptionalPositional{Name: "b"},
			cmdtree.Option{Name: "o1"},
			cmdtree.Positional{Name: "c"},
			cmdtree.Flag{Name: "y"},
			cmdtree.Option{Name: "o2"},
		},
	}
	want := []string{"x", "y", "o1", "o2", "a", "b", "c"}
	if diff := cmp.Diff(want, cmdtree.Compile(m).Names()); diff != "" {
		t.Fatalf("Compile mismatch (-want +got):\n%s", diff)
	}
}

func TestTreeJSONRoundTrip(t *testing.T) {
	descs := append(cmdtreetest.Git(), descriptor.Method{MethodName: "Log", Owner: "Other"})
	tree, err := cmdtree.Build(descs)
	if err == nil {
		t.Fatal("expected a conflict")
	}
	b, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back cmdtree.Tree
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	b2, err := json.Marshal(&back)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != string(b2) {
		t.Fatalf("round trip changed the tree:\n%s\n%s", b, b2)
	}
	if len(back.Conflicts) != 1 || back.Conflicts[0].Duplicate.Owner != "Other" {
		t.Fatalf("conflicts = %+v", back.Conflicts)
	}
	n, ok := back.Lookup("checkout")
	if !ok {
		t.Fatal("checkout missing after round trip")
	}
	m, _ := n.Method()
	f := m.Parameters[1].(cmdtree.Flag)
	if r := f.Short.Get(); r != 'f' {
		t.Fatalf("force short form = %q, want 'f'", r)
	}
}

func TestTreeJSONRejectsDuplicateChildren(t *testing.T) {
	in := `{"root":{"children":[{"name":"a"},{"name":"a"}]}}`
	var tree cmdtree.Tree
	if err := json.Unmarshal([]byte(in), &tree); err == nil {
		t.Fatal("Unmarshal accepted duplicate siblings")
	}
}

func TestLint(t *testing.T) {
	descs := append(cmdtreetest.Git(),
		descriptor.Method{
			MethodName: "Grep",
			Owner:      "G",
			Arguments: []descriptor.Argument{
				{Name: "help", Type: "bool", IsBool: true},
				{Name: "ignore", Type: "bool", IsBool: true, Short: opt.ValueOf('i')},
				{Name: "invert", Type: "string", Named: true, Short: opt.ValueOf('i')},
			},
		},
	)
	tree := cmdtreetest.MustBuild(t, descs)
	got := map[cmdtree.WarningCode][]string{}
	for _, w := range cmdtree.Lint(tree) {
		got[w.Code] = append(got[w.Code], strings.Join(w.Path, " "))
	}
	want := map[cmdtree.WarningCode][]string{
		cmdtree.ShadowedPositional: {"stash"},
		cmdtree.HelpMarkerShadow:   {"grep"},
		cmdtree.MarkerCollision:    {"grep"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Lint mismatch (-want +got):\n%s", diff)
	}
}
