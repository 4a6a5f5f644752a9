// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/yeetrun/cmdr/pkg/cli"
	"github.com/yeetrun/cmdr/pkg/cmdtree"
	"github.com/yeetrun/cmdr/pkg/cmdutil"
	"github.com/yeetrun/cmdr/pkg/env"
	"github.com/yeetrun/cmdr/pkg/fileutil"
	"github.com/yeetrun/cmdr/pkg/help"
	"github.com/yeetrun/cmdr/pkg/match"
	"github.com/yeetrun/cmdr/pkg/treefile"
	"golang.org/x/sync/errgroup"
	"mvdan.cc/sh/v3/syntax"
)

type checkReport struct {
	path      string
	err       error
	commands  int
	conflicts []cmdtree.Conflict
	warnings  []cmdtree.Warning
}

func (r *checkReport) failed(strict bool) bool {
	return r.err != nil || len(r.conflicts) > 0 || (strict && len(r.warnings) > 0)
}

func (r *checkReport) write(w io.Writer) {
	if r.err != nil {
		fmt.Fprintf(w, "%s: invalid\n", r.path)
		for _, line := range strings.Split(r.err.Error(), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
		return
	}
	fmt.Fprintf(w, "%s: %d commands\n", r.path, r.commands)
	for _, c := range r.conflicts {
		fmt.Fprintf(w, "  conflict: %v\n", c)
	}
	for _, wn := range r.warnings {
		fmt.Fprintf(w, "  warning: %v\n", wn)
	}
}

func countMethods(t *cmdtree.Tree) int {
	n := 0
	t.Walk(func(_ []string, node cmdtree.Node) {
		if _, ok := node.Method(); ok {
			n++
		}
	})
	return n
}

func (a *app) handleCheck(ctx context.Context, args []string) error {
	flags, paths, err := cli.ParseCheck(args)
	if err != nil {
		return usageError(err)
	}
	if len(paths) == 0 {
		if a.cfg.Manifest == "" {
			return usageError(errNoManifest)
		}
		paths = []string{a.cfg.Manifest}
	}

	reports := make([]checkReport, len(paths))
	store := a.store()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := checkReport{path: path}
			p, err := a.loadFile(path, store)
			if err != nil {
				r.err = err
			} else {
				r.commands = countMethods(p.file.Tree)
				r.conflicts = p.file.Tree.Conflicts
				r.warnings = cmdtree.Lint(p.file.Tree)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for i := range reports {
		reports[i].write(a.stdout)
		if reports[i].failed(flags.Strict) {
			failed++
		}
	}
	if failed > 0 {
		return &exitError{code: 1, err: fmt.Errorf("%d of %d manifests failed", failed, len(paths))}
	}
	return nil
}

func (a *app) handleTree(_ context.Context, args []string) error {
	flags, rest, err := cli.ParseTree(args)
	if err != nil {
		return usageError(err)
	}
	if err := cli.RequireArgsAtMost("tree", rest, 0); err != nil {
		return usageError(err)
	}
	p, err := a.loadProgram()
	if err != nil {
		return err
	}
	if flags.JSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p.file.Tree)
	}
	return a.renderer(p).Tree(a.stdout, p.file.Tree)
}

func (a *app) handleCompile(_ context.Context, args []string) error {
	flags, rest, err := cli.ParseCompile(args)
	if err != nil {
		return usageError(err)
	}
	if err := cli.RequireArgsAtMost("compile", rest, 0); err != nil {
		return usageError(err)
	}
	p, err := a.loadProgram()
	if err != nil {
		return err
	}
	for _, c := range p.file.Tree.Conflicts {
		fmt.Fprintf(a.stderr, "warning: %v\n", c)
	}

	tmp := flags.Output + ".tmp"
	if err := treefile.WriteFile(tmp, p.file); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	defer os.Remove(tmp)
	if same, err := fileutil.Identical(tmp, flags.Output); err != nil {
		return err
	} else if same {
		fmt.Fprintf(a.stdout, "%s is up to date\n", flags.Output)
		return nil
	}
	if _, err := os.Stat(flags.Output); err == nil && !flags.Force {
		if !a.stdinTTY {
			return fmt.Errorf("%s exists; use --force to overwrite it", flags.Output)
		}
		ok, err := cmdutil.Confirm(a.stdin, a.stdout, fmt.Sprintf("Overwrite %s?", flags.Output))
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("aborted")
		}
	}
	if err := os.Rename(tmp, flags.Output); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Wrote %s\n", flags.Output)
	return nil
}

func (a *app) handleMatch(_ context.Context, args []string) error {
	flags, rest, err := cli.ParseMatch(args)
	if err != nil {
		return usageError(err)
	}
	if err := cli.RequireArgsAtMost("match", rest, 0); err != nil {
		return usageError(err)
	}
	p, err := a.loadProgram()
	if err != nil {
		return err
	}
	out := a.matcher(p).Match(p.file.Tree, a.passthrough)
	if flags.Format == cli.FormatJSON {
		return writeOutcomeJSON(a.stdout, out)
	}
	if d, ok := out.(*match.Dispatch); ok && flags.Format == cli.FormatEnv {
		return env.Write(a.stdout, d)
	}
	return writeOutcome(a.stdout, a.stderr, a.renderer(p), out)
}

// writeOutcome writes out as text. Help goes to stdout and diagnostics to
// stderr. It returns a silent error for outcomes that did not dispatch,
// except help that was asked for.
func writeOutcome(stdout, stderr io.Writer, r *help.Renderer, out match.Outcome) error {
	switch o := out.(type) {
	case *match.Dispatch:
		return writeDispatch(stdout, o)
	case *match.ShowHelp:
		if err := r.ShowHelp(stdout, o); err != nil {
			return err
		}
		if o.Unknown != "" {
			return silentExit(1)
		}
		return nil
	case *match.Diagnostic:
		if err := r.Diagnostic(stderr, o); err != nil {
			return err
		}
		return silentExit(1)
	}
	return fmt.Errorf("unexpected outcome %T", out)
}

func writeDispatch(w io.Writer, d *match.Dispatch) error {
	path := strings.Join(d.Path, " ")
	if path == "" {
		path = "(root)"
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "command\t%s\n", path)
	fmt.Fprintf(tw, "method\t%s.%s\n", d.Owner, d.Method)
	for _, b := range d.Ordered() {
		v := b.Raw
		if !b.Set {
			v = "(not set)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Name, v, b.Kind)
	}
	return tw.Flush()
}

// outcomeJSON is the envelope "cmdr match --format=json" writes.
type outcomeJSON struct {
	Kind       string            `json:"kind"`
	Dispatch   *match.Dispatch   `json:"dispatch,omitempty"`
	Help       *helpJSON         `json:"help,omitempty"`
	Diagnostic *match.Diagnostic `json:"diagnostic,omitempty"`
	Message    string            `json:"message,omitempty"`
}

type helpJSON struct {
	Path       []string `json:"path"`
	Unknown    string   `json:"unknown,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

func writeOutcomeJSON(w io.Writer, out match.Outcome) error {
	var v outcomeJSON
	var ret error
	switch o := out.(type) {
	case *match.Dispatch:
		v = outcomeJSON{Kind: "dispatch", Dispatch: o}
	case *match.ShowHelp:
		path := o.Path
		if path == nil {
			path = []string{}
		}
		v = outcomeJSON{Kind: "help", Help: &helpJSON{Path: path, Unknown: o.Unknown, Suggestion: o.Suggestion}}
		if o.Unknown != "" {
			ret = silentExit(1)
		}
	case *match.Diagnostic:
		v = outcomeJSON{Kind: "diagnostic", Diagnostic: o, Message: o.Error()}
		ret = silentExit(1)
	default:
		return fmt.Errorf("unexpected outcome %T", out)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return ret
}

func (a *app) handleUsage(_ context.Context, args []string) error {
	if len(args) > 0 && args[0] == "usage" {
		args = args[1:]
	}
	p, err := a.loadProgram()
	if err != nil {
		return err
	}
	n, ok := p.file.Tree.Lookup(args...)
	if !ok {
		return usageError(fmt.Errorf("%s has no command %q", p.name, strings.Join(args, " ")))
	}
	return a.renderer(p).Node(a.stdout, n, args)
}

func (a *app) handleExec(ctx context.Context, args []string) error {
	flags, rest, err := cli.ParseExec(args)
	if err != nil {
		return usageError(err)
	}
	if err := cli.RequireArgsAtMost("exec", rest, 0); err != nil {
		return usageError(err)
	}
	p, err := a.loadProgram()
	if err != nil {
		return err
	}
	out := a.matcher(p).Match(p.file.Tree, a.passthrough)
	d, ok := out.(*match.Dispatch)
	if !ok {
		return writeOutcome(a.stdout, a.stderr, a.renderer(p), out)
	}
	if flags.DryRun {
		if err := env.Write(a.stdout, d); err != nil {
			return err
		}
		owner, err := syntax.Quote(d.Owner, syntax.LangPOSIX)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(a.stdout, "%s %s\n", owner, d.Method)
		return err
	}
	a.logf("exec %s %s", d.Owner, d.Method)
	cmd := cmdutil.NewStdCmd(ctx, env.Environ(d), d.Owner, d.Method)
	if err := cmd.Run(); err != nil {
		code := cmdutil.ExitCode(err)
		if cmd.ProcessState != nil {
			return silentExit(code)
		}
		return fmt.Errorf("failed to run %s: %w", d.Owner, err)
	}
	return nil
}

func (a *app) handleCacheDir(_ context.Context, args []string) error {
	if err := cli.RequireArgsAtMost("cache dir", args[1:], 0); err != nil {
		return usageError(err)
	}
	if a.cfg.CacheDir == "" {
		return errors.New("no cache directory configured; set cache_dir in cmdr.toml or CMDR_CACHE_DIR")
	}
	_, err := fmt.Fprintln(a.stdout, a.cfg.CacheDir)
	return err
}

func (a *app) handleCachePrune(_ context.Context, args []string) error {
	flags, rest, err := cli.ParseCachePrune(args)
	if err != nil {
		return usageError(err)
	}
	if err := cli.RequireArgsAtMost("cache prune", rest, 0); err != nil {
		return usageError(err)
	}
	store := a.store()
	if store == nil {
		return errors.New("no cache directory configured; set cache_dir in cmdr.toml or CMDR_CACHE_DIR")
	}
	var keep []string
	if !flags.All && a.cfg.Manifest != "" {
		digest, err := fileutil.DigestFile(a.cfg.Manifest)
		if err != nil {
			return err
		}
		keep = append(keep, digest)
	}
	n, err := store.Prune(keep...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "Removed %d cached trees\n", n)
	return err
}
