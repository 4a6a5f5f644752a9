// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yeetrun/cmdr/pkg/cli"
	"github.com/yeetrun/cmdr/pkg/help"
	"github.com/yeetrun/cmdr/pkg/match"
	"golang.org/x/term"
	"mvdan.cc/sh/v3/shell"
)

// lineReader reads one line of input without its terminator.
type lineReader interface {
	ReadLine() (string, error)
}

type scannerReader struct {
	sc *bufio.Scanner
}

func (s scannerReader) ReadLine() (string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.sc.Text(), nil
}

func (a *app) handleRepl(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "repl" {
		args = args[1:]
	}
	if err := cli.RequireArgsAtMost("repl", args, 0); err != nil {
		return usageError(err)
	}
	p, err := a.loadProgram()
	if err != nil {
		return err
	}

	var in lineReader = scannerReader{bufio.NewScanner(a.stdin)}
	out := a.stdout
	if f, ok := a.stdin.(*os.File); ok && a.stdinTTY {
		fd := int(f.Fd())
		old, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("failed to put terminal in raw mode: %w", err)
		}
		defer term.Restore(fd, old)
		t := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{f, a.stdout}, p.name+"> ")
		in, out = t, t
	}
	return a.repl(ctx, in, out, p)
}

// repl matches every line read from in until EOF, "exit" or "quit".
func (a *app) repl(ctx context.Context, in lineReader, out io.Writer, p *program) error {
	r := a.renderer(p)
	m := a.matcher(p)
	for ctx.Err() == nil {
		line, err := in.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		argv, err := shell.Fields(line, a.getenv)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if err := replOutcome(out, r, m.Match(p.file.Tree, argv)); err != nil {
			return err
		}
	}
	return nil
}

// replOutcome writes out like "cmdr match" does, with diagnostics on the
// same stream. Only write errors are returned.
func replOutcome(w io.Writer, r *help.Renderer, out match.Outcome) error {
	err := writeOutcome(w, w, r, out)
	var ee *exitError
	if errors.As(err, &ee) && ee.silent {
		return nil
	}
	return err
}
