// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command cmdr compiles method manifests into command trees and matches
// argument vectors against them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/shayne/yargs"
	"github.com/yeetrun/cmdr/pkg/cli"
	"golang.org/x/term"
	"tailscale.com/types/logger"
)

type globalFlagsParsed struct {
	Manifest string `flag:"manifest" short:"m" help:"Manifest or compiled tree to load (CMDR_MANIFEST)"`
	Verbose  bool   `flag:"verbose" short:"v" help:"Trace matching to stderr"`
	Color    string `flag:"color" help:"Color help output (auto|always|never)"`
}

// passthroughCommands forward the rest of the command line to the matcher.
var passthroughCommands = []string{"match", "exec"}

// exitError carries the exit status of a failed command. A silent error has
// already been reported to the user.
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: 2, err: err}
}

// silentExit reports a failure that was already written out.
func silentExit(code int) error {
	return &exitError{code: code, silent: true}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func printCLIError(w io.Writer, err error) {
	if err == nil {
		return
	}
	var ee *exitError
	if errors.As(err, &ee) && ee.silent {
		return
	}
	fmt.Fprintf(w, "%s %v\n", color.New(color.FgRed).Sprint("error:"), err)
}

// app holds the state shared by the subcommand handlers.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	wd     string

	// stdinTTY is set when stdin is a terminal.
	stdinTTY bool

	cfg         *Config
	passthrough []string
	logf        logger.Logf
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("cmdr: ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	a := &app{
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		getenv:   os.Getenv,
		wd:       wd,
		stdinTTY: term.IsTerminal(int(os.Stdin.Fd())),
	}
	err = a.run(ctx, os.Args[1:])
	stop()
	if err != nil {
		printCLIError(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	args, a.passthrough = splitCommandLine(args)
	globals, remaining, err := parseGlobalFlags(args)
	if err != nil {
		return usageError(err)
	}
	loc, err := loadConfig(a.wd)
	if err != nil {
		return err
	}
	cfg := loc.Config
	cfg.applyEnv(a.getenv)
	cfg.applyFlags(globals)
	if err := cfg.validate(); err != nil {
		return usageError(err)
	}
	a.cfg = cfg
	a.logf = logger.Discard
	if globals.Verbose {
		a.logf = log.Printf
	}
	if loc.Path != "" {
		a.logf("using %s", loc.Path)
	}

	helpConfig := cli.HelpConfig()
	remaining = yargs.ApplyAliases(remaining, helpConfig)

	// Keep the handlers aligned with the metadata in pkg/cli/cli.go.
	handlers := map[string]yargs.SubcommandHandler{
		"check":   a.handleCheck,
		"tree":    a.handleTree,
		"compile": a.handleCompile,
		"match":   a.handleMatch,
		"usage":   a.handleUsage,
		"exec":    a.handleExec,
		"repl":    a.handleRepl,
	}
	groups := map[string]yargs.Group{
		"cache": {
			Description: cli.GroupInfos()["cache"].Description,
			Commands: map[string]yargs.SubcommandHandler{
				"dir":   a.handleCacheDir,
				"prune": a.handleCachePrune,
			},
		},
	}
	return yargs.RunSubcommandsWithGroups(ctx, remaining, helpConfig, globalFlagsParsed{}, handlers, groups)
}

func parseGlobalFlags(args []string) (globalFlagsParsed, []string, error) {
	result, err := yargs.ParseKnownFlags[globalFlagsParsed](args, yargs.KnownFlagsOptions{})
	if err != nil {
		return globalFlagsParsed{}, nil, err
	}
	return result.Flags, result.RemainingArgs, nil
}

// splitCommandLine separates the argument vector that match and exec
// forward from the arguments cmdr parses itself. Everything else is
// returned unchanged.
func splitCommandLine(args []string) (own, passthrough []string) {
	globalSpecs := cli.FlagSpecsFromStruct(globalFlagsParsed{})
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return args, nil
		}
		if strings.HasPrefix(arg, "-") && arg != "-" {
			name, _, hasValue := strings.Cut(arg, "=")
			if spec, ok := globalSpecs[name]; ok && spec.ConsumesValue && !hasValue {
				i++
			}
			continue
		}
		if !slices.Contains(passthroughCommands, arg) {
			return args, nil
		}
		ownFlags, through := cli.SplitPassthrough(arg, args[i+1:])
		own = append(slices.Clone(args[:i+1]), ownFlags...)
		return own, through
	}
	return args, nil
}
