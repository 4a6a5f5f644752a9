// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cli holds the metadata and flag parsing of the cmdr command line.
package cli

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/shayne/yargs"
)

type FlagSpec struct {
	ConsumesValue bool
}

type CommandInfo struct {
	Name        string
	Description string
	Usage       string
	Examples    []string
	Hidden      bool
	Aliases     []string
}

type GroupInfo struct {
	Name        string
	Description string
	Commands    map[string]CommandInfo
	Hidden      bool
}

// Output formats of "cmdr match".
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatEnv  = "env"
)

type CheckFlags struct {
	Strict bool
}

type TreeFlags struct {
	JSON bool
}

type CompileFlags struct {
	Output string
	Force  bool
}

type MatchFlags struct {
	Format string
}

type ExecFlags struct {
	DryRun bool
}

type CachePruneFlags struct {
	All bool
}

type checkFlagsParsed struct {
	Strict bool `flag:"strict" help:"Treat lint warnings as errors"`
}

type treeFlagsParsed struct {
	JSON bool `flag:"json" help:"Print the compiled tree as JSON"`
}

type compileFlagsParsed struct {
	Output string `flag:"output" short:"o" help:"Snapshot file to write"`
	Force  bool   `flag:"force" short:"f" help:"Overwrite without asking"`
}

type matchFlagsParsed struct {
	Format string `flag:"format" default:"text" help:"Output format (text|json|env)"`
}

type execFlagsParsed struct {
	DryRun bool `flag:"dry-run" short:"n" help:"Print the command instead of running it"`
}

type cachePruneFlagsParsed struct {
	All bool `flag:"all" help:"Remove every cached tree"`
}

var commandInfos = map[string]CommandInfo{
	"check": {Name: "check", Description: "Compile manifests and report conflicts and lint warnings", Usage: "[MANIFEST...] [--strict]", Examples: []string{
		"cmdr check",
		"cmdr check git.yaml tool.toml --strict",
	}},
	"tree":    {Name: "tree", Description: "Print the compiled command tree", Usage: "[--json]"},
	"compile": {Name: "compile", Description: "Write a compiled tree snapshot", Usage: "-o FILE [--force]", Examples: []string{"cmdr -m git.yaml compile -o git.tree.zst"}},
	"match": {Name: "match", Description: "Match an argument vector and print the outcome", Usage: "[--format=text|json|env] -- ARGS...", Examples: []string{
		"cmdr match -- remote add origin https://example.com/repo.git",
		"cmdr match --format=json -- log -n 5",
		`eval "$(cmdr match --format=env -- checkout main)"`,
	}},
	"usage": {Name: "usage", Description: "Show help for a command of the manifest", Usage: "[PATH...]", Examples: []string{"cmdr usage remote add"}, Aliases: []string{"help-for"}},
	"exec": {Name: "exec", Description: "Match arguments and run the owner with the bound values in its environment", Usage: "[--dry-run] -- ARGS...", Examples: []string{
		"cmdr exec -- branch delete old-feature -D",
	}},
	"repl": {Name: "repl", Description: "Match lines typed at a prompt"},
}

var groupInfos = map[string]GroupInfo{
	"cache": {
		Name:        "cache",
		Description: "Manage cached compiled trees",
		Commands: map[string]CommandInfo{
			"dir":   {Name: "dir", Description: "Print the cache directory", Usage: "cache dir"},
			"prune": {Name: "prune", Description: "Remove cached trees of other manifest versions", Usage: "cache prune [--all]"},
		},
	},
}

var flagSpecs = map[string]map[string]FlagSpec{
	"check":   FlagSpecsFromStruct(checkFlagsParsed{}),
	"tree":    FlagSpecsFromStruct(treeFlagsParsed{}),
	"compile": FlagSpecsFromStruct(compileFlagsParsed{}),
	"match":   FlagSpecsFromStruct(matchFlagsParsed{}),
	"exec":    FlagSpecsFromStruct(execFlagsParsed{}),
	"prune":   FlagSpecsFromStruct(cachePruneFlagsParsed{}),
	"usage":   {},
	"repl":    {},
}

func CommandNames() []string {
	names := make([]string, 0, len(commandInfos))
	for name := range commandInfos {
		names = append(names, name)
	}
	return names
}

func CommandInfos() map[string]CommandInfo {
	return commandInfos
}

func GroupInfos() map[string]GroupInfo {
	return groupInfos
}

// FlagSpecs returns the flags of the named command, keyed by marker.
func FlagSpecs(name string) map[string]FlagSpec {
	return flagSpecs[name]
}

// HelpConfig returns the yargs help metadata of the cmdr binary.
func HelpConfig() yargs.HelpConfig {
	subcommands := make(map[string]yargs.SubCommandInfo, len(commandInfos))
	for name, info := range commandInfos {
		subcommands[name] = toSubCommandInfo(name, info)
	}
	groups := make(map[string]yargs.GroupInfo, len(groupInfos))
	for name, info := range groupInfos {
		commands := make(map[string]yargs.SubCommandInfo, len(info.Commands))
		for sub, cmd := range info.Commands {
			commands[sub] = toSubCommandInfo(cmd.Name, cmd)
		}
		groups[name] = yargs.GroupInfo{
			Name:        info.Name,
			Description: info.Description,
			Commands:    commands,
			Hidden:      info.Hidden,
		}
	}
	return yargs.HelpConfig{
		Command: yargs.CommandInfo{
			Name:        "cmdr",
			Description: "Compile method manifests into command trees and match arguments against them",
			Examples: []string{
				"cmdr -m git.yaml usage remote",
				"cmdr -m git.yaml match -- remote add origin https://example.com/repo.git",
			},
		},
		SubCommands: subcommands,
		Groups:      groups,
	}
}

func toSubCommandInfo(name string, info CommandInfo) yargs.SubCommandInfo {
	return yargs.SubCommandInfo{
		Name:        name,
		Description: info.Description,
		Usage:       info.Usage,
		Examples:    info.Examples,
		Hidden:      info.Hidden,
		Aliases:     info.Aliases,
	}
}

func ParseCheck(args []string) (CheckFlags, []string, error) {
	parsed, err := parseFlags[checkFlagsParsed]("check", args)
	if err != nil {
		return CheckFlags{}, nil, err
	}
	return CheckFlags{Strict: parsed.Flags.Strict}, parsed.Args, nil
}

func ParseTree(args []string) (TreeFlags, []string, error) {
	parsed, err := parseFlags[treeFlagsParsed]("tree", args)
	if err != nil {
		return TreeFlags{}, nil, err
	}
	return TreeFlags{JSON: parsed.Flags.JSON}, parsed.Args, nil
}

func ParseCompile(args []string) (CompileFlags, []string, error) {
	parsed, err := parseFlags[compileFlagsParsed]("compile", args)
	if err != nil {
		return CompileFlags{}, nil, err
	}
	flags := CompileFlags{
		Output: parsed.Flags.Output,
		Force:  parsed.Flags.Force,
	}
	if flags.Output == "" {
		return CompileFlags{}, nil, fmt.Errorf("'compile' requires --output")
	}
	return flags, parsed.Args, nil
}

func ParseMatch(args []string) (MatchFlags, []string, error) {
	parsed, err := parseFlags[matchFlagsParsed]("match", args)
	if err != nil {
		return MatchFlags{}, nil, err
	}
	switch parsed.Flags.Format {
	case FormatText, FormatJSON, FormatEnv:
	default:
		return MatchFlags{}, nil, fmt.Errorf("unknown format %q (want text, json or env)", parsed.Flags.Format)
	}
	return MatchFlags{Format: parsed.Flags.Format}, parsed.Args, nil
}

func ParseExec(args []string) (ExecFlags, []string, error) {
	parsed, err := parseFlags[execFlagsParsed]("exec", args)
	if err != nil {
		return ExecFlags{}, nil, err
	}
	return ExecFlags{DryRun: parsed.Flags.DryRun}, parsed.Args, nil
}

func ParseCachePrune(args []string) (CachePruneFlags, []string, error) {
	parsed, err := parseFlags[cachePruneFlagsParsed]("prune", args)
	if err != nil {
		return CachePruneFlags{}, nil, err
	}
	return CachePruneFlags{All: parsed.Flags.All}, parsed.Args, nil
}

type parsedFlags[T any] struct {
	Flags T
	Args  []string
}

// parseFlags parses the arguments of the command name. A leading name in
// args is dropped.
func parseFlags[T any](name string, args []string) (parsedFlags[T], error) {
	if len(args) > 0 && args[0] == name {
		args = args[1:]
	}
	parseArgs, extraArgs := SplitArgsAtDoubleDash(args)
	result, err := yargs.ParseFlags[T](parseArgs)
	if err != nil {
		return parsedFlags[T]{}, err
	}
	argsOut := append([]string{}, result.Args...)
	argsOut = append(argsOut, result.RemainingArgs...)
	argsOut = append(argsOut, extraArgs...)
	return parsedFlags[T]{Flags: result.Flags, Args: argsOut}, nil
}

// SplitArgsAtDoubleDash splits args at the first "--", which is dropped.
func SplitArgsAtDoubleDash(args []string) ([]string, []string) {
	for i, arg := range args {
		if arg == "--" {
			if i+1 < len(args) {
				return args[:i], args[i+1:]
			}
			return args[:i], nil
		}
	}
	return args, nil
}

// SplitPassthrough splits the arguments of a command that forwards an
// argument vector (match, exec). The leading flags known to the command stay
// with it; everything from the first other token on is passed through. A
// "--" also ends the command's flags and is dropped.
func SplitPassthrough(name string, args []string) (own, passthrough []string) {
	specs := flagSpecs[name]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return args[:i], args[i+1:]
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			return args[:i], args[i:]
		}
		flag, _, hasValue := strings.Cut(arg, "=")
		spec, ok := specs[flag]
		if !ok {
			return args[:i], args[i:]
		}
		if spec.ConsumesValue && !hasValue {
			i++
		}
	}
	return args, nil
}

// FlagSpecsFromStruct returns the markers of the yargs flag struct v.
func FlagSpecsFromStruct(v any) map[string]FlagSpec {
	specs := make(map[string]FlagSpec)
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return specs
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("flag")
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		spec := FlagSpec{ConsumesValue: consumesValue(field.Type)}
		specs["--"+name] = spec
		if short := field.Tag.Get("short"); short != "" {
			specs["-"+short] = spec
		}
	}
	return specs
}

func consumesValue(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() != reflect.Bool
}

func RequireArgsAtMost(subcmd string, args []string, count int) error {
	if len(args) > count {
		return fmt.Errorf("'%s' takes at most %d argument(s), got %d", subcmd, count, len(args))
	}
	return nil
}
