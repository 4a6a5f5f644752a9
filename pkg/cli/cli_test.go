// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseCompile(t *testing.T) {
	flags, args, err := ParseCompile([]string{"compile", "-o", "git.tree.zst", "--force"})
	if err != nil {
		t.Fatalf("ParseCompile failed: %v", err)
	}
	if flags.Output != "git.tree.zst" {
		t.Errorf("Output = %q, want %q", flags.Output, "git.tree.zst")
	}
	if !flags.Force {
		t.Errorf("Force = false, want true")
	}
	if len(args) != 0 {
		t.Errorf("args = %q, want none", args)
	}

	if _, _, err := ParseCompile([]string{"compile"}); err == nil {
		t.Fatal("ParseCompile without --output succeeded")
	}
}

func TestParseMatchFormat(t *testing.T) {
	flags, _, err := ParseMatch([]string{"match"})
	if err != nil {
		t.Fatalf("ParseMatch failed: %v", err)
	}
	if flags.Format != FormatText {
		t.Errorf("default Format = %q, want %q", flags.Format, FormatText)
	}
	flags, _, err = ParseMatch([]string{"match", "--format=json"})
	if err != nil {
		t.Fatalf("ParseMatch failed: %v", err)
	}
	if flags.Format != FormatJSON {
		t.Errorf("Format = %q, want %q", flags.Format, FormatJSON)
	}
	if _, _, err := ParseMatch([]string{"match", "--format", "xml"}); err == nil {
		t.Fatal("ParseMatch accepted --format xml")
	}
}

func TestParseCheckArgs(t *testing.T) {
	flags, args, err := ParseCheck([]string{"check", "git.yaml", "--strict", "tool.toml"})
	if err != nil {
		t.Fatalf("ParseCheck failed: %v", err)
	}
	if !flags.Strict {
		t.Errorf("Strict = false, want true")
	}
	if got := strings.Join(args, " "); got != "git.yaml tool.toml" {
		t.Errorf("args = %q, want %q", got, "git.yaml tool.toml")
	}
}

func TestSplitPassthrough(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		args    []string
		own     []string
		through []string
	}{
		{
			name:    "double_dash",
			cmd:     "match",
			args:    []string{"--format", "json", "--", "log", "-h"},
			own:     []string{"--format", "json"},
			through: []string{"log", "-h"},
		},
		{
			name:    "first_positional",
			cmd:     "match",
			args:    []string{"--format=env", "log", "-n", "5"},
			own:     []string{"--format=env"},
			through: []string{"log", "-n", "5"},
		},
		{
			name:    "unknown_flag",
			cmd:     "exec",
			args:    []string{"-n", "--help"},
			own:     []string{"-n"},
			through: []string{"--help"},
		},
		{
			name:    "nothing_passed",
			cmd:     "exec",
			args:    []string{"--dry-run"},
			own:     []string{"--dry-run"},
			through: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			own, through := SplitPassthrough(tt.cmd, tt.args)
			if !reflect.DeepEqual(own, tt.own) {
				t.Errorf("own = %q, want %q", own, tt.own)
			}
			if !reflect.DeepEqual(through, tt.through) {
				t.Errorf("passthrough = %q, want %q", through, tt.through)
			}
		})
	}
}

func TestFlagSpecsFromStruct(t *testing.T) {
	specs := FlagSpecs("compile")
	want := map[string]FlagSpec{
		"--output": {ConsumesValue: true},
		"-o":       {ConsumesValue: true},
		"--force":  {},
		"-f":       {},
	}
	if !reflect.DeepEqual(specs, want) {
		t.Fatalf("FlagSpecs(compile) = %v, want %v", specs, want)
	}
}

func TestHelpConfig(t *testing.T) {
	cfg := HelpConfig()
	for _, name := range CommandNames() {
		if _, ok := cfg.SubCommands[name]; !ok {
			t.Errorf("HelpConfig has no %q", name)
		}
	}
	if _, ok := cfg.Groups["cache"].Commands["prune"]; !ok {
		t.Errorf("HelpConfig has no cache prune")
	}
	if cfg.Command.Name != "cmdr" {
		t.Errorf("Command.Name = %q", cfg.Command.Name)
	}
}
