// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package treefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yeetrun/cmdr/pkg/cmdtree/cmdtreetest"
	"github.com/yeetrun/cmdr/pkg/codecutil"
	"github.com/yeetrun/cmdr/pkg/manifest"
	"github.com/yeetrun/cmdr/pkg/match"
)

func gitFile(t *testing.T) *File {
	t.Helper()
	return &File{
		FormatVersion: CurrentFormatVersion,
		Program:       "git",
		Description:   "A tiny git",
		SourceDigest:  "abc123",
		Enums:         map[string][]string{cmdtreetest.ColorModeType: cmdtreetest.ColorModes},
		Tree:          cmdtreetest.MustBuild(t, cmdtreetest.Git()),
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	bs, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(bs)
}

func TestRoundTrip(t *testing.T) {
	f := gitFile(t)
	name := filepath.Join(t.TempDir(), "git"+Ext)
	if err := WriteFile(name, f); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if diff := cmp.Diff(mustJSON(t, f), mustJSON(t, got)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	// The decoded tree matches like the compiled one.
	d, ok := (&match.Matcher{Converter: got.Registry()}).Match(got.Tree, []string{"config", "color", "NEVER"}).(*match.Dispatch)
	if !ok {
		t.Fatal("decoded tree did not dispatch")
	}
	if d.Values["mode"] != "never" {
		t.Fatalf("mode = %v, want never", d.Values["mode"])
	}
}

func TestDecodeVersionMismatch(t *testing.T) {
	bs, err := codecutil.ZstdCompressBytes([]byte(`{"FormatVersion": 99}`))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Decode(bytes.NewReader(bs))
	var ve *VersionError
	if !errors.As(err, &ve) || ve.Version != 99 {
		t.Fatalf("Decode error = %v, want VersionError 99", err)
	}
}

func TestDecodeRejectsPlainJSON(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte(`{"FormatVersion": 1}`))); err == nil {
		t.Fatal("Decode accepted uncompressed input")
	}
}

func TestStore(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, t.Logf)

	if _, ok := s.Get("abc123"); ok {
		t.Fatal("Get hit on an empty store")
	}

	calls := 0
	compile := func() (*File, error) {
		calls++
		f := gitFile(t)
		f.SourceDigest = ""
		return f, nil
	}
	f, err := s.GetOrCompile("abc123", compile)
	if err != nil {
		t.Fatalf("GetOrCompile: %v", err)
	}
	if f.SourceDigest != "abc123" {
		t.Fatalf("SourceDigest = %q, want abc123", f.SourceDigest)
	}
	if _, err := s.GetOrCompile("abc123", compile); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("compile called %d times, want 1", calls)
	}

	// A fresh store reads the snapshot from disk.
	s2 := NewStore(dir, t.Logf)
	got, ok := s2.Get("abc123")
	if !ok {
		t.Fatal("Get missed after Put")
	}
	if got.Program != "git" {
		t.Fatalf("Program = %q, want git", got.Program)
	}

	if err := s2.Put(&File{FormatVersion: CurrentFormatVersion, SourceDigest: "old", Tree: f.Tree}); err != nil {
		t.Fatal(err)
	}
	n, err := s2.Prune("abc123")
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("Prune removed %d files, want 1", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "old"+Ext)); !os.IsNotExist(err) {
		t.Fatalf("pruned snapshot still present: %v", err)
	}
	if _, ok := s2.Get("old"); ok {
		t.Fatal("Get hit on a pruned digest")
	}
}

func TestStoreIgnoresCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad"+Ext), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(dir, t.Logf)
	if _, ok := s.Get("bad"); ok {
		t.Fatal("Get hit on a corrupt snapshot")
	}
}

func TestPutRequiresDigest(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	f := gitFile(t)
	f.SourceDigest = ""
	if err := s.Put(f); err == nil {
		t.Fatal("Put accepted a file without a digest")
	}
}

func TestCompileKeepsConflicts(t *testing.T) {
	m := &manifest.Manifest{
		Version: manifest.CurrentVersion,
		Program: "tool",
		Commands: []manifest.Command{
			{Method: "Run", Owner: "A"},
			{Method: "Run", Owner: "B"},
		},
	}
	f, err := Compile(m, "d1")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(f.Tree.Conflicts) != 1 {
		t.Fatalf("Conflicts = %v, want 1", f.Tree.Conflicts)
	}
	if f.SourceDigest != "d1" || f.Program != "tool" || f.FormatVersion != CurrentFormatVersion {
		t.Fatalf("unexpected header %+v", f)
	}

	m.Commands[1].Owner = ""
	if _, err := Compile(m, "d2"); err == nil {
		t.Fatal("Compile accepted an invalid descriptor")
	}
}
