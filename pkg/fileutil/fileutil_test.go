// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileReplaces(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "out.json")
	if err := os.WriteFile(name, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(name, []byte("new"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Fatalf("content = %q, want %q", got, "new")
	}
	fi, err := os.Stat(name)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", fi.Mode().Perm())
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(ents) != 1 {
		t.Fatalf("dir has %d entries, want 1 (temp file left behind?)", len(ents))
	}
}

func TestDigest(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	got, err := Digest(strings.NewReader("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("Digest = %q, want %q", got, want)
	}
}

func TestIdentical(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	c := filepath.Join(dir, "c")
	for name, content := range map[string]string{a: "same", b: "same", c: "different"} {
		if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	tests := []struct {
		x, y string
		want bool
	}{
		{a, b, true},
		{a, c, false},
		{a, filepath.Join(dir, "missing"), false},
	}
	for _, tt := range tests {
		got, err := Identical(tt.x, tt.y)
		if err != nil {
			t.Fatalf("Identical(%q, %q): %v", tt.x, tt.y, err)
		}
		if got != tt.want {
			t.Errorf("Identical(%q, %q) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}
