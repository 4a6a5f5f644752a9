// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package treefile reads and writes compiled command tree snapshots. A
// snapshot is zstd compressed JSON.
package treefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/yeetrun/cmdr/pkg/cmdtree"
	"github.com/yeetrun/cmdr/pkg/codecutil"
	"github.com/yeetrun/cmdr/pkg/convert"
	"github.com/yeetrun/cmdr/pkg/fileutil"
	"github.com/yeetrun/cmdr/pkg/manifest"
)

// CurrentFormatVersion is the snapshot format this package writes.
const CurrentFormatVersion = 1

// Ext is the file name extension of snapshots.
const Ext = ".tree.zst"

// maxDecodedSize is the largest decompressed snapshot ReadFile accepts.
const maxDecodedSize = 64 << 20

// File is a compiled tree snapshot.
type File struct {
	FormatVersion int

	Program     string `json:",omitempty"`
	Description string `json:",omitempty"`

	// SourceDigest is the hex sha256 of the manifest the tree was compiled
	// from.
	SourceDigest string `json:",omitempty"`

	Enums map[string][]string `json:",omitempty"`

	Tree *cmdtree.Tree
}

// VersionError is returned when a snapshot has a format version this
// package does not read.
type VersionError struct {
	Version int
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("unsupported tree file version %d (want %d)", e.Version, CurrentFormatVersion)
}

// Compile builds the tree for m. Build conflicts do not fail compilation;
// they are kept in the returned tree.
func Compile(m *manifest.Manifest, digest string) (*File, error) {
	descs, err := m.Descriptors()
	if err != nil {
		return nil, err
	}
	t, err := cmdtree.Build(descs)
	var ce *cmdtree.ConflictError
	if err != nil && !errors.As(err, &ce) {
		return nil, err
	}
	return &File{
		FormatVersion: CurrentFormatVersion,
		Program:       m.Program,
		Description:   m.Description,
		SourceDigest:  digest,
		Enums:         m.Enums,
		Tree:          t,
	}, nil
}

// Registry returns a conversion registry with the built-in types and the
// enumerated types of f.
func (f *File) Registry() *convert.Registry {
	r := convert.New()
	r.RegisterEnums(f.Enums)
	return r
}

// Encode writes f to w.
func Encode(w io.Writer, f *File) error {
	bs, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode tree file: %w", err)
	}
	return codecutil.ZstdCompress(w, bytes.NewReader(bs))
}

// Decode reads a snapshot from r.
func Decode(r io.Reader) (*File, error) {
	var buf bytes.Buffer
	if err := codecutil.ZstdDecompress(&buf, r, maxDecodedSize); err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(buf.Bytes(), &f); err != nil {
		return nil, fmt.Errorf("failed to decode tree file: %w", err)
	}
	if f.FormatVersion != CurrentFormatVersion {
		return nil, &VersionError{Version: f.FormatVersion}
	}
	if f.Tree == nil {
		return nil, fmt.Errorf("tree file has no tree")
	}
	return &f, nil
}

// ReadFile reads the snapshot at name.
func ReadFile(name string) (*File, error) {
	fd, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	f, err := Decode(fd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// WriteFile writes f to name, replacing it atomically.
func WriteFile(name string, f *File) error {
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return err
	}
	return fileutil.WriteFile(name, buf.Bytes(), 0o644)
}
