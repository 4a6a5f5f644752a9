// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yeetrun/cmdr/pkg/fileutil"
	"github.com/yeetrun/cmdr/pkg/ftdetect"
	"github.com/yeetrun/cmdr/pkg/help"
	"github.com/yeetrun/cmdr/pkg/manifest"
	"github.com/yeetrun/cmdr/pkg/match"
	"github.com/yeetrun/cmdr/pkg/treefile"
)

var errNoManifest = errors.New("no manifest given; use --manifest, CMDR_MANIFEST or a cmdr.toml")

// program is a loaded command tree with everything needed to match against
// it and render its help.
type program struct {
	path string
	file *treefile.File
	name string
}

func (a *app) store() *treefile.Store {
	if a.cfg.CacheDir == "" {
		return nil
	}
	return treefile.NewStore(a.cfg.CacheDir, a.logf)
}

// loadProgram loads the configured manifest.
func (a *app) loadProgram() (*program, error) {
	if a.cfg.Manifest == "" {
		return nil, errNoManifest
	}
	return a.loadFile(a.cfg.Manifest, a.store())
}

// loadFile loads the manifest or compiled tree at path. Manifests are
// compiled through store when it is not nil.
func (a *app) loadFile(path string, store *treefile.Store) (*program, error) {
	ft, err := ftdetect.DetectFile(path)
	if err != nil {
		return nil, err
	}
	var f *treefile.File
	if ft == ftdetect.Zstd {
		f, err = treefile.ReadFile(path)
	} else {
		f, err = compileManifest(path, store)
	}
	if err != nil {
		return nil, err
	}
	p := &program{path: path, file: f, name: a.cfg.Program}
	if p.name == "" {
		p.name = f.Program
	}
	if p.name == "" {
		p.name = programName(path)
	}
	a.logf("loaded %s (%s, digest %s)", path, ft, f.SourceDigest)
	return p, nil
}

func compileManifest(path string, store *treefile.Store) (*treefile.File, error) {
	digest, err := fileutil.DigestFile(path)
	if err != nil {
		return nil, err
	}
	compile := func() (*treefile.File, error) {
		m, err := manifest.Load(path)
		if err != nil {
			return nil, err
		}
		return treefile.Compile(m, digest)
	}
	if store == nil {
		return compile()
	}
	return store.GetOrCompile(digest, compile)
}

// programName derives a program name from a file name: "git.tree.zst" and
// "git.yaml" both give "git".
func programName(path string) string {
	base := filepath.Base(path)
	if name, _, ok := strings.Cut(base, "."); ok && name != "" {
		return name
	}
	return base
}

func (a *app) renderer(p *program) *help.Renderer {
	return &help.Renderer{
		Program:     p.name,
		Description: p.file.Description,
		Enums:       p.file.Registry(),
		Color:       a.cfg.useColor(stdoutFile(a.stdout), a.getenv),
	}
}

func (a *app) matcher(p *program) *match.Matcher {
	return &match.Matcher{
		Converter: p.file.Registry(),
		Logf:      a.logf,
	}
}

func stdoutFile(w io.Writer) *os.File {
	f, _ := w.(*os.File)
	return f
}
