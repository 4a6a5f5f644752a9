// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package treefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"tailscale.com/types/logger"
	"tailscale.com/util/mak"
)

// Store caches snapshots in a directory, keyed by the digest of the
// manifest they were compiled from.
type Store struct {
	dir  string
	logf logger.Logf

	mu  sync.Mutex // protects the following
	mem map[string]*File
}

// NewStore returns a Store in dir. The directory is created on first write.
func NewStore(dir string, logf logger.Logf) *Store {
	if logf == nil {
		logf = logger.Discard
	}
	return &Store{dir: dir, logf: logf}
}

func (s *Store) path(digest string) string {
	return filepath.Join(s.dir, digest+Ext)
}

// Get returns the snapshot for digest. A missing, unreadable or outdated
// snapshot is a miss.
func (s *Store) Get(digest string) (*File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(digest)
}

func (s *Store) getLocked(digest string) (*File, bool) {
	if f, ok := s.mem[digest]; ok {
		return f, true
	}
	f, err := ReadFile(s.path(digest))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logf("treefile: ignoring cached %s: %v", digest, err)
		}
		return nil, false
	}
	if f.SourceDigest != digest {
		s.logf("treefile: ignoring cached %s: digest is %q", digest, f.SourceDigest)
		return nil, false
	}
	mak.Set(&s.mem, digest, f)
	return f, true
}

// Put stores f under its SourceDigest.
func (s *Store) Put(f *File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(f)
}

func (s *Store) putLocked(f *File) error {
	if f.SourceDigest == "" {
		return fmt.Errorf("tree file has no source digest")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	if err := WriteFile(s.path(f.SourceDigest), f); err != nil {
		return err
	}
	mak.Set(&s.mem, f.SourceDigest, f)
	s.logf("treefile: cached %s", f.SourceDigest)
	return nil
}

// GetOrCompile returns the snapshot for digest, calling compile and storing
// its result on a miss.
func (s *Store) GetOrCompile(digest string, compile func() (*File, error)) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.getLocked(digest); ok {
		return f, nil
	}
	f, err := compile()
	if err != nil {
		return nil, err
	}
	f.SourceDigest = digest
	if err := s.putLocked(f); err != nil {
		return nil, fmt.Errorf("failed to cache tree: %w", err)
	}
	return f, nil
}

// Prune removes every cached snapshot whose digest is not in keep. It
// returns the number of files removed.
func (s *Store) Prune(keep ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ents, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range ents {
		digest, ok := strings.CutSuffix(e.Name(), Ext)
		if !ok || e.IsDir() || slices.Contains(keep, digest) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return n, err
		}
		delete(s.mem, digest)
		n++
	}
	return n, nil
}
