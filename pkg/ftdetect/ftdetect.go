// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ftdetect detects the format of manifest and compiled tree files.
package ftdetect

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type FileType int

const (
	Unknown FileType = iota
	JSON
	YAML
	TOML
	Zstd // compiled tree snapshot
)

func (ft FileType) String() string {
	switch ft {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	case TOML:
		return "toml"
	case Zstd:
		return "zstd"
	}
	return "unknown"
}

// Parse returns the FileType named s, as printed by String. It accepts "yml"
// for YAML.
func Parse(s string) (FileType, error) {
	switch strings.ToLower(s) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "toml":
		return TOML, nil
	case "zstd", "zst":
		return Zstd, nil
	}
	return Unknown, fmt.Errorf("unknown file type %q", s)
}

type file struct {
	f    io.ReadSeeker
	path string
}

// DetectFile reports the type of the file at path. Zstd content is detected
// by its magic number, then the file name is consulted, then the content is
// sniffed.
func DetectFile(path string) (FileType, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, fmt.Errorf("failed to open file: %v", err)
	}
	defer f.Close()
	return (&file{f: f, path: path}).detect()
}

// Detect is like DetectFile for content already in memory. name may be
// empty.
func Detect(name string, data []byte) (FileType, error) {
	return (&file{f: bytes.NewReader(data), path: name}).detect()
}

func (f *file) detect() (FileType, error) {
	if is, err := f.detectZstd(); err != nil {
		return Unknown, fmt.Errorf("failed to detect zstd: %w", err)
	} else if is {
		return Zstd, nil
	}
	if ft, ok := f.detectByName(); ok {
		return ft, nil
	}
	if is, err := f.detectJSON(); err != nil {
		return Unknown, fmt.Errorf("failed to detect JSON: %w", err)
	} else if is {
		return JSON, nil
	}
	if is, err := f.detectTOML(); err != nil {
		return Unknown, fmt.Errorf("failed to detect TOML: %w", err)
	} else if is {
		return TOML, nil
	}
	if is, err := f.detectYAML(); err != nil {
		return Unknown, fmt.Errorf("failed to detect YAML: %w", err)
	} else if is {
		return YAML, nil
	}
	return Unknown, fmt.Errorf("unable to detect file type")
}

func (f *file) detectByName() (FileType, bool) {
	if f.path == "" {
		return Unknown, false
	}

	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".json":
		return JSON, true
	case ".yml", ".yaml":
		return YAML, true
	case ".toml":
		return TOML, true
	case ".zst":
		return Zstd, true
	}
	return Unknown, false
}

func (f *file) checkAndSeek0() error {
	if f.f == nil {
		return fmt.Errorf("file is nil")
	}
	if _, err := f.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start of file: %w", err)
	}
	return nil
}

func (f *file) readAll() ([]byte, error) {
	if err := f.checkAndSeek0(); err != nil {
		return nil, err
	}
	bs, err := io.ReadAll(f.f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %v", err)
	}
	return bs, nil
}

func (f *file) detectZstd() (bool, error) {
	if err := f.checkAndSeek0(); err != nil {
		return false, err
	}
	var magic [4]byte
	n, err := io.ReadFull(f.f, magic[:])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, fmt.Errorf("failed to read file: %v", err)
	}
	if n < 4 || magic[0] != 0x28 || magic[1] != 0xb5 || magic[2] != 0x2f || magic[3] != 0xfd {
		return false, nil
	}
	return true, nil
}

// detectJSON checks that the first non-space byte opens a JSON object.
func (f *file) detectJSON() (bool, error) {
	bs, err := f.readAll()
	if err != nil {
		return false, err
	}
	bs = bytes.TrimSpace(bs)
	return len(bs) > 0 && bs[0] == '{', nil
}

// manifestForm is the part of a manifest that sniffing relies on.
type manifestForm struct {
	Commands []map[string]any `yaml:"commands" toml:"commands"`
}

// detectTOML checks for a [[commands]] table array.
func (f *file) detectTOML() (bool, error) {
	bs, err := f.readAll()
	if err != nil {
		return false, err
	}
	var m manifestForm
	if _, err := toml.Decode(string(bs), &m); err != nil {
		return false, nil
	}
	return len(m.Commands) > 0, nil
}

// detectYAML checks for a top-level commands key in a YAML file.
func (f *file) detectYAML() (bool, error) {
	bs, err := f.readAll()
	if err != nil {
		return false, err
	}
	var m manifestForm
	if err := yaml.Unmarshal(bs, &m); err != nil {
		return false, nil
	}
	return len(m.Commands) > 0, nil
}
