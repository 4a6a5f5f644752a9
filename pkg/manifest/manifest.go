// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package manifest loads method descriptors from manifest files written in
// YAML, TOML or JSON.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/yeetrun/cmdr/pkg/convert"
	"github.com/yeetrun/cmdr/pkg/descriptor"
	"github.com/yeetrun/cmdr/pkg/ftdetect"
	"gopkg.in/yaml.v3"
	"tailscale.com/types/opt"
)

// CurrentVersion is the manifest format version this package reads and
// writes. A manifest without a version is read as CurrentVersion.
const CurrentVersion = 1

// Manifest is the file form of a program's method descriptors.
type Manifest struct {
	Version     int    `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	Program     string `json:"program,omitempty" yaml:"program,omitempty" toml:"program,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`

	// Groups maps a dotted group path to its description.
	Groups map[string]string `json:"groups,omitempty" yaml:"groups,omitempty" toml:"groups,omitempty"`

	// Enums maps an enumerated type identifier to its values.
	Enums map[string][]string `json:"enums,omitempty" yaml:"enums,omitempty" toml:"enums,omitempty"`

	Commands []Command `json:"commands" yaml:"commands" toml:"commands"`
}

// Command is one method descriptor.
type Command struct {
	Method string `json:"method" yaml:"method" toml:"method"`
	Owner  string `json:"owner" yaml:"owner" toml:"owner"`
	Group  string `json:"group,omitempty" yaml:"group,omitempty" toml:"group,omitempty"` // dotted

	// Name is the provided command name. Absent derives the name from
	// Method; empty attaches the method to its group.
	Name *string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`

	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Args        []Arg  `json:"args,omitempty" yaml:"args,omitempty" toml:"args,omitempty"`
}

// Arg is one argument of a Command.
type Arg struct {
	Name        string  `json:"name" yaml:"name" toml:"name"`
	Type        string  `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"` // "string" if empty
	Short       string  `json:"short,omitempty" yaml:"short,omitempty" toml:"short,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Default     *string `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`

	// Optional gives the argument a default without a literal.
	Optional bool `json:"optional,omitempty" yaml:"optional,omitempty" toml:"optional,omitempty"`

	Named bool `json:"named,omitempty" yaml:"named,omitempty" toml:"named,omitempty"`

	// Bool overrides whether the argument is a boolean flag. By default
	// arguments of type "bool" are.
	Bool *bool `json:"bool,omitempty" yaml:"bool,omitempty" toml:"bool,omitempty"`
}

// Load reads the manifest at path. The format is detected from the file
// name and content.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ft, err := ftdetect.Detect(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m, err := Parse(data, ft)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes data in format ft. Unknown keys are errors.
func Parse(data []byte, ft ftdetect.FileType) (*Manifest, error) {
	var m Manifest
	switch ft {
	case ftdetect.JSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode JSON manifest: %w", err)
		}
	case ftdetect.YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("empty YAML manifest")
			}
			return nil, fmt.Errorf("failed to decode YAML manifest: %w", err)
		}
	case ftdetect.TOML:
		md, err := toml.Decode(string(data), &m)
		if err != nil {
			return nil, fmt.Errorf("failed to decode TOML manifest: %w", err)
		}
		if un := md.Undecoded(); len(un) > 0 {
			keys := make([]string, len(un))
			for i, k := range un {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("failed to decode TOML manifest: unknown keys %s", strings.Join(keys, ", "))
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %v", ft)
	}
	if m.Version == 0 {
		m.Version = CurrentVersion
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported manifest version %d (want %d)", m.Version, CurrentVersion)
	}
	return &m, nil
}

// Marshal encodes m in format ft.
func Marshal(m *Manifest, ft ftdetect.FileType) ([]byte, error) {
	switch ft {
	case ftdetect.JSON:
		bs, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(bs, '\n'), nil
	case ftdetect.YAML:
		return yaml.Marshal(m)
	case ftdetect.TOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(m); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unsupported manifest format %v", ft)
}

// Descriptors converts the commands of m into method descriptors and
// validates them. Every invalid command is reported.
func (m *Manifest) Descriptors() ([]descriptor.Method, error) {
	descs := make([]descriptor.Method, len(m.Commands))
	var errs []error
	for i, c := range m.Commands {
		d, problems := m.descriptor(c)
		if err := d.Validate(); err != nil {
			var ve *descriptor.ValidationError
			if errors.As(err, &ve) {
				problems = append(problems, ve.Problems...)
			}
		}
		if len(problems) > 0 {
			errs = append(errs, &descriptor.ValidationError{Descriptor: d.String(), Index: i, Problems: problems})
		}
		descs[i] = d
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return descs, nil
}

func (m *Manifest) descriptor(c Command) (descriptor.Method, []string) {
	var problems []string
	d := descriptor.Method{
		MethodName:  c.Method,
		Owner:       c.Owner,
		GroupPath:   descriptor.SplitPath(c.Group),
		Description: optString(c.Description),
	}
	if c.Name != nil {
		d.ProvidedName = opt.ValueOf(*c.Name)
	}
	for i := range d.GroupPath {
		key := strings.Join(d.GroupNames()[:i+1], ".")
		if desc, ok := m.Groups[key]; ok {
			d.GroupPath[i].Description = optString(desc)
		}
	}
	for _, a := range c.Args {
		arg := descriptor.Argument{
			Name:        a.Name,
			Type:        a.Type,
			Named:       a.Named,
			HasDefault:  a.Default != nil || a.Optional,
			Description: optString(a.Description),
		}
		if arg.Type == "" {
			arg.Type = "string"
		}
		arg.IsBool = arg.Type == "bool"
		if a.Bool != nil {
			arg.IsBool = *a.Bool
		}
		if a.Default != nil {
			arg.Default = opt.ValueOf(*a.Default)
		}
		if a.Short != "" {
			if utf8.RuneCountInString(a.Short) != 1 {
				problems = append(problems, fmt.Sprintf("argument %q: short form %q is not a single character", a.Name, a.Short))
			} else {
				r, _ := utf8.DecodeRuneInString(a.Short)
				arg.Short = opt.ValueOf(r)
			}
		}
		d.Arguments = append(d.Arguments, arg)
	}
	return d, problems
}

func optString(s string) opt.Value[string] {
	if s == "" {
		return opt.Value[string]{}
	}
	return opt.ValueOf(s)
}

// Registry returns a conversion registry with the built-in types and the
// enumerated types of m.
func (m *Manifest) Registry() *convert.Registry {
	r := convert.New()
	r.RegisterEnums(m.Enums)
	return r
}

// EnumTypes returns the enumerated type identifiers of m, sorted.
func (m *Manifest) EnumTypes() []string {
	ids := make([]string, 0, len(m.Enums))
	for id := range m.Enums {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
