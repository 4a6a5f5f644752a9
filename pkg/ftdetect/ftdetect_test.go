// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ftdetect

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectFile(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		fileName string
		contents string
		want     FileType
	}{
		{
			name:     "yaml_by_ext",
			fileName: "git.yaml",
			contents: "{\"commands\": []}",
			want:     YAML,
		},
		{
			name:     "yml_by_ext",
			fileName: "git.yml",
			contents: "commands: []\n",
			want:     YAML,
		},
		{
			name:     "toml_by_ext",
			fileName: "git.toml",
			contents: "program = \"git\"\n",
			want:     TOML,
		},
		{
			name:     "json_by_ext",
			fileName: "git.json",
			contents: "",
			want:     JSON,
		},
		{
			name:     "json_by_content",
			fileName: "manifest",
			contents: "  {\"commands\": [{\"method\": \"Log\"}]}\n",
			want:     JSON,
		},
		{
			name:     "toml_by_content",
			fileName: "manifest",
			contents: "program = \"git\"\n\n[[commands]]\nmethod = \"Log\"\nowner = \"LogActions\"\n",
			want:     TOML,
		},
		{
			name:     "yaml_by_content",
			fileName: "manifest",
			contents: "program: git\ncommands:\n  - method: Log\n    owner: LogActions\n",
			want:     YAML,
		},
		{
			name:     "zstd_magic_beats_name",
			fileName: "git.json",
			contents: "\x28\xb5\x2f\xfd\x00\x00",
			want:     Zstd,
		},
		{
			name:     "zst_by_ext",
			fileName: "git.tree.zst",
			contents: "",
			want:     Zstd,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, tc.fileName)

			if err := os.WriteFile(path, []byte(tc.contents), 0o644); err != nil {
				t.Fatalf("write file: %v", err)
			}

			ft, err := DetectFile(path)
			if err != nil {
				t.Fatalf("DetectFile error: %v", err)
			}
			if ft != tc.want {
				t.Fatalf("DetectFile type mismatch: got %v want %v", ft, tc.want)
			}
		})
	}
}

func TestDetectUnknown(t *testing.T) {
	t.Parallel()

	for _, contents := range []string{"hello", "", "commands: not a list\n"} {
		ft, err := Detect("readme.txt", []byte(contents))
		if err == nil {
			t.Fatalf("Detect(%q): expected error, got nil (type %v)", contents, ft)
		}
		if ft != Unknown {
			t.Fatalf("Detect(%q): expected Unknown type, got %v", contents, ft)
		}
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	for _, ft := range []FileType{JSON, YAML, TOML, Zstd} {
		got, err := Parse(ft.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", ft, err)
		}
		if got != ft {
			t.Fatalf("Parse(%q) = %v, want %v", ft, got, ft)
		}
	}
	if got, _ := Parse("YML"); got != YAML {
		t.Fatalf("Parse(YML) = %v, want yaml", got)
	}
	if _, err := Parse("xml"); err == nil {
		t.Fatal("Parse(xml) succeeded")
	}
}
