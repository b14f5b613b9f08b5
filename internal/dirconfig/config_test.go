package dirconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleHCL = `
diagnostics = false

format {
  insert_final_newline     = true
  trim_trailing_whitespace = true
}

properties {
  owner   = "themes"
  scope   = "team-${base}"
  columns = 100
}
`

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "palettes")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, dir, sampleHCL)

	cfg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error: %v", err)
	}

	want := &ConfigFile{
		Directory:   dir,
		Path:        filepath.Join(dir, FileName),
		Diagnostics: false,
		Format: FormatOptions{
			InsertFinalNewline:     true,
			TrimTrailingWhitespace: true,
		},
		Properties: map[string]string{
			"owner":   "themes",
			"scope":   "team-palettes",
			"columns": "100",
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDir_Missing(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error: %v", err)
	}
	if diff := cmp.Diff(Default(dir), cfg); diff != "" {
		t.Errorf("expected defaults (-want +got):\n%s", diff)
	}
	if !cfg.Diagnostics {
		t.Error("diagnostics should default to true")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"syntax", `format {`, "parsing HCL"},
		{"unknown attribute", `colour = "red"`, "decoding"},
		{"wrong type", `diagnostics = "maybe"`, "decoding"},
		{"unknown variable", "properties {\n  x = palette.base\n}", "evaluating properties.x"},
		{"null property", "properties {\n  x = null\n}", "properties.x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("/tmp/x", "test.hcl", []byte(tt.src))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err, tt.wantErr)
			}
		})
	}
}
