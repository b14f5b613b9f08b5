package dirconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// FileName is the per-directory config file read by LoadDir.
const FileName = ".docspace.hcl"

// ConfigFile is the resolved configuration for one directory.
type ConfigFile struct {
	Directory   string            `yaml:"directory"`
	Path        string            `yaml:"path,omitempty"`
	Diagnostics bool              `yaml:"diagnostics"`
	Format      FormatOptions     `yaml:"format"`
	Properties  map[string]string `yaml:"properties,omitempty"`
}

// FormatOptions adjusts formatter output.
type FormatOptions struct {
	InsertFinalNewline     bool `yaml:"insert_final_newline"`
	TrimTrailingWhitespace bool `yaml:"trim_trailing_whitespace"`
}

// Loader computes the ConfigFile for a directory.
type Loader func(dir string) (*ConfigFile, error)

// fileSchema mirrors the HCL layout of FileName for gohcl decoding.
type fileSchema struct {
	Diagnostics *bool            `hcl:"diagnostics,optional"`
	Format      *formatBlock     `hcl:"format,block"`
	Properties  *propertiesBlock `hcl:"properties,block"`
}

type formatBlock struct {
	InsertFinalNewline     *bool `hcl:"insert_final_newline,optional"`
	TrimTrailingWhitespace *bool `hcl:"trim_trailing_whitespace,optional"`
}

// propertiesBlock holds free-form attributes, evaluated one by one.
type propertiesBlock struct {
	Entries hcl.Body `hcl:",remain"`
}

// Default returns the configuration used for a directory without a config file.
func Default(dir string) *ConfigFile {
	return &ConfigFile{
		Directory:   dir,
		Diagnostics: true,
		Properties:  map[string]string{},
	}
}

// LoadDir reads FileName from dir. A missing file yields Default(dir).
func LoadDir(dir string) (*ConfigFile, error) {
	path := filepath.Join(dir, FileName)
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(dir), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(dir, path, src)
}

// Parse decodes config source for dir. path is used in diagnostics only.
func Parse(dir, path string, src []byte) (*ConfigFile, error) {
	file, diags := hclsyntax.ParseConfig(src, path, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing HCL: %s", diags.Error())
	}

	ctx := buildEvalContext(dir)

	var schema fileSchema
	if diags := gohcl.DecodeBody(file.Body, ctx, &schema); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %s", path, diags.Error())
	}

	cfg := Default(dir)
	cfg.Path = path

	if schema.Diagnostics != nil {
		cfg.Diagnostics = *schema.Diagnostics
	}
	if f := schema.Format; f != nil {
		if f.InsertFinalNewline != nil {
			cfg.Format.InsertFinalNewline = *f.InsertFinalNewline
		}
		if f.TrimTrailingWhitespace != nil {
			cfg.Format.TrimTrailingWhitespace = *f.TrimTrailingWhitespace
		}
	}
	if schema.Properties != nil {
		if err := parseProperties(schema.Properties.Entries, ctx, cfg.Properties); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func buildEvalContext(dir string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"dir":  cty.StringVal(dir),
			"base": cty.StringVal(filepath.Base(dir)),
		},
	}
}

// parseProperties evaluates every attribute in body and stores its string form.
func parseProperties(body hcl.Body, ctx *hcl.EvalContext, dest map[string]string) error {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return fmt.Errorf("parsing properties: %s", diags.Error())
	}

	// Sort names so the first reported error is deterministic
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		val, diags := attrs[name].Expr.Value(ctx)
		if diags.HasErrors() {
			return fmt.Errorf("evaluating properties.%s: %s", name, diags.Error())
		}
		if val.IsNull() || !val.IsKnown() {
			return fmt.Errorf("properties.%s: value must be known and non-null", name)
		}
		str, err := convert.Convert(val, cty.String)
		if err != nil {
			return fmt.Errorf("properties.%s: %w", name, err)
		}
		dest[name] = str.AsString()
	}
	return nil
}
