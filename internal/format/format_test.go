package format

import (
	"testing"

	"github.com/jsvensson/docspace/internal/dirconfig"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		opts     dirconfig.FormatOptions
		expected string
	}{
		{
			name:     "spacing normalized",
			input:    `format   {   insert_final_newline   =   true   }`,
			expected: `format { insert_final_newline = true }`,
		},
		{
			name:     "attributes aligned",
			input:    "properties {\n  owner = \"docs\"\n  tier = 2\n}\n",
			expected: "properties {\n  owner = \"docs\"\n  tier  = 2\n}\n",
		},
		{
			name:     "empty content",
			input:    "",
			expected: "",
		},
		{
			name:     "multiple blank lines collapsed to one",
			input:    "diagnostics = true\n\n\n\nformat {}",
			expected: "diagnostics = true\n\nformat {}",
		},
		{
			name:     "blank lines inside braces removed",
			input:    "properties {\n\n  owner = \"docs\"\n\n}",
			expected: "properties {\n  owner = \"docs\"\n}",
		},
		{
			name:     "final newline inserted",
			input:    "diagnostics = false",
			opts:     dirconfig.FormatOptions{InsertFinalNewline: true},
			expected: "diagnostics = false\n",
		},
		{
			name:     "final newline not added to empty content",
			input:    "",
			opts:     dirconfig.FormatOptions{InsertFinalNewline: true},
			expected: "",
		},
		{
			name:     "trailing whitespace in comments trimmed",
			input:    "# owned by docs   \ndiagnostics = true\n",
			opts:     dirconfig.FormatOptions{TrimTrailingWhitespace: true},
			expected: "# owned by docs\ndiagnostics = true\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.input, tt.opts); got != tt.expected {
				t.Errorf("Format() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFormatInvalidHCL(t *testing.T) {
	// Incomplete input is still formatted rather than rejected.
	if got := Format(`properties { owner = "docs"`, dirconfig.FormatOptions{}); got == "" {
		t.Error("Format() dropped incomplete input")
	}
}
