package format

import (
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/jsvensson/docspace/internal/dirconfig"
)

var multipleBlankLines = regexp.MustCompile(`\n{3,}`)
var blankLineAfterOpenBrace = regexp.MustCompile(`\{\n\s*\n`)
var blankLineBeforeCloseBrace = regexp.MustCompile(`\n\s*\n(\s*\})`)
var trailingWhitespace = regexp.MustCompile(`(?m)[ \t]+$`)

// Format takes HCL source content and returns it formatted according to
// HCL canonical style rules, then applies opts from the directory config.
//
// The formatter works even on partial/invalid HCL, making it suitable
// for use while the user is still typing.
func Format(content string, opts dirconfig.FormatOptions) string {
	formatted := string(hclwrite.Format([]byte(content)))
	// Collapse multiple consecutive blank lines into a single blank line.
	formatted = multipleBlankLines.ReplaceAllString(formatted, "\n\n")
	formatted = blankLineAfterOpenBrace.ReplaceAllString(formatted, "{\n")
	formatted = blankLineBeforeCloseBrace.ReplaceAllString(formatted, "\n${1}")

	if opts.TrimTrailingWhitespace {
		formatted = trailingWhitespace.ReplaceAllString(formatted, "")
	}
	if opts.InsertFinalNewline && formatted != "" && !strings.HasSuffix(formatted, "\n") {
		formatted += "\n"
	}
	return formatted
}
