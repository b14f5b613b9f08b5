package lsp

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/jsvensson/docspace/internal/format"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// endPosition returns the LSP position just past the last character of
// content. Characters are counted in UTF-16 code units.
func endPosition(content string) protocol.Position {
	line := strings.Count(content, "\n")
	last := content[strings.LastIndexByte(content, '\n')+1:]
	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(len(utf16.Encode([]rune(last)))),
	}
}

func (s *Server) textDocumentFormatting(ctx *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	s.remember(ctx)
	uri := string(params.TextDocument.URI)

	open, ok := s.docs.Get(uri)
	if !ok {
		return nil, nil
	}
	doc, ok := s.ws.Get(open.id)
	if !ok {
		return nil, nil
	}

	cfg, err := s.ws.LoadConfig(uriDir(uri))
	if err != nil {
		return nil, fmt.Errorf("formatting %s: %w", uri, err)
	}

	content := doc.Text().String()
	formatted := format.Format(content, cfg.Format)
	if formatted == content {
		return []protocol.TextEdit{}, nil
	}

	return []protocol.TextEdit{{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   endPosition(content),
		},
		NewText: formatted,
	}}, nil
}
