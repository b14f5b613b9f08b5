package lsp

import (
	"net/url"
	"path"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/jsvensson/docspace/internal/text"
	"github.com/jsvensson/docspace/internal/workspace"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const diagnosticSource = "docspace"

var (
	DiagError   = protocol.DiagnosticSeverityError
	DiagWarning = protocol.DiagnosticSeverityWarning
)

// diagnostics publishes syntax diagnostics for open documents. Its
// handlers run as workspace observers, so they are serialized on the
// workspace queue and published needs no lock.
type diagnostics struct {
	ws        *workspace.Workspace
	notifier  func() glsp.NotifyFunc
	log       commonlog.Logger
	published map[workspace.DocumentID][32]byte
}

func newDiagnostics(ws *workspace.Workspace, notifier func() glsp.NotifyFunc) *diagnostics {
	return &diagnostics{
		ws:        ws,
		notifier:  notifier,
		log:       commonlog.GetLogger("docspace.lsp.diagnostics"),
		published: make(map[workspace.DocumentID][32]byte),
	}
}

func (d *diagnostics) subscribe() {
	d.ws.Subscribe(workspace.DocumentOpened, d.refresh)
	d.ws.Subscribe(workspace.DocumentChanged, d.refresh)
	d.ws.Subscribe(workspace.DocumentRenamed, d.renamed)
	d.ws.Subscribe(workspace.DocumentClosed, d.closed)
}

// refresh publishes diagnostics for the text carried by ev. A document
// closed or renamed since is cleaned up by the event that follows.
func (d *diagnostics) refresh(ev workspace.Event) {
	doc := ev.Document
	uri := ev.ID.Name()

	cfg, err := d.ws.LoadConfig(uriDir(uri))
	if err != nil {
		d.log.Warningf("config for %s: %s", uri, err)
	} else if !cfg.Diagnostics {
		d.clear(ev.ID)
		return
	}

	sum := doc.Text().Checksum()
	if prev, ok := d.published[ev.ID]; ok && prev == sum {
		d.log.Debugf("%s unchanged at %s", uri, text.FormatChecksum(sum))
		return
	}
	d.published[ev.ID] = sum
	d.log.Debugf("analyzing %s at %s", uri, text.FormatChecksum(sum))
	d.publish(uri, Analyze(uri, doc.Text().String()))
}

func (d *diagnostics) renamed(ev workspace.Event) {
	d.clear(ev.OldID)
	d.refresh(ev)
}

func (d *diagnostics) closed(ev workspace.Event) {
	d.clear(ev.ID)
}

// clear withdraws anything published for id.
func (d *diagnostics) clear(id workspace.DocumentID) {
	if _, ok := d.published[id]; !ok {
		return
	}
	delete(d.published, id)
	d.publish(id.Name(), nil)
}

func (d *diagnostics) publish(uri string, diags []protocol.Diagnostic) {
	notify := d.notifier()
	if notify == nil {
		d.log.Debugf("no client to publish %d diagnostics for %s", len(diags), uri)
		return
	}
	if diags == nil {
		diags = []protocol.Diagnostic{}
	}
	notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uri),
		Diagnostics: diags,
	})
}

// Analyze parses content as HCL and returns its syntax diagnostics.
func Analyze(filename, content string) []protocol.Diagnostic {
	_, diags := hclsyntax.ParseConfig([]byte(content), filename, hcl.Pos{Line: 1, Column: 1})
	var out []protocol.Diagnostic
	for _, diag := range diags {
		out = append(out, hclDiagToLSP(diag))
	}
	return out
}

// hclPosToLSP converts an HCL position to an LSP position.
// HCL positions are 1-based; LSP positions are 0-based.
func hclPosToLSP(pos hcl.Pos) protocol.Position {
	return protocol.Position{
		Line:      uint32(max(pos.Line-1, 0)),
		Character: uint32(max(pos.Column-1, 0)),
	}
}

func hclRangeToLSP(r hcl.Range) protocol.Range {
	return protocol.Range{
		Start: hclPosToLSP(r.Start),
		End:   hclPosToLSP(r.End),
	}
}

func hclDiagToLSP(d *hcl.Diagnostic) protocol.Diagnostic {
	sev := DiagError
	if d.Severity == hcl.DiagWarning {
		sev = DiagWarning
	}

	diag := protocol.Diagnostic{
		Severity: &sev,
		Message:  d.Summary,
		Source:   strPtr(diagnosticSource),
	}
	if d.Detail != "" {
		diag.Message = d.Summary + ": " + d.Detail
	}
	if d.Subject != nil {
		diag.Range = hclRangeToLSP(*d.Subject)
	}
	return diag
}

// uriDir returns the directory holding the document named by uri. Names
// that are not URIs are treated as slash-separated paths.
func uriDir(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Path == "" {
		return path.Dir(uri)
	}
	if u.Scheme == "file" {
		return filepath.Dir(filepath.FromSlash(u.Path))
	}
	return path.Dir(u.Path)
}

func strPtr(s string) *string {
	return &s
}
