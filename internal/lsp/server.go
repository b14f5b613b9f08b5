package lsp

import (
	"context"
	"fmt"

	"github.com/jsvensson/docspace/internal/text"
	"github.com/jsvensson/docspace/internal/workspace"
	"github.com/sasha-s/go-deadlock"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

const serverName = "docspace-lsp"

// renameGlob selects the files whose renames the client reports. It covers
// the documents the server analyzes and the directory config files.
const renameGlob = "**/*.hcl"

type Server struct {
	handler protocol.Handler
	ws      *workspace.Workspace
	docs    *DocumentStore
	diags   *diagnostics
	version string
	log     commonlog.Logger

	mu     deadlock.Mutex
	notify glsp.NotifyFunc
}

// NewServer returns a server over a fresh workspace built with opts.
func NewServer(version string, opts ...workspace.Option) *Server {
	s := &Server{
		ws:      workspace.New(opts...),
		docs:    NewDocumentStore(),
		version: version,
		log:     commonlog.GetLogger("docspace.lsp"),
	}
	s.diags = newDiagnostics(s.ws, s.notifier)
	s.diags.subscribe()

	s.handler = protocol.Handler{
		Initialize:              s.initialize,
		Initialized:             s.initialized,
		Shutdown:                s.shutdown,
		SetTrace:                s.setTrace,
		TextDocumentDidOpen:     s.textDocumentDidOpen,
		TextDocumentDidChange:   s.textDocumentDidChange,
		TextDocumentDidClose:    s.textDocumentDidClose,
		TextDocumentFormatting:  s.textDocumentFormatting,
		WorkspaceDidRenameFiles: s.workspaceDidRenameFiles,
	}

	return s
}

// DetectDeadlocks turns go-deadlock's lock-order and stuck-lock reports on or
// off for the process. A report exits the process, so servers leave it off
// unless asked.
func DetectDeadlocks(enabled bool) {
	deadlock.Opts.Disable = !enabled
}

// Run serves over stdio. Logging must be configured by the caller.
func (s *Server) Run() error {
	srv := server.NewServer(&s.handler, serverName, false)
	return srv.RunStdio()
}

// Workspace returns the workspace behind the server.
func (s *Server) Workspace() *workspace.Workspace {
	return s.ws
}

// remember keeps the client's notify func for use off the request goroutine.
func (s *Server) remember(ctx *glsp.Context) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = ctx.Notify
}

func (s *Server) notifier() glsp.NotifyFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notify
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.remember(ctx)
	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.Workspace = &protocol.ServerCapabilitiesWorkspace{
		FileOperations: &protocol.ServerCapabilitiesWorkspaceFileOperations{
			DidRename: &protocol.FileOperationRegistrationOptions{
				Filters: []protocol.FileOperationFilter{{
					Pattern: protocol.FileOperationPattern{Glob: renameGlob},
				}},
			},
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return s.ws.Shutdown(context.Background())
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.remember(ctx)
	uri := string(params.TextDocument.URI)

	// A client may reopen without closing; start over from its text.
	if prev, ok := s.docs.Close(uri); ok {
		s.ws.Close(prev.id)
	}

	buf := text.NewBuffer(params.TextDocument.Text)
	id := workspace.NewDocumentID(uri)
	doc := s.ws.CreateDocument(id, params.TextDocument.LanguageID, buf.Current())

	s.docs.Open(uri, openDocument{id: id, buffer: buf})
	if err := s.ws.Open(doc, buf); err != nil {
		s.docs.Close(uri)
		return fmt.Errorf("opening %s: %w", uri, err)
	}
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.remember(ctx)
	uri := string(params.TextDocument.URI)

	doc, ok := s.docs.Get(uri)
	if !ok {
		s.log.Warningf("change for unopened document %s", uri)
		return nil
	}
	for _, change := range params.ContentChanges {
		if c, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			doc.buffer.Replace(c.Text)
		}
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.remember(ctx)
	if doc, ok := s.docs.Close(string(params.TextDocument.URI)); ok {
		s.ws.Close(doc.id)
	}
	return nil
}

func (s *Server) workspaceDidRenameFiles(ctx *glsp.Context, params *protocol.RenameFilesParams) error {
	s.remember(ctx)
	for _, f := range params.Files {
		newID := workspace.NewDocumentID(f.NewURI)
		prev, ok := s.docs.Rename(f.OldURI, f.NewURI, newID)
		if !ok {
			continue
		}
		if err := s.ws.Rename(prev.id, newID); err != nil {
			s.docs.Rename(f.NewURI, f.OldURI, prev.id)
			return fmt.Errorf("renaming %s: %w", f.OldURI, err)
		}
	}
	return nil
}
