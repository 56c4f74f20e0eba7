// Package langserver exposes the engine's diagnostics over the
// Language Server Protocol: documents are parsed with the grammar
// registered for their file extension and fatal parse errors are
// published as diagnostics.
package langserver

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dhamidi/peg/input"
	"github.com/dhamidi/peg/parse"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "peg"

// Checker parses src and returns nil, or a *parse.Error describing
// the first fatal failure. json.Check is the canonical implementation.
type Checker func(src input.Source) error

// Server is an LSP server that turns parse errors into diagnostics.
type Server struct {
	checkers map[string]Checker // by file extension, e.g. ".json"
	handler  protocol.Handler
	server   *server.Server
	version  string
}

// NewServer returns a server with no grammars registered.
func NewServer(version string) *Server {
	s := &Server{
		checkers: make(map[string]Checker),
		version:  version,
	}

	s.handler = protocol.Handler{
		Initialize:            s.initialize,
		Initialized:           s.initialized,
		Shutdown:              s.shutdown,
		SetTrace:              s.setTrace,
		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,
		TextDocumentDidSave:   s.textDocumentDidSave,
	}

	s.server = server.NewServer(&s.handler, lsName, false)

	return s
}

// Register attaches a checker to a file extension (with leading dot).
func (s *Server) Register(ext string, c Checker) {
	s.checkers[ext] = c
}

// RunStdio serves LSP over stdin/stdout until the client disconnects.
func (s *Server) RunStdio() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.check(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	change := params.ContentChanges[len(params.ContentChanges)-1]
	if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
		s.check(ctx, params.TextDocument.URI, whole.Text)
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	// Clear any diagnostics we published for the document.
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		s.check(ctx, params.TextDocument.URI, *params.Text)
	}
	return nil
}

// check parses the document and publishes its diagnostics (or an
// empty list when it parses cleanly).
func (s *Server) check(ctx *glsp.Context, uri, text string) {
	path, err := uriToPath(uri)
	if err != nil {
		return
	}
	checker, ok := s.checkers[filepath.Ext(path)]
	if !ok {
		return
	}

	diagnostics := []protocol.Diagnostic{}
	if err := checker(input.NewString(path, text)); err != nil {
		diagnostics = append(diagnostics, toDiagnostic(err))
	}

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// toDiagnostic maps a parse error to an LSP diagnostic. Parse
// positions are 1-based, LSP positions 0-based.
func toDiagnostic(err error) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	source := lsName
	d := protocol.Diagnostic{
		Severity: &severity,
		Source:   &source,
		Message:  err.Error(),
	}

	var perr *parse.Error
	if errors.As(err, &perr) {
		pos := protocol.Position{
			Line:      uint32(perr.Line - 1),
			Character: uint32(perr.Column - 1),
		}
		d.Range = protocol.Range{Start: pos, End: pos}
		d.Message = perr.Message
	}
	return d
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
