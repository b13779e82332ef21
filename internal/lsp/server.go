// Package lsp implements the mdxsite language server: a JSON-RPC server
// that re-analyzes markdown documents as they are edited and publishes
// component authoring diagnostics back to the editor.
package lsp

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"git.home.luguber.info/inful/mdxsite/internal/components"
	"git.home.luguber.info/inful/mdxsite/internal/logfields"
)

// Server handles one editor connection. Document contents are tracked in
// full-sync mode, so every change notification carries the whole buffer and
// analysis never needs the filesystem.
type Server struct {
	reg *components.Registry
	log *slog.Logger

	conn *jsonrpc2.Conn

	mu   sync.Mutex
	docs map[lsp.DocumentURI]string
}

// NewServer returns a server resolving component names against reg. A nil
// registry uses the built-in component set.
func NewServer(reg *components.Registry, log *slog.Logger) *Server {
	if reg == nil {
		reg = components.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		reg:  reg,
		log:  log,
		docs: make(map[lsp.DocumentURI]string),
	}
}

// Handle dispatches one LSP request or notification. It is wired through
// jsonrpc2.HandlerWithError, so returned errors become JSON-RPC error
// responses.
func (s *Server) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	if s.conn == nil {
		s.conn = conn
	}
	s.log.Debug("request", slog.String("method", req.Method))

	switch req.Method {
	case "initialize":
		var params lsp.InitializeParams
		if req.Params != nil {
			if err := json.Unmarshal(*req.Params, &params); err != nil {
				return nil, err
			}
		}
		s.log.Info("initializing", slog.String("root", string(params.RootURI)))
		kind := lsp.TDSKFull
		return lsp.InitializeResult{
			Capabilities: lsp.ServerCapabilities{
				TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{Kind: &kind},
			},
		}, nil

	case "initialized":
		return nil, nil

	case "shutdown":
		s.log.Info("shutting down")
		return nil, nil

	case "exit":
		// Closing the connection lets main's DisconnectNotify fire and the
		// process exit normally.
		if s.conn != nil {
			_ = s.conn.Close()
		}
		return nil, nil

	case "textDocument/didOpen":
		var params lsp.DidOpenTextDocumentParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, err
		}
		s.setDoc(params.TextDocument.URI, params.TextDocument.Text)
		s.publish(ctx, params.TextDocument.URI, params.TextDocument.Text)
		return nil, nil

	case "textDocument/didChange":
		var params lsp.DidChangeTextDocumentParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, err
		}
		if len(params.ContentChanges) == 0 {
			return nil, nil
		}
		// Full sync: the last change carries the complete document.
		content := params.ContentChanges[len(params.ContentChanges)-1].Text
		s.setDoc(params.TextDocument.URI, content)
		s.publish(ctx, params.TextDocument.URI, content)
		return nil, nil

	case "textDocument/didSave":
		var params lsp.DidSaveTextDocumentParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, err
		}
		if content, ok := s.getDoc(params.TextDocument.URI); ok {
			s.publish(ctx, params.TextDocument.URI, content)
		}
		return nil, nil

	case "textDocument/didClose":
		var params lsp.DidCloseTextDocumentParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, err
		}
		s.dropDoc(params.TextDocument.URI)
		s.notifyDiagnostics(ctx, params.TextDocument.URI, []lsp.Diagnostic{})
		return nil, nil

	case "$/cancelRequest":
		// Analysis is synchronous and fast; there is nothing in flight to
		// cancel by the time the notification arrives.
		return nil, nil

	default:
		if req.Notif {
			return nil, nil
		}
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: "method not supported: " + req.Method,
		}
	}
}

func (s *Server) publish(ctx context.Context, uri lsp.DocumentURI, content string) {
	diags := Analyze([]byte(content), s.reg)
	s.log.Debug("publishing diagnostics",
		slog.String("uri", string(uri)),
		slog.Int("count", len(diags)))
	s.notifyDiagnostics(ctx, uri, diags)
}

func (s *Server) notifyDiagnostics(ctx context.Context, uri lsp.DocumentURI, diags []lsp.Diagnostic) {
	if s.conn == nil {
		return
	}
	params := lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: diags}
	if err := s.conn.Notify(ctx, "textDocument/publishDiagnostics", params); err != nil {
		s.log.Warn("publish diagnostics failed", logfields.Error(err))
	}
}

func (s *Server) setDoc(uri lsp.DocumentURI, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = content
}

func (s *Server) getDoc(uri lsp.DocumentURI) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.docs[uri]
	return content, ok
}

func (s *Server) dropDoc(uri lsp.DocumentURI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}
