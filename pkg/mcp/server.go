package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/closetkit/closet/pkg/history"
	"github.com/closetkit/closet/pkg/models"
	"github.com/closetkit/closet/pkg/similarity"
)

// CacheReader is the read side of a response cache.
type CacheReader interface {
	Key() string
	Entries() []models.CacheEntry
	Latest() (models.CacheEntry, bool)
	AgeMinutes() (int, bool)
	IsFresh(maxAge time.Duration) bool
	Stats() models.CacheStats
}

// Settings tunes tool behavior.
type Settings struct {
	WindowDays int
	FreshFor   time.Duration
	Now        func() time.Time
	Logger     *slog.Logger
}

// Server is a minimal MCP server that communicates over stdio using JSON-RPC 2.0.
type Server struct {
	cache    CacheReader
	history  history.Store
	checker  *similarity.Checker
	settings Settings
	log      *slog.Logger
	version  string
}

// New creates a new MCP Server. cache and hist may be nil; their tools then
// report that they are not configured.
func New(cache CacheReader, hist history.Store, checker *similarity.Checker, settings Settings, version string) *Server {
	if checker == nil {
		checker = similarity.Default()
	}
	if settings.WindowDays <= 0 {
		settings.WindowDays = history.DefaultWindowDays
	}
	if settings.FreshFor <= 0 {
		settings.FreshFor = time.Hour
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	log := settings.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cache:    cache,
		history:  hist,
		checker:  checker,
		settings: settings,
		log:      log,
		version:  version,
	}
}

// Run reads JSON-RPC requests from r line-by-line and writes responses to w.
// It blocks until r is closed or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(w, *errorResponse(nil, CodeParseError, "parse error"))
			continue
		}

		resp := s.dispatch(ctx, &req)
		if resp == nil {
			// notification, no response
			continue
		}
		s.writeResponse(w, *resp)
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
	}
}

func (s *Server) handleInitialize(req *Request) *Response {
	return resultResponse(req.ID, InitializeResult{
		ProtocolVersion: "2024-11-05",
		ServerInfo:      ServerInfo{Name: "closet", Version: s.version},
		Capabilities:    map[string]any{"tools": map[string]any{}},
	})
}

func (s *Server) handleToolsList(req *Request) *Response {
	return resultResponse(req.ID, ToolsListResult{Tools: allTools})
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "invalid params")
	}

	handler, ok := toolHandlers[params.Name]
	if !ok {
		return resultResponse(req.ID, errorResult(fmt.Sprintf("unknown tool: %s", params.Name)))
	}

	return resultResponse(req.ID, handler(ctx, s, params.Arguments))
}

func (s *Server) writeResponse(w io.Writer, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("mcp: marshal error", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		s.log.Error("mcp: write error", "error", err)
	}
}
