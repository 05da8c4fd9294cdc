// Package mcpserver exposes a Facade Handle's operations as MCP tools over
// stdio, for editor/agent integrations that want the File Index, Fuzzy
// Scorer, and Live-Grep Engine without a CLI subprocess round trip.
package mcpserver

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/fff/internal/facade"
	"github.com/standardbeagle/fff/internal/fflog"
)

// Server wraps a single Facade Handle behind the MCP tool protocol. It does
// not own the Handle's lifecycle — callers create the Handle, pass it in,
// and Destroy it themselves once the server stops.
type Server struct {
	handle *facade.Handle
	log    *fflog.Logger
	mcp    *mcp.Server
}

// New builds a Server around an already-initialized Handle and registers
// every tool. name/version populate the MCP Implementation metadata the
// protocol handshake reports to clients.
func New(handle *facade.Handle, name, version string, log *fflog.Logger) *Server {
	s := &Server{
		handle: handle,
		log:    log,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    name,
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Start runs the server over stdio until ctx is cancelled or the transport
// errors out.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("starting mcp server on stdio transport")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "search",
		Description: "Fuzzy-match file paths in the indexed repository and rank them by combined name/frecency/history score.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "Search text. A trailing :line, :line:col, or :line-line suffix is parsed as a location and stripped before matching.",
				},
				"current_file": {
					Type:        "string",
					Description: "Relative path of the file currently open in the caller, used to apply the current-file penalty.",
				},
				"page_index": {
					Type:        "integer",
					Description: "Zero-based result page index.",
				},
				"page_size": {
					Type:        "integer",
					Description: "Results per page.",
				},
			},
			Required: []string{"query"},
		},
	}, s.handleSearch)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "live_grep",
		Description: "Search file contents across the indexed repository in frecency-descending order. Query tokens like *.go or sub/dir restrict to matching extensions/paths; a leading ! inverts a token.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "Search text plus any embedded *.ext / path / !negated constraint tokens.",
				},
				"mode": {
					Type:        "string",
					Description: "One of literal, regex, fuzzy. Defaults to literal.",
				},
				"page_limit": {
					Type:        "integer",
					Description: "Maximum matches to return in this page.",
				},
				"cursor": {
					Type:        "string",
					Description: "Opaque cursor from a previous live_grep response's next_cursor, for pagination.",
				},
				"time_budget_ms": {
					Type:        "integer",
					Description: "Wall-clock budget in milliseconds before the search returns whatever it has found so far.",
				},
				"smart_case": {
					Type:        "boolean",
					Description: "When true (the default), matching is case-insensitive unless the query contains an uppercase letter. Set false to force case-sensitive matching.",
				},
			},
			Required: []string{"query"},
		},
	}, s.handleLiveGrep)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "scan_files",
		Description: "Trigger a fresh filesystem scan of the indexed base path. Returns immediately; poll scan_progress or call wait_for_scan to block until it completes.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleScanFiles)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "scan_progress",
		Description: "Report whether a scan is in flight, how many files have been scanned so far, and the last scan error if any.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleScanProgress)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "wait_for_scan",
		Description: "Block until the current scan completes or a timeout elapses.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"timeout_ms": {
					Type:        "integer",
					Description: "Milliseconds to wait; 0 waits indefinitely.",
				},
			},
		},
	}, s.handleWaitForScan)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "restart_index",
		Description: "Point the index at a new base path and start scanning it, discarding the previous path's index and VCS status cache.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"new_base_path": {
					Type:        "string",
					Description: "Absolute path of the directory to index from now on.",
				},
			},
			Required: []string{"new_base_path"},
		},
	}, s.handleRestartIndex)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "track_access",
		Description: "Record that a file was opened/viewed, bumping its frecency score.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"absolute_path": {
					Type:        "string",
					Description: "Absolute path of the file that was accessed.",
				},
			},
			Required: []string{"absolute_path"},
		},
	}, s.handleTrackAccess)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "track_query",
		Description: "Record a completed search query and the path the caller selected from its results, for future combo-boost scoring and history suggestions.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "The query text that was searched.",
				},
				"selected_path": {
					Type:        "string",
					Description: "Relative path the caller picked from the results.",
				},
			},
			Required: []string{"query", "selected_path"},
		},
	}, s.handleTrackQuery)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "historical_query",
		Description: "Retrieve a past query by how many queries back it was, offset 0 being the most recent. If the offset misses and typo is given, falls back to the history entry most similar to typo.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"offset": {
					Type:        "integer",
					Description: "0 is the most recent query, 1 the one before it, and so on.",
				},
				"typo": {
					Type:        "string",
					Description: "Optional near-miss fallback text; used only when the offset lookup doesn't find an entry.",
				},
			},
		},
	}, s.handleHistoricalQuery)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "refresh_vcs_status",
		Description: "Force a synchronous re-read of the working tree's VCS status (added/modified/deleted/untracked per file).",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleRefreshVCSStatus)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "health_check",
		Description: "Report server version, VCS library availability, and (when a handle is live) index generation and scan state.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"test_path": {
					Type:        "string",
					Description: "Optional path to probe for an enclosing VCS repository.",
				},
			},
		},
	}, s.handleHealthCheck)
}
