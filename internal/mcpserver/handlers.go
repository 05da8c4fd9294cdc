package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/fff/internal/facade"
	"github.com/standardbeagle/fff/internal/grep"
)

type searchArgs struct {
	Query       string `json:"query"`
	CurrentFile string `json:"current_file"`
	PageIndex   int    `json:"page_index"`
	// PageSize is a pointer so an omitted field (nil) and an explicit 0 are
	// distinguishable — see facade.SearchOptions.PageSize.
	PageSize *int `json:"page_size"`
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args searchArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult("search", err)
	}

	res, err := s.handle.Search(args.Query, facade.SearchOptions{
		CurrentFile: args.CurrentFile,
		PageIndex:   args.PageIndex,
		PageSize:    args.PageSize,
	})
	if err != nil {
		return errorResult("search", err)
	}
	return jsonResult(res)
}

type liveGrepArgs struct {
	Query        string `json:"query"`
	Mode         string `json:"mode"`
	PageLimit    int    `json:"page_limit"`
	Cursor       string `json:"cursor"`
	TimeBudgetMs int64  `json:"time_budget_ms"`
	SmartCase    *bool  `json:"smart_case"`
}

func (s *Server) handleLiveGrep(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args liveGrepArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult("live_grep", err)
	}

	opts := grep.DefaultOptions()
	if args.Mode != "" {
		opts.Mode = grep.Mode(args.Mode)
	}
	if args.PageLimit > 0 {
		opts.PageLimit = args.PageLimit
	}
	opts.Cursor = args.Cursor
	opts.TimeBudgetMs = args.TimeBudgetMs
	if args.SmartCase != nil {
		opts.SmartCase = *args.SmartCase
	}

	res, err := s.handle.LiveGrep(args.Query, opts)
	if err != nil {
		return errorResult("live_grep", err)
	}
	return jsonResult(res)
}

func (s *Server) handleScanFiles(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.handle.ScanFiles()
	return jsonResult(map[string]any{"success": true})
}

func (s *Server) handleScanProgress(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scanned, scanning, scanErr := s.handle.ScanProgress()
	return jsonResult(map[string]any{
		"scanned_count": scanned,
		"is_scanning":   scanning,
		"scan_error":    scanErr,
	})
}

type waitForScanArgs struct {
	TimeoutMs int64 `json:"timeout_ms"`
}

func (s *Server) handleWaitForScan(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args waitForScanArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult("wait_for_scan", err)
	}
	done := s.handle.WaitForScan(args.TimeoutMs)
	return jsonResult(map[string]any{"completed": done})
}

type restartIndexArgs struct {
	NewBasePath string `json:"new_base_path"`
}

func (s *Server) handleRestartIndex(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args restartIndexArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult("restart_index", err)
	}
	s.handle.RestartIndex(args.NewBasePath)
	return jsonResult(map[string]any{"success": true})
}

type trackAccessArgs struct {
	AbsolutePath string `json:"absolute_path"`
}

func (s *Server) handleTrackAccess(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args trackAccessArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult("track_access", err)
	}
	s.handle.TrackAccess(args.AbsolutePath)
	return jsonResult(map[string]any{"success": true})
}

type trackQueryArgs struct {
	Query        string `json:"query"`
	SelectedPath string `json:"selected_path"`
}

func (s *Server) handleTrackQuery(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args trackQueryArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult("track_query", err)
	}
	s.handle.TrackQuery(args.Query, args.SelectedPath)
	return jsonResult(map[string]any{"success": true})
}

type historicalQueryArgs struct {
	Offset int    `json:"offset"`
	Typo   string `json:"typo"`
}

// handleHistoricalQuery cycles previous queries by offset. When the caller
// also supplies typo (e.g. the offset cycle came up empty, or they're typing
// a fresh query and want a "did you mean"), and the exact offset lookup
// fails, it falls back to SuggestQuery's near-miss match against the whole
// history log.
func (s *Server) handleHistoricalQuery(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args historicalQueryArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult("historical_query", err)
	}
	query, ok := s.handle.HistoricalQuery(args.Offset)
	if ok {
		return jsonResult(map[string]any{"found": true, "query": query, "suggested": false})
	}
	if args.Typo == "" {
		return jsonResult(map[string]any{"found": false, "query": "", "suggested": false})
	}
	suggestion, similarity, found := s.handle.SuggestQuery(args.Typo)
	return jsonResult(map[string]any{
		"found":      found,
		"query":      suggestion,
		"suggested":  found,
		"similarity": similarity,
	})
}

func (s *Server) handleRefreshVCSStatus(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count, err := s.handle.RefreshVCSStatus()
	if err != nil {
		return errorResult("refresh_vcs_status", err)
	}
	return jsonResult(map[string]any{"changed_count": count})
}

type healthCheckArgs struct {
	TestPath string `json:"test_path"`
}

func (s *Server) handleHealthCheck(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args healthCheckArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult("health_check", err)
	}
	return jsonResult(s.handle.HealthCheck(args.TestPath))
}
