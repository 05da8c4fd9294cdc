package facade

import (
	"context"

	"github.com/standardbeagle/fff/internal/fferr"
	"github.com/standardbeagle/fff/internal/grep"
)

var errCandidateGone = fferr.New(fferr.NotFound, "facade: candidate no longer present in index")

// GrepOptions is spec §6's Grep options.
type GrepOptions = grep.Options

// GrepResult is spec §6's GrepResult payload.
type GrepResult = grep.Result

// LiveGrep walks the current index snapshot in frecency-descending order
// and applies the requested per-line matcher. grep.Search enforces the
// wall-clock time budget itself, together with its page-limit floor.
func (h *Handle) LiveGrep(query string, opts GrepOptions) (GrepResult, error) {
	snapshot := h.index.Snapshot()

	candidates := make([]grep.Candidate, len(snapshot))
	for i, e := range snapshot {
		_, _, total := h.frecencyTrack.ScoreFor(e.AbsolutePath, e.ModifiedUnixSeconds)
		candidates[i] = grep.Candidate{
			RelativePath:  e.RelativePath,
			FileName:      e.FileName,
			Extension:     e.Extension,
			AbsolutePath:  e.AbsolutePath,
			SizeBytes:     e.SizeBytes,
			IsBinary:      e.IsBinary,
			FrecencyTotal: total,
		}
	}

	mmap := h.index.MMAP()
	load := func(c grep.Candidate) ([]byte, error) {
		fe, ok := h.index.Lookup(c.RelativePath)
		if !ok {
			return nil, errCandidateGone
		}
		body, _, err := mmap.Get(fe.ID, fe.AbsolutePath)
		return body, err
	}

	return grep.Search(context.Background(), query, candidates, load, opts)
}
