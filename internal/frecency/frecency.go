// Package frecency implements the persistent per-file access/modification
// frecency tracker (spec §4.2). Scores combine recency (exponential decay)
// and frequency (sublinear growth in access_count) into stable, integer-
// quantised rankings.
package frecency

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/standardbeagle/fff/internal/ffconfig"
	"github.com/standardbeagle/fff/internal/fflog"
	"github.com/standardbeagle/fff/internal/kvstore"
)

// Record is the persisted per-absolute-path state.
type Record struct {
	AccessCount      uint32
	LastAccessUnix   int64
	ModificationUnix int64
}

const recordWidth = 4 + 8 + 8 // access_count + last_access + modification

func encodeRecord(r Record) []byte {
	buf := make([]byte, recordWidth)
	binary.LittleEndian.PutUint32(buf[0:4], r.AccessCount)
	binary.LittleEndian.PutUint64(buf[4:12], uint64(r.LastAccessUnix))
	binary.LittleEndian.PutUint64(buf[12:20], uint64(r.ModificationUnix))
	return buf
}

func decodeRecord(b []byte) (Record, bool) {
	if len(b) != recordWidth {
		return Record{}, false
	}
	return Record{
		AccessCount:      binary.LittleEndian.Uint32(b[0:4]),
		LastAccessUnix:   int64(binary.LittleEndian.Uint64(b[4:12])),
		ModificationUnix: int64(binary.LittleEndian.Uint64(b[12:20])),
	}, true
}

// Tracker owns the in-memory record cache and (optionally) persists through
// a kvstore.Store. A nil store means persistence is disabled: the in-memory
// state is authoritative for the process lifetime, per spec §4.2's
// "persistence failures ... do not abort the query path".
type Tracker struct {
	mu      sync.RWMutex
	records map[string]Record
	store   *kvstore.Store
	log     *fflog.Logger
	now     func() time.Time
}

// Option configures a Tracker at construction.
type Option func(*Tracker)

// WithClock overrides the wall-clock source; used by tests to make decay
// deterministic.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New builds a Tracker. If store is non-nil, existing records are loaded
// eagerly (the keyspace is small: one entry per previously-tracked path).
func New(store *kvstore.Store, log *fflog.Logger, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		records: make(map[string]Record),
		store:   store,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	if store != nil {
		entries, err := store.Scan(nil)
		if err != nil {
			log.Warn("frecency: failed loading persisted records", "error", err)
		} else {
			for _, e := range entries {
				if rec, ok := decodeRecord(e.Value); ok {
					t.records[string(e.Key)] = rec
				}
			}
		}
	}
	return t, nil
}

// TrackAccess bumps access_count and last_access for absolutePath to now,
// then persists. Persistence failures are logged and swallowed: the
// in-memory record is updated regardless, matching spec §4.2's failure
// semantics.
func (t *Tracker) TrackAccess(absolutePath string) {
	now := t.now().Unix()

	t.mu.Lock()
	rec := t.records[absolutePath]
	rec.AccessCount++
	rec.LastAccessUnix = now
	t.records[absolutePath] = rec
	t.mu.Unlock()

	if t.store == nil {
		return
	}
	if err := t.store.Put([]byte(absolutePath), encodeRecord(rec)); err != nil {
		t.log.Warn("frecency: persisting access", "path", absolutePath, "error", err)
	}
}

// ScoreFor is the pure scoring function from spec §4.2: given the
// in-memory record for absolutePath (if any) and the file's current
// modification time, it returns (access_score, modification_score,
// total_score). Equal inputs at equal wall-clock times always produce
// equal scores.
func (t *Tracker) ScoreFor(absolutePath string, modificationUnix int64) (accessScore, modificationScore, total int64) {
	t.mu.RLock()
	rec, ok := t.records[absolutePath]
	t.mu.RUnlock()

	now := t.now().Unix()

	if ok {
		accessScore = decayedAccessScore(rec.AccessCount, now-rec.LastAccessUnix)
	}
	modificationScore = decayedModificationScore(now - modificationUnix)
	total = accessScore + modificationScore
	return
}

// decayedAccessScore grows sublinearly (sqrt) in accessCount and decays
// exponentially with a documented half-life (see ffconfig.FrecencyAccessHalfLife).
// Rounds to zero once elapsed exceeds ffconfig.FrecencyZeroHorizon.
func decayedAccessScore(accessCount uint32, elapsedSeconds int64) int64 {
	if accessCount == 0 || elapsedSeconds < 0 {
		return 0
	}
	if time.Duration(elapsedSeconds)*time.Second > ffconfig.FrecencyZeroHorizon {
		return 0
	}
	halfLifeSeconds := ffconfig.FrecencyAccessHalfLife.Seconds()
	decay := math.Pow(0.5, float64(elapsedSeconds)/halfLifeSeconds)
	raw := math.Sqrt(float64(accessCount)) * 100.0 * decay
	return int64(math.Round(raw))
}

func decayedModificationScore(elapsedSeconds int64) int64 {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	if time.Duration(elapsedSeconds)*time.Second > ffconfig.FrecencyZeroHorizon {
		return 0
	}
	halfLifeSeconds := ffconfig.FrecencyModificationHalfLife.Seconds()
	decay := math.Pow(0.5, float64(elapsedSeconds)/halfLifeSeconds)
	raw := 100.0 * decay
	return int64(math.Round(raw))
}

// Close releases no resources of its own; the backing store is owned and
// closed by the caller (the Facade). Frecency and query history use
// separate databases, so this store is not shared.
func (t *Tracker) Close() error {
	return nil
}
