// Package queryhistory implements the query-history tracker (spec §4.3):
// a (query, selected_path) -> count combo table feeding the fuzzy scorer's
// combo-boost signal, plus an append-only, capped, offset-addressable
// history log of past queries.
package queryhistory

import (
	"encoding/binary"
	"strings"
	"sync"

	"github.com/standardbeagle/fff/internal/ffconfig"
	"github.com/standardbeagle/fff/internal/fflog"
	"github.com/standardbeagle/fff/internal/kvstore"
)

const (
	comboPrefix   = "c|"
	historyPrefix = "h|"
)

func comboKey(query, path string) []byte {
	return []byte(comboPrefix + query + "|" + path)
}

func historyKey(seq uint64) []byte {
	buf := make([]byte, len(historyPrefix)+8)
	copy(buf, historyPrefix)
	binary.BigEndian.PutUint64(buf[len(historyPrefix):], seq)
	return buf
}

// Normalize implements spec §4.3's query normalisation: trim, lower-case,
// collapse internal whitespace runs to a single space.
func Normalize(query string) string {
	fields := strings.Fields(query)
	return strings.ToLower(strings.Join(fields, " "))
}

// ring is a fixed-capacity ring buffer giving O(1) push and O(1)
// offset-from-most-recent reads; eviction of the oldest entry never
// perturbs the offsets of entries that remain, per spec §4.3's invariant.
type ring struct {
	buf   []uint64 // history seq numbers, oldest-to-newest by ring position
	vals  []string
	head  int
	count int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]uint64, capacity), vals: make([]string, capacity)}
}

func (r *ring) cap() int { return len(r.buf) }

// push returns the seq evicted (and true) if the ring was full.
func (r *ring) push(seq uint64, v string) (evicted uint64, didEvict bool) {
	if r.count < r.cap() {
		idx := (r.head + r.count) % r.cap()
		r.buf[idx] = seq
		r.vals[idx] = v
		r.count++
		return 0, false
	}
	evicted = r.buf[r.head]
	r.buf[r.head] = seq
	r.vals[r.head] = v
	r.head = (r.head + 1) % r.cap()
	return evicted, true
}

// mostRecent returns the value most recently pushed, or "" if empty.
func (r *ring) mostRecent() (string, bool) {
	if r.count == 0 {
		return "", false
	}
	idx := (r.head + r.count - 1) % r.cap()
	return r.vals[idx], true
}

// at returns the value at offset from most-recent (0 = most recent).
func (r *ring) at(offset int) (string, bool) {
	if offset < 0 || offset >= r.count {
		return "", false
	}
	idx := (r.head + r.count - 1 - offset) % r.cap()
	return r.vals[idx], true
}

// all returns every entry, most-recent first.
func (r *ring) all() []string {
	out := make([]string, r.count)
	for i := range out {
		out[i], _ = r.at(i)
	}
	return out
}

// Tracker owns the in-memory combo table and history ring, optionally
// persisted through a kvstore.Store.
type Tracker struct {
	mu     sync.RWMutex
	combo  map[string]uint64
	hist   *ring
	nextSeq uint64
	store  *kvstore.Store
	log    *fflog.Logger
}

// New builds a Tracker with the given history capacity (defaults to
// ffconfig.QueryHistoryCap when capacity <= 0). If store is non-nil,
// existing combo counts and history entries are loaded.
func New(store *kvstore.Store, log *fflog.Logger, capacity int) (*Tracker, error) {
	if capacity <= 0 {
		capacity = ffconfig.QueryHistoryCap
	}
	t := &Tracker{
		combo: make(map[string]uint64),
		hist:  newRing(capacity),
		store: store,
		log:   log,
	}

	if store != nil {
		comboEntries, err := store.Scan([]byte(comboPrefix))
		if err != nil {
			log.Warn("queryhistory: failed loading combo table", "error", err)
		} else {
			for _, e := range comboEntries {
				if len(e.Value) == 8 {
					t.combo[string(e.Key)] = binary.BigEndian.Uint64(e.Value)
				}
			}
		}

		histEntries, err := store.Scan([]byte(historyPrefix))
		if err != nil {
			log.Warn("queryhistory: failed loading history log", "error", err)
		} else {
			for _, e := range histEntries {
				if len(e.Key) != len(historyPrefix)+8 {
					continue
				}
				seq := binary.BigEndian.Uint64(e.Key[len(historyPrefix):])
				if seq >= t.nextSeq {
					t.nextSeq = seq + 1
				}
				if evicted, did := t.hist.push(seq, string(e.Value)); did {
					_ = store.Delete(historyKey(evicted))
				}
			}
		}
	}

	return t, nil
}

// TrackCompletion normalises query, increments the combo counter for
// (query, selectedPath), and appends query to the history log, deduplicated
// against the most recent entry. Persistence failures are logged and
// swallowed.
func (t *Tracker) TrackCompletion(query, selectedPath string) {
	norm := Normalize(query)

	t.mu.Lock()
	key := string(comboKey(norm, selectedPath))
	t.combo[key]++
	count := t.combo[key]

	mostRecent, hasAny := t.hist.mostRecent()
	var evictedSeq uint64
	var didEvict bool
	appended := !hasAny || mostRecent != norm
	var seq uint64
	if appended {
		seq = t.nextSeq
		t.nextSeq++
		evictedSeq, didEvict = t.hist.push(seq, norm)
	}
	t.mu.Unlock()

	if t.store == nil {
		return
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, count)
	if err := t.store.Put([]byte(key), buf); err != nil {
		t.log.Warn("queryhistory: persisting combo count", "error", err)
	}
	if appended {
		if err := t.store.Put(historyKey(seq), []byte(norm)); err != nil {
			t.log.Warn("queryhistory: persisting history entry", "error", err)
		}
		if didEvict {
			if err := t.store.Delete(historyKey(evictedSeq)); err != nil {
				t.log.Warn("queryhistory: evicting history entry", "error", err)
			}
		}
	}
}

// ComboCount is an O(1) lookup used by the fuzzy scorer. The query is
// normalised identically to TrackCompletion so callers can pass a raw query.
func (t *Tracker) ComboCount(query, candidatePath string) uint64 {
	norm := Normalize(query)
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.combo[string(comboKey(norm, candidatePath))]
}

// HistoricalQuery returns the query at offset entries back from the most
// recent (offset=0 = most recent), or ("", false) if offset is out of range.
func (t *Tracker) HistoricalQuery(offset int) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hist.at(offset)
}

// AllQueries returns every entry currently in the history log, most-recent
// first. Used to drive the near-miss query suggestion fallback (see
// fuzzy.SuggestQuery) when a caller's typed query doesn't land on an exact
// normalized match anywhere in history.
func (t *Tracker) AllQueries() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hist.all()
}

// Close releases no resources of its own; the backing store is owned by
// the caller.
func (t *Tracker) Close() error {
	return nil
}
