package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// TraceRanking keeps the most notable finished traces of a session, ranked
// by path length. Short hops and jitter stay out via the entry criteria.
type TraceRanking struct {
	maxSize    int
	entries    []TraceStats
	considered int

	// Entry criteria
	minPathLength float32
	minLifetimeMs int64
}

// NewTraceRanking creates a ranking holding up to maxSize traces.
func NewTraceRanking(maxSize int) *TraceRanking {
	if maxSize < 1 {
		maxSize = 10
	}
	return &TraceRanking{
		maxSize:       maxSize,
		entries:       make([]TraceStats, 0, maxSize),
		minPathLength: 1.0,
		minLifetimeMs: 100,
	}
}

// Consider offers a finished trace to the ranking. Returns true if it was
// admitted.
func (tr *TraceRanking) Consider(s TraceStats) bool {
	tr.considered++

	if s.PathLength < tr.minPathLength || s.LifetimeMs < tr.minLifetimeMs {
		return false
	}
	if len(tr.entries) == tr.maxSize && s.PathLength <= tr.entries[len(tr.entries)-1].PathLength {
		return false
	}

	tr.entries = tr.insert(tr.entries, s)
	return true
}

// insert places the entry in descending path length order, dropping the
// tail when over capacity.
func (tr *TraceRanking) insert(entries []TraceStats, entry TraceStats) []TraceStats {
	pos := len(entries)
	for i, e := range entries {
		if entry.PathLength > e.PathLength {
			pos = i
			break
		}
	}

	entries = append(entries, TraceStats{})
	copy(entries[pos+1:], entries[pos:])
	entries[pos] = entry

	if len(entries) > tr.maxSize {
		entries = entries[:tr.maxSize]
	}
	return entries
}

// Top returns the ranked traces, best first.
func (tr *TraceRanking) Top() []TraceStats {
	out := make([]TraceStats, len(tr.entries))
	copy(out, tr.entries)
	return out
}

// Best returns the longest trace seen so far.
func (tr *TraceRanking) Best() (TraceStats, bool) {
	if len(tr.entries) == 0 {
		return TraceStats{}, false
	}
	return tr.entries[0], true
}

// Size returns the number of ranked traces.
func (tr *TraceRanking) Size() int {
	return len(tr.entries)
}

// Considered returns how many finished traces were offered.
func (tr *TraceRanking) Considered() int {
	return tr.considered
}

type traceRankingJSON struct {
	Version    int          `json:"version"`
	SavedAt    time.Time    `json:"saved_at"`
	Considered int          `json:"considered"`
	Entries    []TraceStats `json:"entries"`
}

// MarshalJSON serializes the ranking for export.
func (tr *TraceRanking) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(traceRankingJSON{
		Version:    1,
		SavedAt:    time.Now(),
		Considered: tr.considered,
		Entries:    tr.entries,
	}, "", "  ")
}

// LoadTraceRankingFromFile restores a previously exported ranking.
func LoadTraceRankingFromFile(path string, maxSize int) (*TraceRanking, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace ranking: %w", err)
	}

	var parsed traceRankingJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing trace ranking: %w", err)
	}
	if parsed.Version != 1 {
		return nil, fmt.Errorf("unsupported trace ranking version %d", parsed.Version)
	}

	tr := NewTraceRanking(maxSize)
	tr.considered = parsed.Considered
	for _, e := range parsed.Entries {
		tr.entries = tr.insert(tr.entries, e)
	}
	return tr, nil
}
