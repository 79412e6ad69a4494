package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies a notable moment worth revisiting in a recording.
type BookmarkType string

const (
	// BookmarkStallStorm fires when a large share of the pool stalls out
	// within one window, usually a seed placed in dead flow.
	BookmarkStallStorm BookmarkType = "stall_storm"
	// BookmarkFlowSurge fires when tracer speeds jump well above the
	// session's recent levels.
	BookmarkFlowSurge BookmarkType = "flow_surge"
	// BookmarkTrackingLoss fires when pose updates start being dropped.
	BookmarkTrackingLoss BookmarkType = "tracking_loss"
	// BookmarkFlowDrained fires when the last tracers retire on their own.
	BookmarkFlowDrained BookmarkType = "flow_drained"
)

// Bookmark marks one notable window.
type Bookmark struct {
	Type   BookmarkType `csv:"type"`
	Frame  int64        `csv:"frame"`
	Value  float64      `csv:"value"`
	Detail string       `csv:"detail"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"frame", b.Frame,
		"value", b.Value,
		"detail", b.Detail,
	)
}

// BookmarkDetector watches the window stats stream for notable moments.
type BookmarkDetector struct {
	history     []WindowStats
	historySize int

	// stallStormMin is the per-window stalled retirement count that counts
	// as a storm.
	stallStormMin int
}

// NewBookmarkDetector creates a detector keeping historySize windows of
// context. poolSize scales the stall storm threshold.
func NewBookmarkDetector(historySize, poolSize int) *BookmarkDetector {
	if historySize < 2 {
		historySize = 8
	}
	min := poolSize / 4
	if min < 1 {
		min = 1
	}
	return &BookmarkDetector{
		historySize:   historySize,
		stallStormMin: min,
	}
}

// Check inspects one finished window and returns any bookmarks it triggers.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkStallStorm(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkFlowSurge(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkTrackingLoss(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkFlowDrained(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history = append(bd.history, stats)
	if len(bd.history) > bd.historySize {
		bd.history = bd.history[1:]
	}
}

func (bd *BookmarkDetector) prev() *WindowStats {
	if len(bd.history) == 0 {
		return nil
	}
	return &bd.history[len(bd.history)-1]
}

// checkStallStorm triggers on the onset of mass stalling.
func (bd *BookmarkDetector) checkStallStorm(stats WindowStats) *Bookmark {
	if stats.RetiredStalled < bd.stallStormMin {
		return nil
	}
	if p := bd.prev(); p != nil && p.RetiredStalled >= bd.stallStormMin {
		return nil
	}
	return &Bookmark{
		Type:   BookmarkStallStorm,
		Frame:  stats.WindowEndFrame,
		Value:  float64(stats.RetiredStalled),
		Detail: fmt.Sprintf("%d tracers stalled out", stats.RetiredStalled),
	}
}

// checkFlowSurge triggers when the fast end of the speed distribution jumps
// to twice its recent average.
func (bd *BookmarkDetector) checkFlowSurge(stats WindowStats) *Bookmark {
	if stats.TracersAlive == 0 || len(bd.history) < 3 {
		return nil
	}
	var sum float64
	for _, h := range bd.history {
		sum += h.SpeedP90
	}
	baseline := sum / float64(len(bd.history))
	if baseline <= 0 || stats.SpeedP90 < 2*baseline {
		return nil
	}
	return &Bookmark{
		Type:   BookmarkFlowSurge,
		Frame:  stats.WindowEndFrame,
		Value:  stats.SpeedP90,
		Detail: fmt.Sprintf("p90 speed %.4f vs baseline %.4f", stats.SpeedP90, baseline),
	}
}

// checkTrackingLoss triggers on the onset of dropped pose updates.
func (bd *BookmarkDetector) checkTrackingLoss(stats WindowStats) *Bookmark {
	if stats.PoseDrops == 0 {
		return nil
	}
	if p := bd.prev(); p != nil && p.PoseDrops > 0 {
		return nil
	}
	return &Bookmark{
		Type:   BookmarkTrackingLoss,
		Frame:  stats.WindowEndFrame,
		Value:  float64(stats.PoseDrops),
		Detail: fmt.Sprintf("%d pose updates dropped", stats.PoseDrops),
	}
}

// checkFlowDrained triggers when a populated pool empties without a reset.
func (bd *BookmarkDetector) checkFlowDrained(stats WindowStats) *Bookmark {
	if stats.TracersAlive != 0 || stats.Resets > 0 {
		return nil
	}
	if stats.RetiredBounds+stats.RetiredStalled == 0 {
		return nil
	}
	p := bd.prev()
	if p == nil || p.TracersAlive == 0 {
		return nil
	}
	return &Bookmark{
		Type:   BookmarkFlowDrained,
		Frame:  stats.WindowEndFrame,
		Value:  float64(stats.RetiredBounds + stats.RetiredStalled),
		Detail: "all tracers retired",
	}
}
