// Package consistency implements the Consistency Guard (C7): detecting
// a publish-window crossing or a last_update conflict across pages, and
// applying the configured strict/best-effort policy.
package consistency

import (
	"time"

	"github.com/ysakurai/bojstat-go/pkg/boj"
)

// PublishWindow is the daily interval during which the server may
// refresh underlying data; default 08:50 JST plus a 90 minute grace.
type PublishWindow struct {
	StartHour    int
	StartMinute  int
	GraceMinutes int
}

// DefaultPublishWindow returns the documented default.
func DefaultPublishWindow() PublishWindow {
	return PublishWindow{StartHour: 8, StartMinute: 50, GraceMinutes: 90}
}

// InWindow reports whether t's time-of-day falls within the window.
// Callers are expected to pass t already converted to JST.
func (w PublishWindow) InWindow(t time.Time) bool {
	minuteOfDay := t.Hour()*60 + t.Minute()
	start := w.StartHour*60 + w.StartMinute
	end := start + w.GraceMinutes
	return minuteOfDay >= start && minuteOfDay <= end
}

// Crossed reports whether current has entered the window while first
// had not, matching the original implementation's _window_crossed:
// the window was crossed mid-pagination, not merely "currently in it".
func (w PublishWindow) Crossed(first, current time.Time) bool {
	return !w.InWindow(first) && w.InWindow(current)
}

// Guard applies the configured consistency policy.
type Guard struct {
	Mode   boj.ConsistencyMode
	Window PublishWindow
}

// NewGuard builds a Guard with the given mode and the default publish
// window.
func NewGuard(mode boj.ConsistencyMode) Guard {
	return Guard{Mode: mode, Window: DefaultPublishWindow()}
}

// ObserveWindow checks for a window crossing between the first page
// observed in this call and the current page. Under strict mode a
// crossing is fatal; under best-effort it is reported as a signal.
func (g Guard) ObserveWindow(first, current time.Time) (signal string, err error) {
	if !g.Window.Crossed(first, current) {
		return "", nil
	}
	if g.Mode == boj.ConsistencyStrict {
		return "", &boj.ConsistencyError{
			Signal: "window_crossed",
			Details: map[string]any{
				"first":   first,
				"current": current,
			},
		}
	}
	return "window_crossed", nil
}

// ResolveConflict picks a winner between two rows sharing a Dedup Key
// but differing in last_update, per the latest_last_update policy with
// (source_page_index, source_row_index) tie-breaking. It reports
// whether the two rows actually conflicted (same key, different
// last_update) so the caller can decide whether to raise under strict
// mode or record an audit sample under best-effort.
func ResolveConflict(existing, candidate boj.TimeSeriesRecord) (winner boj.TimeSeriesRecord, conflict bool) {
	if candidate.LastUpdate == existing.LastUpdate {
		return tieBreak(existing, candidate), false
	}
	if existing.LastUpdate == "" {
		return candidate, true
	}
	if candidate.LastUpdate == "" {
		return existing, true
	}
	if candidate.LastUpdate > existing.LastUpdate {
		return candidate, true
	}
	return existing, true
}

func tieBreak(a, b boj.TimeSeriesRecord) boj.TimeSeriesRecord {
	at := [2]int{a.SourcePageIndex, a.SourceRowIndex}
	bt := [2]int{b.SourcePageIndex, b.SourceRowIndex}
	if tupleLess(bt, at) {
		return b
	}
	return a
}

func tupleLess(x, y [2]int) bool {
	if x[0] != y[0] {
		return x[0] < y[0]
	}
	return x[1] < y[1]
}
