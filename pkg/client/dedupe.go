package client

import (
	"github.com/ysakurai/bojstat-go/pkg/boj"
	"github.com/ysakurai/bojstat-go/pkg/consistency"
)

const maxConflictSample = 20

// deduper applies the Dedup Key incrementally as pages arrive (C8), so
// memory reflects only the current winner per key, mirroring the
// original implementation's inline dict-based dedupe loop.
type deduper struct {
	guard           consistency.Guard
	records         map[boj.DedupKey]boj.TimeSeriesRecord
	conflictsCount  int
	conflictsSample []boj.ConflictSample
}

func newDeduper(guard consistency.Guard) *deduper {
	return &deduper{guard: guard, records: make(map[boj.DedupKey]boj.TimeSeriesRecord)}
}

// Add folds rec into the accumulated set, resolving a conflict against
// any existing record sharing its Dedup Key. Under strict consistency
// mode a genuine conflict (differing last_update) is fatal.
func (d *deduper) Add(rec boj.TimeSeriesRecord) error {
	key := rec.DedupKey()
	existing, ok := d.records[key]
	if !ok {
		d.records[key] = rec
		return nil
	}

	winner, conflict := consistency.ResolveConflict(existing, rec)
	if conflict {
		d.conflictsCount++
		if len(d.conflictsSample) < maxConflictSample {
			d.conflictsSample = append(d.conflictsSample, boj.ConflictSample{
				SeriesCode:          rec.SeriesCode,
				SurveyDate:          rec.SurveyDate,
				KeptLastUpdate:      winner.LastUpdate,
				DiscardedLastUpdate: discardedLastUpdate(existing, rec, winner),
			})
		}
		if d.guard.Mode == boj.ConsistencyStrict {
			return &boj.ConsistencyError{
				Signal: "last_update_conflict",
				Details: map[string]any{
					"series_code":           rec.SeriesCode,
					"survey_date":           rec.SurveyDate,
					"existing_last_update":  existing.LastUpdate,
					"incoming_last_update":  rec.LastUpdate,
				},
			}
		}
	}
	d.records[key] = winner
	return nil
}

func discardedLastUpdate(existing, candidate, winner boj.TimeSeriesRecord) string {
	if winner.LastUpdate == existing.LastUpdate {
		return candidate.LastUpdate
	}
	return existing.LastUpdate
}

// Records returns the accumulated winners in insertion-independent
// order; callers apply sortRecords for the final canonical order.
func (d *deduper) Records() []boj.TimeSeriesRecord {
	out := make([]boj.TimeSeriesRecord, 0, len(d.records))
	for _, r := range d.records {
		out = append(out, r)
	}
	return out
}
