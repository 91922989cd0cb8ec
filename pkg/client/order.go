package client

import (
	"sort"

	"github.com/ysakurai/bojstat-go/pkg/boj"
)

// sortRecords applies the canonical ordering (I2): original_code_index
// ascending (undefined treated as last), then series_code, survey_date,
// last_update, matching the original implementation's _sort_records
// key function. Any order other than Canonical is a no-op, since it is
// the only defined policy today.
func sortRecords(records []boj.TimeSeriesRecord, order boj.OutputOrder) []boj.TimeSeriesRecord {
	if order != boj.OutputCanonical {
		return records
	}
	out := make([]boj.TimeSeriesRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ai, bi := codeOrderRank(a.OriginalCodeIndex), codeOrderRank(b.OriginalCodeIndex)
		if ai != bi {
			return ai < bi
		}
		if a.SeriesCode != b.SeriesCode {
			return a.SeriesCode < b.SeriesCode
		}
		if a.SurveyDate != b.SurveyDate {
			return a.SurveyDate < b.SurveyDate
		}
		return a.LastUpdate < b.LastUpdate
	})
	return out
}

// codeOrderRank maps the sentinel "undefined" index (-1, used by Layer
// results which have no submitted code array) to the end of the sort.
func codeOrderRank(originalCodeIndex int) int {
	if originalCodeIndex < 0 {
		return 1 << 30
	}
	return originalCodeIndex
}
