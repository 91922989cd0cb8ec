package parser

import (
	"strings"

	"github.com/ysakurai/bojstat-go/pkg/boj"
)

// knownKeys maps the wire's varied spellings (upper-snake JSON keys,
// human-readable CSV headers) onto one normalized lower-snake name.
// Unrecognized keys pass through lower-cased and land in Extras.
var knownKeys = map[string]string{
	"SERIES_CODE":  "series_code",
	"SERIESCODE":   "series_code",
	"series code":  "series_code",
	"SERIES_NAME":  "series_name",
	"SERIESNAME":   "series_name",
	"series name":  "series_name",
	"UNIT":         "unit",
	"FREQUENCY":    "frequency",
	"CATEGORY":     "category",
	"LAST_UPDATE":  "last_update",
	"LASTUPDATE":   "last_update",
	"last update":  "last_update",
	"SURVEY_DATE":  "survey_date",
	"SURVEYDATE":   "survey_date",
	"survey date":  "survey_date",
	"VALUE":        "value",
	"LAYER1":       "layer1",
	"LAYER2":       "layer2",
	"LAYER3":       "layer3",
	"LAYER4":       "layer4",
	"LAYER5":       "layer5",
	"START_OF_TS":  "start_of_time_series",
	"START":        "start_of_time_series",
	"END_OF_TS":    "end_of_time_series",
	"END":          "end_of_time_series",
	"NOTES":        "notes",
	"WEEK_ANCHOR":  "week_anchor",
}

func normalizeKey(k string) string {
	if mapped, ok := knownKeys[k]; ok {
		return mapped
	}
	if mapped, ok := knownKeys[strings.ToUpper(k)]; ok {
		return mapped
	}
	return strings.ToLower(strings.TrimSpace(k))
}

var timeSeriesFields = map[string]struct{}{
	"series_code": {}, "series_name": {}, "unit": {}, "frequency": {},
	"category": {}, "last_update": {}, "survey_date": {}, "value": {},
	"week_anchor": {},
}

func rowToTimeSeriesRecord(r Row, sourceRowIndex int) boj.TimeSeriesRecord {
	freq := boj.Frequency(strings.ToUpper(r["frequency"]))
	rec := boj.TimeSeriesRecord{
		SeriesCode:        r["series_code"],
		SeriesName:        r["series_name"],
		Unit:              r["unit"],
		Frequency:         freq,
		FrequencyCode:     string(freq),
		Category:          r["category"],
		LastUpdate:        r["last_update"],
		SurveyDate:        r["survey_date"],
		Value:             boj.NewDecimal(r["value"]),
		OriginalCodeIndex: -1,
		SourceRowIndex:    sourceRowIndex,
		Extras:            map[string]string{},
	}
	if wa, ok := r["week_anchor"]; ok && wa != "" {
		rec.WeekAnchor = &wa
	}
	for k, v := range r {
		if _, known := timeSeriesFields[k]; known {
			continue
		}
		rec.Extras[k] = v
	}
	return rec
}

var metadataFields = map[string]struct{}{
	"series_code": {}, "series_name": {}, "unit": {}, "frequency": {},
	"category": {}, "layer1": {}, "layer2": {}, "layer3": {}, "layer4": {},
	"layer5": {}, "start_of_time_series": {}, "end_of_time_series": {},
	"last_update": {}, "notes": {},
}

func rowToMetadataRecord(r Row) boj.MetadataRecord {
	rec := boj.MetadataRecord{
		SeriesCode:        r["series_code"],
		SeriesName:        r["series_name"],
		Unit:              r["unit"],
		Frequency:         boj.Frequency(strings.ToUpper(r["frequency"])),
		Category:          r["category"],
		Layer1:            r["layer1"],
		Layer2:            r["layer2"],
		Layer3:            r["layer3"],
		Layer4:            r["layer4"],
		Layer5:            r["layer5"],
		StartOfTimeSeries: r["start_of_time_series"],
		EndOfTimeSeries:   r["end_of_time_series"],
		LastUpdate:        r["last_update"],
		Notes:             r["notes"],
		Extras:            map[string]string{},
	}
	for k, v := range r {
		if _, known := metadataFields[k]; known {
			continue
		}
		rec.Extras[k] = v
	}
	return rec
}
