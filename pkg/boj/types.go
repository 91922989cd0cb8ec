package boj

import "time"

// Request is the immutable request specification for one logical call.
// Values are plain struct literals; the client works on its own copy
// and never mutates the caller's value. Chunking and pagination operate
// on derived state, not on the Request itself.
type Request struct {
	Endpoint Endpoint
	DB       string
	Codes    []string
	Layer    []string
	Frequency Frequency
	Start    string
	End      string
	Lang     Lang
	Format   Format

	StrictAPI          bool
	AutoSplitCodes     bool
	ConsistencyMode    ConsistencyMode
	ConflictResolution ConflictResolution
	OutputOrder        OutputOrder
	AllowRawOverride   bool

	RawParams   map[string]string
	ResumeToken string
}

// Validate enforces the one construction-time invariant named in the
// component design: strict_api and auto_split_codes are mutually
// exclusive.
func (r Request) Validate() error {
	if r.StrictAPI && r.AutoSplitCodes {
		return &ValidationError{Code: "strict_api_auto_split_conflict"}
	}
	return nil
}

// PageMeta is the envelope fields common to every parsed response page,
// independent of whether it carries time-series rows or metadata rows.
type PageMeta struct {
	Status           int
	MessageID        string
	Message          string
	DateRaw          string
	DateParsed       *time.Time
	DateParseWarning bool
	NextPosition     *int
	RequestURL       string
}

// DataPage is a parsed getDataCode/getDataLayer response.
type DataPage struct {
	PageMeta
	Rows []TimeSeriesRecord
}

// MetadataPage is a parsed getMetadata response.
type MetadataPage struct {
	PageMeta
	Rows []MetadataRecord
}

// TimeSeriesRecord is one normalized row from getDataCode/getDataLayer.
type TimeSeriesRecord struct {
	SeriesCode    string
	SeriesName    string
	Unit          string
	Frequency     Frequency
	FrequencyCode string
	WeekAnchor    *string
	Category      string
	LastUpdate    string // YYYYMMDD
	SurveyDate    string // period string, e.g. "202401"
	Value         Decimal

	OriginalCodeIndex int // -1 when undefined (Layer results)
	SourcePageIndex   int
	SourceRowIndex    int

	Extras map[string]string
}

// DedupKey returns the (series_code, survey_date) pair the Deduper keys
// on.
func (r TimeSeriesRecord) DedupKey() DedupKey {
	return DedupKey{SeriesCode: r.SeriesCode, SurveyDate: r.SurveyDate}
}

// DedupKey identifies a unique logical observation across pages.
type DedupKey struct {
	SeriesCode string
	SurveyDate string
}

// MetadataRecord is one normalized row from getMetadata.
type MetadataRecord struct {
	SeriesCode string
	SeriesName string
	Unit       string
	Frequency  Frequency
	Category   string
	Layer1     string
	Layer2     string
	Layer3     string
	Layer4     string
	Layer5     string

	StartOfTimeSeries string
	EndOfTimeSeries   string
	LastUpdate        string
	Notes             string

	Extras map[string]string
}

// ConflictSample is an audit record of a row discarded by the
// Consistency Guard's best-effort conflict resolution.
type ConflictSample struct {
	SeriesCode        string
	SurveyDate        string
	KeptLastUpdate    string
	DiscardedLastUpdate string
}

// ResponseMeta is the metadata envelope attached to every returned
// frame, independent of record payload.
type ResponseMeta struct {
	Status     int
	MessageID  string
	Message    string
	DateRaw    string
	DateParsed *time.Time

	NextPosition *int
	Parameters   map[string]string
	RequestURL   string

	SchemaVersion     string
	ParserVersion     string
	NormalizerVersion string

	ResumeToken string

	ConsistencySignal  string
	ConsistencyDetails map[string]any
	ConflictResolution ConflictResolution
	ConflictsCount     int
	ConflictsSample    []ConflictSample

	Warnings []string
}

// TimeSeriesFrame is the result shape for getDataCode/getDataLayer.
type TimeSeriesFrame struct {
	Records []TimeSeriesRecord
	Meta    ResponseMeta
}

// SeriesCodes returns the distinct series codes present in the frame,
// in first-seen order.
func (f TimeSeriesFrame) SeriesCodes() []string {
	seen := make(map[string]struct{}, len(f.Records))
	out := make([]string, 0, len(f.Records))
	for _, r := range f.Records {
		if _, ok := seen[r.SeriesCode]; ok {
			continue
		}
		seen[r.SeriesCode] = struct{}{}
		out = append(out, r.SeriesCode)
	}
	return out
}

// Find returns every record matching seriesCode.
func (f TimeSeriesFrame) Find(seriesCode string) []TimeSeriesRecord {
	return f.Filter(func(r TimeSeriesRecord) bool { return r.SeriesCode == seriesCode })
}

// Filter returns every record satisfying predicate, preserving order.
func (f TimeSeriesFrame) Filter(predicate func(TimeSeriesRecord) bool) []TimeSeriesRecord {
	out := make([]TimeSeriesRecord, 0)
	for _, r := range f.Records {
		if predicate(r) {
			out = append(out, r)
		}
	}
	return out
}

// MetadataFrame is the result shape for getMetadata.
type MetadataFrame struct {
	Records []MetadataRecord
	Meta    ResponseMeta
}

// SeriesCodes returns the distinct series codes present in the frame,
// in first-seen order.
func (f MetadataFrame) SeriesCodes() []string {
	seen := make(map[string]struct{}, len(f.Records))
	out := make([]string, 0, len(f.Records))
	for _, r := range f.Records {
		if _, ok := seen[r.SeriesCode]; ok {
			continue
		}
		seen[r.SeriesCode] = struct{}{}
		out = append(out, r.SeriesCode)
	}
	return out
}

// Find returns the metadata record for seriesCode, or nil.
func (f MetadataFrame) Find(seriesCode string) *MetadataRecord {
	for i := range f.Records {
		if f.Records[i].SeriesCode == seriesCode {
			return &f.Records[i]
		}
	}
	return nil
}

// Filter returns every record satisfying predicate, preserving order.
func (f MetadataFrame) Filter(predicate func(MetadataRecord) bool) []MetadataRecord {
	out := make([]MetadataRecord, 0)
	for _, r := range f.Records {
		if predicate(r) {
			out = append(out, r)
		}
	}
	return out
}
