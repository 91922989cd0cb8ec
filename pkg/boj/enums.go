package boj

// Lang selects the response language, which in turn governs the wire
// encoding used for CSV bodies (see Format).
type Lang string

const (
	LangJA Lang = "JP"
	LangEN Lang = "EN"
)

// Format selects the requested response body format. Error bodies are
// always JSON regardless of the requested format.
type Format string

const (
	FormatJSON Format = "JSON"
	FormatCSV  Format = "CSV"
)

// Frequency is the sampling frequency of a time series, inferred either
// from an explicit request parameter or guessed from a series code.
type Frequency string

const (
	FrequencyCalendarYear Frequency = "CY"
	FrequencyFiscalYear   Frequency = "FY"
	FrequencyCalendarHalf Frequency = "CH"
	FrequencyFiscalHalf   Frequency = "FH"
	FrequencyQuarter      Frequency = "Q"
	FrequencyMonth        Frequency = "M"
	FrequencyWeek         Frequency = "W"
	FrequencyDay          Frequency = "D"
	FrequencyUnknown      Frequency = "UNKNOWN"
)

// Endpoint is the tagged variant driving dispatch across the three BOJ
// operations, per the "polymorphism over endpoints" design note.
type Endpoint int

const (
	EndpointCode Endpoint = iota
	EndpointLayer
	EndpointMetadata
)

func (e Endpoint) String() string {
	switch e {
	case EndpointCode:
		return "getDataCode"
	case EndpointLayer:
		return "getDataLayer"
	case EndpointMetadata:
		return "getMetadata"
	default:
		return "unknown"
	}
}

// CacheMode controls whether and how the Cache Gateway is consulted.
type CacheMode int

const (
	CacheIfStale CacheMode = iota
	CacheForceRefresh
	CacheOff
)

// ConsistencyMode selects how the Consistency Guard reacts to a detected
// signal (window crossing or a last_update conflict).
type ConsistencyMode int

const (
	ConsistencyStrict ConsistencyMode = iota
	ConsistencyBestEffort
)

// ConflictResolution names the policy used to pick a winner between two
// rows sharing a Dedup Key. Only one policy is defined today.
type ConflictResolution int

const (
	ConflictLatestLastUpdate ConflictResolution = iota
)

// OutputOrder selects the ordering applied to the final record set.
type OutputOrder int

const (
	OutputCanonical OutputOrder = iota
)
