package boj

// Version constants embedded in fingerprints, resume tokens, and cache
// keys. Bumping any of these invalidates tokens and cache entries that
// predate the change.
const (
	ParserVersion      = "1.0"
	NormalizerVersion  = "1.0"
	SchemaVersion      = "1.0"
	TokenVersion       = 1
	ErrorCatalogVersion = "2026.02"
)

// DefaultBaseURL is the production BOJ Time-Series Statistical Data
// endpoint root.
const DefaultBaseURL = "https://www.stat-search.boj.or.jp/ssi/cgi-bin/famecgi2"

// DefaultUserAgent identifies this library to the server.
const DefaultUserAgent = "bojstat-go/1.0"
