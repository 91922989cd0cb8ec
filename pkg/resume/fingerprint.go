// Package resume builds the Request Fingerprint (C10) and encodes,
// decodes, and validates the versioned Resume Token (C9). Both live in
// one package because the original implementation keeps them in a
// single module — a fingerprint only exists to be embedded in and
// checked against a token.
package resume

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/ysakurai/bojstat-go/pkg/boj"
)

// FingerprintComponents enumerates every field that semantically
// affects the result set, per §4.10. Fields that don't apply to a
// given endpoint are left at their zero value, which still
// participates in the digest (a Code request and a Layer request with
// otherwise-identical fields fingerprint differently via Endpoint).
type FingerprintComponents struct {
	APIOrigin          string
	Endpoint           boj.Endpoint
	DB                 string
	Codes              []string
	Layer              []string
	Frequency          boj.Frequency
	Start              string
	End                string
	StrictAPI          bool
	AutoSplitCodes     bool
	ConsistencyMode    boj.ConsistencyMode
	ConflictResolution boj.ConflictResolution
	OutputOrder        boj.OutputOrder
	Lang               boj.Lang
	Format             boj.Format
	RawParams          map[string]string
	ParserVersion      string
	NormalizerVersion  string
	SchemaVersion      string
}

// CanonicalParams normalizes a raw parameter map into sorted,
// uppercase-keyed pairs, matching the original implementation's
// canonical_params helper, so that fingerprinting is stable under key
// reordering and casing.
func CanonicalParams(params map[string]string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

// BuildFingerprint computes the canonical digest over c: sort keys,
// stable-encode values, SHA-256, hex-encode.
func BuildFingerprint(c FingerprintComponents) string {
	doc := map[string]any{
		"api_origin":          c.APIOrigin,
		"endpoint":            c.Endpoint.String(),
		"db":                  c.DB,
		"code":                orEmptySlice(c.Codes),
		"layer":               orEmptySlice(c.Layer),
		"frequency":           string(c.Frequency),
		"start":               c.Start,
		"end":                 c.End,
		"strict_api":          c.StrictAPI,
		"auto_split_codes":    c.AutoSplitCodes,
		"consistency_mode":    int(c.ConsistencyMode),
		"conflict_resolution": int(c.ConflictResolution),
		"output_order":        int(c.OutputOrder),
		"lang":                string(c.Lang),
		"format":              string(c.Format),
		"raw_params":          CanonicalParams(c.RawParams),
		"parser_version":      c.ParserVersion,
		"normalizer_version":  c.NormalizerVersion,
		"schema_version":      c.SchemaVersion,
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]byte, 0, 256)
	ordered = append(ordered, '{')
	for i, k := range keys {
		if i > 0 {
			ordered = append(ordered, ',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(doc[k])
		ordered = append(ordered, kb...)
		ordered = append(ordered, ':')
		ordered = append(ordered, vb...)
	}
	ordered = append(ordered, '}')

	sum := sha256.Sum256(ordered)
	return hex.EncodeToString(sum[:])
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
