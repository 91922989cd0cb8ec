package resume

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ysakurai/bojstat-go/pkg/boj"
)

// State is the Resume Token State named in §3: everything needed to
// continue a call from exactly where a previous, interrupted call left
// off.
type State struct {
	TokenVersion      int            `json:"token_version"`
	API               string         `json:"api"`
	APIOrigin         string         `json:"api_origin"`
	RequestFingerprint string        `json:"request_fingerprint"`
	ChunkIndex        int            `json:"chunk_index"`
	NextPosition      int            `json:"next_position"`
	Lang              boj.Lang       `json:"lang"`
	Format            boj.Format     `json:"format"`
	ParserVersion     string         `json:"parser_version"`
	NormalizerVersion string         `json:"normalizer_version"`
	SchemaVersion     string         `json:"schema_version"`
	CodeOrderMap      map[string]int `json:"code_order_map,omitempty"`
}

// NewState builds a token payload for the given endpoint, stamping the
// current library versions.
func NewState(api string, c FingerprintComponents, chunkIndex, nextPosition int, codeOrderMap map[string]int) State {
	return State{
		TokenVersion:       boj.TokenVersion,
		API:                api,
		APIOrigin:          c.APIOrigin,
		RequestFingerprint: BuildFingerprint(c),
		ChunkIndex:         chunkIndex,
		NextPosition:       nextPosition,
		Lang:               c.Lang,
		Format:             c.Format,
		ParserVersion:      boj.ParserVersion,
		NormalizerVersion:  boj.NormalizerVersion,
		SchemaVersion:      boj.SchemaVersion,
		CodeOrderMap:       codeOrderMap,
	}
}

// Encode produces a URL-safe, self-describing continuation token.
func Encode(s State) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("resume: encode: %w", err)
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(data), nil
}

// Decode reverses Encode.
func Decode(token string) (State, error) {
	data, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(token)
	if err != nil {
		return State{}, fmt.Errorf("resume: decode: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("resume: decode: %w", err)
	}
	return s, nil
}

// Validate checks, in order, token_version, parser_version,
// normalizer_version, fingerprint, and chunk_index plausibility
// against the current request, per §4.9. maxChunkIndex is the highest
// valid chunk index for the current chunk plan.
func Validate(s State, expected FingerprintComponents, maxChunkIndex int) error {
	if s.TokenVersion != boj.TokenVersion {
		return &boj.ResumeTokenMismatchError{Reason: "token_version_mismatch"}
	}
	if s.ParserVersion != boj.ParserVersion {
		return &boj.ResumeTokenMismatchError{Reason: "parser_version_mismatch"}
	}
	if s.NormalizerVersion != boj.NormalizerVersion {
		return &boj.ResumeTokenMismatchError{Reason: "normalizer_version_mismatch"}
	}
	if s.RequestFingerprint != BuildFingerprint(expected) {
		return &boj.ResumeTokenMismatchError{Reason: "fingerprint_mismatch"}
	}
	if s.ChunkIndex < 0 || s.ChunkIndex > maxChunkIndex {
		return &boj.ResumeTokenMismatchError{Reason: "chunk_index_mismatch"}
	}
	return nil
}
