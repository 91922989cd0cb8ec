package client

import (
	"encoding/json"
	"time"

	"github.com/ysakurai/bojstat-go/pkg/boj"
	"github.com/ysakurai/bojstat-go/pkg/resume"
)

func decodeResumeState(token string) (resume.State, error) {
	return resume.Decode(token)
}

// timeSeriesPayload is the on-disk shape stored inside a cache.Entry's
// Payload for a getDataCode/getDataLayer result.
type timeSeriesPayload struct {
	Records []boj.TimeSeriesRecord `json:"records"`
	Meta    boj.ResponseMeta       `json:"meta"`
}

// metadataPayload is the on-disk shape stored for a getMetadata result.
type metadataPayload struct {
	Records []boj.MetadataRecord `json:"records"`
	Meta    boj.ResponseMeta     `json:"meta"`
}

// partialPayload is written in place of a full payload when a call is
// interrupted mid-pagination; it carries only enough to resume later.
type partialPayload struct {
	ResumeToken string `json:"resume_token"`
}

func encodeTimeSeriesFrame(frame boj.TimeSeriesFrame) (json.RawMessage, error) {
	return json.Marshal(timeSeriesPayload{Records: frame.Records, Meta: frame.Meta})
}

func decodeTimeSeriesFrame(raw json.RawMessage) (boj.TimeSeriesFrame, error) {
	var p timeSeriesPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return boj.TimeSeriesFrame{}, err
	}
	return boj.TimeSeriesFrame{Records: p.Records, Meta: p.Meta}, nil
}

func encodeMetadataFrame(frame boj.MetadataFrame) (json.RawMessage, error) {
	return json.Marshal(metadataPayload{Records: frame.Records, Meta: frame.Meta})
}

func decodeMetadataFrame(raw json.RawMessage) (boj.MetadataFrame, error) {
	var p metadataPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return boj.MetadataFrame{}, err
	}
	return boj.MetadataFrame{Records: p.Records, Meta: p.Meta}, nil
}

func encodePartial(token string) json.RawMessage {
	raw, _ := json.Marshal(partialPayload{ResumeToken: token})
	return raw
}

func extractIncompleteToken(raw json.RawMessage) string {
	var p partialPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return ""
	}
	return p.ResumeToken
}

// preferredResumeToken implements the cache-resume interaction rule:
// the caller-provided token wins when both are present and equivalent;
// when they diverge by chunk_index, the higher value wins.
func preferredResumeToken(callerToken, cachedToken string) string {
	if callerToken == "" {
		return cachedToken
	}
	if cachedToken == "" {
		return callerToken
	}
	callerState, err1 := decodeResumeState(callerToken)
	cachedState, err2 := decodeResumeState(cachedToken)
	if err1 != nil || err2 != nil {
		return callerToken
	}
	if cachedState.ChunkIndex > callerState.ChunkIndex {
		return cachedToken
	}
	return callerToken
}

func latestLastUpdate(records []boj.TimeSeriesRecord) string {
	var latest string
	for _, r := range records {
		if r.LastUpdate > latest {
			latest = r.LastUpdate
		}
	}
	return latest
}

func pageObservedTime(parsed *time.Time) (time.Time, bool) {
	if parsed == nil {
		return time.Time{}, false
	}
	return *parsed, true
}
