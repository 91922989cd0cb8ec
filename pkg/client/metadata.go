package client

import (
	"context"
	"time"

	"github.com/ysakurai/bojstat-go/pkg/boj"
	"github.com/ysakurai/bojstat-go/pkg/cache"
	"github.com/ysakurai/bojstat-go/pkg/resume"
)

// GetMetadata runs the single-request, no-pagination path for
// getMetadata: fingerprint, cache lookup, one Transport call, cache
// store.
func (c *Client) GetMetadata(ctx context.Context, req boj.Request) (boj.MetadataFrame, error) {
	req = c.applyRequestDefaults(req)
	if err := req.Validate(); err != nil {
		return boj.MetadataFrame{}, err
	}

	fp := c.fingerprintFor(req, boj.EndpointMetadata)
	cacheKey := resume.BuildFingerprint(fp)

	mode := c.config.Cache.Mode
	if c.config.MetadataFreshnessStrict {
		mode = boj.CacheIfStale
	}

	if hit, err := c.cache.Get(cacheKey, mode, false); err == nil && hit != nil && c.metadataEntryFresh(hit.Entry) {
		if frame, derr := decodeMetadataFrame(hit.Entry.Payload); derr == nil {
			return frame, nil
		}
	}

	params := buildMetadataParams(req)
	page, err := c.transport.SendMetadata(ctx, params, req.Lang, req.Format)
	if err != nil {
		return boj.MetadataFrame{}, err
	}

	records := page.Rows
	meta := boj.ResponseMeta{
		Status:            page.Status,
		MessageID:         page.MessageID,
		Message:           page.Message,
		DateRaw:           page.DateRaw,
		DateParsed:        page.DateParsed,
		RequestURL:        page.RequestURL,
		SchemaVersion:     boj.SchemaVersion,
		ParserVersion:     boj.ParserVersion,
		NormalizerVersion: boj.NormalizerVersion,
	}
	frame := boj.MetadataFrame{Records: records, Meta: meta}

	if payload, perr := encodeMetadataFrame(frame); perr == nil {
		_ = c.cache.Set(cacheKey, payload, true, frame.Meta.DateParsed, "")
	}
	return frame, nil
}

// metadataEntryFresh applies the endpoint-specific freshness override
// from §4.4: Metadata ignores the plain written_at+ttl rule and instead
// compares the entry's observed api_date_parsed against the configured
// publish window, shifting the staleness reference to "has a publish
// window boundary been crossed since this entry was observed". The
// boundary is the most recent daily start of the window in JST. An
// entry with no observed date carries no freshness signal and is
// always treated as stale.
func (c *Client) metadataEntryFresh(entry cache.Entry) bool {
	if entry.APIDateObserved == nil {
		return false
	}
	jst := time.FixedZone("JST", 9*60*60)
	now := time.Now().In(jst)
	w := c.config.Cache.PublishWindow
	boundary := time.Date(now.Year(), now.Month(), now.Day(), w.StartHour, w.StartMinute, 0, 0, jst)
	if boundary.After(now) {
		boundary = boundary.AddDate(0, 0, -1)
	}
	return !entry.APIDateObserved.Before(boundary)
}
