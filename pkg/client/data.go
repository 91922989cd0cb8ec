package client

import (
	"context"
	"time"

	"github.com/ysakurai/bojstat-go/pkg/boj"
	"github.com/ysakurai/bojstat-go/pkg/consistency"
	"github.com/ysakurai/bojstat-go/pkg/pager"
	"github.com/ysakurai/bojstat-go/pkg/resume"
)

// GetByCode runs the Pagination Driver (C11) for getDataCode: plan
// chunks, page through each chunk sequentially, dedupe and sort the
// accumulated rows, and cache the finished frame.
func (c *Client) GetByCode(ctx context.Context, req boj.Request) (boj.TimeSeriesFrame, error) {
	req = c.applyRequestDefaults(req)
	if err := req.Validate(); err != nil {
		return boj.TimeSeriesFrame{}, err
	}

	fp := c.fingerprintFor(req, boj.EndpointCode)
	cacheKey := resume.BuildFingerprint(fp)

	if req.ResumeToken == "" {
		if frame, ok := c.lookupCompleteTimeSeries(cacheKey, req); ok {
			return frame, nil
		}
	}

	chunkPlan, err := pager.PlanCodeChunks(req)
	if err != nil {
		return boj.TimeSeriesFrame{}, err
	}

	resumeToken := preferredResumeToken(req.ResumeToken, c.incompleteToken(cacheKey, req))

	startChunkIndex, startPosition, err := c.resolveResumePosition(resumeToken, fp, len(chunkPlan)-1)
	if err != nil {
		return boj.TimeSeriesFrame{}, err
	}

	codeOrderMap := buildCodeOrderMap(req.Codes)
	guard := consistency.Guard{Mode: req.ConsistencyMode, Window: c.config.Cache.PublishWindow}
	dedup := newDeduper(guard)

	var firstPageTime, currentPageTime time.Time
	var haveFirstPageTime bool
	var lastMeta boj.PageMeta
	var consistencySignal string
	var consistencyDetails map[string]any
	pageCounter := 0

	for chunkIdx := startChunkIndex; chunkIdx < len(chunkPlan); chunkIdx++ {
		codes := chunkPlan[chunkIdx]
		state := pager.NewCodePagerState(chunkIdx, startPosition)
		startPosition = 0

		for {
			params := buildCodeParams(req, codes, state.StartPosition)
			page, serr := c.transport.SendData(ctx, boj.EndpointCode, params, req.Lang, req.Format)
			if serr != nil {
				if ctx.Err() == nil || chunkIdx > startChunkIndex {
					c.writeInterruption(cacheKey, fp, boj.EndpointCode.String(), chunkIdx, state.StartPosition)
				}
				return boj.TimeSeriesFrame{}, serr
			}
			lastMeta = page.PageMeta

			if t, ok := pageObservedTime(page.DateParsed); ok {
				currentPageTime = t
				if !haveFirstPageTime {
					firstPageTime = t
					haveFirstPageTime = true
				}
				signal, werr := guard.ObserveWindow(firstPageTime, currentPageTime)
				if werr != nil {
					c.writeInterruption(cacheKey, fp, boj.EndpointCode.String(), chunkIdx, state.StartPosition)
					return boj.TimeSeriesFrame{}, werr
				}
				if signal != "" {
					consistencySignal = signal
					consistencyDetails = map[string]any{"first": firstPageTime, "current": currentPageTime}
				}
			}

			for i, row := range page.Rows {
				row.SourcePageIndex = pageCounter
				row.SourceRowIndex = i
				if idx, ok := codeOrderMap[row.SeriesCode]; ok {
					row.OriginalCodeIndex = idx
				}
				if derr := dedup.Add(row); derr != nil {
					c.writeInterruption(cacheKey, fp, boj.EndpointCode.String(), chunkIdx, state.StartPosition)
					return boj.TimeSeriesFrame{}, derr
				}
			}
			pageCounter++

			advance, aerr := pager.AdvanceCode(&state, page.NextPosition)
			if aerr != nil {
				c.writeInterruption(cacheKey, fp, boj.EndpointCode.String(), chunkIdx, state.StartPosition)
				return boj.TimeSeriesFrame{}, aerr
			}
			if advance == pager.AdvanceDone {
				break
			}
		}
	}

	if consistencySignal == "" && dedup.conflictsCount > 0 {
		consistencySignal = "last_update_conflict"
	}

	records := sortRecords(dedup.Records(), req.OutputOrder)
	finalToken, _ := resume.Encode(resume.NewState(boj.EndpointCode.String(), fp, len(chunkPlan), 1, nil))
	meta := boj.ResponseMeta{
		Status:             lastMeta.Status,
		MessageID:          lastMeta.MessageID,
		Message:            lastMeta.Message,
		DateRaw:            lastMeta.DateRaw,
		DateParsed:         lastMeta.DateParsed,
		RequestURL:         lastMeta.RequestURL,
		SchemaVersion:      boj.SchemaVersion,
		ParserVersion:      boj.ParserVersion,
		NormalizerVersion:  boj.NormalizerVersion,
		ResumeToken:        finalToken,
		ConsistencySignal:  consistencySignal,
		ConsistencyDetails: consistencyDetails,
		ConflictResolution: req.ConflictResolution,
		ConflictsCount:     dedup.conflictsCount,
		ConflictsSample:    dedup.conflictsSample,
	}
	frame := boj.TimeSeriesFrame{Records: records, Meta: meta}
	c.storeCompleteTimeSeries(cacheKey, frame)
	return frame, nil
}

// GetByLayer runs the Pagination Driver for getDataLayer: a single
// global cursor rather than a chunk plan, with the 1,250-series
// overflow check applied after every page that carries a further
// next position.
func (c *Client) GetByLayer(ctx context.Context, req boj.Request) (boj.TimeSeriesFrame, error) {
	req = c.applyRequestDefaults(req)
	if err := req.Validate(); err != nil {
		return boj.TimeSeriesFrame{}, err
	}

	fp := c.fingerprintFor(req, boj.EndpointLayer)
	cacheKey := resume.BuildFingerprint(fp)

	if req.ResumeToken == "" {
		if frame, ok := c.lookupCompleteTimeSeries(cacheKey, req); ok {
			return frame, nil
		}
	}

	resumeToken := preferredResumeToken(req.ResumeToken, c.incompleteToken(cacheKey, req))

	startPosition := 0
	if resumeToken != "" {
		s, derr := resume.Decode(resumeToken)
		if derr != nil {
			return boj.TimeSeriesFrame{}, &boj.ResumeTokenMismatchError{Reason: "decode_error"}
		}
		if verr := resume.Validate(s, fp, 0); verr != nil {
			return boj.TimeSeriesFrame{}, verr
		}
		startPosition = s.NextPosition
	}

	guard := consistency.Guard{Mode: req.ConsistencyMode, Window: c.config.Cache.PublishWindow}
	dedup := newDeduper(guard)
	state := pager.NewLayerPagerState(startPosition)

	var firstPageTime, currentPageTime time.Time
	var haveFirstPageTime bool
	var lastMeta boj.PageMeta
	var consistencySignal string
	var consistencyDetails map[string]any
	pageCounter := 0
	observedRows := 0

	for {
		params := buildLayerParams(req, state.StartPosition)
		page, serr := c.transport.SendData(ctx, boj.EndpointLayer, params, req.Lang, req.Format)
		if serr != nil {
			if ctx.Err() == nil {
				c.writeInterruption(cacheKey, fp, boj.EndpointLayer.String(), 0, state.StartPosition)
			}
			return boj.TimeSeriesFrame{}, serr
		}
		lastMeta = page.PageMeta

		if t, ok := pageObservedTime(page.DateParsed); ok {
			currentPageTime = t
			if !haveFirstPageTime {
				firstPageTime = t
				haveFirstPageTime = true
			}
			signal, werr := guard.ObserveWindow(firstPageTime, currentPageTime)
			if werr != nil {
				c.writeInterruption(cacheKey, fp, boj.EndpointLayer.String(), 0, state.StartPosition)
				return boj.TimeSeriesFrame{}, werr
			}
			if signal != "" {
				consistencySignal = signal
				consistencyDetails = map[string]any{"first": firstPageTime, "current": currentPageTime}
			}
		}

		for i, row := range page.Rows {
			row.SourcePageIndex = pageCounter
			row.SourceRowIndex = i
			row.OriginalCodeIndex = -1
			if derr := dedup.Add(row); derr != nil {
				c.writeInterruption(cacheKey, fp, boj.EndpointLayer.String(), 0, state.StartPosition)
				return boj.TimeSeriesFrame{}, derr
			}
		}
		pageCounter++
		observedRows += len(page.Rows)

		if oerr := pager.CheckLayerOverflow(observedRows); oerr != nil && page.NextPosition != nil && *page.NextPosition != 0 {
			c.writeInterruption(cacheKey, fp, boj.EndpointLayer.String(), 0, state.StartPosition)
			return boj.TimeSeriesFrame{}, oerr
		}

		advance, aerr := pager.AdvanceLayer(&state, page.NextPosition)
		if aerr != nil {
			c.writeInterruption(cacheKey, fp, boj.EndpointLayer.String(), 0, state.StartPosition)
			return boj.TimeSeriesFrame{}, aerr
		}
		if advance == pager.AdvanceDone {
			break
		}
	}

	if consistencySignal == "" && dedup.conflictsCount > 0 {
		consistencySignal = "last_update_conflict"
	}

	records := sortRecords(dedup.Records(), req.OutputOrder)
	finalToken, _ := resume.Encode(resume.NewState(boj.EndpointLayer.String(), fp, 0, state.StartPosition, nil))
	meta := boj.ResponseMeta{
		Status:             lastMeta.Status,
		MessageID:          lastMeta.MessageID,
		Message:            lastMeta.Message,
		DateRaw:            lastMeta.DateRaw,
		DateParsed:         lastMeta.DateParsed,
		RequestURL:         lastMeta.RequestURL,
		SchemaVersion:      boj.SchemaVersion,
		ParserVersion:      boj.ParserVersion,
		NormalizerVersion:  boj.NormalizerVersion,
		ResumeToken:        finalToken,
		ConsistencySignal:  consistencySignal,
		ConsistencyDetails: consistencyDetails,
		ConflictResolution: req.ConflictResolution,
		ConflictsCount:     dedup.conflictsCount,
		ConflictsSample:    dedup.conflictsSample,
	}
	frame := boj.TimeSeriesFrame{Records: records, Meta: meta}
	c.storeCompleteTimeSeries(cacheKey, frame)
	return frame, nil
}

func (c *Client) applyRequestDefaults(req boj.Request) boj.Request {
	if req.Lang == "" {
		req.Lang = c.config.Lang
	}
	if req.Format == "" {
		req.Format = c.config.Format
	}
	return req
}

func (c *Client) fingerprintFor(req boj.Request, endpoint boj.Endpoint) resume.FingerprintComponents {
	return resume.FingerprintComponents{
		APIOrigin:          c.config.BaseURL,
		Endpoint:           endpoint,
		DB:                 req.DB,
		Codes:              req.Codes,
		Layer:              req.Layer,
		Frequency:          req.Frequency,
		Start:              req.Start,
		End:                req.End,
		StrictAPI:          req.StrictAPI,
		AutoSplitCodes:     req.AutoSplitCodes,
		ConsistencyMode:    req.ConsistencyMode,
		ConflictResolution: req.ConflictResolution,
		OutputOrder:        req.OutputOrder,
		Lang:               req.Lang,
		Format:             req.Format,
		RawParams:          req.RawParams,
		ParserVersion:      boj.ParserVersion,
		NormalizerVersion:  boj.NormalizerVersion,
		SchemaVersion:      boj.SchemaVersion,
	}
}

// lookupCompleteTimeSeries serves a cached frame only when it is both
// complete and fresh. Code/Layer ignore DATE as a freshness source per
// §4.4 and rely on the Cache Gateway's own TTL-based Stale flag; a
// stale hit falls through to a live fetch rather than being served.
func (c *Client) lookupCompleteTimeSeries(cacheKey string, req boj.Request) (boj.TimeSeriesFrame, bool) {
	hit, err := c.cache.Get(cacheKey, cacheModeFor(req, c.config), false)
	if err != nil || hit == nil || hit.Stale {
		return boj.TimeSeriesFrame{}, false
	}
	frame, derr := decodeTimeSeriesFrame(hit.Entry.Payload)
	if derr != nil {
		return boj.TimeSeriesFrame{}, false
	}
	return frame, true
}

func (c *Client) incompleteToken(cacheKey string, req boj.Request) string {
	hit, err := c.cache.Get(cacheKey, cacheModeFor(req, c.config), true)
	if err != nil || hit == nil || hit.Entry.Complete {
		return ""
	}
	return extractIncompleteToken(hit.Entry.Payload)
}

func (c *Client) resolveResumePosition(token string, fp resume.FingerprintComponents, maxChunkIndex int) (chunkIndex, startPosition int, err error) {
	if token == "" {
		return 0, 0, nil
	}
	s, derr := resume.Decode(token)
	if derr != nil {
		return 0, 0, &boj.ResumeTokenMismatchError{Reason: "decode_error"}
	}
	if verr := resume.Validate(s, fp, maxChunkIndex); verr != nil {
		return 0, 0, verr
	}
	return s.ChunkIndex, s.NextPosition, nil
}

func (c *Client) writeInterruption(cacheKey string, fp resume.FingerprintComponents, api string, chunkIndex, nextPosition int) {
	token, err := resume.Encode(resume.NewState(api, fp, chunkIndex, nextPosition, nil))
	if err != nil {
		return
	}
	_ = c.cache.Set(cacheKey, encodePartial(token), false, nil, "")
}

func (c *Client) storeCompleteTimeSeries(cacheKey string, frame boj.TimeSeriesFrame) {
	payload, err := encodeTimeSeriesFrame(frame)
	if err != nil {
		return
	}
	_ = c.cache.Set(cacheKey, payload, true, frame.Meta.DateParsed, latestLastUpdate(frame.Records))
}

func cacheModeFor(req boj.Request, cfg Config) boj.CacheMode {
	return cfg.Cache.Mode
}

func buildCodeOrderMap(codes []string) map[string]int {
	m := make(map[string]int, len(codes))
	for i, code := range codes {
		if _, seen := m[code]; !seen {
			m[code] = i
		}
	}
	return m
}
