// Package transport issues the single HTTP primitive every other
// component is built on: rate-limited, retried, decoded, and
// classified against the body-status-over-HTTP-status error model.
// It holds no pagination or caching state of its own.
package transport

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ysakurai/bojstat-go/pkg/boj"
	"github.com/ysakurai/bojstat-go/pkg/parser"
	"github.com/ysakurai/bojstat-go/pkg/ratelimit"
	"github.com/ysakurai/bojstat-go/pkg/retry"
)

// Transport is the shared send() primitive described in the component
// design. One value is owned by one Client and reused across calls so
// the rate limiter and connection pool are actually shared.
type Transport struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *ratelimit.Limiter
	retryCfg   retry.Config
	parser     parser.Parser
	logger     zerolog.Logger
	rng        *rand.Rand
}

// New builds a Transport. httpClient may be nil, in which case a
// client with a 30s timeout is used (matching the teacher default).
func New(baseURL, userAgent string, httpClient *http.Client, limiter *ratelimit.Limiter, retryCfg retry.Config, p parser.Parser, logger zerolog.Logger) *Transport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Transport{
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
		limiter:    limiter,
		retryCfg:   retryCfg,
		parser:     p,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (t *Transport) totalAttempts() int {
	n := t.retryCfg.MaxAttempts
	if t.retryCfg.TransportMaxAttempts > n {
		n = t.retryCfg.TransportMaxAttempts
	}
	if n < 1 {
		n = 1
	}
	return n
}

// buildURL appends the endpoint's path to the base URL and renders
// params onto the request query string. A key's
// values are emitted in the order given — CODE's order carries meaning
// (the server's NEXTPOSITION indexes into the submitted code array) so
// only the key order, not the per-key value order, is sorted for
// determinism.
func (t *Transport) buildURL(endpoint boj.Endpoint, params map[string][]string) string {
	base := strings.TrimSuffix(t.baseURL, "/") + "/" + endpoint.String()
	values := url.Values{}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range params[k] {
			values.Add(k, v)
		}
	}
	if len(values) == 0 {
		return base
	}
	return base + "?" + values.Encode()
}

// httpResult is one completed (or transport-failed) round trip.
type httpResult struct {
	body       []byte
	statusCode int
	header     http.Header
}

func (t *Transport) roundTrip(ctx context.Context, requestURL, correlationID string) (httpResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return httpResult{}, &boj.TransportError{RequestURL: requestURL, Kind: boj.TransportInvalidURL, Err: err}
	}
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("X-Request-Id", correlationID)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return httpResult{}, &boj.TransportError{RequestURL: requestURL, Kind: classifyTransportKind(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return httpResult{statusCode: resp.StatusCode}, &boj.TransportError{RequestURL: requestURL, Kind: boj.TransportRead, Err: err}
	}
	return httpResult{body: body, statusCode: resp.StatusCode, header: resp.Header}, nil
}

func (t *Transport) sleep(ctx context.Context, attempt int, errorClass string) error {
	backoff := retry.FullJitterBackoff(t.rng, attempt, t.retryCfg.BaseDelay, t.retryCfg.CapDelay, t.retryCfg.JitterRatio)
	retriesTotal.WithLabelValues(errorClass).Inc()
	retryBackoffSeconds.WithLabelValues(errorClass).Observe(backoff.Seconds())
	if backoff <= 0 {
		return nil
	}
	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// decideBodyRetry mirrors should_retry_response: body status 500/503
// always retriable; any other parseable body status under an HTTP 5xx
// is not retried (the body status governs); otherwise fall back to
// HTTP-status semantics, with the 403+Retry-After extension.
func (t *Transport) decideBodyRetry(bodyStatus, httpStatus int, header http.Header) bool {
	if retry.ShouldRetryBodyStatus(bodyStatus) {
		return true
	}
	if bodyStatus != 0 && httpStatus >= 500 {
		return false
	}
	_, hasRetryAfter := headerRetryAfter(header)
	if httpStatus == 403 && t.retryCfg.RetryOn403 && hasRetryAfter {
		return true
	}
	return retry.ShouldRetryHTTPStatus(httpStatus, t.retryCfg.RetryOn403, hasRetryAfter)
}

func headerRetryAfter(header http.Header) (time.Duration, bool) {
	if header == nil {
		return 0, false
	}
	return retry.ParseRetryAfter(header.Get("Retry-After"))
}

// SendData issues getDataCode/getDataLayer requests.
func (t *Transport) SendData(ctx context.Context, endpoint boj.Endpoint, params map[string][]string, lang boj.Lang, format boj.Format) (boj.DataPage, error) {
	requestURL := t.buildURL(endpoint, params)
	correlationID := uuid.NewString()
	logger := t.logger.With().Str("request_id", correlationID).Str("endpoint", endpoint.String()).Logger()
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint.String()).Observe(time.Since(start).Seconds())
	}()

	var lastTransportErr error
	totalAttempts := t.totalAttempts()

	for a := 1; a <= totalAttempts; a++ {
		if _, err := t.limiter.Acquire(ctx); err != nil {
			return boj.DataPage{}, &boj.TransportError{RequestURL: requestURL, Kind: boj.TransportConnect, Err: err}
		}

		res, err := t.roundTrip(ctx, requestURL, correlationID)
		if err != nil {
			lastTransportErr = err
			kind := transportErrorKind(err)
			logger.Warn().Err(err).Int("attempt", a).Msg("transport attempt failed")
			errorsTotal.WithLabelValues(string(kind)).Inc()
			if retry.ShouldRetryTransportError(kind) && a < t.retryCfg.TransportMaxAttempts {
				if sleepErr := t.sleep(ctx, a-1, string(kind)); sleepErr != nil {
					return boj.DataPage{}, sleepErr
				}
				continue
			}
			requestsTotal.WithLabelValues(endpoint.String(), "transport_error").Inc()
			return boj.DataPage{}, err
		}

		page, perr := t.parser.ParseData(res.body, lang, format)
		excerpt := truncate(string(res.body))
		if perr != nil {
			requestsTotal.WithLabelValues(endpoint.String(), "unparseable").Inc()
			gwErr := boj.NewGatewayError(res.statusCode, requestURL, excerpt)
			if t.decideBodyRetry(0, res.statusCode, res.header) && a < t.retryCfg.MaxAttempts {
				if sleepErr := t.sleep(ctx, a-1, "gateway"); sleepErr != nil {
					return boj.DataPage{}, sleepErr
				}
				continue
			}
			return boj.DataPage{}, gwErr
		}
		page.RequestURL = requestURL

		if page.Status != 200 {
			errorsTotal.WithLabelValues(strconv.Itoa(page.Status)).Inc()
			if t.decideBodyRetry(page.Status, res.statusCode, res.header) && a < t.retryCfg.MaxAttempts {
				retryAfter, _ := headerRetryAfter(res.header)
				decision := retry.DecideWait(durationPtr(retryAfter), 0, retry.FullJitterBackoff(t.rng, a-1, t.retryCfg.BaseDelay, t.retryCfg.CapDelay, t.retryCfg.JitterRatio))
				retriesTotal.WithLabelValues(strconv.Itoa(page.Status)).Inc()
				if sleepErr := t.waitFor(ctx, decision.Wait); sleepErr != nil {
					return boj.DataPage{}, sleepErr
				}
				continue
			}
			requestsTotal.WithLabelValues(endpoint.String(), strconv.Itoa(page.Status)).Inc()
			return page, classifyBodyStatus(page.Status, page.MessageID, page.Message, requestURL, excerpt)
		}

		requestsTotal.WithLabelValues(endpoint.String(), "200").Inc()
		return page, nil
	}

	retryExhaustedTotal.WithLabelValues("transport").Inc()
	if lastTransportErr != nil {
		return boj.DataPage{}, lastTransportErr
	}
	return boj.DataPage{}, &boj.TransportError{RequestURL: requestURL, Kind: boj.TransportConnect, Err: fmt.Errorf("exhausted attempts")}
}

// SendMetadata issues getMetadata requests. Structurally identical to
// SendData, duplicated rather than made generic over the two page
// shapes, matching the original implementation's own sync/async
// duplication style rather than introducing an abstraction the spec
// never asked for.
func (t *Transport) SendMetadata(ctx context.Context, params map[string][]string, lang boj.Lang, format boj.Format) (boj.MetadataPage, error) {
	requestURL := t.buildURL(boj.EndpointMetadata, params)
	correlationID := uuid.NewString()
	logger := t.logger.With().Str("request_id", correlationID).Str("endpoint", boj.EndpointMetadata.String()).Logger()
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(boj.EndpointMetadata.String()).Observe(time.Since(start).Seconds())
	}()

	var lastTransportErr error
	totalAttempts := t.totalAttempts()

	for a := 1; a <= totalAttempts; a++ {
		if _, err := t.limiter.Acquire(ctx); err != nil {
			return boj.MetadataPage{}, &boj.TransportError{RequestURL: requestURL, Kind: boj.TransportConnect, Err: err}
		}

		res, err := t.roundTrip(ctx, requestURL, correlationID)
		if err != nil {
			lastTransportErr = err
			kind := transportErrorKind(err)
			logger.Warn().Err(err).Int("attempt", a).Msg("transport attempt failed")
			errorsTotal.WithLabelValues(string(kind)).Inc()
			if retry.ShouldRetryTransportError(kind) && a < t.retryCfg.TransportMaxAttempts {
				if sleepErr := t.sleep(ctx, a-1, string(kind)); sleepErr != nil {
					return boj.MetadataPage{}, sleepErr
				}
				continue
			}
			requestsTotal.WithLabelValues(boj.EndpointMetadata.String(), "transport_error").Inc()
			return boj.MetadataPage{}, err
		}

		page, perr := t.parser.ParseMetadata(res.body, lang, format)
		excerpt := truncate(string(res.body))
		if perr != nil {
			requestsTotal.WithLabelValues(boj.EndpointMetadata.String(), "unparseable").Inc()
			gwErr := boj.NewGatewayError(res.statusCode, requestURL, excerpt)
			if t.decideBodyRetry(0, res.statusCode, res.header) && a < t.retryCfg.MaxAttempts {
				if sleepErr := t.sleep(ctx, a-1, "gateway"); sleepErr != nil {
					return boj.MetadataPage{}, sleepErr
				}
				continue
			}
			return boj.MetadataPage{}, gwErr
		}
		page.RequestURL = requestURL

		if page.Status != 200 {
			errorsTotal.WithLabelValues(strconv.Itoa(page.Status)).Inc()
			if t.decideBodyRetry(page.Status, res.statusCode, res.header) && a < t.retryCfg.MaxAttempts {
				retryAfter, _ := headerRetryAfter(res.header)
				decision := retry.DecideWait(durationPtr(retryAfter), 0, retry.FullJitterBackoff(t.rng, a-1, t.retryCfg.BaseDelay, t.retryCfg.CapDelay, t.retryCfg.JitterRatio))
				retriesTotal.WithLabelValues(strconv.Itoa(page.Status)).Inc()
				if sleepErr := t.waitFor(ctx, decision.Wait); sleepErr != nil {
					return boj.MetadataPage{}, sleepErr
				}
				continue
			}
			requestsTotal.WithLabelValues(boj.EndpointMetadata.String(), strconv.Itoa(page.Status)).Inc()
			return page, classifyBodyStatus(page.Status, page.MessageID, page.Message, requestURL, excerpt)
		}

		requestsTotal.WithLabelValues(boj.EndpointMetadata.String(), "200").Inc()
		return page, nil
	}

	retryExhaustedTotal.WithLabelValues("transport").Inc()
	if lastTransportErr != nil {
		return boj.MetadataPage{}, lastTransportErr
	}
	return boj.MetadataPage{}, &boj.TransportError{RequestURL: requestURL, Kind: boj.TransportConnect, Err: fmt.Errorf("exhausted attempts")}
}

func (t *Transport) waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func durationPtr(d time.Duration) *time.Duration {
	if d <= 0 {
		return nil
	}
	return &d
}

func truncate(s string) string {
	const limit = 2048
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// classifyBodyStatus turns a non-200 body STATUS into the matching
// *boj.APIError, mirroring the original implementation's
// _make_api_error switch on parsed.status.
func classifyBodyStatus(status int, messageID, message, requestURL, excerpt string) error {
	switch status {
	case 400:
		return boj.NewBadRequest(status, messageID, message, requestURL, excerpt)
	case 500:
		return boj.NewServerError(status, messageID, message, requestURL, excerpt)
	case 503:
		return boj.NewUnavailable(status, messageID, message, requestURL, excerpt)
	default:
		if status >= 500 {
			return boj.NewServerError(status, messageID, message, requestURL, excerpt)
		}
		return boj.NewBadRequest(status, messageID, message, requestURL, excerpt)
	}
}

func transportErrorKind(err error) boj.TransportKind {
	if terr, ok := err.(*boj.TransportError); ok {
		return terr.Kind
	}
	return boj.TransportConnect
}

func classifyTransportKind(err error) boj.TransportKind {
	if urlErr, ok := err.(*url.Error); ok {
		if urlErr.Timeout() {
			return boj.TransportTimeout
		}
		return boj.TransportConnect
	}
	if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
		return boj.TransportTimeout
	}
	return boj.TransportConnect
}
