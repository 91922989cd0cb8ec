// Package testutil provides testing utilities for the BOJ statistics
// client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockBOJResponse defines the behavior for one scripted mock BOJ
// response.
type MockBOJResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockBOJ is a configurable mock BOJ time-series server for testing,
// scripted per call rather than per path since a single call can
// paginate through several pages of the same logical endpoint.
type MockBOJ struct {
	server *httptest.Server
	mu     sync.Mutex

	sequence []MockBOJResponse
	next     int
	handler  func(w http.ResponseWriter, r *http.Request)

	RequestCount int
	LastQuery    []map[string][]string
}

// NewMockBOJ creates a new mock BOJ server. With no scripted sequence
// or handler installed it serves a single empty-data 200 response.
func NewMockBOJ() *MockBOJ {
	mock := &MockBOJ{}
	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastQuery = append(mock.LastQuery, map[string][]string(r.URL.Query()))
		handler := mock.handler
		mock.mu.Unlock()

		if handler != nil {
			handler(w, r)
			return
		}
		mock.serveSequence(w, r)
	}))
	return mock
}

func (m *MockBOJ) serveSequence(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	var resp MockBOJResponse
	if m.next < len(m.sequence) {
		resp = m.sequence[m.next]
		m.next++
	} else {
		resp = NewOKPageResponse(200, "M181000I", nil, "[]")
	}
	m.mu.Unlock()
	writeMockResponse(w, resp)
}

func writeMockResponse(w http.ResponseWriter, resp MockBOJResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	code := resp.StatusCode
	if code == 0 {
		code = http.StatusOK
	}
	w.WriteHeader(code)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
}

// URL returns the mock server URL.
func (m *MockBOJ) URL() string { return m.server.URL }

// Close shuts down the mock server.
func (m *MockBOJ) Close() { m.server.Close() }

// SetHandler installs a custom handler, bypassing the scripted
// sequence entirely.
func (m *MockBOJ) SetHandler(h func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

// SetSequence scripts one response per successive request; requests
// beyond the sequence length receive a canned empty-data 200.
func (m *MockBOJ) SetSequence(responses ...MockBOJResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = responses
	m.next = 0
}

// Requests returns how many requests the server has received.
func (m *MockBOJ) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

func envelopeJSON(status int, messageID string, nextPosition *int, getData string) string {
	next := "null"
	if nextPosition != nil {
		next = fmt.Sprintf("%d", *nextPosition)
	}
	return fmt.Sprintf(`{"STATUS":%d,"MESSAGEID":%q,"MESSAGE":"","DATE":"2026/03/04 08:50:00","NEXTPOSITION":%s,"GET_DATA":%s}`,
		status, messageID, next, getData)
}

// NewOKPageResponse builds a 200 body carrying the given raw GET_DATA
// array and NEXTPOSITION.
func NewOKPageResponse(status int, messageID string, nextPosition *int, getData string) MockBOJResponse {
	return MockBOJResponse{
		StatusCode: http.StatusOK,
		Body:       envelopeJSON(status, messageID, nextPosition, getData),
	}
}

// NewNoDataResponse builds the documented "no matching rows" response.
func NewNoDataResponse() MockBOJResponse {
	return NewOKPageResponse(200, "M181030I", nil, "[]")
}

// NewBadRequestResponse builds a body-level 400 error response.
func NewBadRequestResponse(messageID string) MockBOJResponse {
	return MockBOJResponse{
		StatusCode: http.StatusOK,
		Body:       envelopeJSON(400, messageID, nil, "[]"),
	}
}

// NewServerErrorResponse builds a body-level 500 error response.
func NewServerErrorResponse() MockBOJResponse {
	return MockBOJResponse{
		StatusCode: http.StatusOK,
		Body:       envelopeJSON(500, "M181090S", nil, "[]"),
	}
}

// NewUnavailableResponse builds a body-level 503 error response.
func NewUnavailableResponse() MockBOJResponse {
	return MockBOJResponse{
		StatusCode: http.StatusOK,
		Body:       envelopeJSON(503, "M181091S", nil, "[]"),
	}
}

// NewStalledPageResponse builds a response whose NEXTPOSITION does not
// exceed the supplied cursor, triggering the pager's stall detection.
func NewStalledPageResponse(cursor int) MockBOJResponse {
	return NewOKPageResponse(200, "M181000I", &cursor, "[]")
}

// NewUnparseableResponse builds a 200 whose body is not valid JSON.
func NewUnparseableResponse() MockBOJResponse {
	return MockBOJResponse{
		StatusCode: http.StatusOK,
		Body:       "not json at all {{{",
	}
}
