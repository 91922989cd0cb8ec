package transport

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysakurai/bojstat-go/internal/testutil"
	"github.com/ysakurai/bojstat-go/pkg/boj"
	"github.com/ysakurai/bojstat-go/pkg/parser"
	"github.com/ysakurai/bojstat-go/pkg/ratelimit"
	"github.com/ysakurai/bojstat-go/pkg/retry"
)

func fastRetryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.BaseDelay = time.Millisecond
	cfg.CapDelay = 5 * time.Millisecond
	return cfg
}

func newTestTransport(baseURL string, cfg retry.Config) *Transport {
	limiter := ratelimit.NewLimiter(1000)
	return New(baseURL, "bojstat-go-test/1.0", nil, limiter, cfg, parser.NewDefault(), zerolog.Nop())
}

func TestTransport_SendData_Success(t *testing.T) {
	mock := testutil.NewMockBOJ()
	defer mock.Close()
	mock.SetSequence(testutil.NewOKPageResponse(200, "M181000I", nil, `[{"SERIES_CODE":"BS01","SURVEY_DATE":"202401","VALUE":"1.0"}]`))

	tr := newTestTransport(mock.URL(), fastRetryConfig())
	page, err := tr.SendData(context.Background(), boj.EndpointCode, map[string][]string{"db": {"FM08"}}, boj.LangEN, boj.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 200, page.Status)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "BS01", page.Rows[0].SeriesCode)
	assert.Equal(t, 1, mock.Requests())
}

func TestTransport_SendData_RetriesOnServerErrorThenSucceeds(t *testing.T) {
	mock := testutil.NewMockBOJ()
	defer mock.Close()
	mock.SetSequence(
		testutil.NewServerErrorResponse(),
		testutil.NewOKPageResponse(200, "M181000I", nil, `[]`),
	)

	tr := newTestTransport(mock.URL(), fastRetryConfig())
	page, err := tr.SendData(context.Background(), boj.EndpointCode, nil, boj.LangEN, boj.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 200, page.Status)
	assert.Equal(t, 2, mock.Requests())
}

func TestTransport_SendData_BadRequestNeverRetries(t *testing.T) {
	mock := testutil.NewMockBOJ()
	defer mock.Close()
	mock.SetSequence(testutil.NewBadRequestResponse("M181014E"))

	tr := newTestTransport(mock.URL(), fastRetryConfig())
	_, err := tr.SendData(context.Background(), boj.EndpointCode, nil, boj.LangEN, boj.FormatJSON)
	require.Error(t, err)
	var apiErr *boj.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, boj.KindBadRequest, apiErr.Kind)
	assert.Equal(t, "M181014E", apiErr.MessageID)
	assert.Equal(t, 1, mock.Requests())
}

func TestTransport_SendData_ExhaustsRetriesOnPersistentServerError(t *testing.T) {
	mock := testutil.NewMockBOJ()
	defer mock.Close()
	cfg := fastRetryConfig()
	cfg.MaxAttempts = 3
	mock.SetSequence(
		testutil.NewServerErrorResponse(),
		testutil.NewServerErrorResponse(),
		testutil.NewServerErrorResponse(),
	)

	tr := newTestTransport(mock.URL(), cfg)
	_, err := tr.SendData(context.Background(), boj.EndpointCode, nil, boj.LangEN, boj.FormatJSON)
	require.Error(t, err)
	var apiErr *boj.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, boj.KindServerError, apiErr.Kind)
	assert.Equal(t, 3, mock.Requests())
}

func TestTransport_SendData_UnparseableBodyBecomesGatewayError(t *testing.T) {
	mock := testutil.NewMockBOJ()
	defer mock.Close()
	cfg := fastRetryConfig()
	cfg.MaxAttempts = 1
	mock.SetSequence(testutil.NewUnparseableResponse())

	tr := newTestTransport(mock.URL(), cfg)
	_, err := tr.SendData(context.Background(), boj.EndpointCode, nil, boj.LangEN, boj.FormatJSON)
	require.Error(t, err)
	var apiErr *boj.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, boj.KindGateway, apiErr.Kind)
	assert.Equal(t, "UNPARSEABLE_RESPONSE", apiErr.MessageID)
}

func TestTransport_SendData_HonorsCancellation(t *testing.T) {
	mock := testutil.NewMockBOJ()
	defer mock.Close()
	cfg := fastRetryConfig()
	cfg.BaseDelay = time.Second
	cfg.CapDelay = time.Second
	mock.SetSequence(
		testutil.NewServerErrorResponse(),
		testutil.NewServerErrorResponse(),
	)

	tr := newTestTransport(mock.URL(), cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := tr.SendData(ctx, boj.EndpointCode, nil, boj.LangEN, boj.FormatJSON)
	require.Error(t, err)
}

func TestTransport_SendMetadata_Success(t *testing.T) {
	mock := testutil.NewMockBOJ()
	defer mock.Close()
	mock.SetSequence(testutil.NewOKPageResponse(200, "M181000I", nil, `[{"SERIES_CODE":"BS01","LAYER1":"L1"}]`))

	tr := newTestTransport(mock.URL(), fastRetryConfig())
	page, err := tr.SendMetadata(context.Background(), map[string][]string{"db": {"FM08"}}, boj.LangEN, boj.FormatJSON)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "L1", page.Rows[0].Layer1)
}
