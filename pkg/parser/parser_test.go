package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysakurai/bojstat-go/pkg/boj"
)

func TestDefault_ParseData_JSON(t *testing.T) {
	body := []byte(`{
		"STATUS": 200,
		"MESSAGEID": "M181000I",
		"MESSAGE": "OK",
		"DATE": "2026/03/04 08:50:00",
		"NEXTPOSITION": 3,
		"GET_DATA": [
			{"SERIES_CODE": "BS01'MADB1", "SERIES_NAME": "Test", "UNIT": "YEN", "FREQUENCY": "M", "LAST_UPDATE": "20260304", "SURVEY_DATE": "202401", "VALUE": "123.4"}
		]
	}`)

	p := NewDefault()
	page, err := p.ParseData(body, boj.LangEN, boj.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 200, page.Status)
	assert.Equal(t, "M181000I", page.MessageID)
	require.NotNil(t, page.NextPosition)
	assert.Equal(t, 3, *page.NextPosition)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "BS01'MADB1", page.Rows[0].SeriesCode)
	assert.Equal(t, "202401", page.Rows[0].SurveyDate)
	f, ok := page.Rows[0].Value.Float64()
	require.True(t, ok)
	assert.InDelta(t, 123.4, f, 0.0001)
}

func TestDefault_ParseData_JSON_NumericValuePreservesExactLiteral(t *testing.T) {
	body := []byte(`{
		"STATUS": 200,
		"MESSAGEID": "M181000I",
		"DATE": "2026/03/04",
		"NEXTPOSITION": null,
		"GET_DATA": [
			{"SERIES_CODE": "X", "SURVEY_DATE": "202401", "VALUE": 123456789.123456}
		]
	}`)
	p := NewDefault()
	page, err := p.ParseData(body, boj.LangEN, boj.FormatJSON)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "123456789.123456", page.Rows[0].Value.String())
}

func TestDefault_ParseData_JSON_NullValuePreserved(t *testing.T) {
	body := []byte(`{
		"STATUS": 200,
		"MESSAGEID": "M181000I",
		"DATE": "2026/03/04",
		"NEXTPOSITION": null,
		"GET_DATA": [
			{"SERIES_CODE": "X", "SURVEY_DATE": "202401", "VALUE": null}
		]
	}`)
	p := NewDefault()
	page, err := p.ParseData(body, boj.LangEN, boj.FormatJSON)
	require.NoError(t, err)
	assert.Nil(t, page.NextPosition)
	require.Len(t, page.Rows, 1)
	assert.True(t, page.Rows[0].Value.IsNull())
}

func TestDefault_ParseData_CSV(t *testing.T) {
	body := []byte("STATUS,200\nMESSAGEID,M181000I\nDATE,2026/03/04 08:50:00\nNEXTPOSITION,5\n\nSERIES_CODE,SERIES_NAME,UNIT,FREQUENCY,LAST_UPDATE,SURVEY_DATE,VALUE\nBS01'MADB1,Test,YEN,M,20260304,202401,123.4\n")

	p := NewDefault()
	page, err := p.ParseData(body, boj.LangEN, boj.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "M181000I", page.MessageID)
	require.NotNil(t, page.NextPosition)
	assert.Equal(t, 5, *page.NextPosition)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "BS01'MADB1", page.Rows[0].SeriesCode)
}

func TestDefault_ParseData_ErrorBodyIsAlwaysJSON(t *testing.T) {
	body := []byte(`{"STATUS": 500, "MESSAGEID": "M181090S", "MESSAGE": "internal error", "DATE": "", "GET_DATA": []}`)
	p := NewDefault()
	page, err := p.ParseData(body, boj.LangJA, boj.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 500, page.Status)
	assert.Equal(t, "M181090S", page.MessageID)
	assert.Empty(t, page.Rows)
}

func TestDefault_ParseMetadata_JSON(t *testing.T) {
	body := []byte(`{
		"STATUS": 200,
		"MESSAGEID": "M181000I",
		"DATE": "2026/03/04",
		"GET_DATA": [
			{"SERIES_CODE": "BS01'MADB1", "LAYER1": "L1", "LAYER2": "L2", "START_OF_TS": "199001", "END_OF_TS": "202612"}
		]
	}`)
	p := NewDefault()
	page, err := p.ParseMetadata(body, boj.LangEN, boj.FormatJSON)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "L1", page.Rows[0].Layer1)
	assert.Equal(t, "199001", page.Rows[0].StartOfTimeSeries)
}

func TestDefault_UnknownKeysLandInExtras(t *testing.T) {
	body := []byte(`{
		"STATUS": 200, "MESSAGEID": "M181000I", "DATE": "",
		"GET_DATA": [{"SERIES_CODE": "X", "SURVEY_DATE": "202401", "SOME_NEW_FIELD": "value"}]
	}`)
	p := NewDefault()
	page, err := p.ParseData(body, boj.LangEN, boj.FormatJSON)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "value", page.Rows[0].Extras["some_new_field"])
}

func TestSeedCatalog_Classify(t *testing.T) {
	cat := NewSeedCatalog()
	cls, ok := cat.Classify("M181030I")
	require.True(t, ok)
	assert.Equal(t, ClassNoData, cls)

	_, ok = cat.Classify("UNKNOWN")
	assert.False(t, ok)
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "series_code", normalizeKey("SERIES_CODE"))
	assert.Equal(t, "series_code", normalizeKey("series code"))
	assert.Equal(t, "some_weird_key", normalizeKey("SOME_WEIRD_KEY"))
}
