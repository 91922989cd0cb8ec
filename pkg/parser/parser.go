// Package parser is the default implementation of the out-of-scope
// decoding collaborator named in the purpose statement: CSV/JSON
// decoding and key normalization are formally external to the engine,
// reached only through the Parser interface, but a working default is
// shipped so the library is usable standalone.
package parser

import (
	"time"

	"github.com/ysakurai/bojstat-go/pkg/boj"
)

// Row is one decoded, key-normalized record as it comes off the wire,
// before the engine maps it into a TimeSeriesRecord or MetadataRecord.
// Keys are lower-cased field names.
type Row map[string]string

// Decoded is the format-agnostic result of sniffing and decoding one
// response body — everything PageMeta needs, plus the raw rows still
// in generic form.
type Decoded struct {
	Status           int
	MessageID        string
	Message          string
	DateRaw          string
	DateParsed       *time.Time
	DateParseWarning bool
	NextPosition     *int
	Rows             []Row
	Excerpt          string
}

// Parser is the engine's sole point of contact with response bytes.
type Parser interface {
	ParseData(body []byte, lang boj.Lang, format boj.Format) (boj.DataPage, error)
	ParseMetadata(body []byte, lang boj.Lang, format boj.Format) (boj.MetadataPage, error)
}

// Default is the shipped implementation: JSON always UTF-8; CSV in
// Shift-JIS for LangJA or UTF-8 for LangEN; error bodies are always
// JSON regardless of the requested format, detected by sniffing the
// first non-whitespace byte.
type Default struct {
	Catalog ErrorCatalog
}

// NewDefault builds a Default parser with the seed error catalog.
func NewDefault() *Default {
	return &Default{Catalog: NewSeedCatalog()}
}

// ParseData decodes a getDataCode/getDataLayer response body.
func (p *Default) ParseData(body []byte, lang boj.Lang, format boj.Format) (boj.DataPage, error) {
	dec, err := decode(body, lang, format)
	if err != nil {
		return boj.DataPage{}, err
	}
	rows := make([]boj.TimeSeriesRecord, 0, len(dec.Rows))
	for i, r := range dec.Rows {
		rows = append(rows, rowToTimeSeriesRecord(r, i))
	}
	return boj.DataPage{
		PageMeta: boj.PageMeta{
			Status:           dec.Status,
			MessageID:        dec.MessageID,
			Message:          dec.Message,
			DateRaw:          dec.DateRaw,
			DateParsed:       dec.DateParsed,
			DateParseWarning: dec.DateParseWarning,
			NextPosition:     dec.NextPosition,
		},
		Rows: rows,
	}, nil
}

// ParseMetadata decodes a getMetadata response body.
func (p *Default) ParseMetadata(body []byte, lang boj.Lang, format boj.Format) (boj.MetadataPage, error) {
	dec, err := decode(body, lang, format)
	if err != nil {
		return boj.MetadataPage{}, err
	}
	rows := make([]boj.MetadataRecord, 0, len(dec.Rows))
	for _, r := range dec.Rows {
		rows = append(rows, rowToMetadataRecord(r))
	}
	return boj.MetadataPage{
		PageMeta: boj.PageMeta{
			Status:           dec.Status,
			MessageID:        dec.MessageID,
			Message:          dec.Message,
			DateRaw:          dec.DateRaw,
			DateParsed:       dec.DateParsed,
			DateParseWarning: dec.DateParseWarning,
			NextPosition:     dec.NextPosition,
		},
		Rows: rows,
	}, nil
}
