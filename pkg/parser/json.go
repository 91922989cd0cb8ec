package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// envelope mirrors the wire shape: STATUS/MESSAGEID/MESSAGE/DATE/
// NEXTPOSITION at the top level, plus a GET_DATA row array whose
// element shape differs between getDataCode/getDataLayer and
// getMetadata but is opaque to this layer — rows are carried through
// as raw key/value maps and mapped to domain records by rows.go.
type envelope struct {
	Status       int             `json:"STATUS"`
	MessageID    string          `json:"MESSAGEID"`
	Message      string          `json:"MESSAGE"`
	Date         string          `json:"DATE"`
	NextPosition *int            `json:"NEXTPOSITION"`
	GetData      json.RawMessage `json:"GET_DATA"`
}

func parseJSON(body []byte) (Decoded, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Decoded{}, fmt.Errorf("parser: unparseable json body: %w", err)
	}

	rows, err := decodeJSONRows(env.GetData)
	if err != nil {
		return Decoded{}, err
	}

	dateParsed, warning := parseResponseDate(env.Date)
	return Decoded{
		Status:           env.Status,
		MessageID:        env.MessageID,
		Message:          env.Message,
		DateRaw:          env.Date,
		DateParsed:       dateParsed,
		DateParseWarning: warning,
		NextPosition:     env.NextPosition,
		Rows:             rows,
		Excerpt:          truncateExcerpt(string(body)),
	}, nil
}

func decodeJSONRows(raw json.RawMessage) ([]Row, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var generic []map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("parser: unparseable json rows: %w", err)
	}
	rows := make([]Row, 0, len(generic))
	for _, g := range generic {
		row := make(Row, len(g))
		for k, v := range g {
			row[normalizeKey(k)] = stringifyJSONValue(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func stringifyJSONValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
