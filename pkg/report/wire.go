package report

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed marks a provider response that does not have the expected
// document shape. The view treats it as an empty result with a warning
// notice rather than a failure.
var ErrMalformed = errors.New("report: malformed response")

// wireDocument is the JSON shape shared by the HTTP handler, the HTTP
// client and the S3 dataset loader:
//
//	{"dataMapping": [{"key": ..., "title": ...}], "<dataKey>": [rows], "total": n}
//
// dataKey is configuration: it names the field that holds the row array.
type wireDocument struct {
	DataMapping []Column `json:"dataMapping"`
	Total       int      `json:"total"`
}

// MarshalDocument encodes a Result into the wire document, placing the
// rows under dataKey.
func MarshalDocument(res *Result, dataKey string) ([]byte, error) {
	if res == nil {
		return nil, fmt.Errorf("report: nil result")
	}
	cols := res.Columns
	if cols == nil {
		cols = []Column{}
	}
	doc := map[string]any{
		"dataMapping": cols,
		"total":       res.Total,
	}
	rows := res.Rows
	if rows == nil {
		rows = []Row{}
	}
	doc[dataKey] = rows
	return json.Marshal(doc)
}

// UnmarshalDocument decodes a wire document. Missing fields default to
// empty; a payload that is not a JSON object, or that carries a negative
// total, fails with ErrMalformed.
func UnmarshalDocument(data []byte, dataKey string) (*Result, error) {
	var doc wireDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Total < 0 {
		return nil, fmt.Errorf("%w: negative total %d", ErrMalformed, doc.Total)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var rows []Row
	if raw, ok := fields[dataKey]; ok {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("%w: field %q is not a row array: %v", ErrMalformed, dataKey, err)
		}
	}

	return &Result{Columns: doc.DataMapping, Rows: rows, Total: doc.Total}, nil
}
