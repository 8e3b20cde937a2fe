package core

import (
	"bytes"
	"encoding/json"
	"os"
)

// parseJSON accepts either a top-level array of objects, or an object
// whose first array-valued property is taken as the record list. Nested
// objects are flattened using dotted paths; arrays are serialised back
// to their JSON text rather than expanded.
func parseJSON(path string) (ParsedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ParsedFile{}, &ErrMalformedInput{Kind: "json", Err: err}
	}

	trimmed := bytes.TrimSpace(data)
	var rawRecords []json.RawMessage

	switch {
	case len(trimmed) == 0:
		return ParsedFile{Tabular: true}, nil
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &rawRecords); err != nil {
			return ParsedFile{}, &ErrMalformedInput{Kind: "json", Err: err}
		}
	case trimmed[0] == '{':
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		if _, err := dec.Token(); err != nil { // consume '{'
			return ParsedFile{}, &ErrMalformedInput{Kind: "json", Err: err}
		}
		for dec.More() {
			if _, err := dec.Token(); err != nil { // key
				return ParsedFile{}, &ErrMalformedInput{Kind: "json", Err: err}
			}
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return ParsedFile{}, &ErrMalformedInput{Kind: "json", Err: err}
			}
			valTrimmed := bytes.TrimSpace(raw)
			if len(valTrimmed) > 0 && valTrimmed[0] == '[' {
				if err := json.Unmarshal(valTrimmed, &rawRecords); err != nil {
					return ParsedFile{}, &ErrMalformedInput{Kind: "json", Err: err}
				}
				break
			}
		}
	default:
		return ParsedFile{}, &ErrMalformedInput{Kind: "json", Err: errNotObjectOrArray}
	}

	var columns []string
	records := make([]ParsedRecord, 0, len(rawRecords))
	for i, raw := range rawRecords {
		keys, flat, err := decodeFlatObject(raw)
		if err != nil {
			return ParsedFile{}, &ErrMalformedInput{Kind: "json", Err: err}
		}
		if i == 0 {
			columns = keys
		}
		records = append(records, flat)
	}

	return ParsedFile{Columns: columns, Records: records, Tabular: true}, nil
}

var errNotObjectOrArray = jsonShapeError{}

type jsonShapeError struct{}

func (jsonShapeError) Error() string { return "top-level value is neither an object nor an array" }

// decodeFlatObject decodes a single JSON object, flattening nested
// objects into dotted-path keys and keeping first-level array values as
// their raw JSON text, returning keys in declaration order.
func decodeFlatObject(raw json.RawMessage) ([]string, ParsedRecord, error) {
	keys := []string{}
	flat := ParsedRecord{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := decodeObjectOrdered(dec, "", &keys, flat); err != nil {
		return nil, nil, err
	}
	return keys, flat, nil
}

func decodeObjectOrdered(dec *json.Decoder, prefix string, keys *[]string, flat ParsedRecord) error {
	if _, err := dec.Token(); err != nil { // consume '{'
		return err
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		trimmed := bytes.TrimSpace(raw)

		switch {
		case len(trimmed) == 0, string(trimmed) == "null":
			*keys = append(*keys, fullKey)
			flat[fullKey] = ""
		case trimmed[0] == '{':
			subDec := json.NewDecoder(bytes.NewReader(trimmed))
			if err := decodeObjectOrdered(subDec, fullKey, keys, flat); err != nil {
				return err
			}
		case trimmed[0] == '[':
			*keys = append(*keys, fullKey)
			flat[fullKey] = string(trimmed)
		case trimmed[0] == '"':
			var s string
			if err := json.Unmarshal(trimmed, &s); err != nil {
				return err
			}
			*keys = append(*keys, fullKey)
			flat[fullKey] = s
		default:
			*keys = append(*keys, fullKey)
			flat[fullKey] = string(trimmed)
		}
	}
	_, err := dec.Token() // consume '}'
	return err
}
