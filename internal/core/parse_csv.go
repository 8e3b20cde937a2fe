package core

import (
	"encoding/csv"
	"io"
	"os"
)

// parseDelimited decodes csv/tsv files; DeduplicateHeaders gives repeated
// header names _2, _3, ... suffixes.
func parseDelimited(path string, delimiter rune) (ParsedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParsedFile{}, &ErrMalformedInput{Kind: "csv", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return ParsedFile{Tabular: true}, nil
	}
	if err != nil {
		return ParsedFile{}, &ErrMalformedInput{Kind: "csv", Err: err}
	}
	for i, h := range header {
		header[i] = CleanCell(h)
	}
	header = DeduplicateHeaders(header)

	var records []ParsedRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ParsedFile{}, &ErrMalformedInput{Kind: "csv", Err: err}
		}
		rec := make(ParsedRecord, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = CleanCell(row[i])
			} else {
				rec[col] = ""
			}
		}
		records = append(records, rec)
	}

	return ParsedFile{Columns: header, Records: records, Tabular: true}, nil
}
