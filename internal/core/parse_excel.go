package core

import (
	"github.com/xuri/excelize/v2"
)

// parseExcel reads the first worksheet of an xlsx (OOXML) workbook.
// excelize cannot open legacy binary .xls files; those fail as malformed
// input.
func parseExcel(path string) (ParsedFile, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ParsedFile{}, &ErrMalformedInput{Kind: "excel", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ParsedFile{Tabular: true}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ParsedFile{}, &ErrMalformedInput{Kind: "excel", Err: err}
	}
	if len(rows) == 0 {
		return ParsedFile{Tabular: true}, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = CleanCell(h)
	}
	header = DeduplicateHeaders(header)

	records := make([]ParsedRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
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
