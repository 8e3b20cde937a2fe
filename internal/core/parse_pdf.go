package core

import (
	"github.com/ledongthuc/pdf"
)

// parsePDF yields one record per page with a single "content" field;
// PDFs carry no tabular schema and flow through cleaning unchanged.
func parsePDF(path string) (ParsedFile, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return ParsedFile{}, &ErrMalformedInput{Kind: "pdf", Err: err}
	}
	defer f.Close()

	numPages := r.NumPage()
	records := make([]ParsedRecord, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return ParsedFile{}, &ErrMalformedInput{Kind: "pdf", Err: err}
		}
		records = append(records, ParsedRecord{"content": text})
	}

	return ParsedFile{Columns: []string{"content"}, Records: records, Tabular: false}, nil
}
