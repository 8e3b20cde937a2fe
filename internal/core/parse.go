package core

// parse.go dispatches a stored upload to the format-specific decoder in
// this package's other parse_*.go files and normalizes every format down
// to the same ParsedFile shape the type detector and cleaning pipeline
// consume.

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ParsedRecord is one row as decoded from the source file. A missing key
// or an empty string both mean "null" for every format except pdf/docx/
// text, whose records carry a single "content" field. docx and text
// records never have empty content; a pdf page with no extractable text
// yields a record whose content is empty.
type ParsedRecord map[string]string

// ParsedFile is the uniform result of parsing any supported format.
type ParsedFile struct {
	Columns []string       // file's own column order; for non-tabular formats, ["content"]
	Records []ParsedRecord // one per row, or one per page/paragraph for non-tabular formats
	Tabular bool           // false for pdf, docx, and plain text
}

// ErrUnsupportedFormat is returned when neither extension nor mime type
// matches a known kind.
type ErrUnsupportedFormat struct {
	Filename string
	MimeType string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported format: %s (mime %s)", e.Filename, e.MimeType)
}

// ErrMalformedInput is returned when the selected parser cannot decode
// the file's content.
type ErrMalformedInput struct {
	Kind string
	Err  error
}

func (e *ErrMalformedInput) Error() string {
	return fmt.Sprintf("malformed %s input: %v", e.Kind, e.Err)
}

func (e *ErrMalformedInput) Unwrap() error { return e.Err }

// fileKind classifies a file by extension first, falling back to the
// declared mime type.
func fileKind(filename, mimeType string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "csv":
		return "csv"
	case "tsv":
		return "tsv"
	case "xlsx", "xls":
		return "excel"
	case "json":
		return "json"
	case "xml":
		return "xml"
	case "pdf":
		return "pdf"
	case "docx":
		return "docx"
	case "txt", "text":
		return "text"
	}

	switch {
	case strings.Contains(mimeType, "csv"):
		return "csv"
	case strings.Contains(mimeType, "tab-separated"):
		return "tsv"
	case strings.Contains(mimeType, "spreadsheetml") || strings.Contains(mimeType, "ms-excel"):
		return "excel"
	case strings.Contains(mimeType, "json"):
		return "json"
	case strings.Contains(mimeType, "xml"):
		return "xml"
	case strings.Contains(mimeType, "pdf"):
		return "pdf"
	case strings.Contains(mimeType, "wordprocessingml"):
		return "docx"
	case strings.HasPrefix(mimeType, "text/plain"):
		return "text"
	}

	return ""
}

// ParseFile reads path and produces a ParsedFile, dispatching on
// fileKind(filename, mimeType).
func ParseFile(path, filename, mimeType string) (ParsedFile, error) {
	switch fileKind(filename, mimeType) {
	case "csv":
		return parseDelimited(path, ',')
	case "tsv":
		return parseDelimited(path, '\t')
	case "excel":
		return parseExcel(path)
	case "json":
		return parseJSON(path)
	case "xml":
		return parseXML(path)
	case "pdf":
		return parsePDF(path)
	case "docx":
		return parseDocx(path)
	case "text":
		return parseText(path)
	default:
		return ParsedFile{}, &ErrUnsupportedFormat{Filename: filename, MimeType: mimeType}
	}
}
