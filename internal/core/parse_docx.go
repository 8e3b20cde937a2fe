package core

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"
)

// parseDocx reads word/document.xml out of the docx zip container and
// yields one record per paragraph with a single "content" field.
func parseDocx(path string) (ParsedFile, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return ParsedFile{}, &ErrMalformedInput{Kind: "docx", Err: err}
	}
	defer zr.Close()

	var docFile io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile, err = f.Open()
			if err != nil {
				return ParsedFile{}, &ErrMalformedInput{Kind: "docx", Err: err}
			}
			break
		}
	}
	if docFile == nil {
		return ParsedFile{}, &ErrMalformedInput{Kind: "docx", Err: errMissingDocumentXML}
	}
	defer docFile.Close()

	dec := xml.NewDecoder(docFile)
	var records []ParsedRecord
	var para strings.Builder
	inParagraph := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ParsedFile{}, &ErrMalformedInput{Kind: "docx", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" {
				inParagraph = true
				para.Reset()
			}
		case xml.CharData:
			if inParagraph {
				para.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				inParagraph = false
				text := strings.TrimSpace(para.String())
				if text != "" {
					records = append(records, ParsedRecord{"content": text})
				}
			}
		}
	}

	return ParsedFile{Columns: []string{"content"}, Records: records, Tabular: false}, nil
}

var errMissingDocumentXML = docxShapeError{}

type docxShapeError struct{}

func (docxShapeError) Error() string { return "word/document.xml not found in docx container" }
