package core

import (
	"bufio"
	"os"
	"strings"
)

// parseText yields one record per blank-line-delimited paragraph block
// with a single "content" field.
func parseText(path string) (ParsedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParsedFile{}, &ErrMalformedInput{Kind: "text", Err: err}
	}
	defer f.Close()

	var records []ParsedRecord
	var block strings.Builder

	flush := func() {
		text := strings.TrimSpace(block.String())
		if text != "" {
			records = append(records, ParsedRecord{"content": text})
		}
		block.Reset()
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if block.Len() > 0 {
			block.WriteString("\n")
		}
		block.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return ParsedFile{}, &ErrMalformedInput{Kind: "text", Err: err}
	}
	flush()

	return ParsedFile{Columns: []string{"content"}, Records: records, Tabular: false}, nil
}
