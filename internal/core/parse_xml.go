package core

import (
	"encoding/xml"
	"io"
	"os"
	"strings"
)

// xmlElement is a minimal generic XML tree node, enough to locate the
// repeated record element without a fixed schema.
type xmlElement struct {
	Name     string
	Attrs    []xml.Attr
	Children []xmlElement
	Text     string
}

func decodeXMLElement(dec *xml.Decoder, start xml.StartElement) (xmlElement, error) {
	el := xmlElement{Name: start.Name.Local, Attrs: start.Attr}
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if err != nil {
			return el, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeXMLElement(dec, t)
			if err != nil {
				return el, err
			}
			el.Children = append(el.Children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			el.Text = strings.TrimSpace(text.String())
			return el, nil
		}
	}
}

// parseXML treats the first repeated first-level child of the root
// element as the record element; if no child repeats, the first child's
// tag is used, so only that child becomes a record. Attributes and leaf
// children become fields.
func parseXML(path string) (ParsedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParsedFile{}, &ErrMalformedInput{Kind: "xml", Err: err}
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	var root xmlElement
	found := false
	for !found {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ParsedFile{}, &ErrMalformedInput{Kind: "xml", Err: err}
		}
		if se, ok := tok.(xml.StartElement); ok {
			root, err = decodeXMLElement(dec, se)
			if err != nil {
				return ParsedFile{}, &ErrMalformedInput{Kind: "xml", Err: err}
			}
			found = true
		}
	}
	if !found {
		return ParsedFile{Tabular: true}, nil
	}

	counts := map[string]int{}
	order := []string{}
	for _, c := range root.Children {
		if counts[c.Name] == 0 {
			order = append(order, c.Name)
		}
		counts[c.Name]++
	}

	recordTag := ""
	for _, name := range order {
		if counts[name] > 1 {
			recordTag = name
			break
		}
	}
	if recordTag == "" && len(order) > 0 {
		recordTag = order[0]
	}

	var columns []string
	seen := map[string]bool{}
	var records []ParsedRecord

	for _, c := range root.Children {
		if c.Name != recordTag {
			continue
		}
		rec := ParsedRecord{}
		var keys []string
		for _, a := range c.Attrs {
			rec[a.Name.Local] = a.Value
			keys = append(keys, a.Name.Local)
		}
		for _, child := range c.Children {
			rec[child.Name] = child.Text
			keys = append(keys, child.Name)
		}
		if len(c.Children) == 0 && len(c.Attrs) == 0 {
			rec["content"] = c.Text
			keys = append(keys, "content")
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
		records = append(records, rec)
	}

	return ParsedFile{Columns: columns, Records: records, Tabular: true}, nil
}
