package spreadsheet

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/franz/media-tracker/internal/util"
)

const (
	nsTable = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"
	nsText  = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"
)

// readODS streams content.xml and collects the first cell of every row of
// the document's first table. A cell's paragraphs are joined with a space.
func readODS(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrParse, err)
	}
	defer zr.Close()

	var content *zip.File
	for _, f := range zr.File {
		if f.Name == "content.xml" {
			content = f
			break
		}
	}
	if content == nil {
		return nil, fmt.Errorf("%w: content.xml missing from archive", util.ErrParse)
	}

	rc, err := content.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrParse, err)
	}
	defer rc.Close()

	rows, err := firstColumnODS(rc)
	if err != nil {
		return nil, err
	}
	return collectFirstColumn(rows), nil
}

func firstColumnODS(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		rows      []string
		tableSeen bool
		tableDeep int // nesting depth inside the first table
		inRow     bool
		cellIndex int
		capturing bool
		paras     []string
		para      *strings.Builder
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: content.xml: %v", util.ErrParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == nsTable && t.Name.Local == "table" {
				if !tableSeen {
					tableSeen = true
					tableDeep = 1
					continue
				}
				if tableDeep > 0 {
					tableDeep++
				}
				continue
			}
			if tableDeep != 1 {
				if capturing && t.Name.Space == nsText {
					appendInline(para, t)
				}
				continue
			}
			switch {
			case t.Name.Space == nsTable && t.Name.Local == "table-row":
				inRow = true
				cellIndex = 0
				paras = paras[:0]
			case t.Name.Space == nsTable && t.Name.Local == "table-cell" && inRow:
				cellIndex++
				capturing = cellIndex == 1
			case t.Name.Space == nsText && t.Name.Local == "p" && capturing:
				para = &strings.Builder{}
			case capturing && para != nil && t.Name.Space == nsText:
				appendInline(para, t)
			}

		case xml.CharData:
			if capturing && para != nil {
				para.Write(t)
			}

		case xml.EndElement:
			if t.Name.Space == nsTable && t.Name.Local == "table" && tableDeep > 0 {
				tableDeep--
				if tableDeep == 0 {
					return rows, nil
				}
				continue
			}
			if tableDeep != 1 {
				continue
			}
			switch {
			case t.Name.Space == nsText && t.Name.Local == "p" && capturing && para != nil:
				paras = append(paras, para.String())
				para = nil
			case t.Name.Space == nsTable && t.Name.Local == "table-cell":
				capturing = false
			case t.Name.Space == nsTable && t.Name.Local == "table-row":
				rows = append(rows, strings.Join(paras, " "))
				inRow = false
			}
		}
	}

	if !tableSeen {
		return nil, fmt.Errorf("%w: document has no table", util.ErrParse)
	}
	return rows, nil
}

// appendInline renders the whitespace elements ODF uses inside paragraphs
func appendInline(b *strings.Builder, el xml.StartElement) {
	if b == nil {
		return
	}
	switch el.Name.Local {
	case "s":
		n := 1
		for _, a := range el.Attr {
			if a.Name.Local == "c" {
				if v, err := strconv.Atoi(a.Value); err == nil && v > 0 {
					n = v
				}
			}
		}
		b.WriteString(strings.Repeat(" ", n))
	case "tab":
		b.WriteString("\t")
	case "line-break":
		b.WriteString(" ")
	}
}
