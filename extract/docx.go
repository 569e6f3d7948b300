package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"
)

// extractDocx parses word/document.xml from the OOXML archive in two
// passes. The structured pass preserves headings, list items, and table
// cell boundaries as lightweight text markers; the flat pass recovers the
// raw run text. Both are concatenated and line-deduplicated: the markers
// help downstream LLM consumption keep tabular values attached to their
// labels (voltage tables in equipment manuals are the canonical case),
// while the flat pass catches runs the structured walk misses.
func extractDocx(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", wrapf(KindCorrupt, err, "open docx archive %s", path)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", failf(KindCorrupt, "%s: word/document.xml not found in archive", path)
	}

	structured, err := docxStructuredPass(docFile)
	if err != nil {
		return "", err
	}
	flat, err := docxFlatPass(docFile)
	if err != nil {
		return "", err
	}

	combined := structured
	if flat != "" {
		combined += "\n" + flat
	}
	return DedupLines(combined), nil
}

// docxStructuredPass walks the document body and renders headings as
// "## text ##", list items with a bullet prefix, and table rows with
// " | " cell separators.
func docxStructuredPass(docFile *zip.File) (string, error) {
	rc, err := docFile.Open()
	if err != nil {
		return "", wrapf(KindCorrupt, err, "open document.xml")
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var out strings.Builder

	var para strings.Builder
	var paraStyle string
	var paraIsList bool
	inParagraph := false
	inText := false

	tableDepth := 0
	var rowCells []string
	var cell strings.Builder

	emitLine := func(line string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}

	flushParagraph := func() {
		text := strings.TrimSpace(para.String())
		para.Reset()
		if text == "" {
			return
		}
		switch {
		case docxHeadingLevel(paraStyle) > 0:
			emitLine("## " + text + " ##")
		case paraIsList:
			emitLine("• " + text)
		default:
			emitLine(text)
		}
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", wrapf(KindCorrupt, err, "parse document.xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tr":
				if tableDepth > 0 {
					rowCells = rowCells[:0]
				}
			case "tc":
				if tableDepth > 0 {
					cell.Reset()
				}
			case "p":
				if tableDepth == 0 {
					inParagraph = true
					para.Reset()
					paraStyle = ""
					paraIsList = false
				}
			case "pStyle":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						paraStyle = attr.Value
					}
				}
			case "numPr":
				paraIsList = true
			case "t":
				inText = true
			}

		case xml.CharData:
			if !inText {
				continue
			}
			if tableDepth > 0 {
				cell.Write(t)
			} else if inParagraph {
				para.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tableDepth == 0 && inParagraph {
					inParagraph = false
					flushParagraph()
				} else if tableDepth > 0 {
					// Paragraph break inside a cell: keep cell text on one line.
					if cell.Len() > 0 {
						cell.WriteByte(' ')
					}
				}
			case "tc":
				if tableDepth > 0 {
					rowCells = append(rowCells, strings.TrimSpace(cell.String()))
					cell.Reset()
				}
			case "tr":
				if tableDepth > 0 {
					row := strings.TrimSpace(strings.Join(rowCells, " | "))
					emitLine(row)
					rowCells = rowCells[:0]
				}
			case "tbl":
				if tableDepth > 0 {
					tableDepth--
				}
			}
		}
	}

	return strings.TrimRight(out.String(), "\n"), nil
}

// docxFlatPass extracts every text run in order, one paragraph per line,
// with no structural interpretation.
func docxFlatPass(docFile *zip.File) (string, error) {
	rc, err := docFile.Open()
	if err != nil {
		return "", wrapf(KindCorrupt, err, "open document.xml")
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var out strings.Builder
	var para strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", wrapf(KindCorrupt, err, "parse document.xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(para.String()); text != "" {
					out.WriteString(text)
					out.WriteByte('\n')
				}
				para.Reset()
			}
		}
	}

	return strings.TrimRight(out.String(), "\n"), nil
}

// docxHeadingLevel extracts the heading level from a paragraph style name.
// e.g. "Heading1" → 1, "Title" → 1, localized prefixes included.
func docxHeadingLevel(style string) int {
	lower := strings.ToLower(style)

	if lower == "title" {
		return 1
	}
	if lower == "subtitle" {
		return 2
	}

	for _, prefix := range []string{"heading", "titre", "überschrift"} {
		if strings.HasPrefix(lower, prefix) {
			rest := lower[len(prefix):]
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}
