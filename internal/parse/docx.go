package parse

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"resufit/internal/errors"
)

// DOCX is a zip archive; the document body lives in word/document.xml as
// WordprocessingML. We care about paragraphs (w:p), text runs (w:t), and
// table cells (w:tc), and flatten everything else.

type docxDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
	Tables     []docxTable     `xml:"tbl"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Texts []string `xml:"t"`
}

type docxTable struct {
	Rows []docxRow `xml:"tr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paragraphs []docxParagraph `xml:"p"`
}

// extractDOCX pulls paragraph and table text out of a DOCX archive.
// Paragraphs come first, then table rows joined with " | " separators, the
// same reading order a person scanning the document would use.
func extractDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewParseError(errors.ErrCodeParseFailed,
			"Invalid DOCX file", err)
	}

	var docXML []byte
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", errors.NewParseError(errors.ErrCodeParseFailed,
					"Failed to open DOCX document body", err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", errors.NewParseError(errors.ErrCodeParseFailed,
					"Failed to read DOCX document body", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", errors.NewParseError(errors.ErrCodeParseFailed,
			"DOCX archive has no word/document.xml", nil)
	}

	var doc docxDocument
	if err := xml.Unmarshal(docXML, &doc); err != nil {
		return "", errors.NewParseError(errors.ErrCodeParseFailed,
			"Failed to parse DOCX document XML", err)
	}

	var lines []string
	for _, p := range doc.Body.Paragraphs {
		if text := paragraphText(p); text != "" {
			lines = append(lines, text)
		}
	}
	for _, table := range doc.Body.Tables {
		for _, row := range table.Rows {
			var cells []string
			for _, cell := range row.Cells {
				var parts []string
				for _, p := range cell.Paragraphs {
					if text := paragraphText(p); text != "" {
						parts = append(parts, text)
					}
				}
				if len(parts) > 0 {
					cells = append(cells, strings.Join(parts, " "))
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, " | "))
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}

func paragraphText(p docxParagraph) string {
	var b strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Texts {
			b.WriteString(t)
		}
	}
	return strings.TrimSpace(b.String())
}
