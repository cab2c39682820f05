// Package parse turns uploaded resume documents into plain text. It handles
// PDF, DOCX, and plain-text files; everything downstream works on the
// extracted text only.
package parse

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"resufit/internal/errors"

	"github.com/dslipak/pdf"
)

// Resumes shorter than this are almost always failed extractions (scanned
// images, encrypted files) rather than real content.
const minMeaningfulChars = 50

// Document is the result of parsing one uploaded file.
type Document struct {
	Text     string
	Filename string
}

var (
	crlfRe       = regexp.MustCompile(`\r\n?`)
	multiBlankRe = regexp.MustCompile(`\n{3,}`)
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
)

// SupportedExtension reports whether the filename carries a parseable extension
func SupportedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx", ".txt", ".md":
		return true
	}
	return false
}

// Parse extracts plain text from an uploaded document, dispatching on the
// file extension. It rejects unsupported types, empty files, and documents
// whose extracted text is too short to rate.
func Parse(data []byte, filename string) (Document, error) {
	if filename == "" {
		filename = "uploaded_resume"
	}
	if len(data) == 0 {
		return Document{}, errors.NewValidationError(errors.ErrCodeEmptyDocument,
			"Empty file uploaded", nil).WithContext("filename", filename)
	}

	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	case ".txt", ".md":
		text = string(data)
	default:
		return Document{}, errors.NewValidationError(errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("Invalid file type for '%s'. Only PDF, DOCX, and plain text files are allowed", filename), nil)
	}
	if err != nil {
		return Document{}, err
	}

	text = normalizeWhitespace(text)
	if len(strings.TrimSpace(text)) < minMeaningfulChars {
		return Document{}, errors.NewParseError(errors.ErrCodeEmptyDocument,
			"Could not extract meaningful text from the document", nil).WithContext("filename", filename)
	}

	return Document{Text: text, Filename: filename}, nil
}

// extractPDF pulls plain text from every page of a PDF
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewParseError(errors.ErrCodeParseFailed,
			"Invalid PDF file", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document
			continue
		}
		if trimmed := strings.TrimSpace(content); trimmed != "" {
			pages = append(pages, trimmed)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}

// normalizeWhitespace canonicalizes line endings, collapses blank-line runs,
// and squeezes space runs left behind by PDF text extraction
func normalizeWhitespace(s string) string {
	s = crlfRe.ReplaceAllString(s, "\n")
	s = multiBlankRe.ReplaceAllString(s, "\n\n")
	s = spaceRunRe.ReplaceAllString(s, " ")
	return s
}
