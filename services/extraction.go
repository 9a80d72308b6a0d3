package services

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// Extractor turns raw file bytes into plain text. It fails with
// UnsupportedFormat for mime types it does not understand and with
// CorruptDocument when a recognized file yields no extractable text.
type Extractor interface {
	Extract(fileBytes []byte, mimeType string) (string, error)
}

// DocumentExtractor dispatches on mime type: PDF, HTML, XLSX and plain
// text/markdown.
type DocumentExtractor struct{}

func NewDocumentExtractor() *DocumentExtractor { return &DocumentExtractor{} }

func (e *DocumentExtractor) Extract(fileBytes []byte, mimeType string) (string, error) {
	if len(fileBytes) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrCorruptDocument)
	}

	mime := mimeType
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.TrimSpace(strings.ToLower(mime))

	var (
		text string
		err  error
	)
	switch mime {
	case "application/pdf":
		text, err = extractPDF(fileBytes)
	case "text/html", "application/xhtml+xml":
		text, err = extractHTML(fileBytes)
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		text, err = extractXLSX(fileBytes)
	case "text/plain", "text/markdown", "text/csv":
		text, err = extractPlainText(fileBytes)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: no extractable text", ErrCorruptDocument)
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return buf.String(), nil
}

func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	doc.Find("script, style, noscript").Remove()
	return doc.Find("body").Text(), nil
}

func extractXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " "))
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func extractPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: not valid UTF-8 text", ErrCorruptDocument)
	}
	return string(data), nil
}
