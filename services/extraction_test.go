package services

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	extractor := NewDocumentExtractor()

	text, err := extractor.Extract([]byte("  hello world\n"), "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello world" {
		t.Fatalf("got %q", text)
	}

	// Charset parameters on the mime type are ignored.
	if _, err := extractor.Extract([]byte("x"), "text/plain; charset=utf-8"); err != nil {
		t.Fatalf("charset parameter: %v", err)
	}
	if _, err := extractor.Extract([]byte("# heading"), "text/markdown"); err != nil {
		t.Fatalf("markdown: %v", err)
	}
	if _, err := extractor.Extract([]byte("a,b,c"), "text/csv"); err != nil {
		t.Fatalf("csv: %v", err)
	}
}

func TestExtractHTML(t *testing.T) {
	extractor := NewDocumentExtractor()
	html := `<html><head><style>p{color:red}</style></head>
<body><script>alert(1)</script><p>visible paragraph</p></body></html>`

	text, err := extractor.Extract([]byte(html), "text/html")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "visible paragraph") {
		t.Fatalf("body text missing: %q", text)
	}
	if strings.Contains(text, "alert") || strings.Contains(text, "color:red") {
		t.Fatalf("script/style leaked into text: %q", text)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	extractor := NewDocumentExtractor()
	_, err := extractor.Extract([]byte{0x89, 0x50, 0x4e, 0x47}, "image/png")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

func TestExtractCorruptDocuments(t *testing.T) {
	extractor := NewDocumentExtractor()

	if _, err := extractor.Extract(nil, "text/plain"); !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("empty file: %v", err)
	}
	if _, err := extractor.Extract([]byte("   \n  "), "text/plain"); !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("whitespace only: %v", err)
	}
	if _, err := extractor.Extract([]byte{0xff, 0xfe, 0xfd}, "text/plain"); !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("invalid utf-8: %v", err)
	}
	if _, err := extractor.Extract([]byte("not a pdf"), "application/pdf"); !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("bogus pdf: %v", err)
	}
}
