package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"talentmatch/internal/errors"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Supported document kinds
const (
	KindPDF  = "pdf"
	KindDOCX = "docx"
	KindTXT  = "txt"
)

// Document is one resume source file.
type Document struct {
	Name string
	Data []byte
}

// Kind returns the lowercased extension of name without the dot.
func Kind(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// ExtractText returns the plain text of a pdf, docx or txt document.
func ExtractText(name string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch kind := Kind(name); kind {
	case KindPDF:
		text, err = extractPDFText(data)
	case KindDOCX:
		text, err = extractDocxText(data)
	case KindTXT:
		text = string(data)
	default:
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("unsupported document kind %q", kind), nil).WithContext("file", name)
	}
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeExtractionFailed, "failed to extract document text", err).
			WithContext("file", name)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.NewIOError(errors.ErrCodeExtractionFailed, "document has no extractable text", nil).
			WithContext("file", name)
	}
	return text, nil
}

func extractPDFText(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

var (
	docxBreak = regexp.MustCompile(`</w:p>|<w:br/>|<w:tab/>`)
	docxTag   = regexp.MustCompile(`<[^>]+>`)
)

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer func() { _ = doc.Close() }()

	return docxPlainText(doc.Editable().GetContent()), nil
}

// docxPlainText strips WordprocessingML markup, keeping paragraph breaks.
func docxPlainText(content string) string {
	content = docxBreak.ReplaceAllString(content, "\n")
	content = docxTag.ReplaceAllString(content, "")
	replacer := strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")
	return replacer.Replace(content)
}
