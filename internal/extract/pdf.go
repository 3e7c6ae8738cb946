// Package extract provides the PDF text extraction collaborator.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/book-expert/logger"
	"github.com/book-expert/pdf-narrator/internal/core"
	"github.com/ledongthuc/pdf"
)

// PDFExtractor implements core.TextExtractor over raw PDF bytes. Encrypted
// sources and sources with no text layer (scanned, image-only documents)
// surface core.ErrExtraction; extraction is never retried.
type PDFExtractor struct {
	log *logger.Logger
}

// NewPDFExtractor creates a PDF text extractor.
func NewPDFExtractor(log *logger.Logger) *PDFExtractor {
	return &PDFExtractor{log: log}
}

// Extract decodes raw PDF bytes into plain text plus a page count. Pages
// whose text cannot be decoded are skipped with a warning; the document as a
// whole fails only when it cannot be opened at all. Whether the surviving
// text is usable is the caller's judgment, since a page count with empty text
// is still a valid extraction result.
func (e *PDFExtractor) Extract(raw []byte) (core.Extraction, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return core.Extraction{}, fmt.Errorf("%w: %w", core.ErrExtraction, err)
	}

	totalPages := reader.NumPage()

	var builder strings.Builder

	for pageNumber := 1; pageNumber <= totalPages; pageNumber++ {
		page := reader.Page(pageNumber)
		if page.V.IsNull() {
			continue
		}

		pageText, textErr := page.GetPlainText(nil)
		if textErr != nil {
			e.log.Warn("Skipping undecodable page %d: %v", pageNumber, textErr)

			continue
		}

		builder.WriteString(pageText)
		builder.WriteString("\n")
	}

	return core.Extraction{
		Text:  builder.String(),
		Pages: totalPages,
	}, nil
}
