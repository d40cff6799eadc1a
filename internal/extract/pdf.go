package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
	"github.com/raaihank/doc-redactor/internal/document"
	"github.com/raaihank/doc-redactor/internal/logger"
	"go.uber.org/zap"
)

// PDFExtractor turns a PDF into one text block per page.
type PDFExtractor struct {
	logger *logger.Logger
}

// NewPDFExtractor creates a PDF text extractor
func NewPDFExtractor(log *logger.Logger) *PDFExtractor {
	return &PDFExtractor{logger: log}
}

// ExtractBytes extracts page text from an in-memory PDF.
func (e *PDFExtractor) ExtractBytes(ctx context.Context, data []byte) ([]document.PageInput, error) {
	return e.Extract(ctx, bytes.NewReader(data), int64(len(data)))
}

// Extract reads every page of the PDF in order. Failing to open the
// document is an error; a failure on an individual page is reported in
// that page's PageInput so the remaining pages still get processed.
func (e *PDFExtractor) Extract(ctx context.Context, r io.ReaderAt, size int64) ([]document.PageInput, error) {
	doc, err := openPDF(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	total := doc.NumPage()
	e.logger.Info("PDF opened", zap.Int("pages", total))

	pages := make([]document.PageInput, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := pageText(doc, i)
		if err != nil {
			e.logger.Warn("Failed to extract page text", zap.Int("page", i), zap.Error(err))
			pages = append(pages, document.PageInput{Err: err})
			continue
		}

		e.logger.Debug("Extracted page text", zap.Int("page", i), zap.Int("characters", len(text)))
		pages = append(pages, document.PageInput{Text: text})
	}

	return pages, nil
}

func openPDF(r io.ReaderAt, size int64) (doc *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	return pdf.NewReader(r, size)
}

func pageText(doc *pdf.Reader, number int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed page: %v", rec)
		}
	}()

	page := doc.Page(number)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
