package document

import (
	"fmt"

	"github.com/raaihank/doc-redactor/internal/logger"
	"go.uber.org/zap"
)

// Processor redacts documents page by page. One page failing never aborts
// the rest of the document.
type Processor struct {
	redactor Redactor
	logger   *logger.Logger
}

// NewProcessor creates a document processor
func NewProcessor(redactor Redactor, log *logger.Logger) *Processor {
	return &Processor{
		redactor: redactor,
		logger:   log,
	}
}

// ProcessDocument redacts pages in order and sums their counts.
func (p *Processor) ProcessDocument(pages []PageInput) Result {
	result := Result{
		Pages:       make([]PageResult, 0, len(pages)),
		TotalCounts: make(map[string]int),
		PageCount:   len(pages),
	}
	for _, label := range p.redactor.Labels() {
		result.TotalCounts[label] = 0
	}

	p.logger.Info("Processing document", zap.Int("pages", len(pages)))

	for i, page := range pages {
		pageResult := p.processPage(i+1, page)
		result.Pages = append(result.Pages, pageResult)

		for label, n := range pageResult.Counts {
			result.TotalCounts[label] += n
		}
	}

	p.logger.Info("Document processing complete",
		zap.Int("pages", result.PageCount),
		zap.Int("total_redactions", result.Total()),
	)

	return result
}

// ProcessPage redacts a single page.
func (p *Processor) ProcessPage(page PageInput) PageResult {
	return p.processPage(0, page)
}

func (p *Processor) processPage(number int, page PageInput) (result PageResult) {
	log := p.logger.With(zap.Int("page", number))

	if page.Err != nil {
		log.Error("Page extraction failed", zap.Error(page.Err))
		return errorPage(page.Err)
	}

	if page.Text == "" {
		log.Warn("No text extracted from page")
		return PageResult{
			RedactedText: NoTextPlaceholder,
			Counts:       map[string]int{},
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("%v", rec)
			log.Error("Page processing failed", zap.Error(err))
			result = errorPage(err)
		}
	}()

	log.Debug("Redacting page", zap.Int("characters", len(page.Text)))
	redacted := p.redactor.Redact(page.Text)

	log.Info("Page processed", zap.Int("redactions", redacted.Total()))

	return PageResult{
		RedactedText: redacted.RedactedText,
		Counts:       redacted.Counts,
	}
}

func errorPage(err error) PageResult {
	return PageResult{
		RedactedText: fmt.Sprintf(errorPlaceholderFormat, err),
		Counts:       map[string]int{},
	}
}
