package document

import "github.com/raaihank/doc-redactor/internal/redaction"

const (
	// NoTextPlaceholder replaces a page that yielded no extractable text.
	NoTextPlaceholder = "[No text could be extracted from this page]"

	errorPlaceholderFormat = "[Error processing this page: %s]"
)

// Redactor is the per-block redaction engine a Processor drives.
type Redactor interface {
	Redact(text string) redaction.Result
	Labels() []string
}

// PageInput is one page as delivered by the extraction provider. An empty
// Text means the page had no extractable text; a non-nil Err means the
// provider failed on that page.
type PageInput struct {
	Text string
	Err  error
}

// PageResult is the outcome for a single page.
type PageResult struct {
	RedactedText string         `json:"redacted_text"`
	Counts       map[string]int `json:"counts"`
}

// Result is the outcome for a whole document.
type Result struct {
	Pages       []PageResult   `json:"pages"`
	TotalCounts map[string]int `json:"total_counts"`
	PageCount   int            `json:"page_count"`
}

// RedactedTexts returns the per-page redacted text in page order.
func (r *Result) RedactedTexts() []string {
	texts := make([]string, len(r.Pages))
	for i, page := range r.Pages {
		texts[i] = page.RedactedText
	}
	return texts
}

// PageCounts returns the per-page count mappings in page order.
func (r *Result) PageCounts() []map[string]int {
	counts := make([]map[string]int, len(r.Pages))
	for i, page := range r.Pages {
		counts[i] = page.Counts
	}
	return counts
}

// Total returns the sum of all document-level counts.
func (r *Result) Total() int {
	total := 0
	for _, n := range r.TotalCounts {
		total += n
	}
	return total
}
