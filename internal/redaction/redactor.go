package redaction

import (
	"fmt"

	"github.com/raaihank/doc-redactor/internal/logger"
	"go.uber.org/zap"
)

// Redactor applies a Catalog to blocks of text. It holds no mutable state
// and is safe for concurrent use.
type Redactor struct {
	catalog *Catalog
	logger  *logger.Logger
}

// New creates a redactor over the given catalog
func New(catalog *Catalog, log *logger.Logger) *Redactor {
	return &Redactor{
		catalog: catalog,
		logger:  log,
	}
}

// Labels returns the catalog labels in application order.
func (r *Redactor) Labels() []string {
	return r.catalog.Labels()
}

// Redact runs every category over text in catalog order.
//
// Counts are taken against the original text while substitutions go into a
// working copy that already carries earlier tokens. A category whose matches
// overlap an earlier category's therefore reports more than it visibly
// replaces, and overlapping patterns within a category are counted twice.
func (r *Redactor) Redact(text string) Result {
	working := text
	counts := make(map[string]int, r.catalog.Len())

	for _, category := range r.catalog.categories {
		var count int
		count, working = r.applyCategory(category, text, working)
		counts[category.Label] = count

		if count > 0 {
			r.logger.Debug("Sensitive data detected",
				zap.String("category", category.Label),
				zap.Int("count", count),
				zap.String("replacement", category.Token),
			)
		}
	}

	return Result{
		RedactedText: working,
		Counts:       counts,
	}
}

// applyCategory sums one category's pattern matches over original and
// substitutes each pattern into working, in pattern order.
func (r *Redactor) applyCategory(category Category, original, working string) (int, string) {
	count := 0
	for i, pattern := range category.Patterns {
		n, next, err := applyPattern(pattern, original, working, category.Token)
		if err != nil {
			r.logger.Error("Pattern evaluation failed",
				zap.String("category", category.Label),
				zap.Int("pattern_index", i),
				zap.Error(err),
			)
			continue
		}
		count += n
		working = next
	}
	return count, working
}

func applyPattern(pattern Matcher, original, working, token string) (n int, out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pattern panicked: %v", rec)
		}
	}()

	n = len(pattern.FindAllStringIndex(original, -1))
	out = pattern.ReplaceAllLiteralString(working, token)
	return n, out, nil
}
