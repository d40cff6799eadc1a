package redaction

import (
	"regexp"
	"strings"
	"testing"

	"github.com/raaihank/doc-redactor/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRedactor(t *testing.T) *Redactor {
	t.Helper()
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	return New(catalog, logger.NewNop())
}

func assertOnlyCount(t *testing.T, counts map[string]int, label string, want int) {
	t.Helper()
	for k, v := range counts {
		if k == label {
			assert.Equal(t, want, v, "count for %s", k)
			continue
		}
		assert.Zero(t, v, "unexpected count for %s", k)
	}
}

func TestRedactCleanText(t *testing.T) {
	r := newTestRedactor(t)

	for _, text := range []string{
		"",
		"the quick brown fox jumps over the lazy dog",
		"nothing to see here, move along.",
	} {
		result := r.Redact(text)
		assert.Equal(t, text, result.RedactedText)
		assert.Len(t, result.Counts, len(r.Labels()))
		assert.Zero(t, result.Total())
	}
}

func TestRedactSingleEmail(t *testing.T) {
	r := newTestRedactor(t)

	result := r.Redact("jane.doe@example.org")

	assert.Equal(t, "[EMAIL REDACTED]", result.RedactedText)
	assertOnlyCount(t, result.Counts, LabelEmails, 1)
	assert.Equal(t, 1, strings.Count(result.RedactedText, "REDACTED]"))
}

func TestRedactEmailAndPhone(t *testing.T) {
	r := newTestRedactor(t)

	result := r.Redact("Contact: john@example.com or call 555-123-4567")

	assert.Contains(t, result.RedactedText, "[EMAIL REDACTED]")
	assert.Contains(t, result.RedactedText, "[PHONE REDACTED]")
	assert.NotContains(t, result.RedactedText, "john@example.com")
	assert.NotContains(t, result.RedactedText, "4567")
	assert.Equal(t, 1, result.Counts[LabelEmails])
	assert.GreaterOrEqual(t, result.Counts[LabelPhones], 1)
}

func TestRedactTwiceIsStable(t *testing.T) {
	r := newTestRedactor(t)

	first := r.Redact("Contact: john@example.com")
	require.Equal(t, "Contact: [EMAIL REDACTED]", first.RedactedText)

	second := r.Redact(first.RedactedText)
	assert.Equal(t, first.RedactedText, second.RedactedText)
	assert.Zero(t, second.Total())
}

func TestRedactCountsAgainstOriginalText(t *testing.T) {
	r := newTestRedactor(t)

	t.Run("overwritten by earlier category", func(t *testing.T) {
		// The digit run is both an email local part and a card-like number.
		// Email substitution runs first, so no card token appears, but the
		// card count still reflects the original text.
		result := r.Redact("1234567890123@example.com")

		assert.Equal(t, "[EMAIL REDACTED]", result.RedactedText)
		assert.Equal(t, 1, result.Counts[LabelEmails])
		assert.Equal(t, 1, result.Counts[LabelCreditCards])
		assert.Equal(t, 1, result.Counts[LabelFinancial])
		assert.NotContains(t, result.RedactedText, "[CREDIT CARD REDACTED]")
	})

	t.Run("overlapping patterns in one category", func(t *testing.T) {
		result := r.Redact("SSN: 123-45-6789")

		assert.Equal(t, "SSN: [SSN REDACTED]", result.RedactedText)
		assert.Equal(t, 2, result.Counts[LabelSSN])
	})

	t.Run("later pattern sees earlier token", func(t *testing.T) {
		result := r.Redact("Passport AB1234567")

		assert.Equal(t, "Passport [[ID REDACTED]]", result.RedactedText)
		assert.Equal(t, 1, result.Counts[LabelIDs])
	})
}

func TestRedactCategories(t *testing.T) {
	r := newTestRedactor(t)

	tests := []struct {
		name  string
		input string
		label string
		token string
	}{
		{"phone", "Call 555-123-4567 now", LabelPhones, "[PHONE REDACTED]"},
		{"ssn", "SSN 123-45-6789", LabelSSN, "[SSN REDACTED]"},
		{"credit card", "Card 4111 1111 1111 1111", LabelCreditCards, "[CREDIT CARD REDACTED]"},
		{"numeric date", "Born 01/15/1990", LabelDates, "[DATE REDACTED]"},
		{"textual date", "Signed Mar 5, 2021", LabelDates, "[DATE REDACTED]"},
		{"street address", "Lives at 42 Elm Street", LabelAddresses, "[ADDRESS REDACTED]"},
		{"po box", "Mail to PO Box 123", LabelAddresses, "[ADDRESS REDACTED]"},
		{"titled name", "Seen by Dr. Smith", LabelNames, "[NAME REDACTED]"},
		{"common first name", "Patricia Jones signed", LabelNames, "[NAME REDACTED]"},
		{"company suffix", "Globex Corporation", LabelCompanies, "[COMPANY REDACTED]"},
		{"company business word", "Acme Technologies", LabelCompanies, "[COMPANY REDACTED]"},
		{"ach", "ACH: 12345", LabelFinancial, "[FINANCIAL INFO REDACTED]"},
		{"generic id", "ID: X-99812", LabelIDs, "[ID REDACTED]"},
		{"ipv4", "Server 192.168.1.10", LabelNetwork, "[NETWORK INFO REDACTED]"},
		{"mac", "MAC 00:1A:2B:3C:4D:5E", LabelNetwork, "[NETWORK INFO REDACTED]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := r.Redact(tt.input)
			assert.GreaterOrEqual(t, result.Counts[tt.label], 1)
			assert.Contains(t, result.RedactedText, tt.token)
		})
	}
}

type panicMatcher struct{}

func (panicMatcher) FindAllStringIndex(string, int) [][]int {
	panic("engine failure")
}

func (panicMatcher) ReplaceAllLiteralString(src, _ string) string {
	return src
}

func TestRedactPatternFailureIsIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	catalog, err := FromCategories([]Category{
		{
			Label:    "secrets",
			Token:    "[SECRET]",
			Patterns: []Matcher{panicMatcher{}, regexp.MustCompile(`secret`)},
		},
		{
			Label:    "codes",
			Token:    "[CODE]",
			Patterns: []Matcher{regexp.MustCompile(`\d+`)},
		},
	})
	require.NoError(t, err)

	r := New(catalog, logger.Wrap(zap.New(core)))
	result := r.Redact("a secret 42")

	assert.Equal(t, "a [SECRET] [CODE]", result.RedactedText)
	assert.Equal(t, map[string]int{"secrets": 1, "codes": 1}, result.Counts)

	entries := logs.FilterMessage("Pattern evaluation failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "secrets", entries[0].ContextMap()["category"])
}
