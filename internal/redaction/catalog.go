package redaction

import (
	"fmt"
	"regexp"
	"strings"
)

// Category labels, in catalog order.
const (
	LabelEmails      = "emails"
	LabelPhones      = "phones"
	LabelSSN         = "ssn"
	LabelCreditCards = "credit_cards"
	LabelDates       = "dates"
	LabelAddresses   = "addresses"
	LabelNames       = "names"
	LabelCompanies   = "companies"
	LabelFinancial   = "financial"
	LabelIDs         = "ids"
	LabelNetwork     = "network"
)

// Catalog is the ordered, immutable set of categories applied by a Redactor.
// It is built once and shared read-only across requests.
type Catalog struct {
	categories []Category
}

// NewCatalog compiles the given definitions. Any pattern that fails to
// compile is reported with its category and index.
func NewCatalog(defs []CategoryDef) (*Catalog, error) {
	categories := make([]Category, 0, len(defs))
	for _, def := range defs {
		patterns := make([]Matcher, 0, len(def.Patterns))
		for i, expr := range def.Patterns {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("category %q pattern %d: %w", def.Label, i, err)
			}
			patterns = append(patterns, re)
		}
		categories = append(categories, Category{
			Label:    def.Label,
			Token:    def.Token,
			Patterns: patterns,
		})
	}
	return FromCategories(categories)
}

// FromCategories builds a catalog from already compiled categories.
func FromCategories(categories []Category) (*Catalog, error) {
	seen := make(map[string]bool, len(categories))
	for i, c := range categories {
		if strings.TrimSpace(c.Label) == "" {
			return nil, fmt.Errorf("category %d has an empty label", i)
		}
		if seen[c.Label] {
			return nil, fmt.Errorf("duplicate category label %q", c.Label)
		}
		if c.Token == "" {
			return nil, fmt.Errorf("category %q has an empty replacement token", c.Label)
		}
		if len(c.Patterns) == 0 {
			return nil, fmt.Errorf("category %q has no patterns", c.Label)
		}
		seen[c.Label] = true
	}

	owned := make([]Category, len(categories))
	copy(owned, categories)
	return &Catalog{categories: owned}, nil
}

// DefaultCatalog compiles the built-in category set.
func DefaultCatalog() (*Catalog, error) {
	return NewCatalog(DefaultDefinitions())
}

// Labels returns category labels in application order.
func (c *Catalog) Labels() []string {
	labels := make([]string, len(c.categories))
	for i, category := range c.categories {
		labels[i] = category.Label
	}
	return labels
}

// Categories returns a copy of the ordered categories.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Token returns the replacement token for a label.
func (c *Catalog) Token(label string) (string, bool) {
	for _, category := range c.categories {
		if category.Label == label {
			return category.Token, true
		}
	}
	return "", false
}

// Len returns the number of categories.
func (c *Catalog) Len() int {
	return len(c.categories)
}

// DefaultDefinitions returns the built-in categories. Order matters: each
// category substitutes into the text left behind by the ones before it.
func DefaultDefinitions() []CategoryDef {
	return []CategoryDef{
		{
			Label: LabelEmails,
			Token: "[EMAIL REDACTED]",
			Patterns: []string{
				`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`,
			},
		},
		{
			Label: LabelPhones,
			Token: "[PHONE REDACTED]",
			Patterns: []string{
				`\b(\+\d{1,2}\s?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}\b`,
				`\b\d{3}[\s.-]?\d{4}\b`,
				`\b\d{5}[\s.-]?\d{5,6}\b`,
				`\b\(\d{3}\)[\s.-]?\d{3}[\s.-]?\d{4}\b`,
			},
		},
		{
			Label: LabelSSN,
			Token: "[SSN REDACTED]",
			Patterns: []string{
				`\b\d{3}[-]?\d{2}[-]?\d{4}\b`,
				`\bSSN[:\s]+\d{3}[-]?\d{2}[-]?\d{4}\b`,
				`\bSocial Security[:\s]+\d{3}[-]?\d{2}[-]?\d{4}\b`,
			},
		},
		{
			Label: LabelCreditCards,
			Token: "[CREDIT CARD REDACTED]",
			Patterns: []string{
				`\b(?:\d[ -]*?){13,16}\b`,
				`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`,
				`\b\d{4}[- ]?\d{6}[- ]?\d{4}[- ]?\d{1}\b`,
			},
		},
		{
			Label: LabelDates,
			Token: "[DATE REDACTED]",
			Patterns: []string{
				`\b(0?[1-9]|1[0-2])[\/-](0?[1-9]|[12]\d|3[01])[\/-](19|20)\d{2}\b`,
				`\b(19|20)\d{2}[\/-](0?[1-9]|1[0-2])[\/-](0?[1-9]|[12]\d|3[01])\b`,
				`\b(0?[1-9]|[12]\d|3[01])[\/-](0?[1-9]|1[0-2])[\/-](19|20)\d{2}\b`,
				`\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[\s.-]+(0?[1-9]|[12]\d|3[01])[\s,.-]+(19|20)\d{2}\b`,
			},
		},
		{
			Label: LabelAddresses,
			Token: "[ADDRESS REDACTED]",
			Patterns: []string{
				`\b\d+\s[A-Za-z0-9\s,]+\b(?:Avenue|Ave|Street|St|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln|Court|Ct|Way|Parkway|Pkwy|Circle|Cir|Place|Pl)\b`,
				`\b\d+\s[A-Za-z0-9\s,]+,\s[A-Za-z\s]+,\s[A-Z]{2}\s\d{5}(-\d{4})?\b`,
				`\bP\.?O\.?\sBox\s\d+\b`,
			},
		},
		{
			Label:    LabelNames,
			Token:    "[NAME REDACTED]",
			Patterns: namePatterns(),
		},
		{
			Label: LabelCompanies,
			Token: "[COMPANY REDACTED]",
			Patterns: []string{
				`\b[A-Z][A-Za-z0-9\s,\.]+\b(?:Inc\.|LLC|Corp\.|Corporation|Ltd\.|Limited|Co\.|Company)\b`,
				`\b[A-Z][A-Za-z0-9\s,\.&]+\b(?:Group|Partners|Associates|Enterprises|Solutions|Technologies|Systems)\b`,
			},
		},
		{
			Label: LabelFinancial,
			Token: "[FINANCIAL INFO REDACTED]",
			Patterns: []string{
				`\b\d{8,17}\b`,
				`\bACH[:\s]+\d+\b`,
				`\bRouting[:\s]+\d{9}\b`,
				`\bAccount[:\s]+[\d\s-]+\b`,
			},
		},
		{
			Label: LabelIDs,
			Token: "[ID REDACTED]",
			Patterns: []string{
				`\b[A-Z]{1,2}\d{6,9}\b`,
				`\b\d{2}[-]?\d{7}\b`,
				`\bID[:\s]+[A-Z0-9-]+\b`,
			},
		},
		{
			Label: LabelNetwork,
			Token: "[NETWORK INFO REDACTED]",
			Patterns: []string{
				`\b(?:\d{1,3}\.){3}\d{1,3}\b`,
				`\b([0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b`,
				`\b([0-9a-fA-F]{2}[:-]){5}([0-9a-fA-F]{2})\b`,
			},
		},
	}
}
