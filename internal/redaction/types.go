package redaction

// Matcher is a single compiled detection pattern. *regexp.Regexp satisfies it.
type Matcher interface {
	FindAllStringIndex(s string, n int) [][]int
	ReplaceAllLiteralString(src, repl string) string
}

// Category is a named class of sensitive information with its ordered
// patterns and the token substituted for every match.
type Category struct {
	Label    string
	Token    string
	Patterns []Matcher
}

// CategoryDef is the uncompiled form of a Category.
type CategoryDef struct {
	Label    string
	Token    string
	Patterns []string
}

// Result is the outcome of redacting one block of text.
type Result struct {
	RedactedText string         `json:"redacted_text"`
	Counts       map[string]int `json:"counts"`
}

// Total returns the sum of all category counts.
func (r Result) Total() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}
