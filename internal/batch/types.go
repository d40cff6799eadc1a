package batch

import (
	"path/filepath"
	"strings"
	"time"
)

// Record is one input text block
type Record struct {
	ID   string `parquet:"id" json:"id"`
	Text string `parquet:"text" json:"text"`
}

// Output is one redacted record, written as a JSON line
type Output struct {
	ID           string         `json:"id"`
	RedactedText string         `json:"redacted_text"`
	Counts       map[string]int `json:"counts"`
}

// Summary describes a completed batch run
type Summary struct {
	Records     int64          `json:"records"`
	Redacted    int64          `json:"redacted"`
	Empty       int64          `json:"empty"`
	Skipped     int64          `json:"skipped"`
	TotalCounts map[string]int `json:"total_counts"`
	Duration    time.Duration  `json:"duration"`
}

// Total returns the sum of all counts
func (s *Summary) Total() int {
	total := 0
	for _, n := range s.TotalCounts {
		total += n
	}
	return total
}

// Config contains pipeline configuration
type Config struct {
	Workers   int
	BatchSize int
}

// FileFormat is an input file format
type FileFormat string

const (
	FormatCSV     FileFormat = "csv"
	FormatParquet FileFormat = "parquet"
	FormatJSONL   FileFormat = "jsonl"
)

// DetectFileFormat detects the input format from the file extension
func DetectFileFormat(filename string) FileFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".parquet":
		return FormatParquet
	case ".json", ".jsonl", ".ndjson":
		return FormatJSONL
	default:
		return FormatCSV
	}
}
