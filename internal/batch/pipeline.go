package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/raaihank/doc-redactor/internal/document"
	"go.uber.org/zap"
)

// PageProcessor redacts one text block with page-level isolation
type PageProcessor interface {
	ProcessPage(page document.PageInput) document.PageResult
}

// Pipeline redacts text records in bulk
type Pipeline struct {
	processor PageProcessor
	labels    []string
	config    *Config
	logger    *zap.Logger
}

// NewPipeline creates a batch pipeline. labels seeds the summary so every
// category appears even when it never matched.
func NewPipeline(processor PageProcessor, labels []string, config *Config, logger *zap.Logger) *Pipeline {
	cfg := *config
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 100
	}
	return &Pipeline{
		processor: processor,
		labels:    labels,
		config:    &cfg,
		logger:    logger,
	}
}

// ProcessFile redacts every record in inputPath and writes JSON lines to outputPath
func (p *Pipeline) ProcessFile(ctx context.Context, inputPath, outputPath string) (*Summary, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}

	format := DetectFileFormat(inputPath)
	p.logger.Info("Detected file format",
		zap.String("file", inputPath),
		zap.String("format", string(format)))

	summary, err := p.Process(ctx, format, in, out)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close output: %w", closeErr)
	}
	return summary, err
}

// Process redacts every record read from input and writes one Output per
// record to out, in input order
func (p *Pipeline) Process(ctx context.Context, format FileFormat, input io.Reader, out io.Writer) (*Summary, error) {
	start := time.Now()
	var skipped atomic.Int64

	var (
		next    batchReader
		closeFn func() error
		err     error
	)
	switch format {
	case FormatCSV:
		next, err = p.csvReader(input, &skipped)
	case FormatJSONL:
		next = p.jsonlReader(input, &skipped)
	case FormatParquet:
		next, closeFn, err = p.parquetReader(input)
	default:
		err = fmt.Errorf("unsupported file format: %s", format)
	}
	if err != nil {
		return nil, err
	}
	if closeFn != nil {
		defer closeFn()
	}

	p.logger.Info("Starting batch redaction",
		zap.String("format", string(format)),
		zap.Int("batch_size", p.config.BatchSize),
		zap.Int("workers", p.config.Workers))

	summary := &Summary{TotalCounts: make(map[string]int, len(p.labels))}
	for _, label := range p.labels {
		summary.TotalCounts[label] = 0
	}

	w := bufio.NewWriter(out)
	encoder := json.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		batch, err := next()
		if err != nil {
			return summary, err
		}
		if len(batch) == 0 {
			break
		}

		outputs, err := p.processBatch(ctx, batch)
		if err != nil {
			return summary, err
		}

		for i, output := range outputs {
			if err := encoder.Encode(output); err != nil {
				return summary, fmt.Errorf("failed to write output: %w", err)
			}
			summary.Records++
			if batch[i].Text == "" {
				summary.Empty++
			}
			redacted := false
			for label, n := range output.Counts {
				summary.TotalCounts[label] += n
				if n > 0 {
					redacted = true
				}
			}
			if redacted {
				summary.Redacted++
			}
		}

		p.logger.Debug("Batch processed",
			zap.Int("batch_size", len(batch)),
			zap.Int64("records", summary.Records))
	}

	if err := w.Flush(); err != nil {
		return summary, fmt.Errorf("failed to flush output: %w", err)
	}

	summary.Skipped = skipped.Load()
	summary.Duration = time.Since(start)

	p.logger.Info("Batch redaction completed",
		zap.Int64("records", summary.Records),
		zap.Int64("redacted", summary.Redacted),
		zap.Int64("empty", summary.Empty),
		zap.Int64("skipped", summary.Skipped),
		zap.Int("total_redactions", summary.Total()),
		zap.Duration("duration", summary.Duration))

	return summary, nil
}

// processBatch fans the batch out to the worker pool. Outputs keep the batch order.
func (p *Pipeline) processBatch(ctx context.Context, batch []Record) ([]Output, error) {
	outputs := make([]Output, len(batch))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := min(p.config.Workers, len(batch))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				result := p.processor.ProcessPage(document.PageInput{Text: batch[i].Text})
				outputs[i] = Output{
					ID:           batch[i].ID,
					RedactedText: result.RedactedText,
					Counts:       result.Counts,
				}
			}
		}()
	}

	var err error
dispatch:
	for i := range batch {
		select {
		case jobs <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return outputs, nil
}
