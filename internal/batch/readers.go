package batch

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"
)

const maxLineBytes = 16 << 20

// batchReader returns the next batch of records, or an empty batch at end of input
type batchReader func() ([]Record, error)

// csvReader skips malformed rows and counts them in skipped. Any other read
// error ends the run.
func (p *Pipeline) csvReader(input io.Reader, skipped *atomic.Int64) (batchReader, error) {
	reader := csv.NewReader(input)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	idCol, textCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "id":
			idCol = i
		case "text":
			textCol = i
		}
	}
	if textCol < 0 {
		return nil, fmt.Errorf("CSV header has no text column: %v", header)
	}

	p.logger.Info("CSV header detected", zap.Strings("columns", header))

	row := 0
	return func() ([]Record, error) {
		var batch []Record
		for len(batch) < p.config.BatchSize {
			fields, err := reader.Read()
			if err == io.EOF {
				break
			}
			row++
			if err != nil {
				var parseErr *csv.ParseError
				if !errors.As(err, &parseErr) {
					return nil, fmt.Errorf("failed to read CSV record %d: %w", row, err)
				}
				p.logger.Warn("Failed to parse CSV record", zap.Int("row", row), zap.Error(err))
				skipped.Add(1)
				continue
			}
			if textCol >= len(fields) {
				p.logger.Warn("CSV record missing text column", zap.Int("row", row))
				skipped.Add(1)
				continue
			}

			id := strconv.Itoa(row)
			if idCol >= 0 && idCol < len(fields) && fields[idCol] != "" {
				id = fields[idCol]
			}
			batch = append(batch, Record{ID: id, Text: fields[textCol]})
		}
		return batch, nil
	}, nil
}

func (p *Pipeline) jsonlReader(input io.Reader, skipped *atomic.Int64) batchReader {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	return func() ([]Record, error) {
		var batch []Record
		for len(batch) < p.config.BatchSize {
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, fmt.Errorf("failed to read JSON lines: %w", err)
				}
				break
			}
			line++

			raw := bytes.TrimSpace(scanner.Bytes())
			if len(raw) == 0 {
				continue
			}

			var record Record
			if err := json.Unmarshal(raw, &record); err != nil {
				p.logger.Warn("Failed to decode JSON record", zap.Int("line", line), zap.Error(err))
				skipped.Add(1)
				continue
			}
			if record.ID == "" {
				record.ID = strconv.Itoa(line)
			}
			batch = append(batch, record)
		}
		return batch, nil
	}
}

func (p *Pipeline) parquetReader(input io.Reader) (batchReader, func() error, error) {
	readerAt, ok := input.(io.ReaderAt)
	if !ok {
		data, err := io.ReadAll(input)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read Parquet input: %w", err)
		}
		readerAt = bytes.NewReader(data)
	}

	reader, err := openParquet(readerAt)
	if err != nil {
		return nil, nil, err
	}
	row := 0

	return func() ([]Record, error) {
		var batch []Record
		for len(batch) < p.config.BatchSize {
			var record Record
			err := reader.Read(&record)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read Parquet row %d: %w", row+1, err)
			}
			row++
			if record.ID == "" {
				record.ID = strconv.Itoa(row)
			}
			batch = append(batch, record)
		}
		return batch, nil
	}, reader.Close, nil
}

// openParquet recovers from the panic parquet.NewReader raises on a malformed file
func openParquet(input io.ReaderAt) (reader *parquet.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to open Parquet file: %v", rec)
		}
	}()
	return parquet.NewReader(input), nil
}
