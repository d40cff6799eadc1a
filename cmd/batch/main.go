package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raaihank/doc-redactor/internal/batch"
	"github.com/raaihank/doc-redactor/internal/config"
	"github.com/raaihank/doc-redactor/internal/document"
	"github.com/raaihank/doc-redactor/internal/logger"
	"github.com/raaihank/doc-redactor/internal/redaction"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath = flag.String("config", "", "Configuration file path")
		inputFile  = flag.String("input", "", "Input file (CSV, Parquet or JSON lines)")
		outputFile = flag.String("output", "", "Output JSON lines file (default: <input>.redacted.jsonl)")
		batchSize  = flag.Int("batch-size", 0, "Records per batch (overrides config)")
		workers    = flag.Int("workers", 0, "Number of worker goroutines (overrides config)")
	)
	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s --input FILE [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --input records.csv\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input records.parquet --workers 8 --output out.jsonl\n", os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	batchConfig := &batch.Config{
		Workers:   cfg.Batch.Workers,
		BatchSize: cfg.Batch.BatchSize,
	}
	if *workers > 0 {
		batchConfig.Workers = *workers
	}
	if *batchSize > 0 {
		batchConfig.BatchSize = *batchSize
	}

	output := *outputFile
	if output == "" {
		output = *inputFile + ".redacted.jsonl"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, cancelling batch run")
		cancel()
	}()

	catalog, err := redaction.DefaultCatalog()
	if err != nil {
		log.Fatal("Failed to build category catalog", zap.Error(err))
	}
	redactor := redaction.New(catalog, log.WithComponent("redaction"))
	processor := document.NewProcessor(redactor, log.WithComponent("document"))
	pipeline := batch.NewPipeline(processor, redactor.Labels(), batchConfig, log.WithComponent("batch").Logger)

	summary, err := pipeline.ProcessFile(ctx, *inputFile, output)
	if err != nil {
		log.Fatal("Batch redaction failed", zap.Error(err))
	}

	fmt.Printf("\nBatch redaction summary:\n")
	fmt.Printf("  Input:            %s\n", *inputFile)
	fmt.Printf("  Output:           %s\n", output)
	fmt.Printf("  Records:          %d\n", summary.Records)
	fmt.Printf("  With redactions:  %d\n", summary.Redacted)
	fmt.Printf("  Empty:            %d\n", summary.Empty)
	fmt.Printf("  Skipped:          %d\n", summary.Skipped)
	fmt.Printf("  Total redactions: %d\n", summary.Total())
	fmt.Printf("  Duration:         %v\n", summary.Duration)

	counts, _ := json.MarshalIndent(summary.TotalCounts, "  ", "  ")
	fmt.Printf("  Counts:           %s\n", counts)
}
