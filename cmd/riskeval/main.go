// Command riskeval scores a transactions CSV in batch and writes the
// decisions CSV.
//
// Usage:
//
//	go run ./cmd/riskeval [flags]
//
// Flags:
//
//	-input    Path to the transactions CSV (default: transactions.csv)
//	-output   Path to the decisions CSV (default: decisions.csv)
//	-config   Optional YAML scoring-config overlay
//	-workers  Evaluation parallelism (default: number of CPUs)
//
// The output file carries every input column unchanged plus three appended
// columns: decision, risk_score, reasons. The decision thresholds may be
// overridden with the REJECT_AT and REVIEW_AT environment variables.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"meridia/risk-engine/internal/batch"
	"meridia/risk-engine/internal/config"
	"meridia/risk-engine/internal/csvio"
	"meridia/risk-engine/internal/engine"
)

func main() {
	input := flag.String("input", "transactions.csv", "path to input CSV")
	output := flag.String("output", "decisions.csv", "path to output CSV")
	cfgPath := flag.String("config", "", "path to YAML scoring config overlay")
	workers := flag.Int("workers", runtime.NumCPU(), "evaluation parallelism")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := config.LoadScoring(*cfgPath)
	if err != nil {
		slog.Error("invalid scoring configuration", "error", err)
		os.Exit(1)
	}

	// Ctrl-C abandons the remaining rows; no partial output is written.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *input, *output, *workers); err != nil {
		slog.Error("batch run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.ScoringConfig, input, output string, workers int) error {
	in, err := os.Open(input)
	if err != nil {
		return err
	}
	defer in.Close()

	header, records, err := csvio.ReadTransactions(in)
	if err != nil {
		return err
	}

	runner := batch.NewRunner(engine.New(cfg), workers)
	results, summary, err := runner.Run(ctx, records)
	if err != nil {
		return err
	}

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := csvio.WriteDecisions(out, header, records, results); err != nil {
		return err
	}

	slog.Info("decisions written",
		"input", input,
		"output", output,
		"total", summary.Total,
		"accepted", summary.Accepted,
		"in_review", summary.InReview,
		"rejected", summary.Rejected,
	)
	return nil
}
