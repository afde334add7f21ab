package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/solar-quotes/internal/common"
	"github.com/joseph-ayodele/solar-quotes/internal/core"
	"github.com/joseph-ayodele/solar-quotes/internal/export"
	"github.com/joseph-ayodele/solar-quotes/internal/ingest"
	processor "github.com/joseph-ayodele/solar-quotes/internal/pipeline"
	"github.com/joseph-ayodele/solar-quotes/internal/quote"
	repo "github.com/joseph-ayodele/solar-quotes/internal/repository"
	"github.com/joseph-ayodele/solar-quotes/internal/server"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always happens.
func run() int {
	var (
		dir          = flag.String("dir", "", "directory of PDF quotes to process")
		out          = flag.String("out", "", "write a comparison workbook to this XLSX path (optional)")
		inmem        = flag.Bool("inmem", false, "record run history in an in-memory SQLite database")
		glossary     = flag.Bool("glossary", false, "print the solar glossary and exit")
		history      = flag.Int("history", 0, "list the N most recent runs from DB_URL and exit")
		skipRecorded = flag.Bool("skip-recorded", false, "skip quotes whose content was already appended to the sheet")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *glossary {
		printGlossary()
		return 0
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	if *inmem {
		cfg.Database.DSN = "sqlite::memory:"
	}

	if *history > 0 {
		if err := printHistory(ctx, cfg, *history, logger); err != nil {
			printError("Error: %v\n", err)
			return 1
		}
		return 0
	}

	if *dir == "" {
		printError("Error: --dir is required\n")
		return 1
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		return 2
	}

	runs, closeRuns, err := server.OpenHistory(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open run history", "error", err)
		return 1
	}
	defer closeRuns()

	app, err := core.NewApp(ctx, cfg, runs, logger)
	if err != nil {
		logger.Error("failed to initialize pipeline", "error", err)
		return 1
	}
	defer app.Close()
	app.Processor.WithSkipRecorded(*skipRecorded)

	docs, failures, stats, err := ingest.CollectDirectory(ctx, *dir, true)
	if err != nil {
		logger.Error("failed to read directory", "dir", *dir, "error", err)
		return 1
	}
	for _, f := range failures {
		logger.Warn("skipping unreadable file", "path", f.Path, "error", f.Err)
	}
	logger.Info("collected quotes",
		"dir", *dir,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"loaded", stats.Loaded,
		"failed", stats.Failed)
	if len(docs) == 0 {
		fmt.Println("No PDF quotes found.")
		return 0
	}

	results := app.Processor.ProcessBatch(ctx, docs, cfg.Pipeline.Concurrency)
	for _, res := range results {
		printResult(res)
	}

	if *out != "" {
		xlsx, err := export.NewService(logger).ComparisonXLSX(results)
		if err != nil {
			logger.Error("failed to build comparison workbook", "error", err)
			return 1
		}
		if err := os.WriteFile(*out, xlsx, 0644); err != nil {
			logger.Error("failed to write output file", "path", *out, "error", err)
			return 1
		}
	}

	s := processor.Summarize(results)
	fmt.Printf("Processed %d quote(s)\n", s.Total)
	fmt.Printf("- Succeeded: %d\n", s.Succeeded)
	if s.Skipped > 0 {
		fmt.Printf("- Already recorded: %d\n", s.Skipped)
	}
	fmt.Printf("- Extraction failures: %d\n", s.ExtractFailed)
	fmt.Printf("- Parsing failures: %d\n", s.ParseFailed)
	if s.Cancelled > 0 {
		fmt.Printf("- Cancelled: %d\n", s.Cancelled)
	}
	fmt.Printf("- Appended to sheet: %d\n", s.SheetAppended)
	fmt.Printf("- Cost per Watt mismatches: %d\n", s.CostMismatches)
	if *out != "" {
		fmt.Printf("- Comparison: %s\n", *out)
	}
	return exitCode(s)
}

// exitCode is 1 when any document failed or was cancelled.
func exitCode(s processor.Summary) int {
	if s.Succeeded+s.Skipped < s.Total {
		return 1
	}
	return 0
}

func printResult(res processor.Result) {
	fmt.Printf("=== %s ===\n", res.Filename)
	if res.Err != nil {
		printError("Error processing %s: %v\n\n", res.Filename, res.Err)
		return
	}
	if res.Skipped {
		fmt.Printf("Already recorded (run %s), skipped.\n\n", res.DuplicateOf)
		return
	}
	fmt.Print(quote.FormatRecord(res.Display))
	if res.Analysis != "" {
		fmt.Printf("\nAnalysis: %s\n", res.Analysis)
	}
	switch res.CostCheck.Status {
	case quote.CostCheckOK:
		fmt.Printf("\nCost per Watt verified: %s\n", quote.FormatCostPerWatt(res.CostCheck.Computed))
	case quote.CostCheckMismatch:
		fmt.Printf("\nWARNING: reported Cost per Watt %s, computed %s\n",
			quote.FormatCostPerWatt(res.CostCheck.Reported), quote.FormatCostPerWatt(res.CostCheck.Computed))
	default:
		fmt.Printf("\nCost per Watt not verified: %s\n", res.CostCheck.Reason)
	}
	if res.SheetAppended {
		fmt.Println("Data appended to Google Sheet successfully.")
	} else {
		fmt.Println("Data was not appended to the sheet.")
	}
	fmt.Printf("(%s)\n\n", res.Elapsed.Round(time.Millisecond))
}

func printGlossary() {
	fmt.Println("Glossary of Solar Terms")
	for _, e := range quote.Terms() {
		fmt.Printf("\n%s\n  %s\n", e.Term, e.Definition)
	}
}

func printHistory(ctx context.Context, cfg *common.Config, limit int, logger *slog.Logger) error {
	runs, closeRuns, err := server.OpenHistory(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeRuns()
	if runs == nil {
		return fmt.Errorf("run history requires DB_URL")
	}
	return listRuns(ctx, runs, limit)
}

func listRuns(ctx context.Context, runs repo.RunRepository, limit int) error {
	recent, err := runs.ListRecent(ctx, limit)
	if err != nil {
		return err
	}
	for _, r := range recent {
		msg := ""
		if r.ErrorMessage != nil {
			msg = *r.ErrorMessage
		}
		fmt.Printf("%s  %-14s  %-30s  cost_check=%s sheet=%t %s\n",
			r.StartedAt.Format(time.RFC3339), r.Status, r.Filename, r.CostCheckStatus, r.SheetAppended, msg)
	}
	fmt.Printf("%d run(s)\n", len(recent))
	return nil
}
