package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/solar-quotes/internal/common"
	"github.com/joseph-ayodele/solar-quotes/internal/ingest"
	"github.com/joseph-ayodele/solar-quotes/internal/ocr"
)

// pagetext prints the locally extracted text of every page of a PDF quote,
// the same text that is sent to the completion service.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "pagetext <quote.pdf>")
		os.Exit(2)
	}

	doc, err := ingest.LoadDocument(os.Args[1])
	if err != nil {
		logger.Error("failed to load document", "path", os.Args[1], "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg := common.LoadConfig()
	x := ocr.NewExtractor(ocr.Config{Pdftotext: cfg.Pipeline.Pdftotext}, logger)

	start := time.Now()
	res, err := x.Extract(ctx, doc)
	dur := time.Since(start)
	if err != nil {
		logger.Error("text extraction failed", "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}
	for _, w := range res.Warnings {
		logger.Warn("extraction warning", "warning", w)
	}

	for i, page := range res.Pages {
		fmt.Printf("--- page %d ---\n%s\n", i+1, page)
	}
	logger.Info("text extraction OK",
		"method", res.Method,
		"pages", len(res.Pages),
		"duration_ms", dur.Milliseconds(),
	)
}
