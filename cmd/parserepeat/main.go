package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/solar-quotes/internal/common"
	"github.com/joseph-ayodele/solar-quotes/internal/core"
	parse "github.com/joseph-ayodele/solar-quotes/internal/pipeline/parsefields"
	"github.com/joseph-ayodele/solar-quotes/internal/quote"
)

// parserepeat parses the same combined quote text N times and reports how often
// the model's Cost per Watt agrees with the locally computed value.
func main() {
	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: parserepeat <text_file> [times]")
		os.Exit(2)
	}
	text, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read text file", "path", os.Args[1], "error", err)
		os.Exit(2)
	}
	times := 5
	if len(os.Args) >= 3 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			times = n
		}
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx := context.Background()
	completer, model, closeCompleter, err := core.NewCompleter(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Error("init completer", "error", err)
		os.Exit(1)
	}
	defer closeCompleter()

	p := parse.NewPipeline(logger, parse.Config{Model: model, CallTimeout: cfg.Pipeline.CallTimeout}, completer)

	agree := 0
	for i := 1; i <= times; i++ {
		start := time.Now()
		logger.Info("parse.run.start", "iter", i, "model", model)

		report, err := p.Run(ctx, string(text))
		if err != nil {
			logger.Error("parse.run.error", "iter", i, "err", err)
			continue
		}
		fields, _, _ := quote.Split(report)
		check := quote.CheckCostPerWatt(fields)
		if check.Status == quote.CostCheckOK {
			agree++
		}
		logger.Info("parse.run.ok",
			"iter", i,
			"cost_check", string(check.Status),
			"reported", check.Reported,
			"computed", check.Computed,
			"elapsed_ms", time.Since(start).Milliseconds())

		time.Sleep(750 * time.Millisecond)
	}

	fmt.Printf("%d/%d replies had a verified Cost per Watt\n", agree, times)
}
