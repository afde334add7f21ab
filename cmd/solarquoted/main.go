package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/solar-quotes/internal/async"
	"github.com/joseph-ayodele/solar-quotes/internal/common"
	"github.com/joseph-ayodele/solar-quotes/internal/core"
	"github.com/joseph-ayodele/solar-quotes/internal/ingest"
	processor "github.com/joseph-ayodele/solar-quotes/internal/pipeline"
	"github.com/joseph-ayodele/solar-quotes/internal/quote"
	"github.com/joseph-ayodele/solar-quotes/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Setup structured logger that outputs messages with variables but no time/level
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runs, closeRuns, err := server.OpenHistory(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open run history", "error", err)
		os.Exit(1)
	}
	defer closeRuns()

	app, err := core.NewApp(ctx, cfg, runs, logger)
	if err != nil {
		logger.Error("failed to initialize pipeline", "error", err)
		os.Exit(1)
	}
	defer app.Close()
	app.Processor.WithSkipRecorded(true)
	if runs == nil {
		logger.Warn("no run history: already recorded quotes are only detected until restart")
	}

	srv := server.NewServer(logger)
	srv.SetServing("", true)
	srv.SetServing(server.ServicePipeline, true)
	srv.SetServing(server.ServiceSink, app.Sink.Enabled())
	srv.SetServing(server.ServiceHistory, runs != nil)

	queue := async.NewProcessorQueue(app.Processor, logger,
		async.WithWorkers(cfg.Ingest.Workers),
		async.WithQueueSize(cfg.Ingest.QueueSize),
		async.WithProcessTimeout(cfg.Ingest.ProcessTimeout),
		async.WithResultHandler(func(job async.Job, res processor.Result) {
			if res.Err != nil || res.Skipped {
				return
			}
			if res.CostCheck.Status == quote.CostCheckMismatch {
				logger.Warn("cost per watt mismatch",
					"path", job.Path,
					"reported", res.CostCheck.Reported,
					"computed", res.CostCheck.Computed)
			}
			if app.Sink.Enabled() && !res.SheetAppended {
				logger.Warn("record not appended to sheet", "path", job.Path)
			}
		}),
	)

	if err := os.MkdirAll(cfg.Ingest.InboxDir, 0o755); err != nil {
		logger.Error("failed to create inbox", "dir", cfg.Ingest.InboxDir, "error", err)
		os.Exit(1)
	}
	paths, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Ingest.InboxDir},
		InitialScan: true,
		Debounce:    cfg.Ingest.Debounce,
		SkipHidden:  true,
	}, logger)
	if err != nil {
		logger.Error("failed to watch inbox", "dir", cfg.Ingest.InboxDir, "error", err)
		os.Exit(1)
	}

	go func() {
		for {
			select {
			case p, ok := <-paths:
				if !ok {
					return
				}
				job := async.Job{Path: p, TraceID: uuid.NewString(), Force: cfg.Ingest.Reprocess}
				if err := queue.Enqueue(ctx, job); err != nil {
					logger.Warn("dropped inbox file", "path", p, "error", err)
				}
			case err, ok := <-watchErrs:
				if !ok {
					watchErrs = nil
					continue
				}
				logger.Error("inbox watcher error", "error", err)
			}
		}
	}()

	logger.Info("solarquoted listening", "addr", addr, "inbox", cfg.Ingest.InboxDir, "workers", cfg.Ingest.Workers)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		logger.Error("gRPC serve error", "error", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
}
