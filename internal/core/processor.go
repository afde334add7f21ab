package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/solar-quotes/internal/common"
	"github.com/joseph-ayodele/solar-quotes/internal/llm"
	"github.com/joseph-ayodele/solar-quotes/internal/llm/gemini"
	"github.com/joseph-ayodele/solar-quotes/internal/llm/openai"
	"github.com/joseph-ayodele/solar-quotes/internal/ocr"
	processor "github.com/joseph-ayodele/solar-quotes/internal/pipeline"
	parse "github.com/joseph-ayodele/solar-quotes/internal/pipeline/parsefields"
	"github.com/joseph-ayodele/solar-quotes/internal/pipeline/textextract"
	"github.com/joseph-ayodele/solar-quotes/internal/repository"
	"github.com/joseph-ayodele/solar-quotes/internal/sink"
)

// App holds the wired components shared by the CLI and the daemon.
type App struct {
	Processor *processor.Processor
	Sink      *sink.RecordSink
	Model     string
	closers   []func()
}

// Close releases clients in reverse construction order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// NewCompleter builds the configured completion client and the model name it uses.
func NewCompleter(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, string, func(), error) {
	switch cfg.Provider {
	case "gemini":
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			Temperature: cfg.Temperature,
		}, logger)
		if err != nil {
			return nil, "", nil, err
		}
		return c, cfg.GeminiModel, func() {
			if err := c.Close(); err != nil {
				logger.Warn("gemini client close failed", "error", err)
			}
		}, nil
	case "openai", "":
		c := openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
		return c, c.Model(), func() {}, nil
	default:
		return nil, "", nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// NewApp wires completer, page source, extract and parse stages, sink and
// optional run history, in that order.
func NewApp(ctx context.Context, cfg *common.Config, runs repository.RunRepository, logger *slog.Logger) (*App, error) {
	completer, model, closeCompleter, err := NewCompleter(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, err
	}
	app := &App{Model: model, closers: []func(){closeCompleter}}
	logger.Info("completion client initialized", "provider", cfg.LLM.Provider, "model", model)
	if cfg.LLM.Provider != "gemini" && cfg.LLM.Timeout > 0 && cfg.LLM.Timeout < cfg.Pipeline.CallTimeout {
		logger.Warn("OPENAI_TIMEOUT is shorter than CALL_TIMEOUT and will cut calls first",
			"http_timeout", cfg.LLM.Timeout, "call_timeout", cfg.Pipeline.CallTimeout)
	}

	source := ocr.NewExtractor(ocr.Config{Pdftotext: cfg.Pipeline.Pdftotext}, logger)
	extract := textextract.NewPipeline(source, completer, textextract.Config{
		Model:          model,
		MaxInputTokens: cfg.Pipeline.MaxInputTokens,
		CallTimeout:    cfg.Pipeline.CallTimeout,
	}, logger)
	parsePipe := parse.NewPipeline(logger, parse.Config{
		Model:       model,
		CallTimeout: cfg.Pipeline.CallTimeout,
	}, completer)

	app.Sink = sink.NewFromConfig(ctx, cfg.Sink, logger)
	app.Processor = processor.NewProcessor(logger, extract, parsePipe, app.Sink)
	if runs != nil {
		app.Processor.WithRuns(runs, model)
	}
	return app, nil
}
