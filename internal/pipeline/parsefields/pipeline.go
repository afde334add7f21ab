package parsefields

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/solar-quotes/internal/common"
	"github.com/joseph-ayodele/solar-quotes/internal/llm"
)

type Config struct {
	Model       string        // "" = completer default
	CallTimeout time.Duration // 0 = no per-call timeout
}

type Pipeline struct {
	Logger    *slog.Logger
	Cfg       Config
	Completer llm.Completer
}

func NewPipeline(logger *slog.Logger, cfg Config, completer llm.Completer) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{Logger: logger, Cfg: cfg, Completer: completer}
}

// Run sends one completion request with the quote template and returns the
// formatted report verbatim. It does not check the reply: missing labels or a
// missing analysis section are handled by quote.Split.
func (p *Pipeline) Run(ctx context.Context, combinedText string) (string, error) {
	if p.Cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Cfg.CallTimeout)
		defer cancel()
	}

	p.Logger.Info("parsefields.start", "text_bytes", len(combinedText))
	report, err := p.Completer.Complete(ctx, llm.CompletionRequest{
		Model:    p.Cfg.Model,
		Messages: llm.BuildQuoteParseMessages(combinedText),
	})
	if err != nil {
		p.Logger.Error("parsefields.failed", "err", err)
		return "", common.ParsingError(err)
	}
	p.Logger.Info("parsefields.ok", "report_bytes", len(report))
	return report, nil
}
