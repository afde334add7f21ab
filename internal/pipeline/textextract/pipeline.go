package textextract

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/solar-quotes/internal/common"
	"github.com/joseph-ayodele/solar-quotes/internal/entity"
	"github.com/joseph-ayodele/solar-quotes/internal/llm"
)

// PageSource yields the mechanical text layer of a document, one string per page.
// ocr.Extractor returns each page whitespace-normalized (see ocr.Normalize).
type PageSource interface {
	PageTexts(ctx context.Context, doc entity.Document) ([]string, error)
}

type Config struct {
	Model          string        // "" = completer default
	MaxInputTokens int           // default llm.DefaultMaxInputTokens
	CallTimeout    time.Duration // 0 = no per-call timeout
}

type Pipeline struct {
	Source    PageSource
	Completer llm.Completer
	Cfg       Config
	Log       *slog.Logger
}

func NewPipeline(src PageSource, completer llm.Completer, cfg Config, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxInputTokens <= 0 {
		cfg.MaxInputTokens = llm.DefaultMaxInputTokens
	}
	return &Pipeline{Source: src, Completer: completer, Cfg: cfg, Log: log}
}

// Run reads every page of doc and sends each one, base64-encoded, to the
// completer. The payload is the page text as the source returns it, which for
// ocr.Extractor is normalized text rather than raw pdftotext output. Pages are
// handled in order, one call each, with no retry.
// Any failure aborts the document with an error matching common.ErrExtraction.
func (p *Pipeline) Run(ctx context.Context, doc entity.Document) ([]string, error) {
	raw, err := p.Source.PageTexts(ctx, doc)
	if err != nil {
		p.Log.Error("textextract.read.failed", "filename", doc.Filename, "err", err)
		return nil, common.ExtractionError(0, err)
	}
	p.Log.Info("textextract.start", "filename", doc.Filename, "pages", len(raw))

	texts := make([]string, 0, len(raw))
	for i, page := range raw {
		n := i + 1
		encoded := base64.StdEncoding.EncodeToString([]byte(page))
		payload := llm.TruncateToBudget(encoded, p.Cfg.MaxInputTokens)
		if len(payload) < len(encoded) {
			p.Log.Warn("textextract.page.truncated",
				"filename", doc.Filename, "page", n,
				"encoded_len", len(encoded), "kept_len", len(payload),
			)
		}

		out, err := p.complete(ctx, payload)
		if err != nil {
			p.Log.Error("textextract.page.failed", "filename", doc.Filename, "page", n, "err", err)
			return nil, common.ExtractionError(n, err)
		}
		if strings.TrimSpace(out) == "" && strings.TrimSpace(page) != "" {
			p.Log.Error("textextract.page.empty", "filename", doc.Filename, "page", n)
			return nil, common.ExtractionError(n, errors.New("empty completion for non-empty page"))
		}
		texts = append(texts, out)
	}

	p.Log.Info("textextract.ok", "filename", doc.Filename, "pages", len(texts))
	return texts, nil
}

func (p *Pipeline) complete(ctx context.Context, payload string) (string, error) {
	if p.Cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Cfg.CallTimeout)
		defer cancel()
	}
	return p.Completer.Complete(ctx, llm.CompletionRequest{
		Model:    p.Cfg.Model,
		Messages: llm.BuildPageExtractionMessages(payload),
	})
}

// Combine joins page texts in page order with a newline.
func Combine(pages []string) string {
	return strings.Join(pages, "\n")
}
