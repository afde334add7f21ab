package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/solar-quotes/internal/entity"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	MaxPages  int    // 0 = no limit
}

// ExtractionResult is the mechanical text layer of a PDF, one entry per page.
type ExtractionResult struct {
	Pages    []string
	Method   string // "pdf-text"
	Duration time.Duration
	Warnings []string
}

// Extractor reads the text layer of PDFs. It does no model calls.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner, mainly for tests.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// PageTexts implements the page source used by the extraction stage.
func (e *Extractor) PageTexts(ctx context.Context, doc entity.Document) ([]string, error) {
	res, err := e.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}
	return res.Pages, nil
}

// Extract writes the document to a temp file and runs pdftotext on it.
func (e *Extractor) Extract(ctx context.Context, doc entity.Document) (ExtractionResult, error) {
	start := time.Now()
	if len(doc.Data) == 0 {
		return ExtractionResult{}, fmt.Errorf("empty document %q", doc.Filename)
	}
	// the filename is only a label; the content decides
	if !IsPDF(doc.Data) {
		e.logger.Error("document is not a pdf", "filename", doc.Filename, "bytes", len(doc.Data))
		return ExtractionResult{}, fmt.Errorf("document %q is not a pdf", doc.Filename)
	}

	e.logger.Debug("starting pdf text extraction", "filename", doc.Filename, "bytes", len(doc.Data))

	expected, countErr := countPages(doc.Data)
	var warns []string
	if countErr != nil {
		warns = append(warns, "page count: "+countErr.Error())
		e.logger.Warn("pdf page count failed", "filename", doc.Filename, "error", countErr)
	}

	tmp, err := os.CreateTemp("", "sq-doc-*.pdf")
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func(path string) {
		if err := os.Remove(path); err != nil {
			e.logger.Warn("failed to remove temp file", "path", path, "error", err)
		}
	}(tmp.Name())
	if _, err := tmp.Write(doc.Data); err != nil {
		_ = tmp.Close()
		return ExtractionResult{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return ExtractionResult{}, fmt.Errorf("close temp file: %w", err)
	}

	pages, w, err := e.pdfToText(ctx, tmp.Name(), expected)
	warns = append(warns, w...)
	if err != nil {
		return ExtractionResult{Warnings: warns}, err
	}
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		warns = append(warns, fmt.Sprintf("truncated to %d of %d pages", e.cfg.MaxPages, len(pages)))
		pages = pages[:e.cfg.MaxPages]
	}

	res := ExtractionResult{Pages: pages, Method: "pdf-text", Duration: time.Since(start), Warnings: warns}
	e.logger.Info("pdf text extracted",
		"filename", doc.Filename,
		"pages", len(pages),
		"warnings", len(warns),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// pdfHeaderWindow is how far into the file readers accept the %PDF- marker.
const pdfHeaderWindow = 1024

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether data carries a PDF header near its start.
func IsPDF(data []byte) bool {
	head := data
	if len(head) > pdfHeaderWindow {
		head = head[:pdfHeaderWindow]
	}
	return bytes.Contains(head, pdfMagic)
}

func countPages(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), conf)
}
