package processor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/solar-quotes/constants"
	"github.com/joseph-ayodele/solar-quotes/internal/common"
	"github.com/joseph-ayodele/solar-quotes/internal/entity"
	parse "github.com/joseph-ayodele/solar-quotes/internal/pipeline/parsefields"
	"github.com/joseph-ayodele/solar-quotes/internal/pipeline/textextract"
	"github.com/joseph-ayodele/solar-quotes/internal/quote"
	"github.com/joseph-ayodele/solar-quotes/internal/repository"
)

// RecordSink receives every successfully parsed record. Implementations must not panic
// and report failure as false.
type RecordSink interface {
	Append(ctx context.Context, r quote.FieldRecord) bool
}

// Result is the per-document outcome. Err is set only for extraction or parsing
// failures; a failed sink append shows up as SheetAppended=false. Skipped results
// were recorded before (DuplicateOf is that run, or uuid.Nil without history).
type Result struct {
	RunID         uuid.UUID
	Skipped       bool
	DuplicateOf   uuid.UUID
	Filename      string
	Pages         int
	Fields        quote.FieldRecord
	Display       quote.DisplayRecord
	Analysis      string
	CostCheck     quote.CostCheck
	SheetAppended bool
	Elapsed       time.Duration
	Err           error
}

// Processor coordinates page text extraction, field parsing, splitting and the sink.
type Processor struct {
	Logger  *slog.Logger
	Extract *textextract.Pipeline
	Parse   *parse.Pipeline
	Sink    RecordSink
	Runs    repository.RunRepository // optional
	Model   string                   // recorded on run history

	// SkipRecorded skips documents whose content was already appended to the sink,
	// unless the context carries common.WithForce.
	SkipRecorded bool
	recorded     sync.Map // content hash -> run id, for this process
}

func NewProcessor(logger *slog.Logger, extract *textextract.Pipeline, parse *parse.Pipeline, sink RecordSink) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Extract: extract, Parse: parse, Sink: sink}
}

// WithRuns records every processed document in repo.
func (p *Processor) WithRuns(repo repository.RunRepository, model string) *Processor {
	p.Runs = repo
	p.Model = model
	return p
}

// WithSkipRecorded turns duplicate detection by content hash on or off.
func (p *Processor) WithSkipRecorded(skip bool) *Processor {
	p.SkipRecorded = skip
	return p
}

// ProcessDocument runs the whole pipeline for one document. It never returns an
// error directly: failures are scoped to the Result.
func (p *Processor) ProcessDocument(ctx context.Context, doc entity.Document) Result {
	start := time.Now()
	ctx = common.WithDocument(ctx, doc.Filename)
	res := Result{Filename: doc.Filename}
	hash := doc.ContentHash()
	if prior, ok := p.alreadyRecorded(ctx, hash); ok {
		res.Skipped = true
		res.DuplicateOf = prior
		res.Elapsed = time.Since(start)
		p.Logger.Info("processor.document.skipped",
			"filename", doc.Filename,
			"content_hash", hash,
			"duplicate_of", prior,
		)
		return res
	}
	run := p.startRun(ctx, doc, hash)
	if run != nil {
		res.RunID = run.ID
	}

	// 1) per-page text via the completion service
	pages, err := p.Extract.Run(ctx, doc)
	if err != nil {
		p.Logger.Error("processor.extract.failed", "filename", doc.Filename, "err", err)
		res.Err = err
		res.Elapsed = time.Since(start)
		p.finishRun(ctx, run, res, constants.RunStatusExtractFailed)
		return res
	}
	res.Pages = len(pages)
	p.Logger.Info("processor.extract.ok", "filename", doc.Filename, "pages", len(pages))

	// 2) formatted report for the combined text
	report, err := p.Parse.Run(ctx, textextract.Combine(pages))
	if err != nil {
		p.Logger.Error("processor.parse.failed", "filename", doc.Filename, "err", err)
		res.Err = err
		res.Elapsed = time.Since(start)
		p.finishRun(ctx, run, res, constants.RunStatusParseFailed)
		return res
	}

	// 3) split, verify, record
	res.Fields, res.Display, res.Analysis = quote.Split(report)
	res.CostCheck = quote.CheckCostPerWatt(res.Fields)
	if res.CostCheck.Status == quote.CostCheckMismatch {
		p.Logger.Warn("processor.cost_per_watt.mismatch",
			"filename", doc.Filename,
			"reported", res.CostCheck.Reported,
			"computed", res.CostCheck.Computed,
		)
	}
	if p.Sink != nil {
		res.SheetAppended = p.Sink.Append(ctx, res.Fields)
	}
	res.Elapsed = time.Since(start)

	status := constants.RunStatusParsed
	if res.SheetAppended {
		status = constants.RunStatusRecorded
		p.recorded.Store(hash, res.RunID)
	}
	p.finishRun(ctx, run, res, status)

	p.Logger.Info("processor.document.ok",
		"filename", doc.Filename,
		"fields", len(res.Fields),
		"cost_check", res.CostCheck.Status,
		"sheet_appended", res.SheetAppended,
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)
	return res
}

// ProcessBatch processes docs with at most concurrency documents in flight and
// returns results in input order. One document failing never stops the others.
func (p *Processor) ProcessBatch(ctx context.Context, docs []entity.Document, concurrency int) []Result {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]Result, len(docs))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Filename: doc.Filename, Err: err}
				return nil
			}
			results[i] = p.ProcessDocument(ctx, doc)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// alreadyRecorded looks the hash up in this process first, then in run history.
func (p *Processor) alreadyRecorded(ctx context.Context, hash string) (uuid.UUID, bool) {
	if !p.SkipRecorded || common.ForceFromContext(ctx) {
		return uuid.Nil, false
	}
	if id, ok := p.recorded.Load(hash); ok {
		return id.(uuid.UUID), true
	}
	if p.Runs == nil {
		return uuid.Nil, false
	}
	run, err := p.Runs.FindRecordedByHash(ctx, hash)
	if err != nil {
		p.Logger.Warn("processor.history.lookup_failed", "content_hash", hash, "err", err)
		return uuid.Nil, false
	}
	if run == nil {
		return uuid.Nil, false
	}
	return run.ID, true
}

func (p *Processor) startRun(ctx context.Context, doc entity.Document, hash string) *entity.QuoteRun {
	if p.Runs == nil {
		return nil
	}
	run, err := p.Runs.Start(ctx, doc.Filename, hash, p.Model)
	if err != nil {
		p.Logger.Warn("processor.history.start_failed", "filename", doc.Filename, "err", err)
		return nil
	}
	return run
}

func (p *Processor) finishRun(ctx context.Context, run *entity.QuoteRun, res Result, status constants.RunStatus) {
	if p.Runs == nil || run == nil {
		return
	}
	out := repository.RunOutcome{
		Status:          status,
		Analysis:        res.Analysis,
		CostCheckStatus: string(res.CostCheck.Status),
		SheetAppended:   res.SheetAppended,
		Pages:           res.Pages,
	}
	if res.Fields != nil {
		out.Fields = res.Fields
	}
	if res.Err != nil {
		out.ErrorMessage = res.Err.Error()
	}
	// a cancelled document still gets its row closed
	ctx = context.WithoutCancel(ctx)
	if err := p.Runs.Finish(ctx, run.ID, out); err != nil {
		p.Logger.Warn("processor.history.finish_failed", "run_id", run.ID, "err", err)
	}
}

// Summary counts outcomes across a batch.
type Summary struct {
	Total          int
	Succeeded      int
	ExtractFailed  int
	ParseFailed    int
	SheetAppended  int
	CostMismatches int
	Cancelled      int
	Skipped        int
}

func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case errors.Is(r.Err, common.ErrExtraction):
			s.ExtractFailed++
		case errors.Is(r.Err, common.ErrParsing):
			s.ParseFailed++
		case r.Err == nil && r.Skipped:
			s.Skipped++
		case r.Err == nil:
			s.Succeeded++
		default:
			s.Cancelled++
		}
		if r.SheetAppended {
			s.SheetAppended++
		}
		if r.CostCheck.Status == quote.CostCheckMismatch {
			s.CostMismatches++
		}
	}
	return s
}
