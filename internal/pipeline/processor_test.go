package processor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/solar-quotes/constants"
	"github.com/joseph-ayodele/solar-quotes/internal/common"
	"github.com/joseph-ayodele/solar-quotes/internal/entity"
	"github.com/joseph-ayodele/solar-quotes/internal/llm"
	parse "github.com/joseph-ayodele/solar-quotes/internal/pipeline/parsefields"
	"github.com/joseph-ayodele/solar-quotes/internal/pipeline/textextract"
	"github.com/joseph-ayodele/solar-quotes/internal/quote"
	"github.com/joseph-ayodele/solar-quotes/internal/repository"
)

const goldenReport = `Installer Name: Sunny Installs
Installer Email: sales@sunny.example
Installer Phone: 555-0100
Total Price: $20,000
System Size: 10 kW
Cost per Watt: $2.00
Estimated Annual Production: 14,000 kWh
Panel Information: 25 x 400W
Inverter Model and Output: Enphase IQ8
Incentives or Rebates: 30% federal tax credit
Warranty Information: 25 years
Estimated Payback Period: 8 years
Customer Email: jane@example.com
Customer Phone Number: 555-0199

Analysis: At $2.00 per watt this quote is below typical market rates. Confirm the inverter warranty before signing.`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mapSource map[string][]string

func (m mapSource) PageTexts(_ context.Context, doc entity.Document) ([]string, error) {
	pages, ok := m[doc.Filename]
	if !ok {
		return nil, errors.New("not a pdf")
	}
	return pages, nil
}

type stubSink struct {
	mu      sync.Mutex
	records []quote.FieldRecord
	ok      bool
}

func (s *stubSink) Append(_ context.Context, r quote.FieldRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return s.ok
}

// fakeCompleter echoes page text for OCR calls and returns report for parse calls.
func fakeCompleter(report string, failOCR func(user string) bool) llm.Completer {
	return llm.CompleterFunc(func(_ context.Context, req llm.CompletionRequest) (string, error) {
		if req.Messages[0].Content == "You are an OCR engine." {
			if failOCR != nil && failOCR(req.Messages[1].Content) {
				return "", errors.New("429 quota exceeded")
			}
			return "ocr: " + req.Messages[1].Content, nil
		}
		return report, nil
	})
}

func newTestProcessor(src textextract.PageSource, completer llm.Completer, sink RecordSink) *Processor {
	ext := textextract.NewPipeline(src, completer, textextract.Config{}, quietLogger())
	prs := parse.NewPipeline(quietLogger(), parse.Config{}, completer)
	return NewProcessor(quietLogger(), ext, prs, sink)
}

func TestProcessDocumentGoldenCostPerWatt(t *testing.T) {
	sink := &stubSink{ok: true}
	p := newTestProcessor(mapSource{"sunny.pdf": {"Total $20,000", "System 10 kW"}}, fakeCompleter(goldenReport, nil), sink)

	res := p.ProcessDocument(context.Background(), entity.Document{Filename: "sunny.pdf", Data: []byte("%PDF")})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Pages != 2 {
		t.Fatalf("pages = %d", res.Pages)
	}
	if got := res.Fields.Get(constants.CostPerWatt); got != "$2.00" {
		t.Fatalf("cost per watt = %q", got)
	}
	if res.CostCheck.Status != quote.CostCheckOK || quote.FormatCostPerWatt(res.CostCheck.Computed) != "2.00" {
		t.Fatalf("cost check = %+v", res.CostCheck)
	}
	if _, ok := res.Display[constants.CustomerEmail]; ok {
		t.Fatalf("display leaked customer email")
	}
	if !strings.HasPrefix(res.Analysis, "At $2.00 per watt") {
		t.Fatalf("analysis = %q", res.Analysis)
	}
	if !res.SheetAppended || len(sink.records) != 1 {
		t.Fatalf("sink not called once: appended=%v records=%d", res.SheetAppended, len(sink.records))
	}
	if sink.records[0].Get(constants.CustomerPhoneNumber) != "555-0199" {
		t.Fatalf("sink must receive the full record")
	}
}

func TestProcessDocumentSinkFailureIsNotAnError(t *testing.T) {
	p := newTestProcessor(mapSource{"a.pdf": {"x"}}, fakeCompleter(goldenReport, nil), &stubSink{ok: false})
	res := p.ProcessDocument(context.Background(), entity.Document{Filename: "a.pdf"})
	if res.Err != nil || res.SheetAppended {
		t.Fatalf("err=%v appended=%v", res.Err, res.SheetAppended)
	}
	if res.Fields.Get(constants.InstallerName) != "Sunny Installs" {
		t.Fatalf("fields lost on sink failure")
	}
}

func TestProcessDocumentParseFailure(t *testing.T) {
	failing := llm.CompleterFunc(func(_ context.Context, req llm.CompletionRequest) (string, error) {
		if req.Messages[0].Content == "You are an OCR engine." {
			return "text", nil
		}
		return "", errors.New("upstream 500")
	})
	sink := &stubSink{ok: true}
	ext := textextract.NewPipeline(mapSource{"a.pdf": {"x"}}, failing, textextract.Config{}, quietLogger())
	p := NewProcessor(quietLogger(), ext, parse.NewPipeline(quietLogger(), parse.Config{}, failing), sink)

	res := p.ProcessDocument(context.Background(), entity.Document{Filename: "a.pdf"})
	if !errors.Is(res.Err, common.ErrParsing) {
		t.Fatalf("err = %v, want ErrParsing", res.Err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("sink called after parse failure")
	}
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	src := mapSource{"good.pdf": {"Total $20,000"}}
	sink := &stubSink{ok: true}
	p := newTestProcessor(src, fakeCompleter(goldenReport, nil), sink)

	docs := []entity.Document{{Filename: "broken.pdf"}, {Filename: "good.pdf"}}
	results := p.ProcessBatch(context.Background(), docs, 1)

	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	if !errors.Is(results[0].Err, common.ErrExtraction) || results[0].Filename != "broken.pdf" {
		t.Fatalf("first result = %+v", results[0])
	}
	if results[1].Err != nil || results[1].Fields.Get(constants.TotalPrice) != "$20,000" {
		t.Fatalf("second result = %+v", results[1])
	}

	sum := Summarize(results)
	if sum.Total != 2 || sum.ExtractFailed != 1 || sum.Succeeded != 1 || sum.SheetAppended != 1 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestProcessBatchConcurrentKeepsOrder(t *testing.T) {
	src := mapSource{}
	var docs []entity.Document
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"} {
		src[name] = []string{"page of " + name}
		docs = append(docs, entity.Document{Filename: name})
	}
	// fail OCR for c.pdf only; payload is base64 so match on its encoding
	failC := func(user string) bool { return strings.Contains(user, "cGFnZSBvZiBjLnBkZg==") }
	p := newTestProcessor(src, fakeCompleter(goldenReport, failC), &stubSink{ok: true})

	results := p.ProcessBatch(context.Background(), docs, 3)
	for i, r := range results {
		if r.Filename != docs[i].Filename {
			t.Fatalf("results[%d] = %s, want %s", i, r.Filename, docs[i].Filename)
		}
		if (r.Err != nil) != (r.Filename == "c.pdf") {
			t.Fatalf("%s err = %v", r.Filename, r.Err)
		}
	}
}

func TestProcessBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newTestProcessor(mapSource{"a.pdf": {"x"}}, fakeCompleter(goldenReport, nil), nil)
	results := p.ProcessBatch(ctx, []entity.Document{{Filename: "a.pdf"}}, 1)
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Fatalf("err = %v", results[0].Err)
	}
	if Summarize(results).Cancelled != 1 {
		t.Fatalf("summary = %+v", Summarize(results))
	}
}

func TestProcessDocumentRecordsHistory(t *testing.T) {
	ctx := context.Background()
	db, err := repository.OpenSQLite(ctx, ":memory:", quietLogger())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()
	runs := repository.NewSQLiteRunRepository(db, quietLogger())
	if err := runs.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}

	p := newTestProcessor(mapSource{"good.pdf": {"x"}}, fakeCompleter(goldenReport, nil), &stubSink{ok: false}).
		WithRuns(runs, "gpt-4-turbo")
	p.ProcessBatch(ctx, []entity.Document{{Filename: "bad.pdf"}, {Filename: "good.pdf"}}, 1)

	list, err := runs.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	statuses := map[string]string{}
	for _, r := range list {
		statuses[r.Filename] = r.Status
	}
	if statuses["bad.pdf"] != string(constants.RunStatusExtractFailed) || statuses["good.pdf"] != string(constants.RunStatusParsed) {
		t.Fatalf("statuses = %v", statuses)
	}
}

func TestProcessDocumentSkipsRecordedContent(t *testing.T) {
	ctx := context.Background()
	db, err := repository.OpenSQLite(ctx, ":memory:", quietLogger())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()
	runs := repository.NewSQLiteRunRepository(db, quietLogger())
	if err := runs.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}

	var calls int
	var mu sync.Mutex
	completer := llm.CompleterFunc(func(ctx context.Context, req llm.CompletionRequest) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return fakeCompleter(goldenReport, nil).Complete(ctx, req)
	})
	sink := &stubSink{ok: true}
	src := mapSource{"acme.pdf": {"x"}, "acme (1).pdf": {"x"}}
	doc := entity.Document{Filename: "acme.pdf", Data: []byte("%PDF-1.4 acme")}

	first := newTestProcessor(src, completer, sink).WithRuns(runs, "gpt-4-turbo").WithSkipRecorded(true)
	if res := first.ProcessDocument(ctx, doc); res.Err != nil || res.Skipped || !res.SheetAppended {
		t.Fatalf("first run = %+v", res)
	}
	callsAfterFirst := calls

	// a fresh processor (daemon restart) sees the same bytes under another name
	again := newTestProcessor(src, completer, sink).WithRuns(runs, "gpt-4-turbo").WithSkipRecorded(true)
	copyDoc := entity.Document{Filename: "acme (1).pdf", Data: doc.Data}
	res := again.ProcessDocument(ctx, copyDoc)
	if !res.Skipped || res.Err != nil || res.DuplicateOf == uuid.Nil {
		t.Fatalf("second run = %+v", res)
	}
	if calls != callsAfterFirst || len(sink.records) != 1 {
		t.Fatalf("duplicate reached the model or sink: calls %d -> %d, records %d", callsAfterFirst, calls, len(sink.records))
	}
	if sum := Summarize([]Result{res}); sum.Skipped != 1 || sum.Succeeded != 0 {
		t.Fatalf("summary = %+v", sum)
	}

	forced := again.ProcessDocument(common.WithForce(ctx), copyDoc)
	if forced.Skipped || !forced.SheetAppended || len(sink.records) != 2 {
		t.Fatalf("forced run = %+v, records %d", forced, len(sink.records))
	}
}

func TestProcessDocumentSkipWithoutHistory(t *testing.T) {
	ctx := context.Background()
	src := mapSource{"a.pdf": {"x"}, "b.pdf": {"y"}}

	// not appended: the same content is tried again
	failing := newTestProcessor(src, fakeCompleter(goldenReport, nil), &stubSink{ok: false}).WithSkipRecorded(true)
	doc := entity.Document{Filename: "a.pdf", Data: []byte("%PDF-1.4 a")}
	failing.ProcessDocument(ctx, doc)
	if res := failing.ProcessDocument(ctx, doc); res.Skipped {
		t.Fatalf("unrecorded document was skipped: %+v", res)
	}

	sink := &stubSink{ok: true}
	p := newTestProcessor(src, fakeCompleter(goldenReport, nil), sink).WithSkipRecorded(true)
	p.ProcessDocument(ctx, doc)
	if res := p.ProcessDocument(ctx, doc); !res.Skipped || res.DuplicateOf != uuid.Nil {
		t.Fatalf("repeat = %+v", res)
	}
	if res := p.ProcessDocument(ctx, entity.Document{Filename: "b.pdf", Data: []byte("%PDF-1.4 b")}); res.Skipped {
		t.Fatalf("different content skipped: %+v", res)
	}
	if len(sink.records) != 2 {
		t.Fatalf("records = %d", len(sink.records))
	}

	off := newTestProcessor(src, fakeCompleter(goldenReport, nil), &stubSink{ok: true})
	off.ProcessDocument(ctx, doc)
	if res := off.ProcessDocument(ctx, doc); res.Skipped {
		t.Fatalf("skip disabled but document skipped")
	}
}
