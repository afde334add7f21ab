package textextract

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/solar-quotes/internal/common"
	"github.com/joseph-ayodele/solar-quotes/internal/entity"
	"github.com/joseph-ayodele/solar-quotes/internal/llm"
)

type staticSource struct {
	pages []string
	err   error
}

func (s staticSource) PageTexts(context.Context, entity.Document) ([]string, error) {
	return s.pages, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunSendsOneEncodedRequestPerPage(t *testing.T) {
	var payloads []string
	c := llm.CompleterFunc(func(_ context.Context, req llm.CompletionRequest) (string, error) {
		const prefix = "Extract the text from the following file content (base64-encoded): "
		payload := strings.TrimPrefix(req.Messages[1].Content, prefix)
		payloads = append(payloads, payload)
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			t.Errorf("payload is not base64: %v", err)
		}
		return strings.ToUpper(string(raw)), nil
	})

	p := NewPipeline(staticSource{pages: []string{"page one", "page two"}}, c, Config{}, quietLogger())
	got, err := p.Run(context.Background(), entity.Document{Filename: "q.pdf"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("calls = %d", len(payloads))
	}
	if Combine(got) != "PAGE ONE\nPAGE TWO" {
		t.Fatalf("combined = %q", Combine(got))
	}
}

func TestRunTruncatesLongPages(t *testing.T) {
	var sent int
	c := llm.CompleterFunc(func(_ context.Context, req llm.CompletionRequest) (string, error) {
		sent = len(req.Messages[1].Content)
		return "ok", nil
	})
	page := strings.Repeat("x", 300) // 400 base64 chars
	p := NewPipeline(staticSource{pages: []string{page}}, c, Config{MaxInputTokens: 50}, quietLogger())
	if _, err := p.Run(context.Background(), entity.Document{Filename: "q.pdf"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	prefix := len("Extract the text from the following file content (base64-encoded): ")
	if sent-prefix != 200 {
		t.Fatalf("payload len = %d, want 200", sent-prefix)
	}
}

func TestRunFailures(t *testing.T) {
	okCompleter := llm.CompleterFunc(func(context.Context, llm.CompletionRequest) (string, error) { return "text", nil })
	tests := []struct {
		name string
		src  PageSource
		c    llm.Completer
	}{
		{name: "source error", src: staticSource{err: errors.New("pdftotext: exit 1")}, c: okCompleter},
		{name: "completer error", src: staticSource{pages: []string{"a", "b"}}, c: llm.CompleterFunc(
			func(context.Context, llm.CompletionRequest) (string, error) { return "", errors.New("401") })},
		{name: "empty completion", src: staticSource{pages: []string{"a"}}, c: llm.CompleterFunc(
			func(context.Context, llm.CompletionRequest) (string, error) { return "  ", nil })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPipeline(tt.src, tt.c, Config{}, quietLogger()).Run(context.Background(), entity.Document{Filename: "q.pdf"})
			if !errors.Is(err, common.ErrExtraction) {
				t.Fatalf("err = %v, want ErrExtraction", err)
			}
		})
	}
}

func TestRunBlankPageAllowsEmptyCompletion(t *testing.T) {
	c := llm.CompleterFunc(func(context.Context, llm.CompletionRequest) (string, error) { return "", nil })
	got, err := NewPipeline(staticSource{pages: []string{""}}, c, Config{}, quietLogger()).Run(context.Background(), entity.Document{})
	if err != nil || len(got) != 1 {
		t.Fatalf("got %q, err %v", got, err)
	}
}

func TestRunAppliesCallTimeout(t *testing.T) {
	c := llm.CompleterFunc(func(ctx context.Context, _ llm.CompletionRequest) (string, error) {
		if _, ok := ctx.Deadline(); !ok {
			return "", errors.New("no deadline")
		}
		return "text", nil
	})
	p := NewPipeline(staticSource{pages: []string{"a"}}, c, Config{CallTimeout: time.Minute}, quietLogger())
	if _, err := p.Run(context.Background(), entity.Document{}); err != nil {
		t.Fatalf("run: %v", err)
	}
}
