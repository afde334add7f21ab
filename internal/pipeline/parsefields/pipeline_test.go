package parsefields

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/joseph-ayodele/solar-quotes/internal/common"
	"github.com/joseph-ayodele/solar-quotes/internal/llm"
)

func TestRunEmbedsCombinedTextAndReturnsReply(t *testing.T) {
	var req llm.CompletionRequest
	c := llm.CompleterFunc(func(_ context.Context, r llm.CompletionRequest) (string, error) {
		req = r
		return "Total Price: $1\n\nAnalysis: ok", nil
	})
	p := NewPipeline(slog.New(slog.NewTextHandler(io.Discard, nil)), Config{Model: "gpt-4o"}, c)

	out, err := p.Run(context.Background(), "QUOTE TEXT")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "Total Price: $1\n\nAnalysis: ok" {
		t.Fatalf("out = %q", out)
	}
	if req.Model != "gpt-4o" || len(req.Messages) != 2 {
		t.Fatalf("req = %+v", req)
	}
	if !strings.HasPrefix(req.Messages[0].Content, "You are a solar quote comparison tool") {
		t.Fatalf("system = %q", req.Messages[0].Content)
	}
	if !strings.HasSuffix(req.Messages[1].Content, "Here is the text: QUOTE TEXT") {
		t.Fatalf("user prompt does not end with the combined text")
	}
}

func TestRunWrapsFailureAsParsingError(t *testing.T) {
	c := llm.CompleterFunc(func(context.Context, llm.CompletionRequest) (string, error) {
		return "", errors.New("timeout")
	})
	_, err := NewPipeline(nil, Config{}, c).Run(context.Background(), "x")
	if !errors.Is(err, common.ErrParsing) {
		t.Fatalf("err = %v, want ErrParsing", err)
	}
	if errors.Is(err, common.ErrExtraction) {
		t.Fatalf("parsing error must not look like extraction")
	}
}
