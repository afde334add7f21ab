package ocr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/solar-quotes/internal/entity"
)

type stubRunner struct {
	out  string
	errb string
	err  error

	name string
	args []string
	data []byte
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.name = name
	s.args = args
	// the input path sits before the trailing "-"
	if len(args) >= 2 {
		s.data, _ = os.ReadFile(args[len(args)-2])
	}
	return []byte(s.out), []byte(s.errb), s.err
}

func newTestExtractor(r Runner) *Extractor {
	return NewExtractor(Config{}, slog.New(slog.NewTextHandler(io.Discard, nil))).WithRunner(r)
}

func TestSplitPages(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single page with trailing feed", in: "Total  $20,000\n\f", want: []string{"Total $20,000"}},
		{name: "two pages", in: "page one\fpage\t\ttwo\r\n\f", want: []string{"page one", "page two"}},
		{name: "blank middle page", in: "a\f\fc\f", want: []string{"a", "", "c"}},
		{name: "no trailing feed", in: "a\fb", want: []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, splitPages(tt.in)); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeKeepsDigits(t *testing.T) {
	in := "Date: 2024-05-01\r\n\r\n\r\n\r\nSystem   Size:\t10 kW   \x00"
	want := "Date: 2024-05-01\n\nSystem Size: 10 kW"
	if got := Normalize(in); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPdfToTextReconcilesExpectedPages(t *testing.T) {
	r := &stubRunner{out: "one\ftwo\fthree\f"}
	e := newTestExtractor(r)

	pages, warns, err := e.pdfToText(context.Background(), "/tmp/x.pdf", 2)
	if err != nil {
		t.Fatalf("pdfToText: %v", err)
	}
	if diff := cmp.Diff([]string{"one", "two"}, pages); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}
	if len(warns) != 1 {
		t.Fatalf("warnings = %v", warns)
	}
	if r.name != "pdftotext" || r.args[0] != "-layout" || r.args[len(r.args)-1] != "-" {
		t.Fatalf("unexpected command %s %v", r.name, r.args)
	}

	pages, _, err = e.pdfToText(context.Background(), "/tmp/x.pdf", 4)
	if err != nil {
		t.Fatalf("pdfToText: %v", err)
	}
	if len(pages) != 4 || pages[3] != "" {
		t.Fatalf("pages = %q", pages)
	}
}

func TestPdfToTextCommandFailure(t *testing.T) {
	e := newTestExtractor(&stubRunner{errb: "Syntax Error", err: errors.New("exit status 1")})
	_, warns, err := e.pdfToText(context.Background(), "/tmp/x.pdf", 0)
	if err == nil || !strings.Contains(err.Error(), "pdftotext") {
		t.Fatalf("err = %v", err)
	}
	if len(warns) != 1 || warns[0] != "Syntax Error" {
		t.Fatalf("warnings = %v", warns)
	}
}

func TestExtractWritesDocumentToTempFile(t *testing.T) {
	r := &stubRunner{out: "Acme Solar quote\f"}
	e := newTestExtractor(r)
	doc := entity.Document{Filename: "quote.PDF", Data: []byte("%PDF-1.4 not really a pdf")}

	pages, err := e.PageTexts(context.Background(), doc)
	if err != nil {
		t.Fatalf("PageTexts: %v", err)
	}
	if diff := cmp.Diff([]string{"Acme Solar quote"}, pages); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}
	if string(r.data) != string(doc.Data) {
		t.Fatalf("runner saw %q", r.data)
	}
	if _, err := os.Stat(r.args[len(r.args)-2]); !os.IsNotExist(err) {
		t.Fatalf("temp file not removed: %v", err)
	}
}

func TestExtractRejectsNonPDFContent(t *testing.T) {
	e := newTestExtractor(&stubRunner{})
	if _, err := e.Extract(context.Background(), entity.Document{Filename: "quote.pdf", Data: []byte("PK\x03\x04 docx")}); err == nil {
		t.Fatalf("expected error for non-pdf content")
	}
	if _, err := e.Extract(context.Background(), entity.Document{Filename: "quote.pdf"}); err == nil {
		t.Fatalf("expected error for empty document")
	}
}

func TestExtractIgnoresFilenameExtension(t *testing.T) {
	for _, name := range []string{"Acme quote", "quote.pdf.download", "scan.bin"} {
		t.Run(name, func(t *testing.T) {
			e := newTestExtractor(&stubRunner{out: "Total Price: $20,000\f"})
			pages, err := e.PageTexts(context.Background(), entity.Document{Filename: name, Data: []byte("%PDF-1.4 body")})
			if err != nil {
				t.Fatalf("PageTexts: %v", err)
			}
			if diff := cmp.Diff([]string{"Total Price: $20,000"}, pages); diff != "" {
				t.Fatalf("pages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{name: "header", data: []byte("%PDF-1.7\n"), want: true},
		{name: "leading junk", data: append([]byte("\xef\xbb\xbf  "), "%PDF-1.4"...), want: true},
		{name: "marker past window", data: append(make([]byte, pdfHeaderWindow), "%PDF-1.4"...), want: false},
		{name: "zip", data: []byte("PK\x03\x04"), want: false},
		{name: "empty", data: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPDF(tt.data); got != tt.want {
				t.Fatalf("IsPDF = %v, want %v", got, tt.want)
			}
		})
	}
}
