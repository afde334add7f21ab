package ocr

import (
	"context"
	"fmt"
	"strings"
)

// pdfToText returns one normalized string per page. expected is the page count
// from the PDF structure; 0 means unknown.
func (e *Extractor) pdfToText(ctx context.Context, path string, expected int) (pages []string, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, []string{string(errb)}, fmt.Errorf("pdftotext: %w", err)
	}
	pages = splitPages(string(out))

	if expected > 0 && len(pages) != expected {
		warnings = append(warnings, fmt.Sprintf("pdftotext produced %d pages, document has %d", len(pages), expected))
		for len(pages) < expected {
			pages = append(pages, "")
		}
		if len(pages) > expected {
			pages = pages[:expected]
		}
	}
	if len(pages) == 0 {
		return nil, warnings, fmt.Errorf("no pages extracted")
	}
	return pages, warnings, nil
}

// splitPages splits on the form feed pdftotext writes after every page and
// normalizes each page; callers never see the raw layout spacing.
func splitPages(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, "\f")
	if strings.HasSuffix(text, "\f") {
		parts = parts[:len(parts)-1]
	}
	for i := range parts {
		parts[i] = Normalize(parts[i])
	}
	return parts
}
