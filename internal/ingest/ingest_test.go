package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.pdf"), "%PDF b")
	writeFile(t, filepath.Join(root, "a.PDF"), "%PDF a")
	writeFile(t, filepath.Join(root, "notes.txt"), "skip")
	writeFile(t, filepath.Join(root, ".hidden", "c.pdf"), "%PDF c")
	writeFile(t, filepath.Join(root, "sub", "d.pdf"), "%PDF d")

	docs, failures, stats, err := CollectDirectory(context.Background(), root, true)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("failures = %+v", failures)
	}
	var names []string
	for _, d := range docs {
		names = append(names, d.Filename)
	}
	want := []string{"a.PDF", "b.pdf", "d.pdf"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
	if stats.Matched != 3 || stats.Loaded != 3 {
		t.Fatalf("stats = %+v", stats)
	}
	if string(docs[0].Data) != "%PDF a" || docs[0].ContentHash() == docs[1].ContentHash() {
		t.Fatalf("unexpected document content")
	}
}

func TestCollectDirectoryRequiresRoot(t *testing.T) {
	if _, _, _, err := CollectDirectory(context.Background(), " ", false); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadDocumentRejectsOtherTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quote.docx")
	writeFile(t, path, "x")
	if _, err := LoadDocument(path); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWatcherInitialScanAndNewFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.pdf"), "%PDF")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	next := func() string {
		select {
		case p := <-events:
			return p
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for watcher event")
			return ""
		}
	}
	if got := next(); filepath.Base(got) != "existing.pdf" {
		t.Fatalf("initial = %q", got)
	}

	writeFile(t, filepath.Join(root, "ignored.txt"), "x")
	writeFile(t, filepath.Join(root, "new.pdf"), "%PDF")
	if got := next(); filepath.Base(got) != "new.pdf" {
		t.Fatalf("event = %q", got)
	}

	cancel()
	for range events {
	}
}

func TestAllowedExt(t *testing.T) {
	for ext, want := range map[string]bool{".pdf": true, ".PDF": true, "pdf": true, ".download": false, "": false, ".docx": false} {
		if got := AllowedExt(ext); got != want {
			t.Errorf("AllowedExt(%q) = %v, want %v", ext, got, want)
		}
	}
}
