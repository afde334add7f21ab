package sink

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/solar-quotes/internal/common"
	"github.com/joseph-ayodele/solar-quotes/internal/quote"
)

// RowAppender appends one row of cell values to a tabular store.
type RowAppender interface {
	AppendRow(ctx context.Context, row []string) error
	Name() string
}

// RecordSink maps field records onto the fixed column order and appends them.
// Failures are logged and reported as false; they never reach the caller as errors.
type RecordSink struct {
	appender RowAppender
	reason   string
	log      *slog.Logger
}

func New(appender RowAppender, log *slog.Logger) *RecordSink {
	if log == nil {
		log = slog.Default()
	}
	if appender == nil {
		return Disabled("no appender", log)
	}
	return &RecordSink{appender: appender, log: log}
}

// Disabled returns a sink whose Append always reports false without doing I/O.
func Disabled(reason string, log *slog.Logger) *RecordSink {
	if log == nil {
		log = slog.Default()
	}
	log.Warn("sink.disabled", "reason", reason, "error", common.ErrSinkDisabled)
	return &RecordSink{reason: reason, log: log}
}

// Enabled reports whether Append will attempt a write.
func (s *RecordSink) Enabled() bool {
	return s != nil && s.appender != nil
}

// Append writes r as one row. Missing labels become empty cells.
func (s *RecordSink) Append(ctx context.Context, r quote.FieldRecord) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	row := r.Row()
	if err := s.appender.AppendRow(ctx, row); err != nil {
		s.log.Error("sink.append.failed",
			"backend", s.appender.Name(),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return false
	}
	s.log.Info("sink.append.ok",
		"backend", s.appender.Name(),
		"cells", len(row),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return true
}

// NewFromConfig builds the configured backend. Absent or broken configuration
// yields a disabled sink, never an error.
func NewFromConfig(ctx context.Context, cfg common.SinkConfig, log *slog.Logger) *RecordSink {
	if log == nil {
		log = slog.Default()
	}
	switch cfg.Backend {
	case "xlsx":
		if cfg.XLSXPath == "" {
			return Disabled("SINK_XLSX_PATH not set", log)
		}
		return New(NewXLSXAppender(cfg.XLSXPath, cfg.XLSXSheet, log), log)
	default:
		if !cfg.SheetsConfigured() {
			return Disabled("google sheets credentials, spreadsheet id or range not set", log)
		}
		creds, err := LoadCredentials(cfg.SheetsCredentials)
		if err != nil {
			log.Error("sink.credentials.invalid", "error", err)
			return Disabled("invalid google sheets credentials", log)
		}
		app, err := NewSheetsAppender(ctx, creds, cfg.SpreadsheetID, cfg.RangeName, log)
		if err != nil {
			log.Error("sink.sheets.init_failed", "error", err)
			return Disabled("google sheets client init failed", log)
		}
		return New(app, log)
	}
}
