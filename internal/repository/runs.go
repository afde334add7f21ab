package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/solar-quotes/constants"
	"github.com/joseph-ayodele/solar-quotes/internal/common"
	"github.com/joseph-ayodele/solar-quotes/internal/entity"
)

// RunOutcome is what a finished processing attempt writes back.
type RunOutcome struct {
	Status          constants.RunStatus
	ErrorMessage    string
	Fields          map[string]string
	Analysis        string
	CostCheckStatus string
	SheetAppended   bool
	Pages           int
}

// RunRepository stores the history of processed quotes.
type RunRepository interface {
	EnsureSchema(ctx context.Context) error
	Start(ctx context.Context, filename, contentHash, model string) (*entity.QuoteRun, error)
	Finish(ctx context.Context, runID uuid.UUID, out RunOutcome) error
	ListRecent(ctx context.Context, limit int) ([]*entity.QuoteRun, error)
	// FindRecordedByHash returns the latest RECORDED run for contentHash, or nil.
	FindRecordedByHash(ctx context.Context, contentHash string) (*entity.QuoteRun, error)
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS quote_runs (
	id                UUID PRIMARY KEY,
	filename          TEXT NOT NULL,
	content_hash      TEXT NOT NULL,
	status            TEXT NOT NULL,
	error_message     TEXT,
	fields            JSONB,
	analysis          TEXT NOT NULL DEFAULT '',
	cost_check_status TEXT NOT NULL DEFAULT '',
	sheet_appended    BOOLEAN NOT NULL DEFAULT FALSE,
	model_name        TEXT NOT NULL DEFAULT '',
	pages             INTEGER NOT NULL DEFAULT 0,
	started_at        TIMESTAMPTZ NOT NULL,
	finished_at       TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS quote_runs_started_at_idx ON quote_runs (started_at DESC);
CREATE INDEX IF NOT EXISTS quote_runs_content_hash_idx ON quote_runs (content_hash, status);`

type pgRunRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewRunRepository(pool *pgxpool.Pool, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &pgRunRepo{pool: pool, log: log}
}

func (r *pgRunRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, pgSchema); err != nil {
		r.log.Error("quote_runs schema failed", "err", err)
		return common.NewAppError("DB_SCHEMA", "create quote_runs", errors.Join(common.ErrDatabase, err))
	}
	return nil
}

func (r *pgRunRepo) Start(ctx context.Context, filename, contentHash, model string) (*entity.QuoteRun, error) {
	run := newRun(filename, contentHash, model)
	_, err := r.pool.Exec(ctx,
		`INSERT INTO quote_runs (id, filename, content_hash, status, model_name, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.Filename, run.ContentHash, run.Status, run.ModelName, run.StartedAt,
	)
	if err != nil {
		r.log.Error("quote_run start failed", "filename", filename, "err", err)
		return nil, common.NewAppError("DB_INSERT", "start quote run", errors.Join(common.ErrDatabase, err))
	}
	r.log.Info("quote_run started", "run_id", run.ID, "filename", filename)
	return run, nil
}

func (r *pgRunRepo) Finish(ctx context.Context, runID uuid.UUID, out RunOutcome) error {
	fields, err := marshalFields(out.Fields)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE quote_runs
		    SET status = $2, error_message = $3, fields = $4, analysis = $5,
		        cost_check_status = $6, sheet_appended = $7, pages = $8, finished_at = $9
		  WHERE id = $1`,
		runID, string(out.Status), nullable(out.ErrorMessage), fields, out.Analysis,
		out.CostCheckStatus, out.SheetAppended, out.Pages, time.Now().UTC(),
	)
	if err != nil {
		r.log.Error("quote_run finish failed", "run_id", runID, "err", err)
		return common.NewAppError("DB_UPDATE", "finish quote run", errors.Join(common.ErrDatabase, err))
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("DB_UPDATE", "quote run not found: "+runID.String(), common.ErrInvalidInput)
	}
	r.log.Info("quote_run finished", "run_id", runID, "status", out.Status)
	return nil
}

func (r *pgRunRepo) ListRecent(ctx context.Context, limit int) ([]*entity.QuoteRun, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, filename, content_hash, status, error_message, fields, analysis,
		        cost_check_status, sheet_appended, model_name, pages, started_at, finished_at
		   FROM quote_runs ORDER BY started_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "list quote runs", errors.Join(common.ErrDatabase, err))
	}
	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.QuoteRun, error) {
		var q entity.QuoteRun
		var fields []byte
		err := row.Scan(&q.ID, &q.Filename, &q.ContentHash, &q.Status, &q.ErrorMessage, &fields,
			&q.Analysis, &q.CostCheckStatus, &q.SheetAppended, &q.ModelName, &q.Pages, &q.StartedAt, &q.FinishedAt)
		q.Fields = fields
		return &q, err
	})
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "scan quote runs", errors.Join(common.ErrDatabase, err))
	}
	return runs, nil
}

func (r *pgRunRepo) FindRecordedByHash(ctx context.Context, contentHash string) (*entity.QuoteRun, error) {
	var q entity.QuoteRun
	err := r.pool.QueryRow(ctx,
		`SELECT id, filename, content_hash, status, sheet_appended, started_at
		   FROM quote_runs
		  WHERE content_hash = $1 AND status = $2
		  ORDER BY started_at DESC LIMIT 1`,
		contentHash, string(constants.RunStatusRecorded),
	).Scan(&q.ID, &q.Filename, &q.ContentHash, &q.Status, &q.SheetAppended, &q.StartedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "find quote run by hash", errors.Join(common.ErrDatabase, err))
	}
	return &q, nil
}

func newRun(filename, contentHash, model string) *entity.QuoteRun {
	return &entity.QuoteRun{
		ID:          uuid.New(),
		Filename:    filename,
		ContentHash: contentHash,
		Status:      string(constants.RunStatusRunning),
		ModelName:   model,
		StartedAt:   time.Now().UTC(),
	}
}

func marshalFields(fields map[string]string) ([]byte, error) {
	if fields == nil {
		return nil, nil
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, common.WrapError(err, "marshal fields")
	}
	return b, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 20
	}
	return limit
}
