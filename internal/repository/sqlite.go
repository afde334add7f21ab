package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/solar-quotes/constants"
	"github.com/joseph-ayodele/solar-quotes/internal/common"
	"github.com/joseph-ayodele/solar-quotes/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS quote_runs (
	id                TEXT PRIMARY KEY,
	filename          TEXT NOT NULL,
	content_hash      TEXT NOT NULL,
	status            TEXT NOT NULL,
	error_message     TEXT,
	fields            TEXT,
	analysis          TEXT NOT NULL DEFAULT '',
	cost_check_status TEXT NOT NULL DEFAULT '',
	sheet_appended    INTEGER NOT NULL DEFAULT 0,
	model_name        TEXT NOT NULL DEFAULT '',
	pages             INTEGER NOT NULL DEFAULT 0,
	started_at        TIMESTAMP NOT NULL,
	finished_at       TIMESTAMP
);
CREATE INDEX IF NOT EXISTS quote_runs_started_at_idx ON quote_runs (started_at DESC);
CREATE INDEX IF NOT EXISTS quote_runs_content_hash_idx ON quote_runs (content_hash, status);`

// OpenSQLite opens a local history database. Use ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open sqlite", "dsn", dsn, "error", err)
		return nil, err
	}
	// a single connection keeps ":memory:" databases alive and shared
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("failed to ping sqlite", "dsn", dsn, "error", err)
		return nil, err
	}
	logger.Info("opened sqlite history", "dsn", dsn)
	return db, nil
}

type sqliteRunRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewSQLiteRunRepository(db *sql.DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &sqliteRunRepo{db: db, log: log}
}

func (r *sqliteRunRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		r.log.Error("quote_runs schema failed", "err", err)
		return common.NewAppError("DB_SCHEMA", "create quote_runs", errors.Join(common.ErrDatabase, err))
	}
	return nil
}

func (r *sqliteRunRepo) Start(ctx context.Context, filename, contentHash, model string) (*entity.QuoteRun, error) {
	run := newRun(filename, contentHash, model)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO quote_runs (id, filename, content_hash, status, model_name, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Filename, run.ContentHash, run.Status, run.ModelName, run.StartedAt,
	)
	if err != nil {
		r.log.Error("quote_run start failed", "filename", filename, "err", err)
		return nil, common.NewAppError("DB_INSERT", "start quote run", errors.Join(common.ErrDatabase, err))
	}
	r.log.Info("quote_run started", "run_id", run.ID, "filename", filename)
	return run, nil
}

func (r *sqliteRunRepo) Finish(ctx context.Context, runID uuid.UUID, out RunOutcome) error {
	fields, err := marshalFields(out.Fields)
	if err != nil {
		return err
	}
	var fieldsArg any
	if fields != nil {
		fieldsArg = string(fields)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE quote_runs
		    SET status = ?, error_message = ?, fields = ?, analysis = ?,
		        cost_check_status = ?, sheet_appended = ?, pages = ?, finished_at = ?
		  WHERE id = ?`,
		string(out.Status), nullable(out.ErrorMessage), fieldsArg, out.Analysis,
		out.CostCheckStatus, out.SheetAppended, out.Pages, time.Now().UTC(), runID.String(),
	)
	if err != nil {
		r.log.Error("quote_run finish failed", "run_id", runID, "err", err)
		return common.NewAppError("DB_UPDATE", "finish quote run", errors.Join(common.ErrDatabase, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError("DB_UPDATE", "quote run not found: "+runID.String(), common.ErrInvalidInput)
	}
	r.log.Info("quote_run finished", "run_id", runID, "status", out.Status)
	return nil
}

func (r *sqliteRunRepo) ListRecent(ctx context.Context, limit int) ([]*entity.QuoteRun, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, filename, content_hash, status, error_message, fields, analysis,
		        cost_check_status, sheet_appended, model_name, pages, started_at, finished_at
		   FROM quote_runs ORDER BY started_at DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "list quote runs", errors.Join(common.ErrDatabase, err))
	}
	defer func() { _ = rows.Close() }()

	var runs []*entity.QuoteRun
	for rows.Next() {
		var (
			q        entity.QuoteRun
			id       string
			errMsg   sql.NullString
			fields   sql.NullString
			finished sql.NullTime
		)
		if err := rows.Scan(&id, &q.Filename, &q.ContentHash, &q.Status, &errMsg, &fields, &q.Analysis,
			&q.CostCheckStatus, &q.SheetAppended, &q.ModelName, &q.Pages, &q.StartedAt, &finished); err != nil {
			return nil, common.NewAppError("DB_QUERY", "scan quote runs", errors.Join(common.ErrDatabase, err))
		}
		if q.ID, err = uuid.Parse(id); err != nil {
			return nil, common.WrapError(err, "parse run id")
		}
		if errMsg.Valid {
			q.ErrorMessage = &errMsg.String
		}
		if fields.Valid {
			q.Fields = []byte(fields.String)
		}
		if finished.Valid {
			t := finished.Time
			q.FinishedAt = &t
		}
		runs = append(runs, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError("DB_QUERY", "iterate quote runs", errors.Join(common.ErrDatabase, err))
	}
	return runs, nil
}

func (r *sqliteRunRepo) FindRecordedByHash(ctx context.Context, contentHash string) (*entity.QuoteRun, error) {
	var (
		q  entity.QuoteRun
		id string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, filename, content_hash, status, sheet_appended, started_at
		   FROM quote_runs
		  WHERE content_hash = ? AND status = ?
		  ORDER BY started_at DESC LIMIT 1`,
		contentHash, string(constants.RunStatusRecorded),
	).Scan(&id, &q.Filename, &q.ContentHash, &q.Status, &q.SheetAppended, &q.StartedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "find quote run by hash", errors.Join(common.ErrDatabase, err))
	}
	if q.ID, err = uuid.Parse(id); err != nil {
		return nil, common.WrapError(err, "parse run id")
	}
	return &q, nil
}
