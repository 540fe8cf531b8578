package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/entity"
)

const runsTable = "generation_runs"

var runColumns = []string{
	"id", "source_kind", "source_ref", "title", "course", "difficulty", "question_types",
	"question_count", "status", "error_kind", "error_message", "model", "attempts",
	"questions", "started_at", "finished_at", "elapsed_ms",
}

// RunSuccess is what a finished run records on success.
type RunSuccess struct {
	Model     string
	Attempts  int
	Questions int
	Elapsed   time.Duration
}

// RunFailure is what a finished run records on failure.
type RunFailure struct {
	Kind    string
	Message string
	Elapsed time.Duration
}

// RunRepository is the generation run journal. It stores metadata only, never quiz content.
type RunRepository interface {
	EnsureSchema(ctx context.Context) error
	Start(ctx context.Context, run entity.GenerationRun) (entity.GenerationRun, error)
	FinishSuccess(ctx context.Context, id uuid.UUID, out RunSuccess) error
	FinishFailure(ctx context.Context, id uuid.UUID, out RunFailure) error
	Get(ctx context.Context, id uuid.UUID) (entity.GenerationRun, error)
	ListRecent(ctx context.Context, limit int) ([]entity.GenerationRun, error)
}

type runRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewRunRepository(db *DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &runRepo{db: db, log: log, now: time.Now}
}

func (r *runRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect)
}

// createRunsTable is valid for both sqlite and postgres.
const createRunsTable = `CREATE TABLE IF NOT EXISTS generation_runs (
	id             VARCHAR(36) PRIMARY KEY,
	source_kind    VARCHAR(16) NOT NULL,
	source_ref     TEXT NOT NULL,
	title          TEXT NOT NULL DEFAULT '',
	course         TEXT NOT NULL DEFAULT '',
	difficulty     VARCHAR(16) NOT NULL,
	question_types TEXT NOT NULL,
	question_count INTEGER NOT NULL,
	status         VARCHAR(16) NOT NULL,
	error_kind     VARCHAR(16),
	error_message  TEXT,
	model          TEXT,
	attempts       INTEGER NOT NULL DEFAULT 0,
	questions      INTEGER NOT NULL DEFAULT 0,
	started_at     BIGINT NOT NULL,
	finished_at    BIGINT,
	elapsed_ms     BIGINT NOT NULL DEFAULT 0
)`

func (r *runRepo) EnsureSchema(ctx context.Context) error {
	if err := r.db.Driver.Exec(ctx, createRunsTable, []any{}, nil); err != nil {
		r.log.Error("generation_runs schema failed", "err", err)
		return common.WrapError(err, "ensure generation_runs schema")
	}
	return nil
}

func (r *runRepo) Start(ctx context.Context, run entity.GenerationRun) (entity.GenerationRun, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = r.now()
	}
	run.Status = constants.RunStatusRunning

	q, args := r.builder().Insert(runsTable).
		Columns("id", "source_kind", "source_ref", "title", "course", "difficulty",
			"question_types", "question_count", "status", "started_at").
		Values(run.ID.String(), run.SourceKind, run.SourceRef, run.Title, run.Course, run.Difficulty,
			run.QuestionTypes, run.QuestionCount, string(run.Status), run.StartedAt.UnixMilli()).
		Query()
	if err := r.db.Driver.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("generation_run start failed", "run_id", run.ID, "err", err)
		return entity.GenerationRun{}, common.WrapError(err, "start generation run")
	}
	r.log.Info("generation_run started", "run_id", run.ID, "source_kind", run.SourceKind)
	return run, nil
}

func (r *runRepo) FinishSuccess(ctx context.Context, id uuid.UUID, out RunSuccess) error {
	q, args := r.builder().Update(runsTable).
		Set("status", string(constants.RunStatusSucceeded)).
		Set("model", out.Model).
		Set("attempts", out.Attempts).
		Set("questions", out.Questions).
		Set("finished_at", r.now().UnixMilli()).
		Set("elapsed_ms", out.Elapsed.Milliseconds()).
		Where(entsql.EQ("id", id.String())).
		Query()
	if err := r.update(ctx, q, args); err != nil {
		r.log.Error("generation_run finish(SUCCEEDED) failed", "run_id", id, "err", err)
		return err
	}
	r.log.Info("generation_run finished (SUCCEEDED)", "run_id", id, "model", out.Model, "questions", out.Questions)
	return nil
}

func (r *runRepo) FinishFailure(ctx context.Context, id uuid.UUID, out RunFailure) error {
	q, args := r.builder().Update(runsTable).
		Set("status", string(constants.RunStatusFailed)).
		Set("error_kind", out.Kind).
		Set("error_message", out.Message).
		Set("finished_at", r.now().UnixMilli()).
		Set("elapsed_ms", out.Elapsed.Milliseconds()).
		Where(entsql.EQ("id", id.String())).
		Query()
	if err := r.update(ctx, q, args); err != nil {
		r.log.Error("generation_run finish(FAILED) failed", "run_id", id, "err", err)
		return err
	}
	r.log.Warn("generation_run finished (FAILED)", "run_id", id, "kind", out.Kind, "error", out.Message)
	return nil
}

func (r *runRepo) update(ctx context.Context, q string, args []any) error {
	var res sql.Result
	if err := r.db.Driver.Exec(ctx, q, args, &res); err != nil {
		return common.WrapError(err, "update generation run")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.WrapError(err, "update generation run")
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *runRepo) Get(ctx context.Context, id uuid.UUID) (entity.GenerationRun, error) {
	q, args := r.builder().Select(runColumns...).
		From(r.builder().Table(runsTable)).
		Where(entsql.EQ("id", id.String())).
		Query()
	runs, err := r.query(ctx, q, args)
	if err != nil {
		return entity.GenerationRun{}, err
	}
	if len(runs) == 0 {
		return entity.GenerationRun{}, common.ErrNotFound
	}
	return runs[0], nil
}

func (r *runRepo) ListRecent(ctx context.Context, limit int) ([]entity.GenerationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	q, args := r.builder().Select(runColumns...).
		From(r.builder().Table(runsTable)).
		OrderBy(entsql.Desc("started_at")).
		Limit(limit).
		Query()
	return r.query(ctx, q, args)
}

func (r *runRepo) query(ctx context.Context, q string, args []any) ([]entity.GenerationRun, error) {
	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, q, args, &rows); err != nil {
		r.log.Error("generation_runs query failed", "err", err)
		return nil, common.WrapError(err, "query generation runs")
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.log.Warn("generation_runs rows close error", "err", err)
		}
	}()

	var out []entity.GenerationRun
	for rows.Next() {
		run, err := scanRun(&rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterate generation runs")
	}
	return out, nil
}

func scanRun(rows *entsql.Rows) (entity.GenerationRun, error) {
	var (
		run                        entity.GenerationRun
		id, status                 string
		errKind, errMessage, model sql.NullString
		startedAt                  int64
		finishedAt                 sql.NullInt64
	)
	err := rows.Scan(&id, &run.SourceKind, &run.SourceRef, &run.Title, &run.Course, &run.Difficulty,
		&run.QuestionTypes, &run.QuestionCount, &status, &errKind, &errMessage, &model,
		&run.Attempts, &run.Questions, &startedAt, &finishedAt, &run.ElapsedMS)
	if err != nil {
		return entity.GenerationRun{}, common.WrapError(err, "scan generation run")
	}
	run.ID, err = uuid.Parse(id)
	if err != nil {
		return entity.GenerationRun{}, fmt.Errorf("generation run id %q: %w", id, errors.Join(err, common.ErrDatabase))
	}
	run.Status = constants.RunStatus(status)
	run.ErrorKind = nullString(errKind)
	run.ErrorMessage = nullString(errMessage)
	run.Model = nullString(model)
	run.StartedAt = time.UnixMilli(startedAt)
	if finishedAt.Valid {
		t := time.UnixMilli(finishedAt.Int64)
		run.FinishedAt = &t
	}
	return run, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
