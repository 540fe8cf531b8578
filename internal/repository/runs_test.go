package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/entity"
)

func newTestRepo(t *testing.T) RunRepository {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, common.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db, nil) })
	require.NoError(t, HealthCheck(ctx, db, time.Second, nil))

	repo := NewRunRepository(db, nil)
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx), "schema creation is idempotent")
	return repo
}

func sampleRun() entity.GenerationRun {
	return entity.GenerationRun{
		SourceKind:    constants.SourceBinary,
		SourceRef:     "notes.pdf",
		Title:         "Geography",
		Difficulty:    "easy",
		QuestionTypes: "multiple-choice",
		QuestionCount: 5,
	}
}

func TestRunRepository_StartAndFinishSuccess(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	run, err := repo.Start(ctx, sampleRun())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.Equal(t, constants.RunStatusRunning, run.Status)

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusRunning, got.Status)
	assert.Nil(t, got.FinishedAt)
	assert.Equal(t, "notes.pdf", got.SourceRef)
	assert.Equal(t, run.StartedAt.UnixMilli(), got.StartedAt.UnixMilli())

	require.NoError(t, repo.FinishSuccess(ctx, run.ID, RunSuccess{
		Model: "gemini-2.0-flash", Attempts: 2, Questions: 5, Elapsed: 1500 * time.Millisecond,
	}))

	got, err = repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusSucceeded, got.Status)
	require.NotNil(t, got.Model)
	assert.Equal(t, "gemini-2.0-flash", *got.Model)
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, 5, got.Questions)
	assert.Equal(t, int64(1500), got.ElapsedMS)
	assert.NotNil(t, got.FinishedAt)
	assert.Nil(t, got.ErrorKind)
}

func TestRunRepository_FinishFailure(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	run, err := repo.Start(ctx, sampleRun())
	require.NoError(t, err)
	require.NoError(t, repo.FinishFailure(ctx, run.ID, RunFailure{
		Kind: string(common.KindParse), Message: "AI returned invalid format, please try again",
	}))

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusFailed, got.Status)
	require.NotNil(t, got.ErrorKind)
	assert.Equal(t, "parse", *got.ErrorKind)
	assert.Nil(t, got.Model)
}

func TestRunRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = repo.FinishSuccess(ctx, uuid.New(), RunSuccess{})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRunRepository_ListRecent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		r := sampleRun()
		r.StartedAt = base.Add(time.Duration(i) * time.Minute)
		run, err := repo.Start(ctx, r)
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), common.DatabaseConfig{Driver: "oracle"}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
