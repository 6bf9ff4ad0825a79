package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newTestPool(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("pipeline"),
		tcpostgres.WithUsername("pipeline_user"),
		tcpostgres.WithPassword("pipeline_pass"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { pgContainer.Terminate(context.Background()) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, RunMigrations(connStr, "../../../migrations"))
	require.NoError(t, RunMigrations(connStr, "../../../migrations"), "migrations must be re-runnable")

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestRunRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	repo := NewRunRepository(newTestPool(t, ctx))

	videos := []entity.VideoReference{"gs://bucket/a.mp4", "gs://bucket/b.mp4"}
	run := entity.NewRun(uuid.New(), "video-intelligence", videos, 3)
	require.NoError(t, repo.Create(ctx, run))

	run.MarkRunning()
	run.MarkFinished(1)
	require.NoError(t, repo.Update(ctx, run))

	got, err := repo.FindByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, videos, got.Videos)
	assert.Equal(t, entity.RunStatusFailed, got.Status)
	assert.Equal(t, 1, got.Attempt)
	assert.Equal(t, 1, got.FailedTasks)
	assert.NotNil(t, got.FinishedAt)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.Error(t, err)

	started := time.Now().UTC().Truncate(time.Microsecond)
	task := &entity.TaskRun{
		RunID:     run.ID,
		Iteration: 0,
		Video:     videos[0],
		Task:      "analyze-shots",
		Component: "analyze-shots",
		Kind:      entity.TaskKindAnalyze,
		Status:    entity.TaskStatusRunning,
		StartedAt: &started,
	}
	require.NoError(t, repo.SaveTask(ctx, task))

	finished := started.Add(time.Second)
	require.NoError(t, repo.SaveTask(ctx, &entity.TaskRun{
		RunID:        run.ID,
		Iteration:    0,
		Video:        videos[0],
		Task:         "analyze-shots",
		Component:    "analyze-shots",
		Kind:         entity.TaskKindAnalyze,
		Status:       entity.TaskStatusFailed,
		ErrorMessage: "quota exceeded",
		FinishedAt:   &finished,
	}))

	tasks, err := repo.ListTasks(ctx, run.ID, 0)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, entity.TaskStatusFailed, tasks[0].Status)
	assert.Equal(t, "quota exceeded", tasks[0].ErrorMessage)
	require.NotNil(t, tasks[0].StartedAt, "start time must survive the finish update")
	assert.True(t, started.Equal(*tasks[0].StartedAt))

	tasks, err = repo.ListTasks(ctx, run.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
