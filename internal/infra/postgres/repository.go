package postgres

import (
	"context"
	"fmt"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RunRepository struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

func (r *RunRepository) Create(ctx context.Context, run *entity.Run) error {
	query := `
		INSERT INTO pipeline_runs (
			id, pipeline_name, videos, status, attempt, max_attempts,
			failed_tasks, error_message, created_at, updated_at, finished_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err := r.pool.Exec(ctx, query,
		run.ID, run.PipelineName, videoStrings(run.Videos), string(run.Status),
		run.Attempt, run.MaxAttempts, run.FailedTasks, run.ErrorMessage,
		run.CreatedAt, run.UpdatedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *RunRepository) Update(ctx context.Context, run *entity.Run) error {
	query := `
		UPDATE pipeline_runs SET
			status=$2, attempt=$3, failed_tasks=$4, error_message=$5,
			updated_at=$6, finished_at=$7
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		run.ID, string(run.Status), run.Attempt, run.FailedTasks,
		run.ErrorMessage, run.UpdatedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

func (r *RunRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	query := `
		SELECT id, pipeline_name, videos, status, attempt, max_attempts,
			failed_tasks, error_message, created_at, updated_at, finished_at
		FROM pipeline_runs WHERE id=$1`

	run := &entity.Run{}
	var status string
	var videos []string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.PipelineName, &videos, &status,
		&run.Attempt, &run.MaxAttempts, &run.FailedTasks, &run.ErrorMessage,
		&run.CreatedAt, &run.UpdatedAt, &run.FinishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find run by id: %w", err)
	}
	run.Status = entity.RunStatus(status)
	for _, v := range videos {
		run.Videos = append(run.Videos, entity.VideoReference(v))
	}
	return run, nil
}

// SaveTask upserts the task row. A start time already recorded is kept when
// the update carries none.
func (r *RunRepository) SaveTask(ctx context.Context, task *entity.TaskRun) error {
	query := `
		INSERT INTO pipeline_tasks (
			run_id, iteration, task, video, component, kind, status,
			error_message, started_at, finished_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (run_id, iteration, task) DO UPDATE SET
			status=EXCLUDED.status,
			error_message=EXCLUDED.error_message,
			started_at=COALESCE(EXCLUDED.started_at, pipeline_tasks.started_at),
			finished_at=EXCLUDED.finished_at`

	_, err := r.pool.Exec(ctx, query,
		task.RunID, task.Iteration, task.Task, task.Video.String(), task.Component,
		string(task.Kind), string(task.Status), task.ErrorMessage,
		task.StartedAt, task.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (r *RunRepository) ListTasks(ctx context.Context, runID uuid.UUID, iteration int) ([]entity.TaskRun, error) {
	query := `
		SELECT run_id, iteration, task, video, component, kind, status,
			error_message, started_at, finished_at
		FROM pipeline_tasks WHERE run_id=$1 AND iteration=$2
		ORDER BY task`

	rows, err := r.pool.Query(ctx, query, runID, iteration)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []entity.TaskRun
	for rows.Next() {
		var t entity.TaskRun
		var video, kind, status string
		if err := rows.Scan(
			&t.RunID, &t.Iteration, &t.Task, &video, &t.Component, &kind, &status,
			&t.ErrorMessage, &t.StartedAt, &t.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Video = entity.VideoReference(video)
		t.Kind = entity.TaskKind(kind)
		t.Status = entity.TaskStatus(status)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func videoStrings(videos []entity.VideoReference) []string {
	out := make([]string, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.String())
	}
	return out
}
