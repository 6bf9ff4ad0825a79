package port

import (
	"context"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
	"github.com/google/uuid"
)

type RunRepository interface {
	Create(ctx context.Context, run *entity.Run) error
	Update(ctx context.Context, run *entity.Run) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Run, error)
	SaveTask(ctx context.Context, task *entity.TaskRun) error
	ListTasks(ctx context.Context, runID uuid.UUID, iteration int) ([]entity.TaskRun, error)
}
