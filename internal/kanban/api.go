package kanban

import (
	"context"

	"github.com/BuzzLyutic/kanban-board/internal/model"
)

// TaskAPI - удалённый источник задач проекта. Реализуется client.Client.
type TaskAPI interface {
	List(ctx context.Context, projectID string) ([]model.Task, error)
	Create(ctx context.Context, projectID string, draft model.TaskPatch) (model.Task, error)
	Update(ctx context.Context, projectID, taskID string, patch model.TaskPatch) (model.Task, error)
	UpdateStatus(ctx context.Context, projectID, taskID string, status model.Status) (model.Task, error)
	Delete(ctx context.Context, projectID, taskID string) error
}
