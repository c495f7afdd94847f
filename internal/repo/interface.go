package repo

import (
	"context"

	"github.com/BuzzLyutic/kanban-board/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами проекта
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, projectID, id string) (model.Task, error)
	List(ctx context.Context, projectID string, filter model.TaskFilter) ([]model.Task, error)
	// Update перезаписывает задачу, если её версия в хранилище равна t.Version
	Update(ctx context.Context, t model.Task) (model.Task, error)
	UpdateStatus(ctx context.Context, projectID, id string, status model.Status) (model.Task, error)
	Delete(ctx context.Context, projectID, id string) error
	SaveIdempotencyKey(ctx context.Context, key string, resourceID string) error
	GetIdempotencyKey(ctx context.Context, key string) (string, error)
	GetStats(ctx context.Context, projectID string) (Stats, error)
}

// Stats - количество задач проекта по колонкам
type Stats struct {
	ByStatus   map[string]int `json:"by_status"`
	TotalTasks int            `json:"total_tasks"`
}

func newStats() Stats {
	s := Stats{ByStatus: make(map[string]int, len(model.Statuses))}
	for _, st := range model.Statuses {
		s.ByStatus[string(st)] = 0
	}
	return s
}
