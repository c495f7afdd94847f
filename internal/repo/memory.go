package repo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/kanban-board/internal/model"
)

// MemoryRepo хранит задачи в памяти процесса. Используется для локального запуска
// (DATABASE_URL=memory) и в тестах.
type MemoryRepo struct {
	mu    sync.RWMutex
	tasks map[string]model.Task
	order []string
	idemp map[string]string
	nowFn func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		tasks: make(map[string]model.Task),
		idemp: make(map[string]string),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) Create(_ context.Context, t model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, ok := r.tasks[t.ID]; ok {
		return model.Task{}, ErrorConflict
	}
	now := r.nowFn()
	t = t.Clone()
	t.Assignees = nonNil(t.Assignees)
	t.Tags = nonNil(t.Tags)
	t.Version = 1
	t.CreatedAt, t.UpdatedAt = now, now

	r.tasks[t.ID] = t
	r.order = append(r.order, t.ID)
	return t.Clone(), nil
}

func (r *MemoryRepo) Get(_ context.Context, projectID, id string) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok || t.ProjectID != projectID {
		return model.Task{}, ErrorNotFound
	}
	return t.Clone(), nil
}

func (r *MemoryRepo) List(_ context.Context, projectID string, filter model.TaskFilter) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	tasks := make([]model.Task, 0, len(r.order))
	for _, id := range r.order {
		t := r.tasks[id]
		if t.ProjectID != projectID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Description), query) {
			continue
		}
		tasks = append(tasks, t.Clone())
		if filter.Limit > 0 && len(tasks) == filter.Limit {
			break
		}
	}
	return tasks, nil
}

func (r *MemoryRepo) Update(_ context.Context, t model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.tasks[t.ID]
	if !ok || cur.ProjectID != t.ProjectID || cur.Version != t.Version {
		return t, ErrorConflict
	}
	t = t.Clone()
	t.CreatedAt, t.CreatedBy = cur.CreatedAt, cur.CreatedBy
	t.Version = cur.Version + 1
	t.UpdatedAt = r.nowFn()
	r.tasks[t.ID] = t
	return t.Clone(), nil
}

func (r *MemoryRepo) UpdateStatus(_ context.Context, projectID, id string, status model.Status) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.ProjectID != projectID {
		return model.Task{}, ErrorNotFound
	}
	t.Status = status
	t.Version++
	t.UpdatedAt = r.nowFn()
	r.tasks[id] = t
	return t.Clone(), nil
}

func (r *MemoryRepo) Delete(_ context.Context, projectID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.ProjectID != projectID {
		return ErrorNotFound
	}
	delete(r.tasks, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepo) SaveIdempotencyKey(_ context.Context, key string, resourceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.idemp[key]; !ok {
		r.idemp[key] = resourceID
	}
	return nil
}

func (r *MemoryRepo) GetIdempotencyKey(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.idemp[key]
	if !ok {
		return "", ErrorNotFound
	}
	return id, nil
}

func (r *MemoryRepo) GetStats(_ context.Context, projectID string) (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := newStats()
	for _, t := range r.tasks {
		if t.ProjectID != projectID {
			continue
		}
		stats.ByStatus[string(t.Status)]++
		stats.TotalTasks++
	}
	return stats, nil
}
