package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BuzzLyutic/kanban-board/internal/model"
	"github.com/BuzzLyutic/kanban-board/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
)

const (
	maxListLimit = 1000
	// updateAttempts - сколько раз повторяем Update без явной версии,
	// если параллельный PATCH статуса успел поднять версию
	updateAttempts = 3
)

type TaskService struct {
	repo repo.TaskRepository
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) Create(ctx context.Context, projectID string, p model.TaskPatch, createdBy, idempKey string) (model.Task, error) {
	if err := validateProject(projectID); err != nil {
		return model.Task{}, err
	}

	// Новая задача всегда попадает в todo, если статус не передан
	t := p.Apply(model.Task{
		ProjectID: projectID,
		Status:    model.StatusTodo,
		Priority:  model.PriorityMedium,
	})
	t.CreatedBy = createdBy
	if err := s.validate(&t); err != nil { // Валидация модели на корректность введенных данных
		return t, err
	}

	if idempKey != "" { // Обеспечение идемпотентности - если ключ с ресурсом уже существует, мы не создаем его еще раз
		// Ключ действует в пределах проекта
		idempKey = projectID + ":" + idempKey
		if existingID, err := s.repo.GetIdempotencyKey(ctx, idempKey); err == nil {
			return s.repo.Get(ctx, projectID, existingID)
		}
	}

	resource, err := s.repo.Create(ctx, t)
	if err != nil {
		return resource, err
	}

	if idempKey != "" {
		if err := s.repo.SaveIdempotencyKey(ctx, idempKey, resource.ID); err != nil {
			return resource, fmt.Errorf("save idempotency key: %w", err)
		}
	}

	return resource, nil
}

func (s *TaskService) Get(ctx context.Context, projectID, id string) (model.Task, error) {
	return s.repo.Get(ctx, projectID, id)
}

func (s *TaskService) List(ctx context.Context, projectID string, filter model.TaskFilter) ([]model.Task, error) {
	if err := validateProject(projectID); err != nil {
		return nil, err
	}
	// Без limit доска получает весь проект; явный limit ограничен сверху
	switch {
	case filter.Limit < 0:
		return nil, fmt.Errorf("%w: limit must not be negative", ErrValidation)
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}
	return s.repo.List(ctx, projectID, filter)
}

// Update применяет частичное изменение. Если клиент прислал version, она должна
// совпасть с текущей, иначе ErrorConflict.
func (s *TaskService) Update(ctx context.Context, projectID, id string, p model.TaskPatch) (model.Task, error) {
	var lastErr error
	for attempt := 0; attempt < updateAttempts; attempt++ {
		cur, err := s.repo.Get(ctx, projectID, id)
		if err != nil {
			return model.Task{}, err
		}
		if p.Version != nil && *p.Version != cur.Version {
			return cur, repo.ErrorConflict
		}

		next := p.Apply(cur)
		if err := s.validate(&next); err != nil {
			return next, err
		}

		updated, err := s.repo.Update(ctx, next)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, repo.ErrorConflict) || p.Version != nil {
			return updated, err
		}
		lastErr = err
	}
	return model.Task{}, lastErr
}

func (s *TaskService) UpdateStatus(ctx context.Context, projectID, id string, status model.Status) (model.Task, error) {
	if !status.Valid() {
		return model.Task{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.repo.UpdateStatus(ctx, projectID, id, status)
}

func (s *TaskService) Delete(ctx context.Context, projectID, id string) error {
	return s.repo.Delete(ctx, projectID, id)
}

func (s *TaskService) GetStats(ctx context.Context, projectID string) (repo.Stats, error) {
	if err := validateProject(projectID); err != nil {
		return repo.Stats{}, err
	}
	return s.repo.GetStats(ctx, projectID)
}

func (s *TaskService) validate(t *model.Task) error {
	if err := t.Normalize(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

func validateProject(projectID string) error {
	if strings.TrimSpace(projectID) == "" {
		return fmt.Errorf("%w: project id is required", ErrValidation)
	}
	return nil
}
