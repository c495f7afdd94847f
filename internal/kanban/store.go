package kanban

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-board/internal/model"
	"github.com/BuzzLyutic/kanban-board/internal/worker"
)

// Тексты ошибок, если сервер не прислал своё сообщение.
const (
	MsgFetchFailed  = "Failed to fetch tasks"
	MsgMoveFailed   = "Failed to update task status"
	MsgCreateFailed = "Failed to create task"
	MsgUpdateFailed = "Failed to update task"
	MsgDeleteFailed = "Failed to delete task"
)

const defaultRequestTimeout = 10 * time.Second

// userMessager реализуют ошибки, несущие текст для пользователя (client.APIError).
type userMessager interface {
	UserMessage() string
}

// Store - состояние доски одного проекта. Перемещение применяется локально сразу,
// запрос смены статуса уходит в фоне; при отказе доска перечитывается с сервера.
// Все методы безопасны для вызова из нескольких горутин.
type Store struct {
	api       TaskAPI
	projectID string
	logger    *zap.Logger
	jobs      *worker.Dispatcher

	mu       sync.RWMutex
	board    Board
	loading  bool
	errMsg   string
	onChange func()
}

type Option func(*Store)

// WithDispatcher подменяет исполнитель фоновых запросов.
func WithDispatcher(d *worker.Dispatcher) Option {
	return func(s *Store) { s.jobs = d }
}

func NewStore(api TaskAPI, projectID string, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		api:       api,
		projectID: projectID,
		logger:    logger.With(zap.String("project_id", projectID)),
		board:     EmptyBoard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.jobs == nil {
		s.jobs = worker.NewDispatcher(s.logger, defaultRequestTimeout)
	}
	return s
}

func (s *Store) ProjectID() string { return s.projectID }

// SetOnChange задаёт колбэк, который вызывается после каждого изменения состояния.
// Колбэк вызывается без удержания блокировки и может читать Store.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Snapshot возвращает копию доски; вызывающий может её менять.
func (s *Store) Snapshot() Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.Clone()
}

func (s *Store) Column(status model.Status) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := s.board.Column(status)
	if tasks == nil {
		return nil
	}
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// Err - текст последней ошибки или "".
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *Store) DismissError() {
	s.mu.Lock()
	changed := s.errMsg != ""
	s.errMsg = ""
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Pending - число фоновых запросов, которые ещё не завершились.
func (s *Store) Pending() int {
	return s.jobs.InFlight()
}

// Wait дожидается всех фоновых запросов, включая перечитывание после отказа.
func (s *Store) Wait() {
	s.jobs.Wait()
}

func (s *Store) Close() {
	s.jobs.Stop()
}

// Load перечитывает все задачи проекта и заменяет ими доску.
// При ошибке прежнее содержимое доски сохраняется.
func (s *Store) Load(ctx context.Context) bool {
	return s.load(ctx, true)
}

// load с clearErr=false используется для сверки после отказа:
// ошибка, из-за которой сверка началась, должна остаться на экране.
func (s *Store) load(ctx context.Context, clearErr bool) bool {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	s.notify()

	tasks, err := s.api.List(ctx, s.projectID)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errMsg = messageFor(err, MsgFetchFailed)
		s.mu.Unlock()
		s.logger.Warn("failed to load tasks", zap.Error(err))
		s.notify()
		return false
	}
	s.board = NewBoard(tasks)
	if clearErr {
		s.errMsg = ""
	}
	s.mu.Unlock()

	s.logger.Debug("tasks loaded", zap.Int("count", len(tasks)))
	s.notify()
	return true
}

// Move переставляет задачу и возвращает true, если доска изменилась.
// Любое изменение отправляет PATCH статуса в фоне, в том числе перестановка
// внутри колонки: индекс на сервер не уходит, но запрос проверяет, что задача жива.
func (s *Store) Move(taskID string, from, to model.Status, toIndex int) bool {
	s.mu.Lock()
	next, ok := s.board.Move(taskID, from, to, toIndex)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.board = next
	s.mu.Unlock()
	s.notify()

	s.logger.Debug("task moved",
		zap.String("task_id", taskID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Int("index", toIndex),
	)
	s.jobs.Go("update-status", func(ctx context.Context) error {
		if _, err := s.api.UpdateStatus(ctx, s.projectID, taskID, to); err != nil {
			s.fail(err, MsgMoveFailed)
			s.reconcile()
			return fmt.Errorf("update status of %s: %w", taskID, err)
		}
		return nil
	})
	return true
}

// reconcile перечитывает доску отдельным заданием: контекст упавшего запроса мог истечь.
func (s *Store) reconcile() {
	s.jobs.Go("reconcile", func(ctx context.Context) error {
		if !s.load(ctx, false) {
			return errors.New("reload after failed move")
		}
		return nil
	})
}

// Create создаёт задачу в колонке todo и добавляет её в конец колонки.
func (s *Store) Create(ctx context.Context, draft model.TaskPatch) (model.Task, bool) {
	todo := model.StatusTodo
	draft.Status = &todo

	task, err := s.api.Create(ctx, s.projectID, draft)
	if err != nil {
		s.fail(err, MsgCreateFailed)
		return model.Task{}, false
	}

	s.mu.Lock()
	s.board = s.board.Append(task)
	s.errMsg = ""
	s.mu.Unlock()

	s.logger.Info("task created", zap.String("task_id", task.ID))
	s.notify()
	return task, true
}

// Update меняет поля задачи. Статус через Update не меняется (для этого Move),
// задача остаётся на своей позиции.
func (s *Store) Update(ctx context.Context, taskID string, patch model.TaskPatch) bool {
	patch.Status = nil

	task, err := s.api.Update(ctx, s.projectID, taskID, patch)
	if err != nil {
		s.fail(err, MsgUpdateFailed)
		return false
	}

	s.mu.Lock()
	if next, ok := s.board.Replace(task); ok {
		s.board = next
	}
	s.errMsg = ""
	s.mu.Unlock()

	s.notify()
	return true
}

func (s *Store) Delete(ctx context.Context, taskID string) bool {
	if err := s.api.Delete(ctx, s.projectID, taskID); err != nil {
		s.fail(err, MsgDeleteFailed)
		return false
	}

	s.mu.Lock()
	s.board, _ = s.board.Remove(taskID)
	s.errMsg = ""
	s.mu.Unlock()

	s.logger.Info("task deleted", zap.String("task_id", taskID))
	s.notify()
	return true
}

func (s *Store) fail(err error, fallback string) {
	msg := messageFor(err, fallback)

	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()

	s.logger.Warn(fallback, zap.Error(err))
	s.notify()
}

func (s *Store) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// messageFor берёт текст ошибки от сервера, иначе fallback.
func messageFor(err error, fallback string) string {
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
