package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-board/internal/model"
)

// Cache оборачивает репозиторий и кэширует в Redis полный список задач проекта.
// Любая запись в проект сбрасывает его ключ. Ошибки Redis не ломают запросы:
// чтение уходит в основной репозиторий.
type Cache struct {
	TaskRepository
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCache(base TaskRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if base == nil {
		panic("repo.NewCache: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		TaskRepository: base,
		redis:          client,
		ttl:            ttl,
		logger:         logger,
	}
}

func (c *Cache) List(ctx context.Context, projectID string, filter model.TaskFilter) ([]model.Task, error) {
	if !filter.Unfiltered() {
		return c.TaskRepository.List(ctx, projectID, filter)
	}

	if tasks, ok := c.load(ctx, projectID); ok {
		return limitTasks(tasks, filter.Limit), nil
	}

	// Поколение читаем до запроса в базу: запись, прошедшая после чтения,
	// поднимет его, и устаревший список в кэш не попадёт
	gen, genOK := c.generation(ctx, projectID)

	// В кэш кладём список без лимита, чтобы один ключ обслуживал любой limit
	full := filter
	full.Limit = 0
	tasks, err := c.TaskRepository.List(ctx, projectID, full)
	if err != nil {
		return nil, err
	}
	if genOK && len(tasks) <= maxCachedTasks {
		c.store(ctx, projectID, gen, tasks)
	}
	return limitTasks(tasks, filter.Limit), nil
}

func (c *Cache) Create(ctx context.Context, t model.Task) (model.Task, error) {
	created, err := c.TaskRepository.Create(ctx, t)
	if err == nil {
		c.evict(ctx, t.ProjectID)
	}
	return created, err
}

func (c *Cache) Update(ctx context.Context, t model.Task) (model.Task, error) {
	updated, err := c.TaskRepository.Update(ctx, t)
	if err == nil {
		c.evict(ctx, t.ProjectID)
	}
	return updated, err
}

func (c *Cache) UpdateStatus(ctx context.Context, projectID, id string, status model.Status) (model.Task, error) {
	updated, err := c.TaskRepository.UpdateStatus(ctx, projectID, id, status)
	if err == nil {
		c.evict(ctx, projectID)
	}
	return updated, err
}

func (c *Cache) Delete(ctx context.Context, projectID, id string) error {
	err := c.TaskRepository.Delete(ctx, projectID, id)
	if err == nil {
		c.evict(ctx, projectID)
	}
	return err
}

// maxCachedTasks ограничивает размер кэшируемого списка.
const maxCachedTasks = 1000

func (c *Cache) load(ctx context.Context, projectID string) ([]model.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey(projectID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", zap.String("project_id", projectID), zap.Error(err))
			_ = c.redis.Del(ctx, tasksCacheKey(projectID)).Err()
		}
		return nil, false
	}
	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey(projectID)).Err()
		return nil, false
	}
	return tasks, true
}

// storeIfCurrent кладёт список, только если поколение проекта не сдвинулось.
var storeIfCurrent = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// generation - счётчик записей проекта; отсутствующий ключ - поколение "0".
func (c *Cache) generation(ctx context.Context, projectID string) (string, bool) {
	if c.redis == nil {
		return "", false
	}
	gen, err := c.redis.Get(ctx, generationKey(projectID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "0", true
	case err != nil:
		c.logger.Warn("cache generation read failed", zap.String("project_id", projectID), zap.Error(err))
		return "", false
	}
	return gen, true
}

func (c *Cache) store(ctx context.Context, projectID, gen string, tasks []model.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	keys := []string{tasksCacheKey(projectID), generationKey(projectID)}
	stored, err := storeIfCurrent.Run(ctx, c.redis, keys, gen, data, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.logger.Warn("cache write failed", zap.String("project_id", projectID), zap.Error(err))
		return
	}
	if stored == 0 {
		c.logger.Debug("stale task list not cached", zap.String("project_id", projectID))
	}
}

// evict сбрасывает список и поднимает поколение одной транзакцией.
func (c *Cache) evict(ctx context.Context, projectID string) {
	if c.redis == nil {
		return
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(projectID))
		pipe.Del(ctx, tasksCacheKey(projectID))
		return nil
	})
	if err != nil {
		c.logger.Warn("cache evict failed", zap.String("project_id", projectID), zap.Error(err))
	}
}

func tasksCacheKey(projectID string) string {
	return "kanban:tasks:" + projectID
}

func generationKey(projectID string) string {
	return "kanban:taskgen:" + projectID
}

func limitTasks(tasks []model.Task, limit int) []model.Task {
	if limit > 0 && len(tasks) > limit {
		return tasks[:limit]
	}
	return tasks
}
