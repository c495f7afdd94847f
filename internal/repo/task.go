package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/kanban-board/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = `id, project_id, title, description, status, priority, assignees, tags,
	COALESCE(to_char(due_date, 'YYYY-MM-DD'), ''), created_by, version, created_at, updated_at`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo { // Конструктор
	return &TaskRepo{
		pool: pool,
	}
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, project_id, title, description, status, priority, assignees, tags, due_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::date, $10)
		RETURNING `+taskColumns,
		t.ID, t.ProjectID, t.Title, t.Description, string(t.Status), string(t.Priority),
		nonNil(t.Assignees), nonNil(t.Tags), t.DueDate, t.CreatedBy,
	)
	created, err := scanTask(row)
	return created, r.mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, projectID, id string) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE project_id = $1 AND id = $2
	`, projectID, id)

	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

// List отдаёт задачи в порядке создания: клиент раскладывает их по колонкам, сохраняя этот порядок.
func (r *TaskRepo) List(ctx context.Context, projectID string, filter model.TaskFilter) ([]model.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE project_id = $1
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text IS NULL OR priority = $3)
		  AND ($4 = '' OR title ILIKE '%' || $4 || '%' OR description ILIKE '%' || $4 || '%')
		ORDER BY created_at, id
		LIMIT NULLIF($5::int, 0)
	`

	var status, priority *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}
	if filter.Priority != nil {
		p := string(*filter.Priority)
		priority = &p
	}

	rows, err := r.pool.Query(ctx, query, projectID, status, priority, strings.TrimSpace(filter.Query), filter.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0, 32)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, status = $5, priority = $6, assignees = $7, tags = $8,
		    due_date = NULLIF($9, '')::date, version = version + 1, updated_at = now()
		WHERE project_id = $1 AND id = $2 AND version = $10
		RETURNING `+taskColumns,
		t.ProjectID, t.ID, t.Title, t.Description, string(t.Status), string(t.Priority),
		nonNil(t.Assignees), nonNil(t.Tags), t.DueDate, t.Version,
	)

	updated, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorConflict
	}
	return updated, err
}

// UpdateStatus меняет только статус, без проверки версии: последний запрос побеждает.
func (r *TaskRepo) UpdateStatus(ctx context.Context, projectID, id string, status model.Status) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET status = $3, version = version + 1, updated_at = now()
		WHERE project_id = $1 AND id = $2
		RETURNING `+taskColumns,
		projectID, id, string(status),
	)

	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TaskRepo) Delete(ctx context.Context, projectID, id string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE project_id = $1 AND id = $2", projectID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) SaveIdempotencyKey(ctx context.Context, key string, resourceID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (key, resource_id) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`, key, resourceID)
	return err
}

func (r *TaskRepo) GetIdempotencyKey(ctx context.Context, key string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE key = $1
	`, key).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrorNotFound
	}
	return id, err
}

func (r *TaskRepo) GetStats(ctx context.Context, projectID string) (Stats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM tasks WHERE project_id = $1 GROUP BY status
	`, projectID)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	stats := newStats()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		stats.ByStatus[status] = count
		stats.TotalTasks += count
	}
	return stats, rows.Err()
}

func (r *TaskRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // unique_violation
			return ErrorConflict
		}
	}
	return err
}

func scanTask(row pgx.Row) (model.Task, error) {
	var (
		t                model.Task
		status, priority string
	)
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &priority, &t.Assignees, &t.Tags,
		&t.DueDate, &t.CreatedBy, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	t.Status = model.Status(status)
	t.Priority = model.Priority(priority)
	return t, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
