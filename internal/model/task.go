package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid помечает задачу, которая не прошла проверку полей.
var ErrInvalid = errors.New("invalid task")

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Statuses задаёт порядок колонок на доске.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone}

var statusTitles = map[Status]string{
	StatusTodo:       "To Do",
	StatusInProgress: "In Progress",
	StatusReview:     "Review",
	StatusDone:       "Done",
}

func (s Status) Valid() bool {
	_, ok := statusTitles[s]
	return ok
}

func (s Status) Title() string {
	return statusTitles[s]
}

// Index возвращает позицию колонки или -1 для неизвестного статуса.
func (s Status) Index() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalid, raw)
	}
	return s, nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.TrimSpace(raw))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown priority %q", ErrInvalid, raw)
	}
	return p, nil
}

// DateLayout - формат срока выполнения (календарная дата без времени).
const DateLayout = "2006-01-02"

type Task struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	Assignees   []string  `json:"assignees"`
	Tags        []string  `json:"tags"`
	DueDate     string    `json:"dueDate,omitempty"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Normalize подставляет значения по умолчанию и проверяет поля.
// Пустой приоритет становится medium, nil-списки - пустыми, теги без дублей.
func (t *Task) Normalize() error {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Assignees == nil {
		t.Assignees = []string{}
	}
	t.Tags = uniqueTags(t.Tags)
	return t.Validate()
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, t.Status)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalid, t.Priority)
	}
	if t.DueDate != "" {
		if _, err := time.Parse(DateLayout, t.DueDate); err != nil {
			return fmt.Errorf("%w: due date must be YYYY-MM-DD", ErrInvalid)
		}
	}
	return nil
}

// Clone копирует задачу вместе со срезами.
func (t Task) Clone() Task {
	t.Assignees = append([]string(nil), t.Assignees...)
	t.Tags = append([]string(nil), t.Tags...)
	return t
}

// TaskPatch - частичная задача. nil означает "поле не передано".
// У срезов нет omitempty: null в JSON декодируется в nil (не менять),
// а [] - в пустой срез (очистить).
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Assignees   []string  `json:"assignees"`
	Tags        []string  `json:"tags"`
	DueDate     *string   `json:"dueDate,omitempty"`
	Version     *int      `json:"version,omitempty"`
}

// Apply накладывает переданные поля на задачу. Проверку делает вызывающий.
func (p TaskPatch) Apply(t Task) Task {
	t = t.Clone()
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Assignees != nil {
		t.Assignees = append([]string{}, p.Assignees...)
	}
	if p.Tags != nil {
		t.Tags = append([]string{}, p.Tags...)
	}
	if p.DueDate != nil {
		t.DueDate = strings.TrimSpace(*p.DueDate)
	}
	return t
}

type TaskFilter struct {
	Status   *Status
	Priority *Priority
	Query    string
	Limit    int
}

// Unfiltered сообщает, что фильтр возвращает весь проект (такой список можно кэшировать).
func (f TaskFilter) Unfiltered() bool {
	return f.Status == nil && f.Priority == nil && f.Query == ""
}

func uniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
