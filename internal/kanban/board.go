// Package kanban держит состояние доски: задачи проекта, разложенные по колонкам-статусам.
package kanban

import (
	"strings"

	"github.com/BuzzLyutic/kanban-board/internal/model"
)

type Column struct {
	ID    model.Status
	Title string
	Tasks []model.Task
}

// Board - четыре колонки в порядке model.Statuses. Значение неизменяемое:
// все операции возвращают новую доску и не трогают срезы исходной.
type Board struct {
	Columns []Column
}

func EmptyBoard() Board {
	return NewBoard(nil)
}

// NewBoard раскладывает задачи по статусам, сохраняя порядок внутри колонки.
// Задачи с неизвестным статусом отбрасываются.
func NewBoard(tasks []model.Task) Board {
	b := Board{Columns: make([]Column, len(model.Statuses))}
	for i, st := range model.Statuses {
		b.Columns[i] = Column{ID: st, Title: st.Title(), Tasks: []model.Task{}}
	}
	for _, t := range tasks {
		if i := t.Status.Index(); i >= 0 {
			b.Columns[i].Tasks = append(b.Columns[i].Tasks, t)
		}
	}
	return b
}

func (b Board) Column(status model.Status) []model.Task {
	i := status.Index()
	if i < 0 || i >= len(b.Columns) {
		return nil
	}
	return b.Columns[i].Tasks
}

// Find возвращает колонку и позицию задачи.
func (b Board) Find(taskID string) (model.Status, int, bool) {
	for _, col := range b.Columns {
		if i := indexOf(col.Tasks, taskID); i >= 0 {
			return col.ID, i, true
		}
	}
	return "", -1, false
}

func (b Board) Len() int {
	n := 0
	for _, col := range b.Columns {
		n += len(col.Tasks)
	}
	return n
}

func (b Board) Clone() Board {
	out := Board{Columns: make([]Column, len(b.Columns))}
	for i, col := range b.Columns {
		tasks := make([]model.Task, len(col.Tasks))
		for j, t := range col.Tasks {
			tasks[j] = t.Clone()
		}
		out.Columns[i] = Column{ID: col.ID, Title: col.Title, Tasks: tasks}
	}
	return out
}

// Move переносит задачу из колонки from в колонку to на позицию toIndex.
// Позиция считается после удаления задачи из исходной колонки и зажимается в [0, len].
// ok=false, если задачи нет в from, статус неизвестен или задача остаётся на месте.
func (b Board) Move(taskID string, from, to model.Status, toIndex int) (next Board, ok bool) {
	fi, ti := from.Index(), to.Index()
	if fi < 0 || ti < 0 {
		return b, false
	}

	src := b.Columns[fi].Tasks
	pos := indexOf(src, taskID)
	if pos < 0 {
		return b, false
	}

	task := src[pos]
	task.Status = to
	rest := make([]model.Task, 0, len(src)-1)
	rest = append(rest, src[:pos]...)
	rest = append(rest, src[pos+1:]...)

	if fi == ti {
		idx := clamp(toIndex, len(rest))
		if idx == pos {
			return b, false
		}
		return b.with(fi, insertAt(rest, idx, task)), true
	}

	dst := b.Columns[ti].Tasks
	idx := clamp(toIndex, len(dst))
	return b.with(fi, rest).with(ti, insertAt(dst, idx, task)), true
}

// Append добавляет задачу в конец колонки её статуса. Если задача с тем же id
// уже есть на доске, старая копия убирается.
func (b Board) Append(t model.Task) Board {
	ci := t.Status.Index()
	if ci < 0 {
		return b
	}
	b, _ = b.Remove(t.ID)
	tasks := make([]model.Task, 0, len(b.Columns[ci].Tasks)+1)
	tasks = append(tasks, b.Columns[ci].Tasks...)
	tasks = append(tasks, t)
	return b.with(ci, tasks)
}

// Replace подменяет задачу по id там, где она лежит, не меняя позицию.
func (b Board) Replace(t model.Task) (Board, bool) {
	for ci, col := range b.Columns {
		if i := indexOf(col.Tasks, t.ID); i >= 0 {
			tasks := append([]model.Task(nil), col.Tasks...)
			tasks[i] = t
			return b.with(ci, tasks), true
		}
	}
	return b, false
}

func (b Board) Remove(taskID string) (Board, bool) {
	for ci, col := range b.Columns {
		if i := indexOf(col.Tasks, taskID); i >= 0 {
			tasks := make([]model.Task, 0, len(col.Tasks)-1)
			tasks = append(tasks, col.Tasks[:i]...)
			tasks = append(tasks, col.Tasks[i+1:]...)
			return b.with(ci, tasks), true
		}
	}
	return b, false
}

// Filter оставляет задачи, у которых query встречается в названии или описании
// (без учёта регистра) и совпадает приоритет. Только для отображения.
func (b Board) Filter(query string, priority *model.Priority) Board {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" && priority == nil {
		return b
	}

	out := Board{Columns: make([]Column, len(b.Columns))}
	for i, col := range b.Columns {
		tasks := make([]model.Task, 0, len(col.Tasks))
		for _, t := range col.Tasks {
			if priority != nil && t.Priority != *priority {
				continue
			}
			if query != "" &&
				!strings.Contains(strings.ToLower(t.Title), query) &&
				!strings.Contains(strings.ToLower(t.Description), query) {
				continue
			}
			tasks = append(tasks, t)
		}
		out.Columns[i] = Column{ID: col.ID, Title: col.Title, Tasks: tasks}
	}
	return out
}

func (b Board) with(ci int, tasks []model.Task) Board {
	cols := append([]Column(nil), b.Columns...)
	cols[ci].Tasks = tasks
	return Board{Columns: cols}
}

func indexOf(tasks []model.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func insertAt(tasks []model.Task, i int, t model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks)+1)
	out = append(out, tasks[:i]...)
	out = append(out, t)
	return append(out, tasks[i:]...)
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
