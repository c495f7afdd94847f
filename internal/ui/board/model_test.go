package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-board/internal/kanban"
	"github.com/BuzzLyutic/kanban-board/internal/model"
)

// fakeAPI - API в памяти, запоминает смены статуса.
type fakeAPI struct {
	mu         sync.Mutex
	tasks      []model.Task
	statusCall []string
	failStatus bool
	seq        int
}

func (f *fakeAPI) List(context.Context, string) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Task(nil), f.tasks...), nil
}

func (f *fakeAPI) Create(_ context.Context, projectID string, draft model.TaskPatch) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := model.Task{ID: fmt.Sprintf("new-%d", f.seq), ProjectID: projectID, Status: *draft.Status, Priority: model.PriorityMedium}
	t = draft.Apply(t)
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeAPI) Update(_ context.Context, _ string, taskID string, patch model.TaskPatch) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == taskID {
			f.tasks[i] = patch.Apply(t)
			return f.tasks[i], nil
		}
	}
	return model.Task{}, errors.New("not found")
}

func (f *fakeAPI) UpdateStatus(_ context.Context, _ string, taskID string, status model.Status) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCall = append(f.statusCall, taskID+"->"+string(status))
	if f.failStatus {
		return model.Task{}, errors.New("boom")
	}
	for i, t := range f.tasks {
		if t.ID == taskID {
			f.tasks[i].Status = status
			return f.tasks[i], nil
		}
	}
	return model.Task{}, errors.New("not found")
}

func (f *fakeAPI) Delete(_ context.Context, _ string, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == taskID {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func newModel(t *testing.T, api *fakeAPI) (Model, *kanban.Store) {
	t.Helper()
	store := kanban.NewStore(api, "p1", zap.NewNop())
	t.Cleanup(store.Close)
	require.True(t, store.Load(context.Background()))

	m := New(store, time.Second)
	// мигающий курсор возвращает команду, которая ждёт таймер
	m.input.Cursor.SetMode(cursor.CursorStatic)
	return m, store
}

func seeded() *fakeAPI {
	return &fakeAPI{tasks: []model.Task{
		{ID: "t1", Title: "Design", Status: model.StatusTodo, Priority: model.PriorityHigh},
		{ID: "t2", Title: "Build", Status: model.StatusTodo, Priority: model.PriorityLow},
		{ID: "t3", Title: "Review docs", Status: model.StatusReview, Priority: model.PriorityMedium},
	}}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press отправляет клавиши и выполняет возвращённые команды.
func press(m Model, msgs ...tea.KeyMsg) Model {
	for _, msg := range msgs {
		next, cmd := m.Update(msg)
		m = next.(Model)
		if cmd == nil {
			continue
		}
		if out := cmd(); out != nil {
			if _, ok := out.(ChangedMsg); ok {
				next, _ = m.Update(out)
				m = next.(Model)
			}
		}
	}
	return m
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m = press(m, runes(string(r)))
	}
	return m
}

func columnIDs(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestModel_Navigation(t *testing.T) {
	m, _ := newModel(t, seeded())

	sel, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "t1", sel.ID)

	m = press(m, runes("j"))
	sel, _ = m.selected()
	assert.Equal(t, "t2", sel.ID)

	m = press(m, runes("j"))
	sel, _ = m.selected()
	assert.Equal(t, "t2", sel.ID, "selection stays in bounds")

	m = press(m, runes("l"))
	_, ok = m.selected()
	assert.False(t, ok, "in progress column is empty")

	m = press(m, runes("l"))
	sel, _ = m.selected()
	assert.Equal(t, "t3", sel.ID)
}

func TestModel_MoveRightSendsStatus(t *testing.T) {
	api := seeded()
	m, store := newModel(t, api)

	m = press(m, runes("L"))
	store.Wait()

	assert.Equal(t, []string{"t2"}, columnIDs(store.Column(model.StatusTodo)))
	assert.Equal(t, []string{"t1"}, columnIDs(store.Column(model.StatusInProgress)))
	assert.Equal(t, []string{"t1->in-progress"}, api.statusCall)

	// Выделение следует за задачей
	sel, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "t1", sel.ID)
	assert.Equal(t, 1, m.col)
}

func TestModel_MoveLeftAtEdgeIsNoop(t *testing.T) {
	api := seeded()
	m, store := newModel(t, api)

	press(m, runes("H"))
	store.Wait()

	assert.Empty(t, api.statusCall)
	assert.Equal(t, []string{"t1", "t2"}, columnIDs(store.Column(model.StatusTodo)))
}

func TestModel_ReorderSendsStatus(t *testing.T) {
	api := seeded()
	m, store := newModel(t, api)

	m = press(m, runes("J"))
	store.Wait()

	assert.Equal(t, []string{"t2", "t1"}, columnIDs(store.Column(model.StatusTodo)))
	assert.Equal(t, []string{"t1->todo"}, api.statusCall)
	sel, _ := m.selected()
	assert.Equal(t, "t1", sel.ID)
	assert.Equal(t, 1, m.row)
}

func TestModel_FailedMoveShowsError(t *testing.T) {
	api := seeded()
	api.failStatus = true
	m, store := newModel(t, api)

	m = press(m, runes("L"))
	store.Wait()
	next, _ := m.Update(ChangedMsg{})
	m = next.(Model)

	assert.Equal(t, kanban.MsgMoveFailed, store.Err())
	assert.Contains(t, m.View(), kanban.MsgMoveFailed)
	assert.Equal(t, []string{"t1", "t2"}, columnIDs(store.Column(model.StatusTodo)), "reverted by reload")

	m = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, store.Err())
	assert.NotContains(t, m.View(), kanban.MsgMoveFailed)
}

func TestModel_CreateTask(t *testing.T) {
	api := seeded()
	m, store := newModel(t, api)

	m = press(m, runes("n"))
	assert.Equal(t, modeCreate, m.mode)

	m = typeText(m, "Ship it")
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, modeNormal, m.mode)
	todo := store.Column(model.StatusTodo)
	require.Len(t, todo, 3)
	assert.Equal(t, "Ship it", todo[2].Title)
	assert.Contains(t, m.View(), "Ship it")
}

func TestModel_EditTitle(t *testing.T) {
	api := seeded()
	m, store := newModel(t, api)

	m = press(m, runes("e"))
	require.Equal(t, modeEdit, m.mode)
	assert.Equal(t, "Design", m.input.Value())

	m = typeText(m, " v2")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "Design v2", store.Column(model.StatusTodo)[0].Title)
}

func TestModel_Delete(t *testing.T) {
	api := seeded()
	m, store := newModel(t, api)

	m = press(m, runes("j"), runes("x"))

	assert.Equal(t, []string{"t1"}, columnIDs(store.Column(model.StatusTodo)))
	sel, _ := m.selected()
	assert.Equal(t, "t1", sel.ID)
}

func TestModel_SearchAndPriorityFilter(t *testing.T) {
	m, _ := newModel(t, seeded())

	m = press(m, runes("/"))
	m = typeText(m, "doc")
	assert.Equal(t, 1, m.board.Len(), "search applies while typing")

	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "doc", m.query)
	assert.Equal(t, 1, m.board.Len())

	m = press(m, runes("/"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.query)
	assert.Equal(t, 3, m.board.Len())

	m = press(m, runes("p"))
	assert.Equal(t, []string{"t1"}, columnIDs(m.board.Columns[0].Tasks))
	assert.Contains(t, m.View(), "priority high")

	m = press(m, runes("p"), runes("p"), runes("p"))
	assert.Equal(t, 3, m.board.Len(), "cycle wraps to no filter")
}

func TestModel_ReorderUnderFilterUsesFullPositions(t *testing.T) {
	api := &fakeAPI{tasks: []model.Task{
		{ID: "a", Title: "alpha fix", Status: model.StatusTodo, Priority: model.PriorityMedium},
		{ID: "b", Title: "beta", Status: model.StatusTodo, Priority: model.PriorityMedium},
		{ID: "c", Title: "gamma fix", Status: model.StatusTodo, Priority: model.PriorityMedium},
	}}
	m, store := newModel(t, api)

	m = press(m, runes("/"))
	m = typeText(m, "fix")
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter}, runes("J"))

	assert.Equal(t, []string{"b", "c", "a"}, columnIDs(store.Column(model.StatusTodo)))
	assert.Equal(t, []string{"c", "a"}, columnIDs(m.board.Columns[0].Tasks))
}

func TestModel_ViewRendersColumns(t *testing.T) {
	m, _ := newModel(t, seeded())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	view := next.(Model).View()

	for _, st := range model.Statuses {
		assert.Contains(t, view, st.Title())
	}
	assert.Contains(t, view, "Design")
	assert.True(t, strings.Contains(view, "To Do (2)"))
}

func TestModel_Quit(t *testing.T) {
	m, _ := newModel(t, seeded())
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
