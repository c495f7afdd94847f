// Package board - терминальная канбан-доска поверх kanban.Store.
package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/BuzzLyutic/kanban-board/internal/kanban"
	"github.com/BuzzLyutic/kanban-board/internal/model"
)

// ChangedMsg - состояние Store изменилось, доску нужно перечитать.
// Приходит из колбэка Store и после каждой операции.
type ChangedMsg struct{}

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeCreate
	modeEdit
)

// priorityCycle - порядок переключения фильтра по приоритету; nil - без фильтра.
var priorityCycle = []*model.Priority{nil, ptr(model.PriorityHigh), ptr(model.PriorityMedium), ptr(model.PriorityLow)}

type Model struct {
	store   *kanban.Store
	keys    KeyMap
	help    help.Model
	timeout time.Duration

	board kanban.Board // отфильтрованный снимок
	col   int
	row   int

	mode     mode
	input    textinput.Model
	editID   string
	query    string
	priority int // индекс в priorityCycle

	width  int
	height int
}

func New(store *kanban.Store, timeout time.Duration) Model {
	ti := textinput.New()
	ti.CharLimit = 200

	m := Model{
		store:   store,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		timeout: timeout,
		input:   ti,
		width:   120,
		height:  30,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.run(func(ctx context.Context) { m.store.Load(ctx) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case ChangedMsg:
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.mode != modeNormal {
			return m.handleInputKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}
	return m, nil
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Left):
		m.selectColumn(m.col - 1)
	case key.Matches(msg, m.keys.Right):
		m.selectColumn(m.col + 1)
	case key.Matches(msg, m.keys.Up):
		m.selectRow(m.row - 1)
	case key.Matches(msg, m.keys.Down):
		m.selectRow(m.row + 1)

	case key.Matches(msg, m.keys.MoveLeft):
		m.moveAcross(-1)
	case key.Matches(msg, m.keys.MoveRight):
		m.moveAcross(1)
	case key.Matches(msg, m.keys.MoveUp):
		m.reorder(-1)
	case key.Matches(msg, m.keys.MoveDown):
		m.reorder(1)

	case key.Matches(msg, m.keys.New):
		return m, m.startInput(modeCreate, "New task: ", "")
	case key.Matches(msg, m.keys.Edit):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.editID = t.ID
		return m, m.startInput(modeEdit, "Title: ", t.Title)
	case key.Matches(msg, m.keys.Delete):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) { m.store.Delete(ctx, t.ID) })
	case key.Matches(msg, m.keys.Search):
		return m, m.startInput(modeSearch, "/ ", m.query)
	case key.Matches(msg, m.keys.Priority):
		m.priority = (m.priority + 1) % len(priorityCycle)
		m.refresh()
	case key.Matches(msg, m.keys.Reload):
		return m, m.run(func(ctx context.Context) { m.store.Load(ctx) })
	case key.Matches(msg, m.keys.Dismiss):
		m.store.DismissError()
	}
	return m, nil
}

func (m Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.mode == modeSearch {
			m.query = ""
		}
		m.stopInput()
		m.refresh()
		return m, nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		md, editID := m.mode, m.editID
		m.stopInput()
		switch md {
		case modeSearch:
			m.query = value
			m.refresh()
		case modeCreate:
			if value != "" {
				return m, m.run(func(ctx context.Context) {
					m.store.Create(ctx, model.TaskPatch{Title: &value})
				})
			}
		case modeEdit:
			if value != "" {
				return m, m.run(func(ctx context.Context) {
					m.store.Update(ctx, editID, model.TaskPatch{Title: &value})
				})
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeSearch {
		// поиск применяется по мере ввода
		m.query = m.input.Value()
		m.refresh()
	}
	return m, cmd
}

func (m *Model) startInput(md mode, prompt, value string) tea.Cmd {
	m.mode = md
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) stopInput() {
	m.mode = modeNormal
	m.editID = ""
	m.input.Blur()
	m.input.Reset()
}

// run выполняет блокирующую операцию Store вне цикла отрисовки.
func (m Model) run(op func(ctx context.Context)) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		op(ctx)
		return ChangedMsg{}
	}
}

// moveAcross переносит выбранную задачу в соседнюю колонку, в её начало.
func (m *Model) moveAcross(dir int) {
	t, ok := m.selected()
	if !ok {
		return
	}
	target := m.col + dir
	if target < 0 || target >= len(model.Statuses) {
		return
	}
	if m.store.Move(t.ID, t.Status, model.Statuses[target], 0) {
		m.refresh()
		m.follow(t.ID)
	}
}

// reorder меняет задачу местами с соседней видимой задачей той же колонки.
// При активном фильтре позиция берётся из полной доски.
func (m *Model) reorder(dir int) {
	t, ok := m.selected()
	if !ok {
		return
	}
	tasks := m.board.Columns[m.col].Tasks
	neighbor := m.row + dir
	if neighbor < 0 || neighbor >= len(tasks) {
		return
	}

	_, target, found := m.store.Snapshot().Find(tasks[neighbor].ID)
	if !found {
		return
	}
	if m.store.Move(t.ID, t.Status, t.Status, target) {
		m.refresh()
		m.follow(t.ID)
	}
}

func (m *Model) refresh() {
	m.board = m.store.Snapshot().Filter(m.query, priorityCycle[m.priority])
	m.selectColumn(m.col)
}

func (m *Model) follow(taskID string) {
	for ci, col := range m.board.Columns {
		for ri, t := range col.Tasks {
			if t.ID == taskID {
				m.col, m.row = ci, ri
				return
			}
		}
	}
}

func (m *Model) selectColumn(c int) {
	if c < 0 || c >= len(m.board.Columns) {
		return
	}
	m.col = c
	m.selectRow(m.row)
}

func (m *Model) selectRow(r int) {
	n := len(m.board.Columns[m.col].Tasks)
	switch {
	case n == 0:
		m.row = 0
	case r < 0:
		m.row = 0
	case r >= n:
		m.row = n - 1
	default:
		m.row = r
	}
}

func (m Model) selected() (model.Task, bool) {
	tasks := m.board.Columns[m.col].Tasks
	if m.row < 0 || m.row >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[m.row], true
}

func (m Model) View() string {
	var b strings.Builder

	header := headerStyle.Render("Kanban · " + m.store.ProjectID())
	var status []string
	if m.store.Loading() {
		status = append(status, "loading...")
	}
	if n := m.store.Pending(); n > 0 {
		status = append(status, fmt.Sprintf("syncing %d", n))
	}
	if f := m.filterLabel(); f != "" {
		status = append(status, f)
	}
	b.WriteString(header + " " + mutedStyle.Render(strings.Join(status, "  ")))
	b.WriteString("\n")

	if msg := m.store.Err(); msg != "" {
		b.WriteString(errorStyle.Render("✗ "+msg) + mutedStyle.Render("  (esc to dismiss)"))
		b.WriteString("\n")
	}

	b.WriteString(m.renderColumns())
	b.WriteString("\n")

	if m.mode != modeNormal {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	}
	return b.String()
}

func (m Model) renderColumns() string {
	width := m.width/len(m.board.Columns) - 2
	if width < 16 {
		width = 16
	}

	cols := make([]string, 0, len(m.board.Columns))
	for ci, col := range m.board.Columns {
		lines := []string{
			statusStyle(col.ID).Render(fmt.Sprintf("%s (%d)", col.Title, len(col.Tasks))),
			"",
		}
		if len(col.Tasks) == 0 {
			lines = append(lines, mutedStyle.Render("  no tasks"))
		}
		for ri, t := range col.Tasks {
			line := priorityMark(t.Priority) + " " + truncate(t.Title, width-6)
			if ci == m.col && ri == m.row {
				lines = append(lines, selectedStyle.Render(line))
			} else {
				lines = append(lines, taskStyle.Render(line))
			}
		}

		style := columnStyle
		if ci == m.col {
			style = activeColumnStyle
		}
		cols = append(cols, style.Width(width).Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) filterLabel() string {
	var parts []string
	if m.query != "" {
		parts = append(parts, fmt.Sprintf("search %q", m.query))
	}
	if p := priorityCycle[m.priority]; p != nil {
		parts = append(parts, "priority "+string(*p))
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func ptr[T any](v T) *T { return &v }
