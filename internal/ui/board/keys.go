package board

import "github.com/charmbracelet/bubbles/key"

// KeyMap - клавиши доски. Перенос задачи клавишами заменяет drag-and-drop.
type KeyMap struct {
	Left  key.Binding
	Right key.Binding
	Up    key.Binding
	Down  key.Binding

	MoveLeft  key.Binding
	MoveRight key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding

	New      key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Search   key.Binding
	Priority key.Binding
	Reload   key.Binding
	Dismiss  key.Binding
	Quit     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left:  key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column")),
		Right: key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column")),
		Up:    key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task")),
		Down:  key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task")),

		MoveLeft:  key.NewBinding(key.WithKeys("H", "shift+left"), key.WithHelp("H", "move left")),
		MoveRight: key.NewBinding(key.WithKeys("L", "shift+right"), key.WithHelp("L", "move right")),
		MoveUp:    key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "reorder up")),
		MoveDown:  key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "reorder down")),

		New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Priority: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Dismiss:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp - подсказка в нижней строке.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Up, k.MoveRight, k.MoveLeft, k.MoveDown, k.New, k.Edit, k.Delete, k.Search, k.Priority, k.Reload, k.Quit}
}
