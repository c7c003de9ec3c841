package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"tally/internal/config"
	"tally/internal/logging"
	"tally/internal/todo"
)

type mode int

const (
	modeList mode = iota
	modeAdd
)

// storeMsg carries a store change into the event loop.
type storeMsg todo.Event

type Model struct {
	store       *todo.Store
	cfg         config.Config
	logger      *log.Logger
	cursor      int
	mode        mode
	input       textinput.Model
	status      string
	confirmDel  bool
	pendingDel  *todo.Task
	addPriority todo.Priority
	addCategory int
	now         func() time.Time
}

func New(store *todo.Store, cfg config.Config, logger *log.Logger) Model {
	if logger == nil {
		logger = logging.Discard()
	}
	ti := textinput.New()
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 120
	ti.Width = 40

	return Model{
		store:       store,
		cfg:         cfg,
		logger:      logger,
		input:       ti,
		mode:        modeList,
		status:      fmt.Sprintf("Press '%s' to add, space to toggle, '%s' to delete.", cfg.Keys.Add, cfg.Keys.Delete),
		addPriority: todo.PriorityMedium,
		addCategory: -1,
		now:         time.Now,
	}
}

// Run starts the TUI. The store is loaded in the background; store events
// are forwarded to the program so every change re-renders.
func Run(ctx context.Context, store *todo.Store, cfg config.Config, logger *log.Logger) error {
	m := New(store, cfg, logger)
	program := tea.NewProgram(m, tea.WithContext(ctx))

	// Send blocks until the event loop receives, and the loop may be the
	// goroutine that triggered the event.
	unsubscribe := store.Subscribe(func(ev todo.Event) {
		go program.Send(storeMsg(ev))
	})
	defer unsubscribe()

	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		store.Load(context.Background())
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	case storeMsg:
		m.cursor = clampCursor(m.cursor, len(m.store.Visible()))
		if msg.Kind == todo.EventLoaded {
			m.logger.Debug("ui ready", "tasks", m.store.Stats().Total)
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.mode == modeAdd {
		return m.updateAddMode(key, msg)
	}
	return m.updateListMode(key)
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm:
		title := strings.TrimSpace(m.input.Value())
		if title == "" {
			m.status = "Title cannot be empty"
			return m, nil
		}
		t, _ := m.store.Add(title, m.addPriority, m.currentCategory())
		m.status = fmt.Sprintf("Added %q", t.Title)
		m.cursor = 0
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		m.addPriority = todo.PriorityMedium
		m.addCategory = -1
		return m, nil
	case m.cfg.Keys.CyclePriority:
		m.addPriority = nextPriority(m.addPriority)
		m.status = m.addPrompt()
		return m, nil
	case m.cfg.Keys.CycleCategory:
		m.addCategory++
		if m.addCategory >= len(todo.Categories) {
			m.addCategory = -1
		}
		m.status = m.addPrompt()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	if m.store.Loading() {
		if key == "ctrl+c" || key == m.cfg.Keys.Quit {
			return m, tea.Quit
		}
		return m, nil
	}
	tasks := m.store.Visible()
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		if len(tasks) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(tasks))
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(tasks))
		}
	case m.cfg.Keys.Add:
		m.mode = modeAdd
		m.input.Focus()
		m.status = m.addPrompt()
		return m, textinput.Blink
	case m.cfg.Keys.Toggle:
		if len(tasks) == 0 {
			return m, nil
		}
		t := tasks[m.cursor]
		m.store.Toggle(t.ID)
		m.cursor = clampCursor(m.cursor, len(m.store.Visible()))
		if t.Completed {
			m.status = fmt.Sprintf("Reopened %q", t.Title)
		} else {
			m.status = fmt.Sprintf("Completed %q", t.Title)
		}
	case m.cfg.Keys.Delete:
		if len(tasks) == 0 {
			return m, nil
		}
		t := tasks[m.cursor]
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Title)
	case m.cfg.Keys.PriorityUp, m.cfg.Keys.PriorityDown:
		if len(tasks) == 0 {
			return m, nil
		}
		t := tasks[m.cursor]
		p := t.Priority.Up()
		if key == m.cfg.Keys.PriorityDown {
			p = t.Priority.Down()
		}
		m.store.UpdatePriority(t.ID, p)
		m.status = fmt.Sprintf("Priority of %q is %s", t.Title, p)
	case m.cfg.Keys.ClearCompleted:
		n := m.store.ClearCompleted()
		m.cursor = clampCursor(m.cursor, len(m.store.Visible()))
		if n == 0 {
			m.status = "No completed tasks to clear"
		} else {
			m.status = fmt.Sprintf("Cleared %d completed", n)
		}
	case m.cfg.Keys.NextTab, "right":
		m.switchTab(1)
	case m.cfg.Keys.PrevTab, "left":
		m.switchTab(-1)
	case m.cfg.Keys.TabAll:
		m.selectTab(todo.FilterAll)
	case m.cfg.Keys.TabPending:
		m.selectTab(todo.FilterPending)
	case m.cfg.Keys.TabCompleted:
		m.selectTab(todo.FilterCompleted)
	}
	return m, nil
}

func (m *Model) switchTab(step int) {
	cur := 0
	for i, f := range todo.Filters {
		if f == m.store.Filter() {
			cur = i
		}
	}
	m.store.SetFilter(todo.Filters[wrapIndex(cur+step, len(todo.Filters))])
	m.cursor = 0
}

func (m *Model) selectTab(f todo.Filter) {
	m.store.SetFilter(f)
	m.cursor = 0
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		if m.store.Delete(m.pendingDel.ID) {
			m.status = "Deleted task"
		} else {
			m.status = "Task already gone"
		}
		m.cursor = clampCursor(m.cursor, len(m.store.Visible()))
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) currentCategory() string {
	if m.addCategory < 0 || m.addCategory >= len(todo.Categories) {
		return ""
	}
	return todo.Categories[m.addCategory]
}

func (m Model) addPrompt() string {
	category := m.currentCategory()
	if category == "" {
		category = "none"
	}
	k := m.cfg.Keys
	return fmt.Sprintf("New task • priority:%s (%s) • category:%s (%s) • %s to add, %s to cancel",
		m.addPriority, k.CyclePriority, category, k.CycleCategory, k.Confirm, k.Cancel)
}

func nextPriority(p todo.Priority) todo.Priority {
	for i, v := range todo.Priorities {
		if v == p {
			return todo.Priorities[wrapIndex(i+1, len(todo.Priorities))]
		}
	}
	return todo.PriorityMedium
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
