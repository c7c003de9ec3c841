package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/config"
	"tally/internal/logging"
	"tally/internal/storage"
	"tally/internal/todo"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.LoadOrCreate(t.TempDir() + "/config.toml")
	require.NoError(t, err)
	return cfg
}

func newTestModel(t *testing.T) (Model, *todo.Store) {
	t.Helper()
	store := todo.NewStore(storage.NewAdapter(storage.NewMemory(), "", nil))
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	m := New(store, testConfig(t), logging.Discard())
	m.now = func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) }
	return m, store
}

func loaded(t *testing.T) (Model, *todo.Store) {
	t.Helper()
	m, store := newTestModel(t)
	assert.Nil(t, m.Init()())
	return update(m, storeMsg(todo.Event{Kind: todo.EventLoaded})), store
}

func update(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func keys(s string) tea.Msg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	space = keys(" ")
	tab   = tea.KeyMsg{Type: tea.KeyTab}
)

func TestModel_LoadingState(t *testing.T) {
	m, store := newTestModel(t)
	assert.Contains(t, m.View(), "Loading tasks...")

	m = update(m, keys("a"))
	assert.Equal(t, modeList, m.mode)

	store.Load(context.Background())
	assert.NotContains(t, m.View(), "Loading tasks...")
	assert.Contains(t, m.View(), "You're all clear!")
}

func TestModel_AddTask(t *testing.T) {
	m, store := loaded(t)

	m = update(m, keys("a"))
	require.Equal(t, modeAdd, m.mode)
	m = update(m, keys("Buy milk"), tea.KeyMsg{Type: tea.KeyCtrlP}, tea.KeyMsg{Type: tea.KeyCtrlG}, enter)

	assert.Equal(t, modeList, m.mode)
	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Buy milk", all[0].Title)
	assert.Equal(t, todo.PriorityHigh, all[0].Priority)
	assert.Equal(t, todo.Categories[0], all[0].Category)
	assert.Contains(t, m.View(), "Buy milk")
	assert.Equal(t, todo.PriorityMedium, m.addPriority, "add options reset after submit")
}

func TestModel_AddBlankAndCancel(t *testing.T) {
	m, store := loaded(t)

	m = update(m, keys("a"), keys("   "), enter)
	assert.Equal(t, modeAdd, m.mode)
	assert.Equal(t, "Title cannot be empty", m.status)

	m = update(m, esc)
	assert.Equal(t, modeList, m.mode)
	assert.Empty(t, store.All())
}

func TestModel_ToggleDeleteAndTabs(t *testing.T) {
	m, store := loaded(t)
	store.Add("Buy milk", todo.PriorityHigh, "Personal")
	store.Add("Call bank", todo.PriorityMedium, "")
	m = update(m, storeMsg(todo.Event{Kind: todo.EventAdded}))

	m = update(m, space)
	bank := store.All()[0]
	assert.True(t, bank.Completed)
	assert.Contains(t, m.View(), "50%")

	m = update(m, tab)
	assert.Equal(t, todo.FilterPending, store.Filter())
	assert.Equal(t, []string{"Buy milk"}, []string{store.Visible()[0].Title})

	m = update(m, tab)
	assert.Equal(t, todo.FilterCompleted, store.Filter())

	m = update(m, keys("d"))
	assert.True(t, m.confirmDel)
	m = update(m, keys("n"))
	assert.False(t, m.confirmDel)
	assert.Len(t, store.All(), 2)

	m = update(m, keys("d"), keys("y"))
	assert.Len(t, store.All(), 1)
	assert.Contains(t, m.View(), "No completed tasks")

	m = update(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, todo.FilterPending, store.Filter())
	m = update(m, keys("1"))
	assert.Equal(t, todo.FilterAll, store.Filter())
}

func TestModel_PriorityAndClear(t *testing.T) {
	m, store := loaded(t)
	task, _ := store.Add("Buy milk", todo.PriorityLow, "")

	m = update(m, keys("+"), keys("+"), keys("+"))
	got, _ := store.Get(task.ID)
	assert.Equal(t, todo.PriorityHigh, got.Priority)

	m = update(m, keys("-"))
	got, _ = store.Get(task.ID)
	assert.Equal(t, todo.PriorityMedium, got.Priority)

	m = update(m, keys("C"))
	assert.Equal(t, "No completed tasks to clear", m.status)

	m = update(m, space, keys("C"))
	assert.Equal(t, "Cleared 1 completed", m.status)
	assert.Empty(t, store.All())
}

func TestModel_CursorClampsOnStoreChange(t *testing.T) {
	m, store := loaded(t)
	store.Add("a", todo.PriorityMedium, "")
	b, _ := store.Add("b", todo.PriorityMedium, "")
	m = update(m, keys("j"))
	assert.Equal(t, 1, m.cursor)

	store.Delete(b.ID)
	m = update(m, storeMsg(todo.Event{Kind: todo.EventDeleted, TaskID: b.ID}))
	assert.Equal(t, 0, m.cursor)
}

func TestModel_Quit(t *testing.T) {
	m, _ := loaded(t)
	_, cmd := m.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestGreeting(t *testing.T) {
	day := func(h int) time.Time { return time.Date(2025, 1, 1, h, 0, 0, 0, time.UTC) }
	assert.Equal(t, "Good Morning", greeting(day(8)))
	assert.Equal(t, "Good Afternoon", greeting(day(13)))
	assert.Equal(t, "Good Evening", greeting(day(20)))
}

func TestRenderProgress(t *testing.T) {
	out := renderProgress(todo.Stats{Total: 4, Completed: 1, Pending: 3, CompletionRate: 25})
	assert.Contains(t, out, "25%")
	assert.Contains(t, out, "1 of 4 done")
}

func TestModel_ReboundKeys(t *testing.T) {
	m, store := loaded(t)
	m.cfg.Keys.TabCompleted = "c"
	m.cfg.Keys.TabAll = "A"
	m.cfg.Keys.CyclePriority = "ctrl+r"

	m = update(m, keys("c"))
	assert.Equal(t, todo.FilterCompleted, store.Filter())
	m = update(m, keys("3"))
	assert.Equal(t, todo.FilterCompleted, store.Filter(), "default key no longer bound")
	m = update(m, keys("A"))
	assert.Equal(t, todo.FilterAll, store.Filter())

	m = update(m, keys("a"), keys("Pay rent"), tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Contains(t, m.status, "priority:high (ctrl+r)")
	m = update(m, enter)
	assert.Equal(t, todo.PriorityHigh, store.All()[0].Priority)
}

func TestRenderHelp_ListsTabKeys(t *testing.T) {
	help := renderHelp(testConfig(t).Keys)
	assert.Contains(t, help, "1/2/3 tabs")
	assert.Contains(t, help, "space toggle")
}
