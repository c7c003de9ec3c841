package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"tally/internal/config"
	"tally/internal/todo"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6C63FF"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#8E8EA0"))
	activeTabStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#6C63FF"))
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#8E8EA0"))
	doneStyle      = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("#8E8EA0"))
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C63FF")).Bold(true)
	barFillStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	barEmptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A4A"))
	categoryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#29B6F6"))
	priorityStyles = map[todo.Priority]lipgloss.Style{
		todo.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
		todo.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107")),
		todo.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F44336")),
	}
)

var emptyCopy = map[todo.Filter][2]string{
	todo.FilterAll:       {"You're all clear!", "Add a task to get started."},
	todo.FilterPending:   {"Nothing pending!", "You've completed everything."},
	todo.FilterCompleted: {"No completed tasks", "Complete some tasks to see them here."},
}

const barWidth = 24

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.store.Loading() {
		b.WriteString(dimStyle.Render("Loading tasks..."))
		b.WriteString("\n")
		return b.String()
	}

	stats := m.store.Stats()
	b.WriteString(renderProgress(stats))
	b.WriteString("\n\n")
	b.WriteString(m.renderTabs(stats))
	b.WriteString("\n\n")

	tasks := m.store.Visible()
	if len(tasks) == 0 {
		empty := emptyCopy[m.store.Filter()]
		b.WriteString(empty[0])
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(empty[1]))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTaskList(tasks))
	}

	b.WriteString("\n")
	if m.mode == modeAdd {
		b.WriteString("Add Task: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(renderHelp(m.cfg.Keys)))

	return b.String()
}

func (m Model) renderHeader() string {
	now := m.now()
	left := titleStyle.Render(greeting(now)) + " " + dimStyle.Render(now.Format("Monday, January 2"))
	if m.store.Loading() {
		return left
	}
	return left + dimStyle.Render(fmt.Sprintf(" • %d pending", m.store.Stats().Pending))
}

func greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Good Morning"
	case h < 17:
		return "Good Afternoon"
	default:
		return "Good Evening"
	}
}

func renderProgress(s todo.Stats) string {
	filled := s.CompletionRate * barWidth / 100
	bar := barFillStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("%s %3d%%  %d of %d done", bar, s.CompletionRate, s.Completed, s.Total)
}

func (m Model) renderTabs(s todo.Stats) string {
	labels := map[todo.Filter]string{
		todo.FilterAll:       fmt.Sprintf("All %d", s.Total),
		todo.FilterPending:   fmt.Sprintf("Pending %d", s.Pending),
		todo.FilterCompleted: fmt.Sprintf("Completed %d", s.Completed),
	}
	active := m.store.Filter()
	tabs := make([]string, 0, len(todo.Filters))
	for _, f := range todo.Filters {
		style := tabStyle
		if f == active {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(labels[f]))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderTaskList(tasks []todo.Task) string {
	var b strings.Builder
	for i, t := range tasks {
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = cursorStyle.Render(">")
		}

		checkbox := "[ ]"
		title := t.Title
		if t.Completed {
			checkbox = "[x]"
			title = doneStyle.Render(title)
		}

		body := fmt.Sprintf("%s %s %s %s", cursor, checkbox, priorityStyles[t.Priority].Render("●"), title)
		if t.Category != "" {
			body += " " + categoryStyle.Render("#"+t.Category)
		}

		b.WriteString(body)
		b.WriteString("\n")
	}
	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s toggle • %s delete • %s/%s priority • %s clear done • %s/%s or %s/%s/%s tabs • %s quit",
		k.Up, k.Down, k.Add, keyLabel(k.Toggle), k.Delete, k.PriorityUp, k.PriorityDown, k.ClearCompleted,
		k.NextTab, k.PrevTab, k.TabAll, k.TabPending, k.TabCompleted, k.Quit)
}

func keyLabel(k string) string {
	if k == " " {
		return "space"
	}
	return k
}
