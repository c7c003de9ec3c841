package todo

import (
	"fmt"
	"strings"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority, lowest first.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Up returns the next higher priority, saturating at high.
func (p Priority) Up() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	default:
		return PriorityHigh
	}
}

// Down returns the next lower priority, saturating at low.
func (p Priority) Down() Priority {
	switch p {
	case PriorityHigh:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func ParsePriority(v string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(v)))
	if p == "" {
		return PriorityMedium, nil
	}
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q (want low, medium or high)", v)
	}
	return p, nil
}

type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// Filters lists the filters in tab order.
var Filters = []Filter{FilterAll, FilterPending, FilterCompleted}

func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterPending, FilterCompleted:
		return true
	}
	return false
}

func ParseFilter(v string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(v)))
	if f == "" {
		return FilterAll, nil
	}
	if !f.Valid() {
		return "", fmt.Errorf("unknown filter %q (want all, pending or completed)", v)
	}
	return f, nil
}

// Categories are the suggested category labels. The store accepts any string.
var Categories = []string{"Work", "Personal", "Health", "Finance", "Learning"}

// Task is one to-do record. The JSON layout is the persisted format.
type Task struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Completed bool     `json:"completed"`
	Priority  Priority `json:"priority"`
	CreatedAt int64    `json:"createdAt"`
	Category  string   `json:"category,omitempty"`
}

type Stats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	CompletionRate int `json:"completionRate"`
}
