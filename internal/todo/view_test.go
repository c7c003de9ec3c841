package todo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTasks(n int, completed ...int) []Task {
	done := map[int]bool{}
	for _, i := range completed {
		done[i] = true
	}
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{ID: fmt.Sprintf("t%d", i), Title: fmt.Sprintf("task %d", i), Completed: done[i], Priority: PriorityMedium}
	}
	return tasks
}

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name  string
		tasks []Task
		want  Stats
	}{
		{name: "empty", tasks: nil, want: Stats{}},
		{name: "two of five", tasks: sampleTasks(5, 1, 3), want: Stats{Total: 5, Completed: 2, Pending: 3, CompletionRate: 40}},
		{name: "one of three rounds down", tasks: sampleTasks(3, 0), want: Stats{Total: 3, Completed: 1, Pending: 2, CompletionRate: 33}},
		{name: "two of three rounds up", tasks: sampleTasks(3, 0, 2), want: Stats{Total: 3, Completed: 2, Pending: 1, CompletionRate: 67}},
		{name: "all done", tasks: sampleTasks(4, 0, 1, 2, 3), want: Stats{Total: 4, Completed: 4, CompletionRate: 100}},
		{name: "one of eight is 12.5", tasks: sampleTasks(8, 4), want: Stats{Total: 8, Completed: 1, Pending: 7, CompletionRate: 13}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStats(tt.tasks))
		})
	}
}

func TestFilterTasks_Partition(t *testing.T) {
	tasks := sampleTasks(7, 0, 2, 3, 6)

	all := FilterTasks(tasks, FilterAll)
	pending := FilterTasks(tasks, FilterPending)
	completed := FilterTasks(tasks, FilterCompleted)

	assert.Equal(t, tasks, all)
	assert.Len(t, pending, 3)
	assert.Len(t, completed, 4)

	inPending := map[string]bool{}
	for _, p := range pending {
		assert.False(t, p.Completed)
		inPending[p.ID] = true
	}
	for _, c := range completed {
		assert.True(t, c.Completed)
		assert.False(t, inPending[c.ID], "%s in both views", c.ID)
	}
	assert.Equal(t, len(tasks), len(pending)+len(completed))
}

func TestFilterTasks_PreservesOrderAndInput(t *testing.T) {
	tasks := sampleTasks(5, 1, 4)
	orig := make([]Task, len(tasks))
	copy(orig, tasks)

	completed := FilterTasks(tasks, FilterCompleted)
	require.Len(t, completed, 2)
	assert.Equal(t, "t1", completed[0].ID)
	assert.Equal(t, "t4", completed[1].ID)

	pending := FilterTasks(tasks, FilterPending)
	assert.Equal(t, []string{"t0", "t2", "t3"}, []string{pending[0].ID, pending[1].ID, pending[2].ID})

	assert.Equal(t, orig, tasks)
}

func TestCountByPriorityAndCategory(t *testing.T) {
	tasks := []Task{
		{ID: "1", Priority: PriorityHigh, Category: "Work"},
		{ID: "2", Priority: PriorityHigh, Category: "Work", Completed: true},
		{ID: "3", Priority: PriorityLow},
		{ID: "4", Priority: PriorityMedium, Category: "Health"},
	}

	assert.Equal(t, map[Priority]int{PriorityHigh: 1, PriorityLow: 1, PriorityMedium: 1}, CountByPriority(tasks))
	assert.Equal(t, map[string]int{"Work": 2, "": 1, "Health": 1}, CountByCategory(tasks))
}

func TestParsePriorityAndFilter(t *testing.T) {
	p, err := ParsePriority(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	p, err = ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, p)

	_, err = ParsePriority("urgent")
	assert.Error(t, err)

	f, err := ParseFilter("Pending")
	require.NoError(t, err)
	assert.Equal(t, FilterPending, f)

	_, err = ParseFilter("archived")
	assert.Error(t, err)
}

func TestPriorityUpDown(t *testing.T) {
	assert.Equal(t, PriorityMedium, PriorityLow.Up())
	assert.Equal(t, PriorityHigh, PriorityMedium.Up())
	assert.Equal(t, PriorityHigh, PriorityHigh.Up())
	assert.Equal(t, PriorityMedium, PriorityHigh.Down())
	assert.Equal(t, PriorityLow, PriorityMedium.Down())
	assert.Equal(t, PriorityLow, PriorityLow.Down())
}
