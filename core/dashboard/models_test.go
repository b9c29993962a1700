package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tododesk/core"
	"github.com/trezcool/tododesk/core/audit"
	"github.com/trezcool/tododesk/core/student"
	"github.com/trezcool/tododesk/core/todo"
)

func todosWith(statuses ...todo.Status) []todo.Todo {
	todos := make([]todo.Todo, 0, len(statuses))
	for i, s := range statuses {
		todos = append(todos, todo.Todo{ID: i + 1, StudentID: 1, Status: s})
	}
	return todos
}

func TestStatusDistribution(t *testing.T) {
	tests := []struct {
		name  string
		todos []todo.Todo
		want  []todo.Status
		count []int
	}{
		{name: "empty", todos: nil, want: []todo.Status{}, count: []int{}},
		{
			name:  "zero buckets dropped",
			todos: todosWith(todo.StatusCompleted, todo.StatusPending, todo.StatusCompleted),
			want:  []todo.Status{todo.StatusPending, todo.StatusCompleted},
			count: []int{1, 2},
		},
		{
			name:  "fixed order",
			todos: todosWith(todo.StatusOverdue, todo.StatusCompleted, todo.StatusInProgress, todo.StatusPending),
			want:  []todo.Status{todo.StatusPending, todo.StatusInProgress, todo.StatusCompleted, todo.StatusOverdue},
			count: []int{1, 1, 1, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slices := StatusDistribution(tt.todos)
			gotStatuses := make([]todo.Status, 0, len(slices))
			gotCounts := make([]int, 0, len(slices))
			var sum int
			for _, s := range slices {
				gotStatuses = append(gotStatuses, s.Status)
				gotCounts = append(gotCounts, s.Count)
				assert.Positive(t, s.Count)
				assert.NotEmpty(t, s.Color())
				sum += s.Count
			}
			assert.Equal(t, tt.want, gotStatuses)
			assert.Equal(t, tt.count, gotCounts)
			assert.Equal(t, len(tt.todos), sum)
		})
	}
}

func TestCountsDistribution(t *testing.T) {
	slices := CountsDistribution(Counts{Total: 5, Pending: 2, Overdue: 3})
	if assert.Len(t, slices, 2) {
		assert.Equal(t, Slice{Label: "Pending", Status: todo.StatusPending, Count: 2, ColorKey: ColorWarning, Percent: 40}, slices[0])
		assert.Equal(t, "#ef4444", slices[1].Color())
	}
}

func TestDefaultStats(t *testing.T) {
	tests := []struct {
		name  string
		stats *todo.Stats
		want  Counts
	}{
		{name: "nil", stats: nil, want: Counts{}},
		{name: "empty", stats: &todo.Stats{}, want: Counts{}},
		{
			name:  "partial",
			stats: &todo.Stats{Total: null.IntFrom(3), Completed: null.IntFrom(1)},
			want:  Counts{Total: 3, Completed: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultStats(tt.stats))
		})
	}
}

func TestStudentName(t *testing.T) {
	students := []student.Student{{ID: 1, Name: "Jane"}, {ID: 2, Name: "John"}}
	assert.Equal(t, "John", StudentName(todo.Todo{StudentID: 2}, students))
	assert.Equal(t, UnknownStudent, StudentName(todo.Todo{StudentID: 9}, students))
	assert.Equal(t, UnknownStudent, StudentName(todo.Todo{StudentID: 1}, nil))
}

func TestWithTodoCounts(t *testing.T) {
	students := []student.Student{{ID: 1}, {ID: 2, TodoCount: null.IntFrom(10)}}
	todos := todosWith(todo.StatusPending, todo.StatusCompleted, todo.StatusPending)

	got := WithTodoCounts(students, todos)
	assert.Equal(t, null.IntFrom(3), got[0].TodoCount)
	assert.Equal(t, null.IntFrom(2), got[0].PendingCount)
	assert.Equal(t, null.IntFrom(10), got[1].TodoCount)
	assert.Equal(t, null.IntFrom(0), got[1].PendingCount)
	assert.False(t, students[0].TodoCount.Valid, "input must not be modified")
}

func TestRecentTodos(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	todos := []todo.Todo{
		{ID: 1, CreatedAt: core.NewTime(base)},
		{ID: 2, CreatedAt: core.NewTime(base.Add(2 * time.Hour))},
		{ID: 3, CreatedAt: core.NewTime(base.Add(time.Hour))},
	}
	got := RecentTodos(todos, 2)
	if assert.Len(t, got, 2) {
		assert.Equal(t, 2, got[0].ID)
		assert.Equal(t, 3, got[1].ID)
	}
	assert.Len(t, RecentTodos(todos, 10), 3)
}

func TestWeeklyActivity(t *testing.T) {
	a := WeeklyActivity()
	assert.False(t, a.Available)
	assert.NotEmpty(t, a.Reason)
	assert.Empty(t, a.Days)
}

func TestNewOverview(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	students := []student.Student{{ID: 1, Name: "Jane"}}
	todos := []todo.Todo{
		{ID: 1, StudentID: 1, Status: todo.StatusOverdue},
		{ID: 2, StudentID: 5, Status: todo.StatusPending},
	}
	logs := []audit.Log{{ID: 1}, {ID: 2}, {ID: 3}}

	ov := NewOverview(&todo.Stats{Total: null.IntFrom(2)}, todos, students, logs, 2, now)
	assert.Equal(t, 2, ov.Stats.Total)
	assert.Equal(t, 0, ov.Stats.Pending)
	assert.Len(t, ov.Distribution, 2)
	assert.Len(t, ov.RecentActivity, 2)
	assert.Equal(t, 1, ov.StudentCount)
	assert.Equal(t, 1, ov.OverdueCount)
	if assert.Len(t, ov.RecentTodos, 2) {
		names := []string{ov.RecentTodos[0].StudentName, ov.RecentTodos[1].StudentName}
		assert.ElementsMatch(t, []string{"Jane", UnknownStudent}, names)
	}
	assert.False(t, ov.Weekly.Available)
}
