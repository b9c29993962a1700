package dashboard

import (
	"sort"
	"time"

	"github.com/trezcool/tododesk/core/audit"
	"github.com/trezcool/tododesk/core/student"
	"github.com/trezcool/tododesk/core/todo"
)

// UnknownStudent is shown for a todo whose student is not in the loaded list.
const UnknownStudent = "Unknown"

// Color keys of the status chart.
const (
	ColorWarning = "warning"
	ColorInfo    = "info"
	ColorSuccess = "success"
	ColorDanger  = "danger"
)

// Palette maps color keys to display colors.
var Palette = map[string]string{
	ColorWarning: "#f59e0b",
	ColorInfo:    "#3b82f6",
	ColorSuccess: "#10b981",
	ColorDanger:  "#ef4444",
}

var statusColors = map[todo.Status]string{
	todo.StatusPending:    ColorWarning,
	todo.StatusInProgress: ColorInfo,
	todo.StatusCompleted:  ColorSuccess,
	todo.StatusOverdue:    ColorDanger,
}

// Counts are todo.Stats with every missing field set to 0.
type Counts struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	InProgress   int `json:"in_progress"`
	Completed    int `json:"completed"`
	Overdue      int `json:"overdue"`
	HighPriority int `json:"high_priority"`
}

// DefaultStats fills every missing field of s with 0. A nil s gives all zeros.
func DefaultStats(s *todo.Stats) Counts {
	if s == nil {
		return Counts{}
	}
	return Counts{
		Total:        s.Total.Int,
		Pending:      s.Pending.Int,
		InProgress:   s.InProgress.Int,
		Completed:    s.Completed.Int,
		Overdue:      s.Overdue.Int,
		HighPriority: s.HighPriority.Int,
	}
}

// Slice is one bucket of the status chart.
type Slice struct {
	Label    string      `json:"label"`
	Status   todo.Status `json:"status"`
	Count    int         `json:"count"`
	ColorKey string      `json:"color_key"`
	Percent  float64     `json:"percent"`
}

func (s Slice) Color() string { return Palette[s.ColorKey] }

// StatusDistribution partitions todos by status, in the order pending, in_progress, completed, overdue.
// Empty buckets are dropped.
func StatusDistribution(todos []todo.Todo) []Slice {
	counts := make(map[todo.Status]int, len(todo.Statuses))
	for _, t := range todos {
		counts[t.Status]++
	}
	return distribution(counts)
}

// CountsDistribution is StatusDistribution over server-computed counts.
func CountsDistribution(c Counts) []Slice {
	return distribution(map[todo.Status]int{
		todo.StatusPending:    c.Pending,
		todo.StatusInProgress: c.InProgress,
		todo.StatusCompleted:  c.Completed,
		todo.StatusOverdue:    c.Overdue,
	})
}

func distribution(counts map[todo.Status]int) []Slice {
	var total int
	for _, s := range todo.Statuses {
		total += counts[s]
	}
	slices := make([]Slice, 0, len(todo.Statuses))
	for _, s := range todo.Statuses {
		n := counts[s]
		if n <= 0 {
			continue
		}
		slices = append(slices, Slice{
			Label:    s.Label(),
			Status:   s,
			Count:    n,
			ColorKey: statusColors[s],
			Percent:  float64(n) * 100 / float64(total),
		})
	}
	return slices
}

// StudentName returns the name of t's student, or UnknownStudent.
func StudentName(t todo.Todo, students []student.Student) string {
	for _, s := range students {
		if s.ID == t.StudentID {
			return s.Name
		}
	}
	return UnknownStudent
}

// TodoCount is the per-student todo tally.
type TodoCount struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
}

// StudentTodoCounts tallies todos per student id.
func StudentTodoCounts(todos []todo.Todo) map[int]TodoCount {
	counts := make(map[int]TodoCount)
	for _, t := range todos {
		c := counts[t.StudentID]
		c.Total++
		if t.Status == todo.StatusPending {
			c.Pending++
		}
		counts[t.StudentID] = c
	}
	return counts
}

// WithTodoCounts fills the todo counts the remote API left out.
func WithTodoCounts(students []student.Student, todos []todo.Todo) []student.Student {
	counts := StudentTodoCounts(todos)
	out := make([]student.Student, len(students))
	for i, s := range students {
		c := counts[s.ID]
		if !s.TodoCount.Valid {
			s.TodoCount.SetValid(c.Total)
		}
		if !s.PendingCount.Valid {
			s.PendingCount.SetValid(c.Pending)
		}
		out[i] = s
	}
	return out
}

// OverdueTodos returns the todos that are overdue at now.
func OverdueTodos(todos []todo.Todo, now time.Time) []todo.Todo {
	var out []todo.Todo
	for _, t := range todos {
		if t.IsOverdue(now) {
			out = append(out, t)
		}
	}
	return out
}

// RecentTodos returns at most n todos, newest first.
func RecentTodos(todos []todo.Todo, n int) []todo.Todo {
	out := make([]todo.Todo, len(todos))
	copy(out, todos)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Activity is the weekly activity chart.
type Activity struct {
	Available bool     `json:"available"`
	Reason    string   `json:"reason,omitempty"`
	Days      []string `json:"days,omitempty"`
	Completed []int    `json:"completed,omitempty"`
	Created   []int    `json:"created,omitempty"`
}

// WeeklyActivity reports the weekly chart as unavailable: the remote API has no endpoint for it
// and sample numbers would be mistaken for real data.
func WeeklyActivity() Activity {
	return Activity{Reason: "weekly activity is not provided by the API"}
}

// TodoRow is a todo with its student name resolved.
type TodoRow struct {
	todo.Todo
	StudentName string `json:"student_name"`
	IsOverdue   bool   `json:"is_overdue"`
}

func NewTodoRows(todos []todo.Todo, students []student.Student, now time.Time) []TodoRow {
	rows := make([]TodoRow, 0, len(todos))
	for _, t := range todos {
		rows = append(rows, TodoRow{Todo: t, StudentName: StudentName(t, students), IsOverdue: t.IsOverdue(now)})
	}
	return rows
}

// Overview is the dashboard page model.
type Overview struct {
	Stats          Counts      `json:"stats"`
	Distribution   []Slice     `json:"distribution"`
	RecentTodos    []TodoRow   `json:"recent_todos"`
	RecentActivity []audit.Log `json:"recent_activity"`
	StudentCount   int         `json:"student_count"`
	OverdueCount   int         `json:"overdue_count"`
	Weekly         Activity    `json:"weekly"`
}

// NewOverview builds the dashboard page model. recent caps both recent lists.
func NewOverview(stats *todo.Stats, todos []todo.Todo, students []student.Student, logs []audit.Log, recent int, now time.Time) Overview {
	if len(logs) > recent && recent >= 0 {
		logs = logs[:recent]
	}
	if logs == nil {
		logs = []audit.Log{}
	}
	return Overview{
		Stats:          DefaultStats(stats),
		Distribution:   StatusDistribution(todos),
		RecentTodos:    NewTodoRows(RecentTodos(todos, recent), students, now),
		RecentActivity: logs,
		StudentCount:   len(students),
		OverdueCount:   len(OverdueTodos(todos, now)),
		Weekly:         WeeklyActivity(),
	}
}
