package todo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tododesk/core"
)

func marshal(t *testing.T, v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal() failed: %v", err)
	}
	return string(data)
}

func TestForm_NewTodo(t *testing.T) {
	tests := []struct {
		name       string
		form       Form
		wantJSON   string
		wantFields []string
	}{
		{
			name:     "defaults",
			form:     Form{StudentID: "2", Title: "Read chapter 3"},
			wantJSON: `{"student_id":2,"title":"Read chapter 3","priority":"medium","status":"pending"}`,
		},
		{
			name: "all fields",
			form: Form{
				StudentID: " 4 ", Title: "Essay", Description: "500 words",
				Priority: PriorityHigh, Status: StatusInProgress, DueDate: "2024-05-01",
			},
			wantJSON: `{"student_id":4,"title":"Essay","description":"500 words","priority":"high","status":"in_progress","due_date":"2024-05-01"}`,
		},
		{
			name:     "empty description and due date are omitted",
			form:     Form{StudentID: "1", Title: "T", Description: "   ", DueDate: ""},
			wantJSON: `{"student_id":1,"title":"T","priority":"medium","status":"pending"}`,
		},
		{name: "missing student", form: Form{Title: "T"}, wantFields: []string{"student_id"}},
		{name: "non numeric student", form: Form{StudentID: "abc", Title: "T"}, wantFields: []string{"student_id"}},
		{name: "missing title", form: Form{StudentID: "1"}, wantFields: []string{"title"}},
		{name: "overdue cannot be set", form: Form{StudentID: "1", Title: "T", Status: StatusOverdue}, wantFields: []string{"status"}},
		{name: "unknown priority", form: Form{StudentID: "1", Title: "T", Priority: "urgent"}, wantFields: []string{"priority"}},
		{name: "invalid due date", form: Form{StudentID: "1", Title: "T", DueDate: "01/05/2024"}, wantFields: []string{"due_date"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nt, err := tt.form.NewTodo()
			if tt.wantFields != nil {
				fldErrs := core.TranslateErrors(err)
				for _, fld := range tt.wantFields {
					assert.Contains(t, fldErrs, fld)
				}
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantJSON, marshal(t, nt))
		})
	}
}

func TestFormFrom(t *testing.T) {
	due, err := core.ParseTime("2024-06-30T00:00:00")
	require.NoError(t, err)

	tests := []struct {
		name string
		todo Todo
		want Form
	}{
		{
			name: "overdue is edited as pending",
			todo: Todo{ID: 1, StudentID: 7, Title: "T", Status: StatusOverdue, Priority: PriorityHigh, DueDate: due},
			want: Form{StudentID: "7", Title: "T", Status: StatusPending, Priority: PriorityHigh, DueDate: "2024-06-30"},
		},
		{
			name: "other statuses are kept",
			todo: Todo{ID: 2, StudentID: 1, Title: "T", Description: null.StringFrom("d"), Status: StatusCompleted, Priority: PriorityLow},
			want: Form{StudentID: "1", Title: "T", Description: "d", Status: StatusCompleted, Priority: PriorityLow},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormFrom(tt.todo))
		})
	}
}

func TestForm_UpdateTodo(t *testing.T) {
	form := Form{StudentID: "3", Title: "T", Priority: PriorityCritical, Status: StatusInProgress}
	ut, err := form.UpdateTodo()
	require.NoError(t, err)
	assert.JSONEq(t, `{"student_id":3,"title":"T","status":"in_progress","priority":"critical"}`, marshal(t, ut))

	_, err = Form{}.UpdateTodo()
	fldErrs := core.TranslateErrors(err)
	assert.Contains(t, fldErrs, "student_id")
	assert.Contains(t, fldErrs, "title")
}

func TestStatusChange(t *testing.T) {
	ut, err := StatusChange(StatusCompleted)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"completed"}`, marshal(t, ut))

	_, err = StatusChange(StatusOverdue)
	assert.Contains(t, core.TranslateErrors(err), "status")
}

func TestFilter(t *testing.T) {
	f := Filter{StudentID: "1", Status: "pending", Priority: "high"}
	assert.False(t, f.IsEmpty())

	f.Clear()
	assert.Equal(t, Filter{}, f)
	assert.Equal(t, map[string]string{"student_id": "", "status": "", "priority": ""}, f.Params())

	// clearing twice is the same as clearing once
	f.Clear()
	assert.True(t, f.IsEmpty())

	assert.Equal(t, "12", ForStudent(12).Params()["student_id"])
}

func TestTodo_IsOverdue(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := core.NewTime(now.Add(-24 * time.Hour))
	future := core.NewTime(now.Add(24 * time.Hour))

	tests := []struct {
		name string
		todo Todo
		want bool
	}{
		{name: "reported overdue", todo: Todo{Status: StatusOverdue}, want: true},
		{name: "past due pending", todo: Todo{Status: StatusPending, DueDate: past}, want: true},
		{name: "past due completed", todo: Todo{Status: StatusCompleted, DueDate: past}},
		{name: "future due", todo: Todo{Status: StatusInProgress, DueDate: future}},
		{name: "no due date", todo: Todo{Status: StatusPending}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.todo.IsOverdue(now))
		})
	}
}

func TestStats_UnmarshalJSON(t *testing.T) {
	var s Stats
	require.NoError(t, json.Unmarshal([]byte(`{"total": 4, "pending": null, "completed": 1}`), &s))
	assert.Equal(t, null.IntFrom(4), s.Total)
	assert.False(t, s.Pending.Valid)
	assert.False(t, s.Overdue.Valid)
	assert.Equal(t, 1, s.Completed.Int)
}
