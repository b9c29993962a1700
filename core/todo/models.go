package todo

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tododesk/core"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusOverdue    Status = "overdue" // reported by the remote API only
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusOverdue}

// EditableStatuses lists the statuses a user may set.
var EditableStatuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	case StatusOverdue:
		return "Overdue"
	}
	return string(s)
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

type Todo struct {
	ID          int         `json:"id"`
	StudentID   int         `json:"student_id"`
	Title       string      `json:"title"`
	Description null.String `json:"description"`
	Status      Status      `json:"status"`
	Priority    Priority    `json:"priority"`
	DueDate     core.Time   `json:"due_date"`
	CreatedAt   core.Time   `json:"created_at"`
	UpdatedAt   core.Time   `json:"updated_at"`
}

func (t Todo) Key() int { return t.ID }

// IsOverdue reports whether t is flagged overdue or is past its due date and not completed.
func (t Todo) IsOverdue(now time.Time) bool {
	if t.Status == StatusOverdue {
		return true
	}
	return t.Status != StatusCompleted && !t.DueDate.IsZero() && t.DueDate.Before(now)
}

// Stats are the aggregate counts computed by the remote API. Any field may be missing.
type Stats struct {
	Total        null.Int `json:"total"`
	Pending      null.Int `json:"pending"`
	InProgress   null.Int `json:"in_progress"`
	Completed    null.Int `json:"completed"`
	Overdue      null.Int `json:"overdue"`
	HighPriority null.Int `json:"high_priority"`
}

// Filter narrows a todo listing. Empty fields mean "all".
type Filter struct {
	StudentID string `json:"student_id" query:"student_id"`
	Status    string `json:"status" query:"status"`
	Priority  string `json:"priority" query:"priority"`
}

// Clear resets every field to "all".
func (f *Filter) Clear() {
	*f = Filter{}
}

func (f Filter) IsEmpty() bool {
	return f == Filter{}
}

// Params returns the filter as query parameters, empty values included.
func (f Filter) Params() map[string]string {
	return map[string]string{
		"student_id": core.CleanString(f.StudentID),
		"status":     core.CleanString(f.Status),
		"priority":   core.CleanString(f.Priority),
	}
}

// ForStudent returns a Filter listing the todos of one student.
func ForStudent(studentID int) Filter {
	return Filter{StudentID: strconv.Itoa(studentID)}
}

// Form holds the todo editor fields as typed by the user.
type Form struct {
	StudentID   string   `json:"student_id" form:"student_id"`
	Title       string   `json:"title" form:"title"`
	Description string   `json:"description" form:"description"`
	Priority    Priority `json:"priority" form:"priority"`
	Status      Status   `json:"status" form:"status"`
	DueDate     string   `json:"due_date" form:"due_date"`
}

// NewForm returns an empty Form with the default priority and status.
func NewForm() Form {
	return Form{Priority: PriorityMedium, Status: StatusPending}
}

// FormFrom prefills a Form with an existing Todo.
// An overdue Todo is edited as pending since overdue cannot be set.
func FormFrom(t Todo) Form {
	status := t.Status
	if status == StatusOverdue {
		status = StatusPending
	}
	return Form{
		StudentID:   strconv.Itoa(t.StudentID),
		Title:       t.Title,
		Description: t.Description.String,
		Priority:    t.Priority,
		Status:      status,
		DueDate:     t.DueDate.Date(),
	}
}

func (f Form) clean() Form {
	f.StudentID = core.CleanString(f.StudentID)
	f.Title = core.CleanString(f.Title)
	f.Description = core.CleanString(f.Description)
	f.DueDate = core.CleanString(f.DueDate)
	if f.Priority == "" {
		f.Priority = PriorityMedium
	}
	if f.Status == "" {
		f.Status = StatusPending
	}
	return f
}

func (f Form) studentID() (int, error) {
	if f.StudentID == "" {
		return 0, nil // reported by the required rule
	}
	id, err := strconv.Atoi(f.StudentID)
	if err != nil {
		return 0, core.NewValidationError(
			errors.New("invalid student"),
			core.FieldError{Field: "student_id", Error: "student_id must be a number"},
		)
	}
	return id, nil
}

// NewTodo is the payload accepted by the remote API to create a Todo.
type NewTodo struct {
	StudentID   int      `json:"student_id" validate:"required,gt=0"`
	Title       string   `json:"title" validate:"required"`
	Description *string  `json:"description,omitempty"`
	Priority    Priority `json:"priority,omitempty" validate:"omitempty,todopriority"`
	Status      Status   `json:"status,omitempty" validate:"omitempty,todostatus"`
	DueDate     *string  `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateTodo is the payload accepted by the remote API to modify a Todo.
// Nil fields are left unchanged.
type UpdateTodo struct {
	StudentID   *int      `json:"student_id,omitempty" validate:"omitempty,gt=0"`
	Title       *string   `json:"title,omitempty" validate:"omitempty,notblank"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty" validate:"omitempty,todostatus"`
	Priority    *Priority `json:"priority,omitempty" validate:"omitempty,todopriority"`
	DueDate     *string   `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// NewTodo maps the form to a create payload. Empty description and due date are omitted.
func (f Form) NewTodo() (NewTodo, error) {
	f = f.clean()
	sid, err := f.studentID()
	if err != nil {
		return NewTodo{}, err
	}
	nt := NewTodo{
		StudentID:   sid,
		Title:       f.Title,
		Description: optional(f.Description),
		Priority:    f.Priority,
		Status:      f.Status,
		DueDate:     optional(f.DueDate),
	}
	if err := core.ValidateStruct(nt); err != nil {
		return NewTodo{}, err
	}
	return nt, nil
}

// UpdateTodo maps the form to an update payload. Empty description and due date are omitted.
func (f Form) UpdateTodo() (UpdateTodo, error) {
	f = f.clean()
	if f.StudentID == "" || f.Title == "" {
		var flds []core.FieldError
		if f.StudentID == "" {
			flds = append(flds, core.FieldError{Field: "student_id", Error: "this field is required"})
		}
		if f.Title == "" {
			flds = append(flds, core.FieldError{Field: "title", Error: "this field is required"})
		}
		return UpdateTodo{}, core.NewValidationError(errors.New("invalid data"), flds...)
	}
	sid, err := f.studentID()
	if err != nil {
		return UpdateTodo{}, err
	}
	ut := UpdateTodo{
		StudentID:   &sid,
		Title:       &f.Title,
		Description: optional(f.Description),
		Status:      &f.Status,
		Priority:    &f.Priority,
		DueDate:     optional(f.DueDate),
	}
	if err := core.ValidateStruct(ut); err != nil {
		return UpdateTodo{}, err
	}
	return ut, nil
}

// StatusChange is the payload of an inline status change: the status and nothing else.
func StatusChange(s Status) (UpdateTodo, error) {
	ut := UpdateTodo{Status: &s}
	if err := core.ValidateStruct(ut); err != nil {
		return UpdateTodo{}, err
	}
	return ut, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
