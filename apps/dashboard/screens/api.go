package screens

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/tododesk/core/audit"
	"github.com/trezcool/tododesk/core/student"
	"github.com/trezcool/tododesk/core/todo"
)

var ErrNotFound = errors.New("not found")

type (
	StudentsAPI interface {
		ListStudents(ctx context.Context) ([]student.Student, error)
		CreateStudent(ctx context.Context, ns student.NewStudent) (student.Student, error)
		UpdateStudent(ctx context.Context, id int, us student.UpdateStudent) (student.Student, error)
		DeleteStudent(ctx context.Context, id int) error
	}

	TodosAPI interface {
		ListTodos(ctx context.Context, filter todo.Filter) ([]todo.Todo, error)
		CreateTodo(ctx context.Context, nt todo.NewTodo) (todo.Todo, error)
		UpdateTodo(ctx context.Context, id int, ut todo.UpdateTodo) (todo.Todo, error)
		DeleteTodo(ctx context.Context, id int) error
		TodoStats(ctx context.Context) (*todo.Stats, error)
	}

	AuditAPI interface {
		ListAuditLogs(ctx context.Context, q audit.Query) (audit.Page, error)
		RecordHistory(ctx context.Context, table string, recordID int) ([]audit.Log, error)
	}

	// API is everything the screens need from the remote API.
	API interface {
		StudentsAPI
		TodosAPI
		AuditAPI
	}
)
