package screens

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/tododesk/core"
	"github.com/trezcool/tododesk/core/dashboard"
	"github.com/trezcool/tododesk/core/student"
	"github.com/trezcool/tododesk/core/todo"
)

type StudentsView struct {
	Loaded     bool
	Students   []student.Student
	ModalOpen  bool
	Editing    *student.Student
	Form       student.Form
	FormErrors map[string]string

	// the student whose todos are being viewed
	Selected      *student.Student
	SelectedTodos []todo.Todo
}

// Students is the students page controller.
type Students struct {
	students StudentsAPI
	todos    TodosAPI
	notifier core.Notifier

	mu   sync.Mutex
	view StudentsView
}

func NewStudents(students StudentsAPI, todos TodosAPI, notifier core.Notifier) *Students {
	return &Students{students: students, todos: todos, notifier: notifier}
}

func (s *Students) View() StudentsView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view
	v.Students = append([]student.Student(nil), v.Students...)
	v.SelectedTodos = append([]todo.Todo(nil), v.SelectedTodos...)
	return v
}

// Load fetches the students. On failure the list is emptied.
func (s *Students) Load(ctx context.Context) error {
	students, err := s.students.ListStudents(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Loaded = true
	if err != nil {
		s.view.Students = []student.Student{}
		s.notifier.Error("Failed to load students")
		return errors.Wrap(err, "loading students")
	}
	s.view.Students = students
	return nil
}

func (s *Students) OpenCreate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.ModalOpen = true
	s.view.Editing = nil
	s.view.Form = student.Form{}
	s.view.FormErrors = nil
}

// OpenEdit prefills the form with a loaded student.
func (s *Students) OpenEdit(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := core.Find(s.view.Students, id)
	if !ok {
		return errors.Wrapf(ErrNotFound, "student %d", id)
	}
	s.view.ModalOpen = true
	s.view.Editing = &st
	s.view.Form = student.FormFrom(st)
	s.view.FormErrors = nil
	return nil
}

func (s *Students) CloseModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.ModalOpen = false
	s.view.Editing = nil
	s.view.Form = student.Form{}
	s.view.FormErrors = nil
	s.view.Selected = nil
	s.view.SelectedTodos = nil
}

// Submit creates or updates a student from form, depending on whether one is being edited.
// A created student is appended, an updated one replaced in place.
func (s *Students) Submit(ctx context.Context, form student.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Form = form

	if s.view.Editing != nil {
		us, err := form.UpdateStudent()
		if err != nil {
			return s.invalid(err)
		}
		updated, err := s.students.UpdateStudent(ctx, s.view.Editing.ID, us)
		if err != nil {
			s.notifier.Error(core.ErrorMessage(err, "Operation failed"))
			return errors.Wrap(err, "updating student")
		}
		s.view.Students = core.Replace(s.view.Students, updated)
		s.notifier.Success("Student updated")
	} else {
		ns, err := form.NewStudent()
		if err != nil {
			return s.invalid(err)
		}
		created, err := s.students.CreateStudent(ctx, ns)
		if err != nil {
			s.notifier.Error(core.ErrorMessage(err, "Operation failed"))
			return errors.Wrap(err, "creating student")
		}
		s.view.Students = core.Append(s.view.Students, created)
		s.notifier.Success("Student created")
	}

	s.view.ModalOpen = false
	s.view.Editing = nil
	s.view.Form = student.Form{}
	s.view.FormErrors = nil
	return nil
}

func (s *Students) invalid(err error) error {
	s.view.FormErrors = core.TranslateErrors(err)
	s.notifier.Error("Please fix the highlighted fields")
	return err
}

func (s *Students) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.students.DeleteStudent(ctx, id); err != nil {
		s.notifier.Error("Failed to delete student")
		return errors.Wrap(err, "deleting student")
	}
	s.view.Students = core.Remove(s.view.Students, id)
	s.notifier.Success("Student deleted")
	return nil
}

// ViewTodos loads the todos of one student.
func (s *Students) ViewTodos(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := core.Find(s.view.Students, id)
	if !ok {
		st = student.Student{ID: id}
	}
	todos, err := s.todos.ListTodos(ctx, todo.ForStudent(id))
	if err != nil {
		s.notifier.Error("Failed to load todos")
		return errors.Wrap(err, "loading student todos")
	}
	if st.TodoCount.IsZero() {
		st = dashboard.WithTodoCounts([]student.Student{st}, todos)[0]
	}
	s.view.Selected = &st
	s.view.SelectedTodos = todos
	return nil
}

func (s *Students) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = StudentsView{}
}
