package student

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tododesk/core"
)

type Student struct {
	ID           int         `json:"id"`
	UserID       int         `json:"user_id,omitempty"`
	Name         string      `json:"student_name"`
	Email        string      `json:"email"`
	Phone        null.String `json:"phone"`
	TodoCount    null.Int    `json:"todo_count,omitempty"`
	PendingCount null.Int    `json:"pending_count,omitempty"`
	CreatedAt    core.Time   `json:"created_at"`
	UpdatedAt    core.Time   `json:"updated_at"`
}

func (s Student) Key() int { return s.ID }

// Form holds the student editor fields as typed by the user.
type Form struct {
	Name  string `json:"student_name" form:"student_name"`
	Email string `json:"email" form:"email"`
	Phone string `json:"phone" form:"phone"`
}

// FormFrom prefills a Form with an existing Student.
func FormFrom(s Student) Form {
	return Form{
		Name:  s.Name,
		Email: s.Email,
		Phone: s.Phone.String,
	}
}

func (f Form) clean() Form {
	return Form{
		Name:  core.CleanString(f.Name),
		Email: core.CleanString(f.Email, true /* lower */),
		Phone: core.CleanString(f.Phone),
	}
}

// NewStudent is the payload accepted by the remote API to create a Student.
type NewStudent struct {
	Name  string  `json:"student_name" validate:"required"`
	Email string  `json:"student_email" validate:"required,email"`
	Phone *string `json:"student_phone,omitempty"`
}

// UpdateStudent is the payload accepted by the remote API to modify a Student.
type UpdateStudent struct {
	Name  string  `json:"student_name" validate:"required"`
	Email string  `json:"student_email" validate:"required,email"`
	Phone *string `json:"student_phone,omitempty"`
}

// NewStudent maps the form to a create payload. An empty phone is omitted.
func (f Form) NewStudent() (NewStudent, error) {
	f = f.clean()
	ns := NewStudent{Name: f.Name, Email: f.Email}
	if f.Phone != "" {
		ns.Phone = &f.Phone
	}
	if err := core.ValidateStruct(ns); err != nil {
		return NewStudent{}, err
	}
	return ns, nil
}

// UpdateStudent maps the form to an update payload. An empty phone is omitted.
func (f Form) UpdateStudent() (UpdateStudent, error) {
	f = f.clean()
	us := UpdateStudent{Name: f.Name, Email: f.Email}
	if f.Phone != "" {
		us.Phone = &f.Phone
	}
	if err := core.ValidateStruct(us); err != nil {
		return UpdateStudent{}, err
	}
	return us, nil
}
