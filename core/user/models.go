package user

import "github.com/trezcool/tododesk/core"

const (
	RoleUser  = "user"
	RoleAdmin = "notset" // the remote API grants admin rights to the unset role
)

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt core.Time `json:"created_at"`
	LastLogin core.Time `json:"last_login"`
}

// IsAdmin reports whether the remote API lets this User register new users.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Credentials are what a User provides to log in.
type Credentials struct {
	Username string `json:"username" form:"username" validate:"required,notblank"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (c *Credentials) Validate() error {
	c.Username = core.CleanString(c.Username)
	return core.ValidateStruct(c)
}

// Registration defines what information may be provided to create a new User.
type Registration struct {
	Username string `json:"username" form:"username" validate:"required,notblank"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (r *Registration) Validate() error {
	r.Username = core.CleanString(r.Username)
	r.Email = core.CleanString(r.Email, true /* lower */)
	return core.ValidateStruct(r)
}
